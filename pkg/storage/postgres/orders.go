package postgres

import (
	"context"
	"fmt"

	"github.com/platinummonkey/boxoffice/pkg/analytics"
)

// OrderRepository reads completed orders
type OrderRepository struct {
	db *DB
}

// NewOrderRepository creates an order repository
func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// SumCompletedTotals sums order totals. The sum is returned as text so no
// precision is lost before conversion to cents.
func (r *OrderRepository) SumCompletedTotals(ctx context.Context, f analytics.OrderFilter) (string, error) {
	query := `
		SELECT COALESCE(SUM(o.total_number), 0)::text
		FROM orders o
		WHERE o.store_id = $1
		  AND o.state = $2
		  AND o.placed_at BETWEEN $3 AND $4
		  AND ($5::text = '' OR o.total_currency = $5)
	`
	var total string
	err := r.db.Reader().QueryRowContext(ctx, query,
		f.StoreID, OrderStateCompleted, f.StartTS, f.EndTS, f.Currency,
	).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("failed to sum order totals: %w", err)
	}
	return total, nil
}

// CountCompleted counts orders matching the same filter as SumCompletedTotals
func (r *OrderRepository) CountCompleted(ctx context.Context, f analytics.OrderFilter) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM orders o
		WHERE o.store_id = $1
		  AND o.state = $2
		  AND o.placed_at BETWEEN $3 AND $4
		  AND ($5::text = '' OR o.total_currency = $5)
	`
	var count int64
	err := r.db.Reader().QueryRowContext(ctx, query,
		f.StoreID, OrderStateCompleted, f.StartTS, f.EndTS, f.Currency,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}
	return count, nil
}

// RefundRepository reads the refund log
type RefundRepository struct {
	db *DB
}

// NewRefundRepository creates a refund repository
func NewRefundRepository(db *DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// SumCompletedRefunds sums completed refunds created in the window against
// the store's completed orders. Historical rows store currency in mixed
// case, so it is compared case-insensitively.
func (r *RefundRepository) SumCompletedRefunds(ctx context.Context, f analytics.OrderFilter) (string, error) {
	query := `
		SELECT COALESCE(SUM(rf.amount), 0)::text
		FROM refunds rf
		JOIN orders o ON o.id = rf.order_id
		WHERE o.store_id = $1
		  AND o.state = $2
		  AND rf.status = $3
		  AND rf.created_at BETWEEN $4 AND $5
		  AND ($6::text = '' OR UPPER(rf.currency) = UPPER($6))
	`
	var total string
	err := r.db.Reader().QueryRowContext(ctx, query,
		f.StoreID, OrderStateCompleted, RefundStatusCompleted, f.StartTS, f.EndTS, f.Currency,
	).Scan(&total)
	if err != nil {
		return "", fmt.Errorf("failed to sum refunds: %w", err)
	}
	return total, nil
}

// OrderItemRepository reads line items
type OrderItemRepository struct {
	db *DB
}

// NewOrderItemRepository creates an order item repository
func NewOrderItemRepository(db *DB) *OrderItemRepository {
	return &OrderItemRepository{db: db}
}

// SumPaidQuantities sums quantities of priced items on completed orders.
// Free items (RSVP placeholders, comps) are excluded. Items are not
// restricted to a particular event.
func (r *OrderItemRepository) SumPaidQuantities(ctx context.Context, f analytics.OrderFilter) (int64, error) {
	query := `
		SELECT COALESCE(SUM(oi.quantity), 0)
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.store_id = $1
		  AND o.state = $2
		  AND o.placed_at BETWEEN $3 AND $4
		  AND oi.unit_price_number > 0
		  AND ($5::text = '' OR oi.unit_price_currency = $5)
	`
	var quantity int64
	err := r.db.Reader().QueryRowContext(ctx, query,
		f.StoreID, OrderStateCompleted, f.StartTS, f.EndTS, f.Currency,
	).Scan(&quantity)
	if err != nil {
		return 0, fmt.Errorf("failed to sum ticket quantities: %w", err)
	}
	return quantity, nil
}
