package postgres

import (
	"context"
	"fmt"
)

// StoreRepository answers store ownership questions
type StoreRepository struct {
	db *DB
}

// NewStoreRepository creates a store repository
func NewStoreRepository(db *DB) *StoreRepository {
	return &StoreRepository{db: db}
}

// StoreIDsOwnedBy returns the online stores owned by actorID in ascending order
func (r *StoreRepository) StoreIDsOwnedBy(ctx context.Context, actorID int64) ([]int64, error) {
	query := `
		SELECT id
		FROM stores
		WHERE owner_id = $1 AND type = $2
		ORDER BY id
	`
	ids, err := r.queryIDs(ctx, query, actorID, StoreTypeOnline)
	if err != nil {
		return nil, fmt.Errorf("failed to list stores owned by %d: %w", actorID, err)
	}
	return ids, nil
}

// ListOnlineStoreIDs returns every online store in ascending order
func (r *StoreRepository) ListOnlineStoreIDs(ctx context.Context) ([]int64, error) {
	ids, err := r.queryIDs(ctx, `SELECT id FROM stores WHERE type = $1 ORDER BY id`, StoreTypeOnline)
	if err != nil {
		return nil, fmt.Errorf("failed to list online stores: %w", err)
	}
	return ids, nil
}

func (r *StoreRepository) queryIDs(ctx context.Context, query string, args ...interface{}) ([]int64, error) {
	rows, err := r.db.Reader().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
