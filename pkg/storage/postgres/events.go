package postgres

import (
	"context"
	"fmt"
)

// RSVPRepository reads RSVPs through their event's store
type RSVPRepository struct {
	db *DB
}

// NewRSVPRepository creates an RSVP repository
func NewRSVPRepository(db *DB) *RSVPRepository {
	return &RSVPRepository{db: db}
}

// CountConfirmed counts confirmed RSVPs created in [startTS, endTS] for
// events of the store
func (r *RSVPRepository) CountConfirmed(ctx context.Context, storeID, startTS, endTS int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM rsvps rv
		JOIN events e ON e.id = rv.event_id
		WHERE e.store_id = $1
		  AND rv.status = $2
		  AND rv.created_at BETWEEN $3 AND $4
	`
	var count int64
	if err := r.db.Reader().QueryRowContext(ctx, query, storeID, RSVPStatusConfirmed, startTS, endTS).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rsvps: %w", err)
	}
	return count, nil
}

// EventRepository reads a store's events
type EventRepository struct {
	db *DB
}

// NewEventRepository creates an event repository
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

// CountActive counts events that existed at asOfTS, are not cancelled and
// had not ended yet
func (r *EventRepository) CountActive(ctx context.Context, storeID, asOfTS int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM events
		WHERE store_id = $1
		  AND status <> $2
		  AND created_at <= $3
		  AND end_at >= $3
	`
	var count int64
	if err := r.db.Reader().QueryRowContext(ctx, query, storeID, EventStatusCancelled, asOfTS).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count active events: %w", err)
	}
	return count, nil
}

// CountCancelled counts cancelled events created at or before asOfTS
func (r *EventRepository) CountCancelled(ctx context.Context, storeID, asOfTS int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM events
		WHERE store_id = $1
		  AND status = $2
		  AND created_at <= $3
	`
	var count int64
	if err := r.db.Reader().QueryRowContext(ctx, query, storeID, EventStatusCancelled, asOfTS).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count cancelled events: %w", err)
	}
	return count, nil
}
