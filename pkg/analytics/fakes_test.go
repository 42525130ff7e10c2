package analytics

import (
	"context"
	"sync"
	"sync/atomic"
)

type fakePermissions struct {
	actorID  int64
	actorErr error
	granted  map[string]bool
	permErr  error

	mu      sync.Mutex
	checked []int64
}

func (f *fakePermissions) CurrentActorID(ctx context.Context) (int64, error) {
	return f.actorID, f.actorErr
}

func (f *fakePermissions) HasPermission(ctx context.Context, actorID int64, permission string) (bool, error) {
	f.mu.Lock()
	f.checked = append(f.checked, actorID)
	f.mu.Unlock()
	if f.permErr != nil {
		return false, f.permErr
	}
	return f.granted[permission], nil
}

type fakeOwnership struct {
	stores map[int64][]int64
	err    error
}

func (f *fakeOwnership) StoreIDsOwnedBy(ctx context.Context, actorID int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.stores[actorID], nil
}

// countingRepos implements every repository interface with fixed answers
// per store and counts calls
type countingRepos struct {
	gross     map[int64]string
	refunds   map[int64]string
	orders    map[int64]int64
	tickets   map[int64]int64
	rsvps     map[int64]int64
	active    map[int64]int64
	cancelled map[int64]int64

	grossErr   error
	refundsErr error
	ordersErr  error
	ticketsErr error
	rsvpsErr   error
	eventsErr  error

	calls atomic.Int64

	mu          sync.Mutex
	lastFilters []OrderFilter
}

func newCountingRepos() *countingRepos {
	return &countingRepos{
		gross:     map[int64]string{},
		refunds:   map[int64]string{},
		orders:    map[int64]int64{},
		tickets:   map[int64]int64{},
		rsvps:     map[int64]int64{},
		active:    map[int64]int64{},
		cancelled: map[int64]int64{},
	}
}

func (r *countingRepos) repositories() Repositories {
	return Repositories{Orders: r, Refunds: r, OrderItems: r, RSVPs: r, Events: r}
}

func (r *countingRepos) record(f OrderFilter) {
	r.calls.Add(1)
	r.mu.Lock()
	r.lastFilters = append(r.lastFilters, f)
	r.mu.Unlock()
}

func (r *countingRepos) SumCompletedTotals(ctx context.Context, f OrderFilter) (string, error) {
	r.record(f)
	return r.gross[f.StoreID], r.grossErr
}

func (r *countingRepos) CountCompleted(ctx context.Context, f OrderFilter) (int64, error) {
	r.record(f)
	return r.orders[f.StoreID], r.ordersErr
}

func (r *countingRepos) SumCompletedRefunds(ctx context.Context, f OrderFilter) (string, error) {
	r.record(f)
	return r.refunds[f.StoreID], r.refundsErr
}

func (r *countingRepos) SumPaidQuantities(ctx context.Context, f OrderFilter) (int64, error) {
	r.record(f)
	return r.tickets[f.StoreID], r.ticketsErr
}

func (r *countingRepos) CountConfirmed(ctx context.Context, storeID, startTS, endTS int64) (int64, error) {
	r.calls.Add(1)
	return r.rsvps[storeID], r.rsvpsErr
}

func (r *countingRepos) CountActive(ctx context.Context, storeID, asOfTS int64) (int64, error) {
	r.calls.Add(1)
	return r.active[storeID], r.eventsErr
}

func (r *countingRepos) CountCancelled(ctx context.Context, storeID, asOfTS int64) (int64, error) {
	r.calls.Add(1)
	return r.cancelled[storeID], r.eventsErr
}
