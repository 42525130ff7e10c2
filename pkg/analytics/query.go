package analytics

import (
	"sort"
	"strings"
)

// Scope is the authorization boundary of a report
type Scope string

const (
	ScopeVendor Scope = "vendor"
	ScopeAdmin  Scope = "admin"
)

// ParseScope converts external input into a Scope
func ParseScope(s string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(s))) {
	case ScopeVendor:
		return ScopeVendor, nil
	case ScopeAdmin:
		return ScopeAdmin, nil
	default:
		return "", newViolation(ErrInvalidScope, CodeInvalidScope, "scope must be vendor or admin")
	}
}

// Query describes a requested report. It is immutable once built; build a new
// one to re-run with different parameters.
type Query struct {
	scope    Scope
	storeIDs []int64
	startTS  *int64
	endTS    *int64
	currency *string
}

// QueryOption sets an optional query attribute
type QueryOption func(*Query)

// WithStart sets the window start (unix seconds)
func WithStart(ts int64) QueryOption {
	return func(q *Query) { q.startTS = &ts }
}

// WithEnd sets the window end (unix seconds)
func WithEnd(ts int64) QueryOption {
	return func(q *Query) { q.endTS = &ts }
}

// WithWindow sets both ends of the window
func WithWindow(start, end int64) QueryOption {
	return func(q *Query) {
		q.startTS = &start
		q.endTS = &end
	}
}

// WithCurrency sets the ISO 4217 currency code. The value is stored as given;
// format validation belongs to the guard.
func WithCurrency(code string) QueryOption {
	return func(q *Query) { q.currency = &code }
}

// NewQuery builds a query. storeIDs are the caller-requested ids and only
// matter for admin scope; they are copied, never validated here.
func NewQuery(scope Scope, storeIDs []int64, opts ...QueryOption) *Query {
	q := &Query{
		scope:    scope,
		storeIDs: append([]int64(nil), storeIDs...),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Scope returns the requested scope
func (q *Query) Scope() Scope {
	return q.scope
}

// StoreIDs returns a copy of the requested store ids in request order
func (q *Query) StoreIDs() []int64 {
	return append([]int64(nil), q.storeIDs...)
}

// StartTS returns the window start and whether it was set
func (q *Query) StartTS() (int64, bool) {
	if q.startTS == nil {
		return 0, false
	}
	return *q.startTS, true
}

// EndTS returns the window end and whether it was set
func (q *Query) EndTS() (int64, bool) {
	if q.endTS == nil {
		return 0, false
	}
	return *q.endTS, true
}

// Currency returns the currency code and whether it was set
func (q *Query) Currency() (string, bool) {
	if q.currency == nil {
		return "", false
	}
	return *q.currency, true
}

// NormalizeStoreIDs returns a deduplicated, ascending copy of ids
func NormalizeStoreIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// sameStoreSet reports whether a and b contain exactly the same ids
func sameStoreSet(a, b []int64) bool {
	na, nb := NormalizeStoreIDs(a), NormalizeStoreIDs(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
