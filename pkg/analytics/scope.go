package analytics

import (
	"context"
)

// Admin permissions accepted for cross-tenant reports
const (
	PermissionStoreAdmin    = "administer commerce_store"
	PermissionAttendeeAdmin = "administer event attendees"
)

// PermissionChecker answers permission questions about the authenticated caller
type PermissionChecker interface {
	// CurrentActorID returns the id of the authenticated caller
	CurrentActorID(ctx context.Context) (int64, error)

	// HasPermission reports whether actorID holds the named permission
	HasPermission(ctx context.Context, actorID int64, permission string) (bool, error)
}

// StoreOwnership looks up the online stores owned by an actor
type StoreOwnership interface {
	StoreIDsOwnedBy(ctx context.Context, actorID int64) ([]int64, error)
}

// ScopeResolver turns a query's scope into the trusted set of store ids the
// caller may read. It never logs; the guard is the only audit sink.
type ScopeResolver struct {
	permissions PermissionChecker
	ownership   StoreOwnership
}

// NewScopeResolver creates a resolver
func NewScopeResolver(permissions PermissionChecker, ownership StoreOwnership) *ScopeResolver {
	return &ScopeResolver{
		permissions: permissions,
		ownership:   ownership,
	}
}

// ResolveEffectiveStoreIDs returns the normalized effective store ids for q.
// Any doubt results in an error; there is no default-permit path.
func (r *ScopeResolver) ResolveEffectiveStoreIDs(ctx context.Context, q *Query) ([]int64, error) {
	switch q.Scope() {
	case ScopeVendor:
		actorID, err := r.currentActor(ctx)
		if err != nil {
			return nil, err
		}
		return r.resolveVendor(ctx, actorID)
	case ScopeAdmin:
		actorID, err := r.currentActor(ctx)
		if err != nil {
			return nil, err
		}
		return r.resolveAdmin(ctx, actorID, q.StoreIDs())
	default:
		return nil, newViolation(ErrInvalidScope, CodeInvalidScope, "scope must be vendor or admin")
	}
}

func (r *ScopeResolver) currentActor(ctx context.Context) (int64, error) {
	actorID, err := r.permissions.CurrentActorID(ctx)
	if err != nil || actorID <= 0 {
		return 0, newViolation(ErrAccessDenied, CodeNoAuthenticatedActor, "no authenticated caller")
	}
	return actorID, nil
}

func (r *ScopeResolver) resolveVendor(ctx context.Context, actorID int64) ([]int64, error) {
	owned, err := r.ownership.StoreIDsOwnedBy(ctx, actorID)
	if err != nil {
		return nil, newViolation(ErrAccessDenied, CodeStoreOwnershipLookupFailed, "store ownership could not be verified")
	}

	ids := make([]int64, 0, len(owned))
	for _, id := range owned {
		if id > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, newViolation(ErrAccessDenied, CodeNoVendorStore, "no vendor store found")
	}

	return NormalizeStoreIDs(ids), nil
}

func (r *ScopeResolver) resolveAdmin(ctx context.Context, actorID int64, requested []int64) ([]int64, error) {
	allowed, err := r.hasAdminPermission(ctx, actorID)
	if err != nil {
		return nil, newViolation(ErrAccessDenied, CodePermissionLookupFailed, "permission could not be verified")
	}
	if !allowed {
		return nil, newViolation(ErrAccessDenied, CodeAdminPermissionRequired, "admin permission required")
	}

	if len(requested) == 0 {
		return nil, newViolation(ErrAccessDenied, CodeAdminMissingStoreIDs, "admin scope requires store ids")
	}
	for _, id := range requested {
		if id <= 0 {
			return nil, newViolation(ErrAccessDenied, CodeAdminInvalidStoreID, "store ids must be positive")
		}
	}

	return NormalizeStoreIDs(requested), nil
}

func (r *ScopeResolver) hasAdminPermission(ctx context.Context, actorID int64) (bool, error) {
	for _, perm := range []string{PermissionStoreAdmin, PermissionAttendeeAdmin} {
		ok, err := r.permissions.HasPermission(ctx, actorID, perm)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}
