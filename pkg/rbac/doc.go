// Package rbac resolves an actor's permissions from role assignments.
//
// Roles carry a JSON array of permission names and may inherit from a
// parent role:
//
//	roles(id, name, permissions, parent_role_id)
//	user_roles(user_id, role_id, expires_at)
//
// PermissionChecker satisfies analytics.PermissionChecker. The current actor
// always comes from the request context (contextkeys.ActorIDKey), so a caller
// cannot ask about someone else by passing an id.
//
//	checker := rbac.NewPermissionChecker(db)
//	ctx = contextkeys.WithActorID(ctx, userID)
//	actorID, err := checker.CurrentActorID(ctx)
//	ok, err := checker.HasPermission(ctx, actorID, "administer commerce_store")
package rbac
