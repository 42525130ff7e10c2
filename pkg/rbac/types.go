package rbac

import "errors"

// ErrNoActor is returned when the context carries no authenticated actor
var ErrNoActor = errors.New("no authenticated actor")

// maxRoleDepth bounds parent-role resolution
const maxRoleDepth = 10

// Role is a named set of permissions, optionally inheriting from a parent role
type Role struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Permissions  []string `json:"permissions"`
	ParentRoleID *int64   `json:"parent_role_id,omitempty"`
}

// HasPermission reports whether the role itself lists permission
func (r Role) HasPermission(permission string) bool {
	for _, p := range r.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}
