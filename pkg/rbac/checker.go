package rbac

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/boxoffice/pkg/contextkeys"
)

// PermissionChecker answers permission questions from the user_roles and
// roles tables. Role assignments past their expires_at (unix seconds) are
// ignored.
type PermissionChecker struct {
	db  *sql.DB
	now func() time.Time
}

// NewPermissionChecker creates a new permission checker
func NewPermissionChecker(db *sql.DB) *PermissionChecker {
	return &PermissionChecker{db: db, now: time.Now}
}

// CurrentActorID returns the authenticated actor from ctx. The id is never
// taken from request parameters.
func (pc *PermissionChecker) CurrentActorID(ctx context.Context) (int64, error) {
	actorID, ok := contextkeys.GetActorID(ctx)
	if !ok || actorID <= 0 {
		return 0, ErrNoActor
	}
	return actorID, nil
}

// HasPermission reports whether any role assigned to actorID, directly or
// through parent roles, grants permission
func (pc *PermissionChecker) HasPermission(ctx context.Context, actorID int64, permission string) (bool, error) {
	roles, err := pc.GetUserRoles(ctx, actorID)
	if err != nil {
		return false, fmt.Errorf("failed to get user roles: %w", err)
	}

	for _, role := range roles {
		if role.HasPermission(permission) {
			return true, nil
		}
	}
	return false, nil
}

// GetUserRoles returns the actor's unexpired roles with inherited roles
// appended
func (pc *PermissionChecker) GetUserRoles(ctx context.Context, actorID int64) ([]Role, error) {
	query := `
		SELECT r.id, r.name, r.permissions, r.parent_role_id
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = $1
		  AND (ur.expires_at IS NULL OR ur.expires_at > $2)
		ORDER BY r.id
	`
	rows, err := pc.db.QueryContext(ctx, query, actorID, pc.now().Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var direct []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		direct = append(direct, *role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[int64]bool)
	var roles []Role
	for _, role := range direct {
		resolved, err := pc.resolveRoleInheritance(ctx, role, seen, 0)
		if err != nil {
			return nil, err
		}
		roles = append(roles, resolved...)
	}
	return roles, nil
}

// resolveRoleInheritance returns role followed by its ancestors. Roles
// already visited are skipped so cycles terminate.
func (pc *PermissionChecker) resolveRoleInheritance(ctx context.Context, role Role, seen map[int64]bool, depth int) ([]Role, error) {
	if seen[role.ID] {
		return nil, nil
	}
	if depth >= maxRoleDepth {
		return nil, fmt.Errorf("role %d exceeds inheritance depth %d", role.ID, maxRoleDepth)
	}
	seen[role.ID] = true

	roles := []Role{role}
	if role.ParentRoleID == nil {
		return roles, nil
	}

	parent, err := pc.getRole(ctx, *role.ParentRoleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get parent role: %w", err)
	}
	parents, err := pc.resolveRoleInheritance(ctx, *parent, seen, depth+1)
	if err != nil {
		return nil, err
	}
	return append(roles, parents...), nil
}

func (pc *PermissionChecker) getRole(ctx context.Context, roleID int64) (*Role, error) {
	row := pc.db.QueryRowContext(ctx,
		`SELECT id, name, permissions, parent_role_id FROM roles WHERE id = $1`, roleID)
	role, err := scanRole(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("role %d not found", roleID)
	}
	return role, err
}

// scanRole scans a role from a database row
func scanRole(scanner interface {
	Scan(dest ...interface{}) error
}) (*Role, error) {
	var role Role
	var permissionsJSON sql.NullString
	var parentRoleID sql.NullInt64

	if err := scanner.Scan(&role.ID, &role.Name, &permissionsJSON, &parentRoleID); err != nil {
		return nil, err
	}

	if parentRoleID.Valid {
		id := parentRoleID.Int64
		role.ParentRoleID = &id
	}

	// A role whose permissions cannot be parsed grants nothing
	role.Permissions = []string{}
	if permissionsJSON.Valid && permissionsJSON.String != "" {
		if err := json.Unmarshal([]byte(permissionsJSON.String), &role.Permissions); err != nil {
			role.Permissions = []string{}
		}
	}

	return &role, nil
}
