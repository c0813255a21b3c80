package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/entity"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
)

// --- User assignments ---

func (s *Store) AssignUser(ctx context.Context, a *tenant.UserAssignment) error {
	t, u := a.TenantRef(), a.UserRef()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_assignments (tenant_id, user_id) VALUES ($1, $2)`, t.ID, u.ID)
	if err != nil {
		return conflictWrap(err, "assign user %s to tenant %s", u.ID, t.ID)
	}
	return nil
}

func (s *Store) RevokeUser(ctx context.Context, tenantID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM user_assignments WHERE tenant_id = $1 AND user_id = $2`, tenantID, userID)
	return execExpectOne(tag, err, "revoke user %s from tenant %s", userID, tenantID)
}

func (s *Store) ListUserAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.UserAssignment, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT u.id, u.name, u.email, u.enabled, u.created_at, u.created_by, u.modified_at, u.modified_by
		 FROM user_assignments ua JOIN users u ON u.id = ua.user_id
		 WHERE ua.tenant_id = $1
		 ORDER BY u.name ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list user assignments %s: %w", tenantID, err)
	}
	defer rows.Close()

	var out []*tenant.UserAssignment
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user assignment: %w", err)
		}
		a, err := tenant.NewUserAssignment(t, u)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return orEmpty(out), rows.Err()
}

// --- Role assignments ---

func (s *Store) CreateRoleAssignment(ctx context.Context, a *tenant.RoleAssignment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO role_assignments (id, tenant_id, role_id, active, deleted, created_at, created_by, modified_at, modified_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Tenant().ID, a.Role().ID, a.Active, a.Deleted,
		a.CreatedAt, a.CreatedBy, a.ModifiedAt, a.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create role assignment %s", a.ID)
	}
	return nil
}

func (s *Store) GetRoleAssignment(ctx context.Context, id uuid.UUID) (*tenant.RoleAssignment, error) {
	var tenantID, roleID uuid.UUID
	var active, deleted bool
	var audit entity.Audit
	err := s.pool.QueryRow(ctx,
		`SELECT tenant_id, role_id, active, deleted, created_at, created_by, modified_at, modified_by
		 FROM role_assignments WHERE id = $1`, id,
	).Scan(&tenantID, &roleID, &active, &deleted,
		&audit.CreatedAt, &audit.CreatedBy, &audit.ModifiedAt, &audit.ModifiedBy)
	if err != nil {
		return nil, notFoundWrap(err, "get role assignment %s", id)
	}

	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	r, err := s.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	return tenant.RestoreRoleAssignment(id, t, r, active, deleted, audit), nil
}

func (s *Store) UpdateRoleAssignment(ctx context.Context, a *tenant.RoleAssignment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE role_assignments SET active = $2, deleted = $3, modified_at = $4, modified_by = $5
		 WHERE id = $1`,
		a.ID, a.Active, a.Deleted, a.ModifiedAt, a.ModifiedBy)
	return execExpectOne(tag, err, "update role assignment %s", a.ID)
}

// ListRoleAssignments returns the tenant's assignments that are not
// soft-deleted.
func (s *Store) ListRoleAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.RoleAssignment, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT ra.id, ra.active, ra.deleted, ra.created_at, ra.created_by, ra.modified_at, ra.modified_by,
		        r.id, r.name, r.description, r.created_at, r.created_by, r.modified_at, r.modified_by
		 FROM role_assignments ra JOIN roles r ON r.id = ra.role_id
		 WHERE ra.tenant_id = $1 AND NOT ra.deleted
		 ORDER BY ra.created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list role assignments %s: %w", tenantID, err)
	}
	defer rows.Close()

	var out []*tenant.RoleAssignment
	for rows.Next() {
		var id uuid.UUID
		var active, deleted bool
		var audit entity.Audit
		r, err := scanRole(prefixScan{rows, []any{&id, &active, &deleted,
			&audit.CreatedAt, &audit.CreatedBy, &audit.ModifiedAt, &audit.ModifiedBy}})
		if err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		out = append(out, tenant.RestoreRoleAssignment(id, t, r, active, deleted, audit))
	}
	return orEmpty(out), rows.Err()
}

// --- Group assignments ---

func (s *Store) CreateGroupAssignment(ctx context.Context, a *tenant.GroupAssignment) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO group_assignments (id, tenant_id, group_id, active, deleted, created_at, created_by, modified_at, modified_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		a.ID, a.Tenant().ID, a.Group().ID, a.Active, a.Deleted,
		a.CreatedAt, a.CreatedBy, a.ModifiedAt, a.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create group assignment %s", a.ID)
	}
	return nil
}

func (s *Store) GetGroupAssignment(ctx context.Context, id uuid.UUID) (*tenant.GroupAssignment, error) {
	var tenantID, groupID uuid.UUID
	var active, deleted bool
	var audit entity.Audit
	err := s.pool.QueryRow(ctx,
		`SELECT tenant_id, group_id, active, deleted, created_at, created_by, modified_at, modified_by
		 FROM group_assignments WHERE id = $1`, id,
	).Scan(&tenantID, &groupID, &active, &deleted,
		&audit.CreatedAt, &audit.CreatedBy, &audit.ModifiedAt, &audit.ModifiedBy)
	if err != nil {
		return nil, notFoundWrap(err, "get group assignment %s", id)
	}

	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	g, err := s.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return tenant.RestoreGroupAssignment(id, t, g, active, deleted, audit), nil
}

func (s *Store) UpdateGroupAssignment(ctx context.Context, a *tenant.GroupAssignment) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE group_assignments SET active = $2, deleted = $3, modified_at = $4, modified_by = $5
		 WHERE id = $1`,
		a.ID, a.Active, a.Deleted, a.ModifiedAt, a.ModifiedBy)
	return execExpectOne(tag, err, "update group assignment %s", a.ID)
}

// ListGroupAssignments returns the tenant's assignments that are not
// soft-deleted.
func (s *Store) ListGroupAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.GroupAssignment, error) {
	t, err := s.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT ga.id, ga.active, ga.deleted, ga.created_at, ga.created_by, ga.modified_at, ga.modified_by,
		        g.id, g.name, g.description, g.created_at, g.created_by, g.modified_at, g.modified_by
		 FROM group_assignments ga JOIN principal_groups g ON g.id = ga.group_id
		 WHERE ga.tenant_id = $1 AND NOT ga.deleted
		 ORDER BY ga.created_at ASC`, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list group assignments %s: %w", tenantID, err)
	}
	defer rows.Close()

	var out []*tenant.GroupAssignment
	for rows.Next() {
		var id uuid.UUID
		var active, deleted bool
		var audit entity.Audit
		g, err := scanGroup(prefixScan{rows, []any{&id, &active, &deleted,
			&audit.CreatedAt, &audit.CreatedBy, &audit.ModifiedAt, &audit.ModifiedBy}})
		if err != nil {
			return nil, fmt.Errorf("scan group assignment: %w", err)
		}
		out = append(out, tenant.RestoreGroupAssignment(id, t, g, active, deleted, audit))
	}
	return orEmpty(out), rows.Err()
}

// prefixScan prepends fixed destinations to a scan so an entity scanner
// can read the trailing columns of a joined row.
type prefixScan struct {
	row    scannable
	prefix []any
}

func (p prefixScan) Scan(dest ...any) error {
	return p.row.Scan(append(p.prefix, dest...)...)
}
