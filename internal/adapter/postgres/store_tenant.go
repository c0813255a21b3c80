package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/tenant"
)

const tenantColumns = `id, name, url, is_root, active, deleted, created_at, created_by, modified_at, modified_by`

func scanTenant(row scannable) (*tenant.Tenant, error) {
	var s tenant.Snapshot
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.IsRoot, &s.Active, &s.Deleted,
		&s.CreatedAt, &s.CreatedBy, &s.ModifiedAt, &s.ModifiedBy)
	if err != nil {
		return nil, err
	}
	return tenant.Restore(s), nil
}

// --- Tenant CRUD ---

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	snap := t.Snapshot()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO tenants (`+tenantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		snap.ID, snap.Name, snap.URL, snap.IsRoot, snap.Active, snap.Deleted,
		snap.CreatedAt, snap.CreatedBy, snap.ModifiedAt, snap.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create tenant %s", t.ID)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return t, nil
}

func (s *Store) GetRootTenant(ctx context.Context) (*tenant.Tenant, error) {
	t, err := scanTenant(s.pool.QueryRow(ctx,
		`SELECT `+tenantColumns+` FROM tenants WHERE is_root`))
	if err != nil {
		return nil, notFoundWrap(err, "get root tenant")
	}
	return t, nil
}

func (s *Store) ListTenants(ctx context.Context, opts tenant.ListOptions) ([]*tenant.Tenant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tenantColumns+` FROM tenants
		 WHERE $1 OR NOT deleted
		 ORDER BY created_at ASC`, opts.IncludeDeleted)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*tenant.Tenant
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan tenant: %w", err)
		}
		tenants = append(tenants, t)
	}
	return orEmpty(tenants), rows.Err()
}

// UpdateTenant persists name, URL, flags and modification audit. The root
// flag and creation audit are immutable.
func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE tenants SET name = $2, url = $3, active = $4, deleted = $5, modified_at = $6, modified_by = $7
		 WHERE id = $1`,
		t.ID, t.Name, t.URL, t.Active(), t.Deleted(), t.ModifiedAt, t.ModifiedBy)
	return execExpectOne(tag, err, "update tenant %s", t.ID)
}
