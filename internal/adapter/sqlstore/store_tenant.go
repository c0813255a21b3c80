package sqlstore

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

func (s *Store) CreateTenant(ctx context.Context, t *tenant.Tenant) error {
	snap := t.Snapshot()
	_, err := s.exec(ctx,
		`INSERT INTO tenants (`+tenantColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Name, snap.URL, snap.IsRoot, snap.Active, snap.Deleted,
		snap.CreatedAt.UTC(), snap.CreatedBy, snap.ModifiedAt.UTC(), snap.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create tenant %s", t.ID)
	}
	return nil
}

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, err := scanTenant(s.queryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = ?`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get tenant %s", id)
	}
	return t, nil
}

func (s *Store) GetRootTenant(ctx context.Context) (*tenant.Tenant, error) {
	t, err := scanTenant(s.queryRow(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE is_root = ?`, true))
	if err != nil {
		return nil, notFoundWrap(err, "get root tenant")
	}
	return t, nil
}

func (s *Store) ListTenants(ctx context.Context, opts tenant.ListOptions) ([]*tenant.Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants`
	var args []any
	if !opts.IncludeDeleted {
		q += ` WHERE deleted = ?`
		args = append(args, false)
	}
	q += ` ORDER BY created_at ASC`

	rows, err := s.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer func() { _ = rows.Close() }()

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

func (s *Store) UpdateTenant(ctx context.Context, t *tenant.Tenant) error {
	res, err := s.exec(ctx,
		`UPDATE tenants SET name = ?, url = ?, active = ?, deleted = ?, modified_at = ?, modified_by = ? WHERE id = ?`,
		t.Name, t.URL, t.Active(), t.Deleted(), t.ModifiedAt.UTC(), t.ModifiedBy, t.ID)
	return execExpectOne(res, err, "update tenant %s", t.ID)
}
