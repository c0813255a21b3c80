package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/group"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/user"
)

const (
	userColumns  = `id, name, email, enabled, created_at, created_by, modified_at, modified_by`
	roleColumns  = `id, name, description, created_at, created_by, modified_at, modified_by`
	groupColumns = `id, name, description, created_at, created_by, modified_at, modified_by`
)

func scanUser(row scannable) (*user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Enabled,
		&u.CreatedAt, &u.CreatedBy, &u.ModifiedAt, &u.ModifiedBy); err != nil {
		return nil, err
	}
	return &u, nil
}

func scanRole(row scannable) (*role.Role, error) {
	var r role.Role
	if err := row.Scan(&r.ID, &r.Name, &r.Description,
		&r.CreatedAt, &r.CreatedBy, &r.ModifiedAt, &r.ModifiedBy); err != nil {
		return nil, err
	}
	return &r, nil
}

func scanGroup(row scannable) (*group.Group, error) {
	var g group.Group
	if err := row.Scan(&g.ID, &g.Name, &g.Description,
		&g.CreatedAt, &g.CreatedBy, &g.ModifiedAt, &g.ModifiedBy); err != nil {
		return nil, err
	}
	return &g, nil
}

// --- Users ---

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.Name, u.Email, u.Enabled, u.CreatedAt, u.CreatedBy, u.ModifiedAt, u.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create user %s", u.ID)
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get user %s", id)
	}
	return u, nil
}

// --- Roles ---

func (s *Store) CreateRole(ctx context.Context, r *role.Role) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO roles (`+roleColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.Name, r.Description, r.CreatedAt, r.CreatedBy, r.ModifiedAt, r.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create role %s", r.ID)
	}
	return nil
}

func (s *Store) GetRole(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	r, err := scanRole(s.pool.QueryRow(ctx, `SELECT `+roleColumns+` FROM roles WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get role %s", id)
	}
	return r, nil
}

// --- Groups ---

func (s *Store) CreateGroup(ctx context.Context, g *group.Group) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO principal_groups (`+groupColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.Name, g.Description, g.CreatedAt, g.CreatedBy, g.ModifiedAt, g.ModifiedBy)
	if err != nil {
		return conflictWrap(err, "create group %s", g.ID)
	}
	return nil
}

func (s *Store) GetGroup(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	g, err := scanGroup(s.pool.QueryRow(ctx, `SELECT `+groupColumns+` FROM principal_groups WHERE id = $1`, id))
	if err != nil {
		return nil, notFoundWrap(err, "get group %s", id)
	}
	return g, nil
}
