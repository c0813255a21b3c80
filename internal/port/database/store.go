// Package database defines the database store port (interface).
package database

import (
	"context"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/group"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/domain/user"
)

// Store is the port interface for database operations.
//
// Lookups of missing rows wrap domain.ErrNotFound; duplicate keys wrap
// domain.ErrConflict. Soft deletion is an Update with the deleted flag set.
type Store interface {
	// Tenants
	CreateTenant(ctx context.Context, t *tenant.Tenant) error
	GetTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	GetRootTenant(ctx context.Context) (*tenant.Tenant, error)
	ListTenants(ctx context.Context, opts tenant.ListOptions) ([]*tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error

	// Principals
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*user.User, error)
	CreateRole(ctx context.Context, r *role.Role) error
	GetRole(ctx context.Context, id uuid.UUID) (*role.Role, error)
	CreateGroup(ctx context.Context, g *group.Group) error
	GetGroup(ctx context.Context, id uuid.UUID) (*group.Group, error)

	// User assignments
	AssignUser(ctx context.Context, a *tenant.UserAssignment) error
	RevokeUser(ctx context.Context, tenantID, userID uuid.UUID) error
	ListUserAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.UserAssignment, error)

	// Role assignments
	CreateRoleAssignment(ctx context.Context, a *tenant.RoleAssignment) error
	GetRoleAssignment(ctx context.Context, id uuid.UUID) (*tenant.RoleAssignment, error)
	UpdateRoleAssignment(ctx context.Context, a *tenant.RoleAssignment) error
	ListRoleAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.RoleAssignment, error)

	// Group assignments
	CreateGroupAssignment(ctx context.Context, a *tenant.GroupAssignment) error
	GetGroupAssignment(ctx context.Context, id uuid.UUID) (*tenant.GroupAssignment, error)
	UpdateGroupAssignment(ctx context.Context, a *tenant.GroupAssignment) error
	ListGroupAssignments(ctx context.Context, tenantID uuid.UUID) ([]*tenant.GroupAssignment, error)

	Ping(ctx context.Context) error
}
