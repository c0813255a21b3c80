package database

import (
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/port/repository"
)

// UserAssignmentFilter reads a tenant's user assignments from s.
func UserAssignmentFilter(s Store) repository.TenantFilter[*tenant.UserAssignment] {
	return repository.FilterFunc[*tenant.UserAssignment](s.ListUserAssignments)
}

// RoleAssignmentFilter reads a tenant's live role assignments from s.
func RoleAssignmentFilter(s Store) repository.TenantFilter[*tenant.RoleAssignment] {
	return repository.FilterFunc[*tenant.RoleAssignment](s.ListRoleAssignments)
}

// GroupAssignmentFilter reads a tenant's live group assignments from s.
func GroupAssignmentFilter(s Store) repository.TenantFilter[*tenant.GroupAssignment] {
	return repository.FilterFunc[*tenant.GroupAssignment](s.ListGroupAssignments)
}
