package tenant

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/entity"
	"github.com/ahardinathillc/whippet/internal/domain/group"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/user"
)

// UserAssignment grants a user membership in a tenant.
//
// The zero value has neither reference set. An unset reference and an
// empty instance are treated alike by Equal.
type UserAssignment struct {
	tenant *Tenant
	user   *user.User
}

// NewUserAssignment links u to t.
func NewUserAssignment(t *Tenant, u *user.User) (*UserAssignment, error) {
	if t == nil {
		return nil, domain.NilArgument("tenant")
	}
	if u == nil {
		return nil, domain.NilArgument("user")
	}
	return &UserAssignment{tenant: t, user: u}, nil
}

// HasTenant reports whether the tenant reference is set and non-empty.
func (a *UserAssignment) HasTenant() bool { return !a.tenant.IsZero() }

// HasUser reports whether the user reference is set and non-empty.
func (a *UserAssignment) HasUser() bool { return !a.user.IsZero() }

// TenantRef returns the assigned tenant, or an empty tenant when unset.
func (a *UserAssignment) TenantRef() *Tenant {
	if a.tenant == nil {
		return &Tenant{}
	}
	return a.tenant
}

// UserRef returns the assigned user, or an empty user when unset.
func (a *UserAssignment) UserRef() *user.User {
	if a.user == nil {
		return &user.User{}
	}
	return a.user
}

// Equal reports whether both assignments reference equal tenants and users.
func (a *UserAssignment) Equal(o *UserAssignment) bool {
	if a == nil || o == nil {
		return a == nil && o == nil
	}
	return sameTenant(a.tenant, o.tenant) && sameRef(a.user, o.user)
}

type userAssignmentJSON struct {
	Tenant *Tenant    `json:"tenant,omitempty"`
	User   *user.User `json:"user,omitempty"`
}

// MarshalJSON encodes both references.
func (a *UserAssignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(userAssignmentJSON{Tenant: a.tenant, User: a.user})
}

// RoleAssignment scopes a role to a tenant. The tenant and role are fixed
// at construction; activation and soft deletion are freely mutable.
type RoleAssignment struct {
	ID uuid.UUID

	tenant *Tenant
	role   *role.Role

	entity.Activation
	entity.SoftDelete
	entity.Audit
}

// NewRoleAssignment creates an active assignment of r to t stamped by actor.
func NewRoleAssignment(t *Tenant, r *role.Role, actor uuid.UUID, now time.Time) (*RoleAssignment, error) {
	if t == nil {
		return nil, domain.NilArgument("tenant")
	}
	if r == nil {
		return nil, domain.NilArgument("role")
	}
	a := &RoleAssignment{
		ID:         uuid.New(),
		tenant:     t,
		role:       r,
		Activation: entity.Activation{Active: true},
	}
	a.Stamp(now, actor)
	return a, nil
}

// RestoreRoleAssignment rebuilds a persisted assignment without stamping it.
func RestoreRoleAssignment(id uuid.UUID, t *Tenant, r *role.Role, active, deleted bool, audit entity.Audit) *RoleAssignment {
	return &RoleAssignment{
		ID:         id,
		tenant:     t,
		role:       r,
		Activation: entity.Activation{Active: active},
		SoftDelete: entity.SoftDelete{Deleted: deleted},
		Audit:      audit,
	}
}

// Tenant returns the assigned tenant.
func (a *RoleAssignment) Tenant() *Tenant { return a.tenant }

// Role returns the assigned role.
func (a *RoleAssignment) Role() *role.Role { return a.role }

// Equal compares tenant, role, audit fields and the active/deleted flags.
// The assignment ID does not participate.
func (a *RoleAssignment) Equal(o *RoleAssignment) bool {
	if a == nil || o == nil {
		return a == nil && o == nil
	}
	return sameTenant(a.tenant, o.tenant) &&
		sameRef(a.role, o.role) &&
		a.Audit.Equal(o.Audit) &&
		a.Active == o.Active &&
		a.Deleted == o.Deleted
}

type roleAssignmentJSON struct {
	ID      uuid.UUID  `json:"id"`
	Tenant  *Tenant    `json:"tenant"`
	Role    *role.Role `json:"role"`
	Active  bool       `json:"active"`
	Deleted bool       `json:"deleted"`
	entity.Audit
}

// MarshalJSON encodes the assignment with its references inlined.
func (a *RoleAssignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(roleAssignmentJSON{
		ID: a.ID, Tenant: a.tenant, Role: a.role,
		Active: a.Active, Deleted: a.Deleted, Audit: a.Audit,
	})
}

// GroupAssignment scopes a group to a tenant. The tenant and group are
// fixed at construction; activation and soft deletion are freely mutable.
type GroupAssignment struct {
	ID uuid.UUID

	tenant *Tenant
	group  *group.Group

	entity.Activation
	entity.SoftDelete
	entity.Audit
}

// NewGroupAssignment creates an active assignment of g to t stamped by actor.
func NewGroupAssignment(t *Tenant, g *group.Group, actor uuid.UUID, now time.Time) (*GroupAssignment, error) {
	if t == nil {
		return nil, domain.NilArgument("tenant")
	}
	if g == nil {
		return nil, domain.NilArgument("group")
	}
	a := &GroupAssignment{
		ID:         uuid.New(),
		tenant:     t,
		group:      g,
		Activation: entity.Activation{Active: true},
	}
	a.Stamp(now, actor)
	return a, nil
}

// RestoreGroupAssignment rebuilds a persisted assignment without stamping it.
func RestoreGroupAssignment(id uuid.UUID, t *Tenant, g *group.Group, active, deleted bool, audit entity.Audit) *GroupAssignment {
	return &GroupAssignment{
		ID:         id,
		tenant:     t,
		group:      g,
		Activation: entity.Activation{Active: active},
		SoftDelete: entity.SoftDelete{Deleted: deleted},
		Audit:      audit,
	}
}

// Tenant returns the assigned tenant.
func (a *GroupAssignment) Tenant() *Tenant { return a.tenant }

// Group returns the assigned group.
func (a *GroupAssignment) Group() *group.Group { return a.group }

// Equal compares tenant, group, audit fields and the active/deleted flags.
func (a *GroupAssignment) Equal(o *GroupAssignment) bool {
	if a == nil || o == nil {
		return a == nil && o == nil
	}
	return sameTenant(a.tenant, o.tenant) &&
		sameRef(a.group, o.group) &&
		a.Audit.Equal(o.Audit) &&
		a.Active == o.Active &&
		a.Deleted == o.Deleted
}

type groupAssignmentJSON struct {
	ID      uuid.UUID    `json:"id"`
	Tenant  *Tenant      `json:"tenant"`
	Group   *group.Group `json:"group"`
	Active  bool         `json:"active"`
	Deleted bool         `json:"deleted"`
	entity.Audit
}

// MarshalJSON encodes the assignment with its references inlined.
func (a *GroupAssignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(groupAssignmentJSON{
		ID: a.ID, Tenant: a.tenant, Group: a.group,
		Active: a.Active, Deleted: a.Deleted, Audit: a.Audit,
	})
}

// reference is satisfied by the principal pointer types.
type reference[T any] interface {
	*T
	IsZero() bool
	Equal(*T) bool
}

// sameRef treats nil and empty references as absent. Two absent references
// are equal; one absent side makes them unequal.
func sameRef[T any, P reference[T]](a, b P) bool {
	za, zb := a.IsZero(), b.IsZero()
	if za || zb {
		return za && zb
	}
	return a.Equal((*T)(b))
}

func sameTenant(a, b *Tenant) bool { return sameRef(a, b) }
