// Package tenant defines the tenant domain model for multi-tenancy: the
// tenant boundary itself, the process-wide root tenant, and the assignments
// that scope users, roles and groups to a tenant.
package tenant

import (
	"encoding/json"
	"fmt"
	neturl "net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/entity"
)

// Tenant represents an isolated hosting boundary.
//
// The root flag, and the active and deleted flags, are only reachable
// through guarded methods so the root tenant can never be deactivated or
// deleted.
type Tenant struct {
	ID   uuid.UUID
	Name string
	URL  string // public access location
	entity.Audit

	root    bool
	active  bool
	deleted bool
}

// New returns an active, non-root tenant.
func New(id uuid.UUID, name, url string) *Tenant {
	return &Tenant{ID: id, Name: name, URL: url, active: true}
}

// IsRootTenant reports whether t is the root tenant.
func (t *Tenant) IsRootTenant() bool { return t.root }

// Active reports whether the tenant is active.
func (t *Tenant) Active() bool { return t.active }

// Deleted reports whether the tenant is soft-deleted.
func (t *Tenant) Deleted() bool { return t.deleted }

// SetActive changes the active flag. The root tenant rejects deactivation
// and keeps its current value.
func (t *Tenant) SetActive(active bool) error {
	if t.root && !active {
		return newGuardError(msgRootDeactivate, t.ID)
	}
	t.active = active
	return nil
}

// SetDeleted changes the soft-delete flag. The root tenant rejects deletion
// and keeps its current value.
func (t *Tenant) SetDeleted(deleted bool) error {
	if t.root && deleted {
		return newGuardError(msgRootDelete, t.ID)
	}
	t.deleted = deleted
	return nil
}

// IsZero reports whether t is unset or carries no identifying data.
func (t *Tenant) IsZero() bool {
	return t == nil || (t.ID == uuid.Nil && t.Name == "" && t.URL == "")
}

// Equal reports whether two tenants have the same ID, audit trail, URL,
// name (case-insensitive) and active/deleted flags. The ID is part of the
// comparison, so two distinct tenants whose other fields match are not
// equal. Two nil tenants are equal.
func (t *Tenant) Equal(o *Tenant) bool {
	if t == nil || o == nil {
		return t == nil && o == nil
	}
	return t.ID == o.ID &&
		t.Audit.Equal(o.Audit) &&
		t.URL == o.URL &&
		strings.EqualFold(t.Name, o.Name) &&
		t.active == o.active &&
		t.deleted == o.deleted
}

// String renders "Name (URL)", or "Not Configured" when the name is unset.
func (t *Tenant) String() string {
	if t == nil || t.Name == "" {
		return "Not Configured"
	}
	return t.Name + " (" + t.URL + ")"
}

// Clone returns an independent copy of t.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Snapshot is the flat, fully exported form of a tenant used by storage
// adapters and wire encodings.
type Snapshot struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	URL     string    `json:"url"`
	IsRoot  bool      `json:"is_root"`
	Active  bool      `json:"active"`
	Deleted bool      `json:"deleted"`
	entity.Audit
}

// Snapshot returns the flat form of t.
func (t *Tenant) Snapshot() Snapshot {
	return Snapshot{
		ID:      t.ID,
		Name:    t.Name,
		URL:     t.URL,
		IsRoot:  t.root,
		Active:  t.active,
		Deleted: t.deleted,
		Audit:   t.Audit,
	}
}

// Restore rebuilds a tenant from persisted state. It bypasses the root
// guards and must only be fed data that was produced by Snapshot.
func Restore(s Snapshot) *Tenant {
	return &Tenant{
		ID:      s.ID,
		Name:    s.Name,
		URL:     s.URL,
		Audit:   s.Audit,
		root:    s.IsRoot,
		active:  s.Active,
		deleted: s.Deleted,
	}
}

// MarshalJSON encodes the tenant through its Snapshot.
func (t *Tenant) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}

// UnmarshalJSON decodes a Snapshot.
func (t *Tenant) UnmarshalJSON(data []byte) error {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = *Restore(s)
	return nil
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Validate checks that the request names the tenant and gives an absolute
// access URL.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("name: %w", domain.ErrValidation)
	}
	u, err := neturl.Parse(strings.TrimSpace(r.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("url must be absolute: %w", domain.ErrValidation)
	}
	return nil
}

// BootstrapRequest holds the fields required to establish the root tenant.
type BootstrapRequest struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	URL  string    `json:"url"`
}

// ListOptions filters tenant listings.
type ListOptions struct {
	IncludeDeleted bool
}
