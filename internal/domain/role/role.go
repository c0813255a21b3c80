// Package role defines the role principal that can be scoped to a tenant.
package role

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/entity"
)

// Role is a named set of permissions.
type Role struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	entity.Audit
}

// IsZero reports whether r is unset or an empty instance.
func (r *Role) IsZero() bool {
	return r == nil || (r.ID == uuid.Nil && r.Name == "")
}

// Equal compares identity, name (case-insensitive), description and audit.
func (r *Role) Equal(o *Role) bool {
	if r == nil || o == nil {
		return r == nil && o == nil
	}
	return r.ID == o.ID &&
		strings.EqualFold(r.Name, o.Name) &&
		r.Description == o.Description &&
		r.Audit.Equal(o.Audit)
}

// CreateRequest is the input for creating a role.
type CreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	return nil
}
