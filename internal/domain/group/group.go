// Package group defines the group principal that can be scoped to a tenant.
package group

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/entity"
)

// Group is a named collection of users.
type Group struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	entity.Audit
}

// IsZero reports whether g is unset or an empty instance.
func (g *Group) IsZero() bool {
	return g == nil || (g.ID == uuid.Nil && g.Name == "")
}

// Equal compares identity, name (case-insensitive), description and audit.
func (g *Group) Equal(o *Group) bool {
	if g == nil || o == nil {
		return g == nil && o == nil
	}
	return g.ID == o.ID &&
		strings.EqualFold(g.Name, o.Name) &&
		g.Description == o.Description &&
		g.Audit.Equal(o.Audit)
}

// CreateRequest is the input for creating a group.
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
