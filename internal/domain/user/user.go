// Package user defines the user principal that can be granted access to tenants.
package user

import (
	"errors"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/entity"
)

// User represents a principal that can be a member of one or more tenants.
type User struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Enabled bool      `json:"enabled"`
	entity.Audit
}

// IsZero reports whether u is unset or an empty instance.
func (u *User) IsZero() bool {
	return u == nil || (u.ID == uuid.Nil && u.Name == "" && u.Email == "")
}

// Equal reports whether two users describe the same principal state.
// Names and emails compare case-insensitively. Two nil users are equal.
func (u *User) Equal(o *User) bool {
	if u == nil || o == nil {
		return u == nil && o == nil
	}
	return u.ID == o.ID &&
		strings.EqualFold(u.Name, o.Name) &&
		strings.EqualFold(u.Email, o.Email) &&
		u.Enabled == o.Enabled &&
		u.Audit.Equal(o.Audit)
}

// CreateRequest is the input for registering a new user.
type CreateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Validate checks that the CreateRequest has all required fields.
func (r *CreateRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("name is required")
	}
	if r.Email == "" {
		return errors.New("email is required")
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return errors.New("invalid email format")
	}
	return nil
}

// SystemName is the display name of the non-interactive system identity.
const SystemName = "system"

// System returns the non-interactive identity used to stamp audit records
// written outside a user request.
func System(id uuid.UUID) *User {
	return &User{ID: id, Name: SystemName, Enabled: true}
}
