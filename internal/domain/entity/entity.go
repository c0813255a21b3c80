// Package entity defines the composable traits shared by persisted domain
// entities: audit metadata, soft deletion and activation.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// Audit records who created and last modified an entity, and when.
type Audit struct {
	CreatedAt  time.Time `json:"created_at"`
	CreatedBy  uuid.UUID `json:"created_by"`
	ModifiedAt time.Time `json:"modified_at"`
	ModifiedBy uuid.UUID `json:"modified_by"`
}

// Stamp initialises both the created and modified fields. Timestamps are
// kept in UTC at microsecond precision, the finest the SQL stores hold.
func (a *Audit) Stamp(now time.Time, actor uuid.UUID) {
	now = now.UTC().Truncate(time.Microsecond)
	a.CreatedAt = now
	a.CreatedBy = actor
	a.ModifiedAt = now
	a.ModifiedBy = actor
}

// Touch records a modification.
func (a *Audit) Touch(now time.Time, actor uuid.UUID) {
	a.ModifiedAt = now.UTC().Truncate(time.Microsecond)
	a.ModifiedBy = actor
}

// Equal compares all four audit fields. Timestamps compare by instant.
func (a Audit) Equal(o Audit) bool {
	return a.CreatedAt.Equal(o.CreatedAt) &&
		a.CreatedBy == o.CreatedBy &&
		a.ModifiedAt.Equal(o.ModifiedAt) &&
		a.ModifiedBy == o.ModifiedBy
}

// SoftDelete marks a record deleted without removing it.
type SoftDelete struct {
	Deleted bool `json:"deleted"`
}

// Activation marks a record active or inactive.
type Activation struct {
	Active bool `json:"active"`
}
