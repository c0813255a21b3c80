package tenant

import (
	"context"

	"github.com/google/uuid"
)

type scopeKey struct{}

// WithScope stores the tenant a request operates in.
func WithScope(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, scopeKey{}, id)
}

// ScopeFrom returns the tenant stored by WithScope.
func ScopeFrom(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(scopeKey{}).(uuid.UUID)
	return id, ok && id != uuid.Nil
}
