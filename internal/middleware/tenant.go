package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/domain/user"
	"github.com/ahardinathillc/whippet/internal/logger"
)

const (
	headerTenantID = "X-Tenant-ID"
	headerActorID  = "X-Actor-ID"
)

// RootLookup reports the established root tenant, if any.
type RootLookup func() (*tenant.Tenant, bool)

// TenantID extracts the tenant scope from the X-Tenant-ID header. Without
// the header the request is scoped to the root tenant once one exists.
// A malformed id is rejected with 400.
func TenantID(root RootLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var id uuid.UUID
			if raw := r.Header.Get(headerTenantID); raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil {
					writeError(w, http.StatusBadRequest, "invalid "+headerTenantID+" header")
					return
				}
				id = parsed
			} else if root != nil {
				if t, ok := root(); ok {
					id = t.ID
				}
			}

			ctx := r.Context()
			if id != uuid.Nil {
				ctx = tenant.WithScope(ctx, id)
				ctx = logger.WithTenantID(ctx, id.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorID extracts the acting user from the X-Actor-ID header, defaulting
// to the system user.
func ActorID(system uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := system
			if raw := r.Header.Get(headerActorID); raw != "" {
				parsed, err := uuid.Parse(raw)
				if err != nil || parsed == uuid.Nil {
					writeError(w, http.StatusBadRequest, "invalid "+headerActorID+" header")
					return
				}
				actor = parsed
			}
			next.ServeHTTP(w, r.WithContext(user.WithActor(r.Context(), actor)))
		})
	}
}
