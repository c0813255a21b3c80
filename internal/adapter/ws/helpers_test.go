package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// httpHandler stores the ?tenant= query value in the request context the
// way the tenant middleware does, then upgrades.
func httpHandler(hub *Hub) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := uuid.Parse(r.URL.Query().Get("tenant")); err == nil {
			r = r.WithContext(context.WithValue(r.Context(), tenantKey{}, id))
		}
		hub.HandleWS(w, r)
	})
}
