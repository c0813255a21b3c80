package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Root tenant (static segment wins over {id})
		r.Get("/tenants/root", h.GetRoot)
		r.Post("/tenants/root", h.BootstrapRoot)

		// Tenants
		r.Get("/tenants", h.ListTenants)
		r.Post("/tenants", handleCreate(h.Tenants.Create))
		r.Get("/tenants/{id}", handleGet(h.Tenants.Get, "tenant not found"))
		r.Put("/tenants/{id}/active", handleSetActive(h.Tenants.SetActive, "tenant not found"))
		r.Delete("/tenants/{id}", handleDelete(h.DeleteTenant, "tenant not found"))
		r.Get("/tenants/{id}/members", h.ListMembers)

		// Assignments (nested under tenants)
		r.Post("/tenants/{id}/users/{userID}", h.AssignUser)
		r.Delete("/tenants/{id}/users/{userID}", h.RevokeUser)
		r.Post("/tenants/{id}/roles", h.AssignRole)
		r.Post("/tenants/{id}/groups", h.AssignGroup)

		// Assignments (direct access)
		r.Put("/role-assignments/{id}", handleSetActive(h.Assignments.SetRoleAssignmentActive, "role assignment not found"))
		r.Delete("/role-assignments/{id}", handleDelete(h.Assignments.DeleteRoleAssignment, "role assignment not found"))
		r.Put("/group-assignments/{id}", handleSetActive(h.Assignments.SetGroupAssignmentActive, "group assignment not found"))
		r.Delete("/group-assignments/{id}", handleDelete(h.Assignments.DeleteGroupAssignment, "group assignment not found"))

		// Principals
		r.Post("/users", handleCreate(h.Principals.CreateUser))
		r.Get("/users/{id}", handleGet(h.Principals.GetUser, "user not found"))
		r.Post("/roles", handleCreate(h.Principals.CreateRole))
		r.Get("/roles/{id}", handleGet(h.Principals.GetRole, "role not found"))
		r.Post("/groups", handleCreate(h.Principals.CreateGroup))
		r.Get("/groups/{id}", handleGet(h.Principals.GetGroup, "group not found"))
	})
}
