package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/service"
)

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tenants     *service.TenantService
	Assignments *service.AssignmentService
	Principals  *service.PrincipalService
}

// ListTenants handles GET /api/v1/tenants. ?all=true includes soft-deleted
// tenants.
func (h *Handlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	var opts tenant.ListOptions
	if raw := r.URL.Query().Get("all"); raw != "" {
		all, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid all parameter")
			return
		}
		opts.IncludeDeleted = all
	}
	tenants, err := h.Tenants.List(r.Context(), opts)
	if err != nil {
		writeInternalError(w, r, err)
		return
	}
	if tenants == nil {
		tenants = []*tenant.Tenant{}
	}
	writeJSON(w, http.StatusOK, tenants)
}

// GetRoot handles GET /api/v1/tenants/root
func (h *Handlers) GetRoot(w http.ResponseWriter, r *http.Request) {
	root, err := h.Tenants.Root()
	if err != nil {
		writeDomainError(w, r, err, "root tenant not established")
		return
	}
	writeJSON(w, http.StatusOK, root)
}

// BootstrapRoot handles POST /api/v1/tenants/root
func (h *Handlers) BootstrapRoot(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[tenant.BootstrapRequest](w, r)
	if !ok {
		return
	}
	root, err := h.Tenants.BootstrapRoot(r.Context(), req)
	if err != nil {
		writeDomainError(w, r, err, "root tenant not established")
		return
	}
	writeJSON(w, http.StatusCreated, root)
}

// DeleteTenant soft-deletes a tenant for DELETE /api/v1/tenants/{id}.
func (h *Handlers) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	_, err := h.Tenants.SoftDelete(ctx, id)
	return err
}

// ListMembers handles GET /api/v1/tenants/{id}/members
func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	m, err := h.Tenants.Members(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, "tenant not found")
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// AssignUser handles POST /api/v1/tenants/{id}/users/{userID}
func (h *Handlers) AssignUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	a, err := h.Assignments.AssignUser(r.Context(), tenantID, userID)
	if err != nil {
		writeDomainError(w, r, err, "tenant or user not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// RevokeUser handles DELETE /api/v1/tenants/{id}/users/{userID}
func (h *Handlers) RevokeUser(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	if err := h.Assignments.RevokeUser(r.Context(), tenantID, userID); err != nil {
		writeDomainError(w, r, err, "user assignment not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRoleRequest struct {
	RoleID uuid.UUID `json:"role_id"`
}

// AssignRole handles POST /api/v1/tenants/{id}/roles
func (h *Handlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[assignRoleRequest](w, r)
	if !ok {
		return
	}
	if req.RoleID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "role_id is required")
		return
	}
	a, err := h.Assignments.AssignRole(r.Context(), tenantID, req.RoleID)
	if err != nil {
		writeDomainError(w, r, err, "tenant or role not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

type assignGroupRequest struct {
	GroupID uuid.UUID `json:"group_id"`
}

// AssignGroup handles POST /api/v1/tenants/{id}/groups
func (h *Handlers) AssignGroup(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	req, ok := readJSON[assignGroupRequest](w, r)
	if !ok {
		return
	}
	if req.GroupID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "group_id is required")
		return
	}
	a, err := h.Assignments.AssignGroup(r.Context(), tenantID, req.GroupID)
	if err != nil {
		writeDomainError(w, r, err, "tenant or group not found")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}
