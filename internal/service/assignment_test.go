package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/group"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/domain/user"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
)

func seedTenant(t *testing.T, h *harness, name string) *tenant.Tenant {
	t.Helper()
	tn, err := h.tenants.Create(context.Background(), tenant.CreateRequest{Name: name, URL: "https://" + name + ".example"})
	require.NoError(t, err)
	return tn
}

func TestAssignAndRevokeUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acme := seedTenant(t, h, "acme")

	u, err := h.principals.CreateUser(ctx, user.CreateRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	a, err := h.assignments.AssignUser(ctx, acme.ID, u.ID)
	require.NoError(t, err)
	assert.True(t, a.HasTenant())
	assert.True(t, a.HasUser())

	_, err = h.assignments.AssignUser(ctx, acme.ID, u.ID)
	require.ErrorIs(t, err, domain.ErrConflict)

	require.NoError(t, h.assignments.RevokeUser(ctx, acme.ID, u.ID))
	require.ErrorIs(t, h.assignments.RevokeUser(ctx, acme.ID, u.ID), domain.ErrNotFound)

	assert.Equal(t, []string{
		messagequeue.SubjectTenantCreated,
		messagequeue.SubjectAssignmentGranted,
		messagequeue.SubjectAssignmentRevoked,
	}, h.queue.subjects())
}

func TestAssignUserMissingReferences(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acme := seedTenant(t, h, "acme")

	_, err := h.assignments.AssignUser(ctx, uuid.New(), uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.assignments.AssignUser(ctx, acme.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignToDeletedTenant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acme := seedTenant(t, h, "acme")
	_, err := h.tenants.SoftDelete(ctx, acme.ID)
	require.NoError(t, err)

	r, err := h.principals.CreateRole(ctx, role.CreateRequest{Name: "viewer"})
	require.NoError(t, err)

	_, err = h.assignments.AssignRole(ctx, acme.ID, r.ID)
	require.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestRoleAssignmentLifecycle(t *testing.T) {
	h := newHarness(t)
	actor := uuid.New()
	ctx := user.WithActor(context.Background(), actor)
	acme := seedTenant(t, h, "acme")

	r, err := h.principals.CreateRole(ctx, role.CreateRequest{Name: "editor", Description: "can edit"})
	require.NoError(t, err)

	a, err := h.assignments.AssignRole(ctx, acme.ID, r.ID)
	require.NoError(t, err)
	assert.True(t, a.Active)
	assert.False(t, a.Deleted)
	assert.Equal(t, actor, a.CreatedBy)

	inactive, err := h.assignments.SetRoleAssignmentActive(ctx, a.ID, false)
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	stored, err := h.store.GetRoleAssignment(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, stored.Active)

	require.NoError(t, h.assignments.DeleteRoleAssignment(ctx, a.ID))
	require.ErrorIs(t, h.assignments.DeleteRoleAssignment(ctx, a.ID), domain.ErrNotFound)

	_, err = h.assignments.SetRoleAssignmentActive(ctx, a.ID, true)
	require.ErrorIs(t, err, domain.ErrNotFound)

	live, err := h.store.ListRoleAssignments(ctx, acme.ID)
	require.NoError(t, err)
	assert.Empty(t, live)
}

func TestGroupAssignmentLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	acme := seedTenant(t, h, "acme")

	g, err := h.principals.CreateGroup(ctx, group.CreateRequest{Name: "ops"})
	require.NoError(t, err)

	a, err := h.assignments.AssignGroup(ctx, acme.ID, g.ID)
	require.NoError(t, err)
	assert.Equal(t, systemID, a.CreatedBy)

	_, err = h.assignments.SetGroupAssignmentActive(ctx, a.ID, false)
	require.NoError(t, err)
	require.NoError(t, h.assignments.DeleteGroupAssignment(ctx, a.ID))

	live, err := h.store.ListGroupAssignments(ctx, acme.ID)
	require.NoError(t, err)
	assert.Empty(t, live)

	_, err = h.assignments.SetGroupAssignmentActive(ctx, uuid.New(), true)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAssignmentEventPayload(t *testing.T) {
	h := newHarness(t)
	actor := uuid.New()
	ctx := user.WithActor(context.Background(), actor)
	acme := seedTenant(t, h, "acme")

	r, err := h.principals.CreateRole(ctx, role.CreateRequest{Name: "auditor"})
	require.NoError(t, err)
	a, err := h.assignments.AssignRole(ctx, acme.ID, r.ID)
	require.NoError(t, err)

	h.queue.mu.Lock()
	last := h.queue.msgs[len(h.queue.msgs)-1]
	h.queue.mu.Unlock()
	require.Equal(t, messagequeue.SubjectAssignmentGranted, last.subject)
	require.NoError(t, messagequeue.Validate(last.subject, last.data))

	var p messagequeue.AssignmentEventPayload
	require.NoError(t, json.Unmarshal(last.data, &p))
	assert.Equal(t, messagequeue.AssignmentEventPayload{
		TenantID:     acme.ID.String(),
		Kind:         messagequeue.KindRole,
		PrincipalID:  r.ID.String(),
		AssignmentID: a.ID.String(),
		Active:       true,
		ActorID:      actor.String(),
	}, p)
}

func TestPrincipalValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.principals.CreateUser(ctx, user.CreateRequest{Name: "Ada", Email: "not-an-email"})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.principals.CreateRole(ctx, role.CreateRequest{})
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = h.principals.CreateGroup(ctx, group.CreateRequest{Name: "  "})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestEnsureSystemUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.principals.EnsureSystemUser(ctx))
	require.NoError(t, h.principals.EnsureSystemUser(ctx))

	u, err := h.principals.GetUser(ctx, systemID)
	require.NoError(t, err)
	assert.Equal(t, user.SystemName, u.Name)
	assert.True(t, u.Enabled)
	assert.Equal(t, systemID, u.CreatedBy)
	assert.True(t, u.CreatedAt.Equal(fixedNow))

	// The system identity can be granted like any other user.
	tn := seedTenant(t, h, "acme")
	_, err = h.assignments.AssignUser(ctx, tn.ID, systemID)
	require.NoError(t, err)
}
