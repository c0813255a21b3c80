package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	cfotel "github.com/ahardinathillc/whippet/internal/adapter/otel"
	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/port/database"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
)

// AssignmentService scopes users, roles and groups to tenants.
type AssignmentService struct {
	store   database.Store
	events  *Events
	metrics *cfotel.Metrics
	system  uuid.UUID
	now     func() time.Time
}

// NewAssignmentService creates an assignment service.
func NewAssignmentService(store database.Store, events *Events, system uuid.UUID) *AssignmentService {
	return &AssignmentService{store: store, events: events, system: system, now: time.Now}
}

// SetMetrics sets the OTEL metrics instruments for the service.
func (s *AssignmentService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

// liveTenant loads a tenant that may receive new assignments.
func (s *AssignmentService) liveTenant(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Deleted() {
		return nil, fmt.Errorf("tenant %s is deleted: %w", id, domain.ErrInvalidOperation)
	}
	return t, nil
}

func (s *AssignmentService) count(ctx context.Context, granted bool, kind string) {
	if s.metrics == nil {
		return
	}
	c := s.metrics.AssignmentsRevoked
	if granted {
		c = s.metrics.AssignmentsGranted
	}
	c.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// AssignUser makes a user a member of a tenant.
func (s *AssignmentService) AssignUser(ctx context.Context, tenantID, userID uuid.UUID) (_ *tenant.UserAssignment, err error) {
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindUser, tenantID, userID)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.liveTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	a, err := tenant.NewUserAssignment(t, u)
	if err != nil {
		return nil, err
	}
	if err := s.store.AssignUser(ctx, a); err != nil {
		return nil, err
	}

	s.count(ctx, true, messagequeue.KindUser)
	s.events.assignment(ctx, messagequeue.SubjectAssignmentGranted, messagequeue.AssignmentEventPayload{
		TenantID:    tenantID.String(),
		Kind:        messagequeue.KindUser,
		PrincipalID: userID.String(),
		Active:      true,
		ActorID:     actorOr(ctx, s.system).String(),
	})
	return a, nil
}

// RevokeUser removes a user's membership in a tenant.
func (s *AssignmentService) RevokeUser(ctx context.Context, tenantID, userID uuid.UUID) (err error) {
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindUser, tenantID, userID)
	defer func() { cfotel.EndSpan(span, err) }()

	if err := s.store.RevokeUser(ctx, tenantID, userID); err != nil {
		return err
	}

	s.count(ctx, false, messagequeue.KindUser)
	s.events.assignment(ctx, messagequeue.SubjectAssignmentRevoked, messagequeue.AssignmentEventPayload{
		TenantID:    tenantID.String(),
		Kind:        messagequeue.KindUser,
		PrincipalID: userID.String(),
		Deleted:     true,
		ActorID:     actorOr(ctx, s.system).String(),
	})
	return nil
}

// AssignRole scopes a role to a tenant. The assignment starts active.
func (s *AssignmentService) AssignRole(ctx context.Context, tenantID, roleID uuid.UUID) (_ *tenant.RoleAssignment, err error) {
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindRole, tenantID, roleID)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.liveTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	r, err := s.store.GetRole(ctx, roleID)
	if err != nil {
		return nil, err
	}
	a, err := tenant.NewRoleAssignment(t, r, actorOr(ctx, s.system), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateRoleAssignment(ctx, a); err != nil {
		return nil, err
	}

	s.count(ctx, true, messagequeue.KindRole)
	s.events.assignment(ctx, messagequeue.SubjectAssignmentGranted, rolePayload(a))
	return a, nil
}

// SetRoleAssignmentActive activates or deactivates a role assignment.
func (s *AssignmentService) SetRoleAssignmentActive(ctx context.Context, id uuid.UUID, active bool) (*tenant.RoleAssignment, error) {
	return s.updateRole(ctx, id, messagequeue.SubjectAssignmentUpdated, func(a *tenant.RoleAssignment) {
		a.Active = active
	})
}

// DeleteRoleAssignment soft-deletes a role assignment.
func (s *AssignmentService) DeleteRoleAssignment(ctx context.Context, id uuid.UUID) error {
	_, err := s.updateRole(ctx, id, messagequeue.SubjectAssignmentRevoked, func(a *tenant.RoleAssignment) {
		a.Deleted = true
	})
	return err
}

func (s *AssignmentService) updateRole(ctx context.Context, id uuid.UUID, subject string, apply func(*tenant.RoleAssignment)) (_ *tenant.RoleAssignment, err error) {
	a, err := s.store.GetRoleAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindRole, a.Tenant().ID, a.Role().ID)
	defer func() { cfotel.EndSpan(span, err) }()

	if a.Deleted {
		return nil, fmt.Errorf("role assignment %s: %w", id, domain.ErrNotFound)
	}
	apply(a)
	a.Touch(s.now(), actorOr(ctx, s.system))
	if err := s.store.UpdateRoleAssignment(ctx, a); err != nil {
		return nil, err
	}

	if subject == messagequeue.SubjectAssignmentRevoked {
		s.count(ctx, false, messagequeue.KindRole)
	}
	s.events.assignment(ctx, subject, rolePayload(a))
	return a, nil
}

// AssignGroup scopes a group to a tenant. The assignment starts active.
func (s *AssignmentService) AssignGroup(ctx context.Context, tenantID, groupID uuid.UUID) (_ *tenant.GroupAssignment, err error) {
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindGroup, tenantID, groupID)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.liveTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	g, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	a, err := tenant.NewGroupAssignment(t, g, actorOr(ctx, s.system), s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateGroupAssignment(ctx, a); err != nil {
		return nil, err
	}

	s.count(ctx, true, messagequeue.KindGroup)
	s.events.assignment(ctx, messagequeue.SubjectAssignmentGranted, groupPayload(a))
	return a, nil
}

// SetGroupAssignmentActive activates or deactivates a group assignment.
func (s *AssignmentService) SetGroupAssignmentActive(ctx context.Context, id uuid.UUID, active bool) (*tenant.GroupAssignment, error) {
	return s.updateGroup(ctx, id, messagequeue.SubjectAssignmentUpdated, func(a *tenant.GroupAssignment) {
		a.Active = active
	})
}

// DeleteGroupAssignment soft-deletes a group assignment.
func (s *AssignmentService) DeleteGroupAssignment(ctx context.Context, id uuid.UUID) error {
	_, err := s.updateGroup(ctx, id, messagequeue.SubjectAssignmentRevoked, func(a *tenant.GroupAssignment) {
		a.Deleted = true
	})
	return err
}

func (s *AssignmentService) updateGroup(ctx context.Context, id uuid.UUID, subject string, apply func(*tenant.GroupAssignment)) (_ *tenant.GroupAssignment, err error) {
	a, err := s.store.GetGroupAssignment(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx, span := cfotel.StartAssignmentSpan(ctx, messagequeue.KindGroup, a.Tenant().ID, a.Group().ID)
	defer func() { cfotel.EndSpan(span, err) }()

	if a.Deleted {
		return nil, fmt.Errorf("group assignment %s: %w", id, domain.ErrNotFound)
	}
	apply(a)
	a.Touch(s.now(), actorOr(ctx, s.system))
	if err := s.store.UpdateGroupAssignment(ctx, a); err != nil {
		return nil, err
	}

	if subject == messagequeue.SubjectAssignmentRevoked {
		s.count(ctx, false, messagequeue.KindGroup)
	}
	s.events.assignment(ctx, subject, groupPayload(a))
	return a, nil
}

func rolePayload(a *tenant.RoleAssignment) messagequeue.AssignmentEventPayload {
	return messagequeue.AssignmentEventPayload{
		TenantID:     a.Tenant().ID.String(),
		Kind:         messagequeue.KindRole,
		PrincipalID:  a.Role().ID.String(),
		AssignmentID: a.ID.String(),
		Active:       a.Active,
		Deleted:      a.Deleted,
		ActorID:      a.ModifiedBy.String(),
	}
}

func groupPayload(a *tenant.GroupAssignment) messagequeue.AssignmentEventPayload {
	return messagequeue.AssignmentEventPayload{
		TenantID:     a.Tenant().ID.String(),
		Kind:         messagequeue.KindGroup,
		PrincipalID:  a.Group().ID.String(),
		AssignmentID: a.ID.String(),
		Active:       a.Active,
		Deleted:      a.Deleted,
		ActorID:      a.ModifiedBy.String(),
	}
}
