package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	cfotel "github.com/ahardinathillc/whippet/internal/adapter/otel"
	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/domain/user"
	"github.com/ahardinathillc/whippet/internal/port/cache"
	"github.com/ahardinathillc/whippet/internal/port/database"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
)

// TenantService manages tenants and the process-wide root tenant.
type TenantService struct {
	store    database.Store
	registry *tenant.Registry
	events   *Events
	tenants  *cache.Typed[tenant.Snapshot]
	metrics  *cfotel.Metrics
	system   uuid.UUID
	now      func() time.Time
}

// NewTenantService creates a tenant service. system stamps writes made
// without an acting user in the context.
func NewTenantService(store database.Store, registry *tenant.Registry, events *Events, system uuid.UUID) *TenantService {
	return &TenantService{
		store:    store,
		registry: registry,
		events:   events,
		system:   system,
		now:      time.Now,
	}
}

// SetCache enables read-through caching of tenant lookups.
func (s *TenantService) SetCache(c cache.Cache, ttl time.Duration) {
	s.tenants = cache.NewTyped[tenant.Snapshot](c, "tenant", ttl)
}

// SetMetrics sets the OTEL metrics instruments for the service.
func (s *TenantService) SetMetrics(m *cfotel.Metrics) { s.metrics = m }

func (s *TenantService) actor(ctx context.Context) uuid.UUID { return actorOr(ctx, s.system) }

// actorOr returns the acting user from ctx, or fallback when the request
// carries none.
func actorOr(ctx context.Context, fallback uuid.UUID) uuid.UUID {
	if id, ok := user.ActorFrom(ctx); ok {
		return id
	}
	return fallback
}

// LoadRoot establishes the registry from storage when a root tenant has
// already been persisted. It returns domain.ErrNotFound when none exists.
func (s *TenantService) LoadRoot(ctx context.Context) (*tenant.Tenant, error) {
	if t, ok := s.registry.Root(); ok {
		return t, nil
	}
	t, err := s.store.GetRootTenant(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.registry.Adopt(t); err != nil {
		// Lost a race with a concurrent bootstrap; the registry wins.
		if root, ok := s.registry.Root(); ok {
			return root, nil
		}
		return nil, err
	}
	s.cacheTenant(ctx, t)
	slog.InfoContext(ctx, "root tenant loaded", "tenant_id", t.ID)
	return t, nil
}

// BootstrapRoot establishes and persists the root tenant. It fails with
// domain.ErrInvalidOperation when a root already exists, in memory or in
// storage.
func (s *TenantService) BootstrapRoot(ctx context.Context, req tenant.BootstrapRequest) (_ *tenant.Tenant, err error) {
	ctx, span := cfotel.StartTenantSpan(ctx, "bootstrap_root", req.ID)
	defer func() { cfotel.EndSpan(span, err) }()

	if _, err := s.LoadRoot(ctx); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("bootstrap root: %w", err)
	}

	root, err := s.registry.SetRootWith(ctx, req.ID, req.Name, req.URL, func(t *tenant.Tenant) error {
		return s.store.CreateTenant(ctx, t)
	})
	if err != nil {
		s.countGuard(ctx, err, "bootstrap_root")
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RootBootstraps.Add(ctx, 1)
	}
	s.cacheTenant(ctx, root)
	s.events.tenant(ctx, messagequeue.SubjectRootEstablished, root, root.CreatedBy)
	slog.InfoContext(ctx, "root tenant established", "tenant_id", root.ID, "name", root.Name)
	return root, nil
}

// Root returns the established root tenant.
func (s *TenantService) Root() (*tenant.Tenant, error) {
	t, ok := s.registry.Root()
	if !ok {
		return nil, fmt.Errorf("root tenant: %w", domain.ErrNotFound)
	}
	return t, nil
}

// Create registers a new, active, non-root tenant.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (_ *tenant.Tenant, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	t := tenant.New(uuid.New(), req.Name, req.URL)
	ctx, span := cfotel.StartTenantSpan(ctx, "create", t.ID)
	defer func() { cfotel.EndSpan(span, err) }()

	actor := s.actor(ctx)
	t.Stamp(s.now(), actor)
	if err := s.store.CreateTenant(ctx, t); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TenantsCreated.Add(ctx, 1)
	}
	s.cacheTenant(ctx, t)
	s.events.tenant(ctx, messagequeue.SubjectTenantCreated, t, actor)
	return t, nil
}

// Get returns a tenant by id, reading through the cache when one is set.
func (s *TenantService) Get(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	if s.tenants != nil {
		snap, ok, err := s.tenants.Get(ctx, id.String())
		if err != nil {
			slog.WarnContext(ctx, "tenant cache read failed", "tenant_id", id, "error", err)
		} else if ok {
			return tenant.Restore(snap), nil
		}
	}
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cacheTenant(ctx, t)
	return t, nil
}

// List returns tenants in creation order.
func (s *TenantService) List(ctx context.Context, opts tenant.ListOptions) ([]*tenant.Tenant, error) {
	return s.store.ListTenants(ctx, opts)
}

// SetActive activates or deactivates a tenant. Deactivating the root
// tenant fails with domain.ErrInvalidOperation before anything is written.
func (s *TenantService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*tenant.Tenant, error) {
	return s.mutate(ctx, id, "set_active", messagequeue.SubjectTenantUpdated, func(t *tenant.Tenant) error {
		return t.SetActive(active)
	})
}

// SoftDelete marks a tenant deleted. Deleting the root tenant fails with
// domain.ErrInvalidOperation before anything is written.
func (s *TenantService) SoftDelete(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return s.mutate(ctx, id, "soft_delete", messagequeue.SubjectTenantDeleted, func(t *tenant.Tenant) error {
		return t.SetDeleted(true)
	})
}

func (s *TenantService) mutate(ctx context.Context, id uuid.UUID, op, subject string, apply func(*tenant.Tenant) error) (_ *tenant.Tenant, err error) {
	ctx, span := cfotel.StartTenantSpan(ctx, op, id)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(t); err != nil {
		s.countGuard(ctx, err, op)
		return nil, err
	}

	actor := s.actor(ctx)
	t.Touch(s.now(), actor)
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.events.tenant(ctx, subject, t, actor)
	return t, nil
}

// Members is everything scoped to a tenant.
type Members struct {
	Tenant *tenant.Tenant            `json:"tenant"`
	Users  []*tenant.UserAssignment  `json:"users"`
	Roles  []*tenant.RoleAssignment  `json:"roles"`
	Groups []*tenant.GroupAssignment `json:"groups"`
}

// Members loads a tenant's user, role and group assignments concurrently.
func (s *TenantService) Members(ctx context.Context, id uuid.UUID) (_ *Members, err error) {
	ctx, span := cfotel.StartTenantSpan(ctx, "members", id)
	defer func() { cfotel.EndSpan(span, err) }()

	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	m := &Members{Tenant: t}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		m.Users, err = database.UserAssignmentFilter(s.store).GetAll(gctx, t).Unwrap()
		return err
	})
	g.Go(func() error {
		var err error
		m.Roles, err = database.RoleAssignmentFilter(s.store).GetAll(gctx, t).Unwrap()
		return err
	})
	g.Go(func() error {
		var err error
		m.Groups, err = database.GroupAssignmentFilter(s.store).GetAll(gctx, t).Unwrap()
		return err
	})
	err = g.Wait()
	if s.metrics != nil {
		s.metrics.FilterQueryDuration.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("query", "members")))
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (s *TenantService) countGuard(ctx context.Context, err error, op string) {
	var guard *tenant.GuardError
	if !errors.As(err, &guard) {
		return
	}
	slog.WarnContext(ctx, "tenant guard rejected operation", "op", op, "error", err)
	if s.metrics != nil {
		s.metrics.GuardViolations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
	}
}

func (s *TenantService) cacheTenant(ctx context.Context, t *tenant.Tenant) {
	if s.tenants == nil {
		return
	}
	if err := s.tenants.Set(ctx, t.ID.String(), t.Snapshot()); err != nil {
		slog.WarnContext(ctx, "tenant cache write failed", "tenant_id", t.ID, "error", err)
	}
}

func (s *TenantService) invalidate(ctx context.Context, id uuid.UUID) {
	if s.tenants == nil {
		return
	}
	if err := s.tenants.Delete(ctx, id.String()); err != nil {
		slog.WarnContext(ctx, "tenant cache invalidation failed", "tenant_id", id, "error", err)
	}
}
