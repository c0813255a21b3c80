package tenant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
)

// SystemUserResolver resolves the non-interactive identity that stamps the
// audit fields of records created outside a user request.
type SystemUserResolver interface {
	ResolveSystemUser(ctx context.Context) (uuid.UUID, error)
}

// StaticSystemUser resolves to a fixed, configured identity.
type StaticSystemUser uuid.UUID

// ResolveSystemUser returns the configured id. A nil id is an error.
func (s StaticSystemUser) ResolveSystemUser(context.Context) (uuid.UUID, error) {
	id := uuid.UUID(s)
	if id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("resolve system user: %w", domain.ErrInvalidOperation)
	}
	return id, nil
}

// Registry holds the process-wide root tenant. The root is established at
// most once per registry; reads return independent copies.
type Registry struct {
	mu          sync.Mutex
	root        *Tenant
	established bool

	resolver SystemUserResolver
	now      func() time.Time
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithClock overrides the time source used to stamp the root tenant.
func WithClock(now func() time.Time) RegistryOption {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry.
func NewRegistry(resolver SystemUserResolver, opts ...RegistryOption) *Registry {
	r := &Registry{resolver: resolver, now: time.Now}
	for _, o := range opts {
		o(r)
	}
	return r
}

// SetRoot establishes the root tenant. Arguments are validated before any
// state is touched. A second call fails with domain.ErrInvalidOperation and
// leaves the established root unchanged.
func (r *Registry) SetRoot(ctx context.Context, id uuid.UUID, name, url string) (*Tenant, error) {
	return r.SetRootWith(ctx, id, name, url, nil)
}

// SetRootWith is SetRoot with a commit step. commit receives a copy of the
// new root while the registry is locked; if it fails the registry stays
// unestablished and the error is returned.
func (r *Registry) SetRootWith(ctx context.Context, id uuid.UUID, name, url string, commit func(*Tenant) error) (*Tenant, error) {
	if id == uuid.Nil {
		return nil, domain.EmptyArgument("id")
	}
	if strings.TrimSpace(name) == "" {
		return nil, domain.EmptyArgument("name")
	}
	if strings.TrimSpace(url) == "" {
		return nil, domain.EmptyArgument("url")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.established {
		return nil, newGuardError(msgRootEstablished, r.root.ID)
	}

	actor, err := r.resolver.ResolveSystemUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("set root tenant: %w", err)
	}

	t := New(id, name, url)
	t.root = true
	t.Stamp(r.now(), actor)

	if commit != nil {
		if err := commit(t.Clone()); err != nil {
			return nil, fmt.Errorf("set root tenant: %w", err)
		}
	}

	r.root = t
	r.established = true
	return t.Clone(), nil
}

// Adopt establishes a root tenant loaded from storage. It applies the same
// once-only rule as SetRoot.
func (r *Registry) Adopt(t *Tenant) error {
	if t == nil {
		return domain.NilArgument("tenant")
	}
	if !t.root {
		return fmt.Errorf("adopt tenant %s: not a root tenant: %w", t.ID, domain.ErrInvalidArgument)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.established {
		return newGuardError(msgRootEstablished, r.root.ID)
	}
	r.root = t.Clone()
	r.established = true
	return nil
}

// Root returns a copy of the root tenant, or false if none is established.
func (r *Registry) Root() (*Tenant, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.established {
		return nil, false
	}
	return r.root.Clone(), true
}

// SetResolver replaces the system user resolver used by later SetRoot calls.
func (r *Registry) SetResolver(resolver SystemUserResolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolver = resolver
}

// Established reports whether the root tenant has been set.
func (r *Registry) Established() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.established
}

// DefaultSystemUserID stamps records written by the process itself when no
// identity is configured.
var DefaultSystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Default is the process-wide registry.
var Default = NewRegistry(StaticSystemUser(DefaultSystemUserID))

// SetRootTenant establishes the root tenant on the Default registry.
func SetRootTenant(ctx context.Context, id uuid.UUID, name, url string) (*Tenant, error) {
	return Default.SetRoot(ctx, id, name, url)
}

// RootTenant returns a copy of the Default registry's root tenant.
func RootTenant() (*Tenant, bool) {
	return Default.Root()
}
