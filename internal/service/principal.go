package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/group"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/user"
	"github.com/ahardinathillc/whippet/internal/port/database"
)

// PrincipalService registers the users, roles and groups that can be
// assigned to tenants.
type PrincipalService struct {
	store  database.Store
	system uuid.UUID
	now    func() time.Time
}

// NewPrincipalService creates a principal service.
func NewPrincipalService(store database.Store, system uuid.UUID) *PrincipalService {
	return &PrincipalService{store: store, system: system, now: time.Now}
}

// CreateUser registers an enabled user.
func (s *PrincipalService) CreateUser(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	u := &user.User{
		ID:      uuid.New(),
		Name:    strings.TrimSpace(req.Name),
		Email:   strings.TrimSpace(req.Email),
		Enabled: true,
	}
	u.Stamp(s.now(), actorOr(ctx, s.system))
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureSystemUser registers the system identity as a user if it is not
// stored yet, so audit columns stamped with it resolve to a principal.
func (s *PrincipalService) EnsureSystemUser(ctx context.Context) error {
	_, err := s.store.GetUser(ctx, s.system)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("get system user: %w", err)
	}

	u := user.System(s.system)
	u.Stamp(s.now(), s.system)
	if err := s.store.CreateUser(ctx, u); err != nil && !errors.Is(err, domain.ErrConflict) {
		return fmt.Errorf("create system user: %w", err)
	}
	return nil
}

// GetUser returns a user by id.
func (s *PrincipalService) GetUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

// CreateRole registers a role.
func (s *PrincipalService) CreateRole(ctx context.Context, req role.CreateRequest) (*role.Role, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	r := &role.Role{ID: uuid.New(), Name: strings.TrimSpace(req.Name), Description: req.Description}
	r.Stamp(s.now(), actorOr(ctx, s.system))
	if err := s.store.CreateRole(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRole returns a role by id.
func (s *PrincipalService) GetRole(ctx context.Context, id uuid.UUID) (*role.Role, error) {
	return s.store.GetRole(ctx, id)
}

// CreateGroup registers a group.
func (s *PrincipalService) CreateGroup(ctx context.Context, req group.CreateRequest) (*group.Group, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	g := &group.Group{ID: uuid.New(), Name: strings.TrimSpace(req.Name), Description: req.Description}
	g.Stamp(s.now(), actorOr(ctx, s.system))
	if err := s.store.CreateGroup(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetGroup returns a group by id.
func (s *PrincipalService) GetGroup(ctx context.Context, id uuid.UUID) (*group.Group, error) {
	return s.store.GetGroup(ctx, id)
}
