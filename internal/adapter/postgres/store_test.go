package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/ahardinathillc/whippet/internal/adapter/postgres"
	"github.com/ahardinathillc/whippet/internal/domain"
	"github.com/ahardinathillc/whippet/internal/domain/entity"
	"github.com/ahardinathillc/whippet/internal/domain/role"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/domain/user"
	"github.com/ahardinathillc/whippet/internal/port/database"
)

var (
	tenantCols = []string{"id", "name", "url", "is_root", "active", "deleted", "created_at", "created_by", "modified_at", "modified_by"}
	userCols   = []string{"id", "name", "email", "enabled", "created_at", "created_by", "modified_at", "modified_by"}
)

type StoreTestSuite struct {
	suite.Suite
	mock   pgxmock.PgxPoolIface
	store  *postgres.Store
	ctx    context.Context
	actor  uuid.UUID
	now    time.Time
	tenant *tenant.Tenant
}

func (s *StoreTestSuite) SetupTest() {
	mock, err := pgxmock.NewPool()
	s.Require().NoError(err)
	s.mock = mock
	s.store = postgres.NewStore(mock)
	s.ctx = context.Background()
	s.actor = uuid.New()
	s.now = time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	s.tenant = tenant.New(uuid.New(), "Acme", "https://acme.example")
	s.tenant.Stamp(s.now, s.actor)
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.mock.ExpectationsWereMet())
	s.mock.Close()
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) tenantRow(t *tenant.Tenant) *pgxmock.Rows {
	snap := t.Snapshot()
	return pgxmock.NewRows(tenantCols).AddRow(snap.ID, snap.Name, snap.URL, snap.IsRoot, snap.Active, snap.Deleted,
		snap.CreatedAt, snap.CreatedBy, snap.ModifiedAt, snap.ModifiedBy)
}

func (s *StoreTestSuite) TestCreateTenant() {
	snap := s.tenant.Snapshot()
	s.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(snap.ID, snap.Name, snap.URL, false, true, false, snap.CreatedAt, snap.CreatedBy, snap.ModifiedAt, snap.ModifiedBy).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	s.NoError(s.store.CreateTenant(s.ctx, s.tenant))
}

func (s *StoreTestSuite) TestCreateTenantDuplicate() {
	s.mock.ExpectExec(`INSERT INTO tenants`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.store.CreateTenant(s.ctx, s.tenant)
	s.ErrorIs(err, domain.ErrConflict)
}

func (s *StoreTestSuite) TestGetTenant() {
	s.mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id = \$1`).
		WithArgs(s.tenant.ID).
		WillReturnRows(s.tenantRow(s.tenant))

	got, err := s.store.GetTenant(s.ctx, s.tenant.ID)
	s.Require().NoError(err)
	s.True(got.Equal(s.tenant))
	s.False(got.IsRootTenant())
}

func (s *StoreTestSuite) TestGetTenantNotFound() {
	id := uuid.New()
	s.mock.ExpectQuery(`SELECT (.+) FROM tenants WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.store.GetTenant(s.ctx, id)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreTestSuite) TestGetRootTenantRestoresFlag() {
	root := tenant.Restore(tenant.Snapshot{
		ID: uuid.New(), Name: "Root", URL: "https://root.example",
		IsRoot: true, Active: true,
		Audit: entity.Audit{CreatedAt: s.now, CreatedBy: s.actor, ModifiedAt: s.now, ModifiedBy: s.actor},
	})
	s.mock.ExpectQuery(`FROM tenants WHERE is_root`).WillReturnRows(s.tenantRow(root))

	got, err := s.store.GetRootTenant(s.ctx)
	s.Require().NoError(err)
	s.True(got.IsRootTenant())
	s.ErrorIs(got.SetDeleted(true), domain.ErrInvalidOperation)
}

func (s *StoreTestSuite) TestListTenantsExcludesDeletedByDefault() {
	s.mock.ExpectQuery(`FROM tenants\s+WHERE \$1 OR NOT deleted`).
		WithArgs(false).
		WillReturnRows(s.tenantRow(s.tenant))

	got, err := s.store.ListTenants(s.ctx, tenant.ListOptions{})
	s.Require().NoError(err)
	s.Len(got, 1)
}

func (s *StoreTestSuite) TestListTenantsEmpty() {
	s.mock.ExpectQuery(`FROM tenants`).
		WithArgs(true).
		WillReturnRows(pgxmock.NewRows(tenantCols))

	got, err := s.store.ListTenants(s.ctx, tenant.ListOptions{IncludeDeleted: true})
	s.Require().NoError(err)
	s.NotNil(got)
	s.Empty(got)
}

func (s *StoreTestSuite) TestUpdateTenantNotFound() {
	s.mock.ExpectExec(`UPDATE tenants SET`).
		WithArgs(s.tenant.ID, s.tenant.Name, s.tenant.URL, true, false, s.tenant.ModifiedAt, s.tenant.ModifiedBy).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.store.UpdateTenant(s.ctx, s.tenant)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreTestSuite) TestAssignAndRevokeUser() {
	u := &user.User{ID: uuid.New(), Name: "alice", Email: "alice@acme.example"}
	a, err := tenant.NewUserAssignment(s.tenant, u)
	s.Require().NoError(err)

	s.mock.ExpectExec(`INSERT INTO user_assignments`).
		WithArgs(s.tenant.ID, u.ID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	s.mock.ExpectExec(`DELETE FROM user_assignments`).
		WithArgs(s.tenant.ID, u.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	s.mock.ExpectExec(`DELETE FROM user_assignments`).
		WithArgs(s.tenant.ID, u.ID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	s.NoError(s.store.AssignUser(s.ctx, a))
	s.NoError(s.store.RevokeUser(s.ctx, s.tenant.ID, u.ID))
	s.ErrorIs(s.store.RevokeUser(s.ctx, s.tenant.ID, u.ID), domain.ErrNotFound)
}

func (s *StoreTestSuite) TestUserAssignmentFilter() {
	alice := &user.User{ID: uuid.New(), Name: "alice", Email: "alice@acme.example", Enabled: true}

	s.mock.ExpectQuery(`FROM tenants WHERE id = \$1`).
		WithArgs(s.tenant.ID).
		WillReturnRows(s.tenantRow(s.tenant))
	s.mock.ExpectQuery(`FROM user_assignments ua JOIN users u`).
		WithArgs(s.tenant.ID).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(alice.ID, alice.Name, alice.Email, alice.Enabled,
			s.now, s.actor, s.now, s.actor))

	res := database.UserAssignmentFilter(s.store).GetAll(s.ctx, s.tenant)
	s.Require().NoError(res.Err)
	s.Require().Len(res.Items, 1)
	s.Equal(alice.ID, res.Items[0].UserRef().ID)
	s.True(res.Items[0].TenantRef().Equal(s.tenant))
}

func (s *StoreTestSuite) TestListRoleAssignments() {
	r := &role.Role{ID: uuid.New(), Name: "admin", Description: "full access"}
	raID := uuid.New()

	s.mock.ExpectQuery(`FROM tenants WHERE id = \$1`).
		WithArgs(s.tenant.ID).
		WillReturnRows(s.tenantRow(s.tenant))
	s.mock.ExpectQuery(`FROM role_assignments ra JOIN roles r`).
		WithArgs(s.tenant.ID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "active", "deleted", "created_at", "created_by", "modified_at", "modified_by",
			"id", "name", "description", "created_at", "created_by", "modified_at", "modified_by",
		}).AddRow(raID, true, false, s.now, s.actor, s.now, s.actor,
			r.ID, r.Name, r.Description, s.now, s.actor, s.now, s.actor))

	got, err := s.store.ListRoleAssignments(s.ctx, s.tenant.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(raID, got[0].ID)
	s.Equal("admin", got[0].Role().Name)
	s.True(got[0].Active)
	s.Equal(s.actor, got[0].CreatedBy)
}

func (s *StoreTestSuite) TestUpdateRoleAssignment() {
	r := &role.Role{ID: uuid.New(), Name: "admin"}
	a, err := tenant.NewRoleAssignment(s.tenant, r, s.actor, s.now)
	s.Require().NoError(err)
	a.Deleted = true
	a.Touch(s.now.Add(time.Hour), s.actor)

	s.mock.ExpectExec(`UPDATE role_assignments SET`).
		WithArgs(a.ID, true, true, a.ModifiedAt, a.ModifiedBy).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	s.NoError(s.store.UpdateRoleAssignment(s.ctx, a))
}

func (s *StoreTestSuite) TestGetRoleAssignmentNotFound() {
	id := uuid.New()
	s.mock.ExpectQuery(`FROM role_assignments WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := s.store.GetRoleAssignment(s.ctx, id)
	s.ErrorIs(err, domain.ErrNotFound)
}

func TestListGroupAssignmentsQueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	tn := tenant.New(uuid.New(), "Acme", "https://acme.example")
	snap := tn.Snapshot()
	mock.ExpectQuery(`FROM tenants WHERE id = \$1`).
		WithArgs(tn.ID).
		WillReturnRows(pgxmock.NewRows(tenantCols).AddRow(snap.ID, snap.Name, snap.URL, snap.IsRoot, snap.Active,
			snap.Deleted, snap.CreatedAt, snap.CreatedBy, snap.ModifiedAt, snap.ModifiedBy))
	boom := errors.New("connection reset")
	mock.ExpectQuery(`FROM group_assignments ga JOIN principal_groups g`).
		WithArgs(tn.ID).
		WillReturnError(boom)

	_, err = postgres.NewStore(mock).ListGroupAssignments(context.Background(), tn.ID)
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}
