package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/ahardinathillc/whippet/internal/adapter/sqlstore"
	"github.com/ahardinathillc/whippet/internal/config"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
	"github.com/ahardinathillc/whippet/internal/resilience"
)

var (
	systemID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	fixedNow = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
)

type published struct {
	subject string
	data    []byte
}

// recordingQueue captures publishes. When fail is set every publish errors.
type recordingQueue struct {
	mu   sync.Mutex
	msgs []published
	fail bool
}

func (q *recordingQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.fail {
		return errors.New("queue unavailable")
	}
	q.msgs = append(q.msgs, published{subject: subject, data: data})
	return nil
}

func (q *recordingQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *recordingQueue) Drain() error      { return nil }
func (q *recordingQueue) Close() error      { return nil }
func (q *recordingQueue) IsConnected() bool { return true }

func (q *recordingQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.msgs))
	for i, m := range q.msgs {
		out[i] = m.subject
	}
	return out
}

type hubEvent struct {
	tenantID  uuid.UUID
	eventType string
}

type recordingHub struct {
	mu     sync.Mutex
	events []hubEvent
}

func (h *recordingHub) BroadcastEvent(_ context.Context, eventType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{eventType: eventType})
}

func (h *recordingHub) BroadcastTenantEvent(_ context.Context, tenantID uuid.UUID, eventType string, _ any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, hubEvent{tenantID: tenantID, eventType: eventType})
}

type harness struct {
	store       *sqlstore.Store
	registry    *tenant.Registry
	queue       *recordingQueue
	hub         *recordingHub
	tenants     *TenantService
	assignments *AssignmentService
	principals  *PrincipalService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	store, err := sqlstore.Open(ctx, config.Database{Driver: "sqlite", DSN: ":memory:", MaxConns: 1})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	h := &harness{
		store:    store,
		registry: tenant.NewRegistry(tenant.StaticSystemUser(systemID), tenant.WithClock(func() time.Time { return fixedNow })),
		queue:    &recordingQueue{},
		hub:      &recordingHub{},
	}
	events := NewEvents(h.queue, resilience.NewBreaker(5, time.Minute), h.hub)
	h.tenants = NewTenantService(store, h.registry, events, systemID)
	h.tenants.now = func() time.Time { return fixedNow }
	h.assignments = NewAssignmentService(store, events, systemID)
	h.assignments.now = func() time.Time { return fixedNow }
	h.principals = NewPrincipalService(store, systemID)
	h.principals.now = func() time.Time { return fixedNow }
	return h
}
