package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/adapter/ws"
	"github.com/ahardinathillc/whippet/internal/domain/tenant"
	"github.com/ahardinathillc/whippet/internal/port/broadcast"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
	"github.com/ahardinathillc/whippet/internal/resilience"
)

// Events fans domain changes out to the message queue and to connected
// WebSocket clients. Publishing is best-effort: failures are logged and
// never fail the operation that produced the event. A nil *Events is a
// valid no-op publisher.
type Events struct {
	queue   messagequeue.Queue
	breaker *resilience.Breaker
	hub     broadcast.Broadcaster
}

// NewEvents creates an event publisher. queue and hub may be nil.
func NewEvents(queue messagequeue.Queue, breaker *resilience.Breaker, hub broadcast.Broadcaster) *Events {
	if hub == nil {
		hub = broadcast.Nop{}
	}
	return &Events{queue: queue, breaker: breaker, hub: hub}
}

func tenantPayload(t *tenant.Tenant, actor uuid.UUID) messagequeue.TenantEventPayload {
	return messagequeue.TenantEventPayload{
		TenantID: t.ID.String(),
		Name:     t.Name,
		URL:      t.URL,
		IsRoot:   t.IsRootTenant(),
		Active:   t.Active(),
		Deleted:  t.Deleted(),
		ActorID:  actor.String(),
	}
}

var tenantEventTypes = map[string]string{
	messagequeue.SubjectTenantCreated:   ws.EventTenantCreated,
	messagequeue.SubjectTenantUpdated:   ws.EventTenantUpdated,
	messagequeue.SubjectTenantDeleted:   ws.EventTenantDeleted,
	messagequeue.SubjectRootEstablished: ws.EventRootEstablished,
}

func (e *Events) tenant(ctx context.Context, subject string, t *tenant.Tenant, actor uuid.UUID) {
	if e == nil {
		return
	}
	p := tenantPayload(t, actor)
	e.publish(ctx, subject, p)
	if subject == messagequeue.SubjectRootEstablished || subject == messagequeue.SubjectTenantCreated {
		e.hub.BroadcastEvent(ctx, tenantEventTypes[subject], p)
		return
	}
	e.hub.BroadcastTenantEvent(ctx, t.ID, tenantEventTypes[subject], p)
}

func (e *Events) assignment(ctx context.Context, subject string, p messagequeue.AssignmentEventPayload) {
	if e == nil {
		return
	}
	e.publish(ctx, subject, p)
	if id, err := uuid.Parse(p.TenantID); err == nil {
		e.hub.BroadcastTenantEvent(ctx, id, ws.EventAssignmentChanged, p)
	}
}

func (e *Events) publish(ctx context.Context, subject string, payload any) {
	if e.queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal event", "subject", subject, "error", err)
		return
	}
	publish := func(ctx context.Context) error { return e.queue.Publish(ctx, subject, data) }
	if e.breaker != nil {
		err = e.breaker.ExecuteContext(ctx, publish)
	} else {
		err = publish(ctx)
	}
	if err != nil {
		slog.WarnContext(ctx, "event publish failed", "subject", subject, "error", err)
	}
}
