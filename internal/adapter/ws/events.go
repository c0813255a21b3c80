package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
)

// Event type constants for WebSocket messages.
const (
	EventTenantCreated     = "tenant.created"
	EventTenantUpdated     = "tenant.updated"
	EventTenantDeleted     = "tenant.deleted"
	EventRootEstablished   = "tenant.root_established"
	EventAssignmentChanged = "assignment.changed"
)

// BroadcastEvent marshals a typed event and broadcasts it to every client.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	if msg, ok := envelope(ctx, eventType, payload); ok {
		h.Broadcast(ctx, msg)
	}
}

// BroadcastTenantEvent marshals a typed event and sends it to the clients
// of one tenant.
func (h *Hub) BroadcastTenantEvent(ctx context.Context, tenantID uuid.UUID, eventType string, payload any) {
	if msg, ok := envelope(ctx, eventType, payload); ok {
		h.BroadcastToTenant(ctx, tenantID, msg)
	}
}

func envelope(ctx context.Context, eventType string, payload any) (Message, bool) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.ErrorContext(ctx, "marshal ws event payload", "type", eventType, "error", err)
		return Message{}, false
	}
	return Message{Type: eventType, Payload: data}, true
}
