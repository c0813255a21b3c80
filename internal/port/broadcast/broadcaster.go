// Package broadcast defines the port for broadcasting real-time events to connected clients.
package broadcast

import (
	"context"

	"github.com/google/uuid"
)

// Broadcaster sends real-time events to connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)

	// BroadcastTenantEvent sends a typed event to the clients of one tenant.
	BroadcastTenantEvent(ctx context.Context, tenantID uuid.UUID, eventType string, payload any)
}

// Nop discards every event.
type Nop struct{}

func (Nop) BroadcastEvent(context.Context, string, any)                  {}
func (Nop) BroadcastTenantEvent(context.Context, uuid.UUID, string, any) {}
