package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/ahardinathillc/whippet/internal/port/broadcast"
)

var _ broadcast.Broadcaster = (*Hub)(nil)

type tenantKey struct{}

func TestNewHub(t *testing.T) {
	hub := NewHub("", nil)
	if hub.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections, got %d", hub.ConnectionCount())
	}
}

func TestHubBroadcastNoConnections(t *testing.T) {
	hub := NewHub("", nil)
	hub.Broadcast(context.Background(), Message{Type: "test", Payload: []byte(`{"key":"value"}`)})
	hub.BroadcastToTenant(context.Background(), uuid.New(), Message{Type: "test", Payload: []byte(`{}`)})
}

func TestHubBroadcastEventMarshalError(t *testing.T) {
	hub := NewHub("", nil)
	// A channel cannot be marshaled to JSON; the event is dropped.
	hub.BroadcastEvent(context.Background(), "bad", make(chan int))
}

func TestHubRemoveNonexistent(t *testing.T) {
	hub := NewHub("", nil)
	_, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub.remove(&conn{cancel: cancel, tenantID: uuid.New()})
}

func dial(t *testing.T, srvURL string, tenantID uuid.UUID) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srvURL, "http") + "?tenant=" + tenantID.String()
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.CloseNow() })
	return c
}

func waitForConns(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for hub.ConnectionCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("connections = %d, want %d", hub.ConnectionCount(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubTenantScopedDelivery(t *testing.T) {
	acme, globex := uuid.New(), uuid.New()
	hub := NewHub("", func(ctx context.Context) (uuid.UUID, bool) {
		id, ok := ctx.Value(tenantKey{}).(uuid.UUID)
		return id, ok
	})
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	acmeConn := dial(t, srv.URL, acme)
	globexConn := dial(t, srv.URL, globex)
	waitForConns(t, hub, 2)

	hub.BroadcastTenantEvent(context.Background(), acme, EventTenantUpdated, map[string]string{"name": "Acme"})
	hub.BroadcastEvent(context.Background(), EventRootEstablished, map[string]string{"name": "Root"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var first Message
	_, data, err := acmeConn.Read(ctx)
	if err != nil {
		t.Fatalf("acme read: %v", err)
	}
	if err := json.Unmarshal(data, &first); err != nil {
		t.Fatal(err)
	}
	if first.Type != EventTenantUpdated {
		t.Fatalf("acme first event = %q, want %q", first.Type, EventTenantUpdated)
	}

	var got Message
	_, data, err = globexConn.Read(ctx)
	if err != nil {
		t.Fatalf("globex read: %v", err)
	}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.Type != EventRootEstablished {
		t.Fatalf("globex first event = %q, want %q (tenant event leaked)", got.Type, EventRootEstablished)
	}

	hub.Close()
	if hub.ConnectionCount() != 0 {
		t.Fatalf("connections after Close = %d", hub.ConnectionCount())
	}
}
