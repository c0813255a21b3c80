package nats

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/ahardinathillc/whippet/internal/logger"
	"github.com/ahardinathillc/whippet/internal/port/messagequeue"
)

func TestRetryCount(t *testing.T) {
	tests := []struct {
		header string
		want   int
	}{
		{"", 0},
		{"2", 2},
		{"-1", 0},
		{"three", 0},
	}
	for _, tt := range tests {
		h := nats.Header{}
		if tt.header != "" {
			h.Set(headerRetryCount, tt.header)
		}
		if got := retryCount(h); got != tt.want {
			t.Errorf("retryCount(%q) = %d, want %d", tt.header, got, tt.want)
		}
	}
}

func TestBackoffDoubles(t *testing.T) {
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	for attempt, w := range want {
		if got := backoff(attempt); got != w {
			t.Errorf("backoff(%d) = %v, want %v", attempt, got, w)
		}
	}
}

// --- Integration tests (need a JetStream-enabled server at NATS_URL) ---

func testConnect(t *testing.T) *Queue {
	t.Helper()
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("requires NATS_URL")
	}
	q, err := Connect(context.Background(), url)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { _ = q.Close() })
	return q
}

// delivery is one message seen by a subscriber.
type delivery struct {
	requestID string
	data      []byte
}

// subscribeFor delivers messages on subject whose tenant_id equals tenantID.
// Messages left in the stream by earlier runs are acked and skipped.
func subscribeFor(t *testing.T, q *Queue, subject string, tenantID uuid.UUID, fail error) <-chan delivery {
	t.Helper()
	out := make(chan delivery, 4)
	stop, err := q.Subscribe(context.Background(), subject, func(ctx context.Context, _ string, data []byte) error {
		var head struct {
			TenantID string `json:"tenant_id"`
		}
		if json.Unmarshal(data, &head) != nil || head.TenantID != tenantID.String() {
			return nil
		}
		select {
		case out <- delivery{requestID: logger.RequestID(ctx), data: data}:
		default:
		}
		return fail
	})
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	t.Cleanup(stop)
	return out
}

// watchDLQ reads new messages on subject's dead-letter subject without
// running them through the validator.
func watchDLQ(t *testing.T, q *Queue, subject string) <-chan []byte {
	t.Helper()
	ctx := context.Background()
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, jetstream.ConsumerConfig{
		FilterSubject: subject + messagequeue.SubjectDeadLetterSuffix,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		t.Fatalf("dlq consumer: %v", err)
	}
	out := make(chan []byte, 4)
	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		select {
		case out <- msg.Data():
		default:
		}
		_ = msg.Ack()
	})
	if err != nil {
		t.Fatalf("dlq consume: %v", err)
	}
	t.Cleanup(cc.Stop)
	return out
}

func await[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(10 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestQueueTenantEventRoundTrip(t *testing.T) {
	q := testConnect(t)
	id := uuid.New()
	got := subscribeFor(t, q, messagequeue.SubjectTenantCreated, id, nil)

	payload, _ := json.Marshal(messagequeue.TenantEventPayload{
		TenantID: id.String(), Name: "Acme", URL: "https://acme.example", Active: true, ActorID: uuid.NewString(),
	})
	ctx := logger.WithRequestID(context.Background(), "req-tenant-1")
	if err := q.Publish(ctx, messagequeue.SubjectTenantCreated, payload); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	d := await(t, got, "tenant event")
	if d.requestID != "req-tenant-1" {
		t.Errorf("request id = %q, want req-tenant-1", d.requestID)
	}
	var p messagequeue.TenantEventPayload
	if err := json.Unmarshal(d.data, &p); err != nil || p.Name != "Acme" {
		t.Errorf("payload = %s (%v)", d.data, err)
	}
}

func TestQueueInvalidPayloadGoesToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := messagequeue.SubjectTenantDeleted
	dlq := watchDLQ(t, q, subject)
	_ = subscribeFor(t, q, subject, uuid.New(), nil)

	bad := []byte(`{"tenant_id":"not-a-uuid","name":"x"}`)
	if err := q.Publish(context.Background(), subject, bad); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := await(t, dlq, "dead letter"); string(got) != string(bad) {
		t.Errorf("dead letter = %s, want %s", got, bad)
	}
}

func TestQueueExhaustedRetriesGoToDLQ(t *testing.T) {
	q := testConnect(t)
	subject := messagequeue.SubjectAssignmentUpdated
	id := uuid.New()
	dlq := watchDLQ(t, q, subject)
	_ = subscribeFor(t, q, subject, id, errors.New("downstream unavailable"))

	data, _ := json.Marshal(messagequeue.AssignmentEventPayload{
		TenantID: id.String(), Kind: messagequeue.KindRole, PrincipalID: uuid.NewString(), ActorID: uuid.NewString(),
	})
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	msg.Header.Set(headerRetryCount, "3")
	if _, err := q.js.PublishMsg(context.Background(), msg); err != nil {
		t.Fatalf("PublishMsg: %v", err)
	}

	if got := await(t, dlq, "dead letter"); string(got) != string(data) {
		t.Errorf("dead letter = %s, want %s", got, data)
	}
}

func TestQueueKeyValueReusesBucket(t *testing.T) {
	q := testConnect(t)
	ctx := context.Background()
	bucket := "WHIPPET_TEST_" + uuid.NewString()[:8]
	t.Cleanup(func() { _ = q.js.DeleteKeyValue(ctx, bucket) })

	kv, err := q.KeyValue(ctx, bucket, time.Minute)
	if err != nil {
		t.Fatalf("KeyValue: %v", err)
	}
	if _, err := kv.Put(ctx, "tenant.root", []byte(`{"is_root":true}`)); err != nil {
		t.Fatalf("Put: %v", err)
	}

	again, err := q.KeyValue(ctx, bucket, time.Minute)
	if err != nil {
		t.Fatalf("KeyValue (existing): %v", err)
	}
	entry, err := again.Get(ctx, "tenant.root")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(entry.Value()) != `{"is_root":true}` {
		t.Errorf("value = %s", entry.Value())
	}
	if !q.IsConnected() {
		t.Error("IsConnected() = false")
	}
}
