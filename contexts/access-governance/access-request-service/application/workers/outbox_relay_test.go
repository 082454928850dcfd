package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coliseum/contexts/access-governance/access-request-service/adapters/memory"
	"coliseum/internal/shared/events"
)

type capturePublisher struct {
	mu       sync.Mutex
	failWith error
	topics   []string
	events   []events.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, topic string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return p.failWith
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func TestRelayOncePublishesPendingRows(t *testing.T) {
	store := memory.NewStore()
	if err := store.Enqueue(context.Background(), "access.approved", "access_request", "request-1", map[string]any{"project_id": "project-1"}, time.Now().UTC()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	publisher := &capturePublisher{}
	relay := OutboxRelay{Source: store, Publisher: publisher}
	relay.RelayOnce(context.Background(), nil)

	if len(publisher.events) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.events))
	}
	if publisher.topics[0] != "access.approved" {
		t.Fatalf("expected event type as topic, got %s", publisher.topics[0])
	}
	if publisher.events[0].EntityID != "request-1" {
		t.Fatalf("unexpected envelope: %+v", publisher.events[0])
	}

	messages := store.OutboxMessages()
	if messages[0].Status != "published" {
		t.Fatalf("expected published status, got %s", messages[0].Status)
	}

	relay.RelayOnce(context.Background(), nil)
	if len(publisher.events) != 1 {
		t.Fatalf("expected no republication of drained rows")
	}
}

func TestRelayOnceMarksFailedRows(t *testing.T) {
	store := memory.NewStore()
	if err := store.Enqueue(context.Background(), "access.approved", "access_request", "request-1", nil, time.Now().UTC()); err != nil {
		t.Fatalf("enqueue failed: %v", err)
	}

	publisher := &capturePublisher{failWith: errors.New("bus down")}
	relay := OutboxRelay{Source: store, Publisher: publisher}
	relay.RelayOnce(context.Background(), nil)

	messages := store.OutboxMessages()
	if messages[0].Status != "failed" {
		t.Fatalf("expected failed status, got %s", messages[0].Status)
	}
	if messages[0].RetryCount != 1 {
		t.Fatalf("expected retry count bump, got %d", messages[0].RetryCount)
	}
}
