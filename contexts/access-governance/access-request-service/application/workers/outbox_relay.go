package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "coliseum/contexts/access-governance/access-request-service/application"
	"coliseum/internal/shared/events"
	"coliseum/internal/shared/outbox"
)

// OutboxSource exposes the pending rows of the transactional outbox.
type OutboxSource interface {
	ListPending(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkPublished(ctx context.Context, messageID string) error
	MarkFailed(ctx context.Context, messageID string) error
}

// Publisher delivers envelopes to the event bus.
type Publisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

// OutboxRelay drains pending outbox rows onto the event bus. Rows hold the
// serialized envelope; the event type doubles as the topic.
type OutboxRelay struct {
	Source    OutboxSource
	Publisher Publisher
	Interval  time.Duration
	BatchSize int
	Logger    *slog.Logger
}

func (w OutboxRelay) Run(ctx context.Context) {
	logger := application.ResolveLogger(w.Logger)
	interval := w.Interval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.RelayOnce(ctx, logger)
		}
	}
}

func (w OutboxRelay) RelayOnce(ctx context.Context, logger *slog.Logger) {
	if logger == nil {
		logger = application.ResolveLogger(w.Logger)
	}
	batch := w.BatchSize
	if batch <= 0 {
		batch = 50
	}
	messages, err := w.Source.ListPending(ctx, batch)
	if err != nil {
		logger.Error("outbox poll failed",
			"event", "outbox_poll_failed",
			"module", "access-governance/access-request-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return
	}

	for _, message := range messages {
		var envelope events.Envelope
		if err := json.Unmarshal(message.Payload, &envelope); err != nil {
			logger.Error("outbox payload malformed",
				"event", "outbox_relay_failed",
				"module", "access-governance/access-request-service",
				"layer", "worker",
				"message_id", message.ID,
				"error", err.Error(),
			)
			_ = w.Source.MarkFailed(ctx, message.ID)
			continue
		}
		if err := w.Publisher.Publish(ctx, message.EventType, envelope); err != nil {
			logger.Error("outbox publish failed",
				"event", "outbox_relay_failed",
				"module", "access-governance/access-request-service",
				"layer", "worker",
				"message_id", message.ID,
				"error", err.Error(),
			)
			_ = w.Source.MarkFailed(ctx, message.ID)
			continue
		}
		if err := w.Source.MarkPublished(ctx, message.ID); err != nil {
			logger.Error("outbox status update failed",
				"event", "outbox_relay_failed",
				"module", "access-governance/access-request-service",
				"layer", "worker",
				"message_id", message.ID,
				"error", err.Error(),
			)
			continue
		}
		logger.Info("outbox event relayed",
			"event", "outbox_event_relayed",
			"module", "access-governance/access-request-service",
			"layer", "worker",
			"message_id", message.ID,
			"event_type", message.EventType,
		)
	}
}
