package postgresadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"coliseum/internal/platform/db"
	"coliseum/internal/shared/events"
	"coliseum/internal/shared/outbox"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxRepository writes integration events into the same transaction as
// the state change and serves the relay worker.
type OutboxRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewOutboxRepository(gdb *gorm.DB, logger *slog.Logger) *OutboxRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRepository{db: gdb, logger: logger}
}

func (r *OutboxRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&outboxModel{})
}

func (r *OutboxRepository) Enqueue(ctx context.Context, eventType string, entityType string, entityID string, payload any, now time.Time) error {
	envelope := events.Envelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  "access-request-service",
		OccurredAtUTC:  now.UTC(),
		EntityType:     entityType,
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	row := outboxModel{
		ID:        envelope.EventID,
		EventType: eventType,
		Payload:   raw,
		Status:    "pending",
		CreatedAt: envelope.OccurredAtUTC,
		UpdatedAt: envelope.OccurredAtUTC,
	}
	return db.FromContext(ctx, r.db).Create(&row).Error
}

func (r *OutboxRepository) ListPending(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	err := db.FromContext(ctx, r.db).
		Where("status = ?", "pending").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			ID:         row.ID,
			EventType:  row.EventType,
			Payload:    row.Payload,
			Status:     row.Status,
			RetryCount: row.RetryCount,
		})
	}
	return items, nil
}

func (r *OutboxRepository) MarkPublished(ctx context.Context, messageID string) error {
	return db.FromContext(ctx, r.db).
		Model(&outboxModel{}).
		Where("id = ?", messageID).
		Updates(map[string]any{"status": "published", "updated_at": time.Now().UTC()}).Error
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, messageID string) error {
	return db.FromContext(ctx, r.db).
		Model(&outboxModel{}).
		Where("id = ?", messageID).
		Updates(map[string]any{
			"status":      "failed",
			"retry_count": gorm.Expr("retry_count + 1"),
			"updated_at":  time.Now().UTC(),
		}).Error
}

type outboxModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	EventType  string    `gorm:"column:event_type;index"`
	Payload    []byte    `gorm:"column:payload;type:jsonb"`
	Status     string    `gorm:"column:status;index"`
	RetryCount int       `gorm:"column:retry_count"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (outboxModel) TableName() string { return "outbox_messages" }
