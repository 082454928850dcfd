package postgresadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"coliseum/contexts/platform-audit/audit-service/domain/entities"
	"coliseum/internal/platform/db"

	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(gdb *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: gdb, logger: logger}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&entryModel{})
}

func (r *Repository) AppendEntry(ctx context.Context, entry entities.Entry) error {
	row, err := entryModelFromEntity(entry)
	if err != nil {
		return err
	}
	return db.FromContext(ctx, r.db).Create(&row).Error
}

func (r *Repository) ListByProject(ctx context.Context, projectID string, limit int) ([]entities.Entry, error) {
	var rows []entryModel
	err := db.FromContext(ctx, r.db).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return entriesFromModels(rows)
}

func (r *Repository) ListByEntity(ctx context.Context, entityType string, entityID string, limit int) ([]entities.Entry, error) {
	var rows []entryModel
	err := db.FromContext(ctx, r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return entriesFromModels(rows)
}

type entryModel struct {
	EntryID    string    `gorm:"column:entry_id;primaryKey"`
	Actor      string    `gorm:"column:actor"`
	ProjectID  string    `gorm:"column:project_id;index"`
	EntityType string    `gorm:"column:entity_type;index:idx_audit_entity"`
	EntityID   string    `gorm:"column:entity_id;index:idx_audit_entity"`
	Action     string    `gorm:"column:action"`
	Success    bool      `gorm:"column:success"`
	Message    string    `gorm:"column:message"`
	Metadata   []byte    `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (entryModel) TableName() string {
	return "audit_entries"
}

func entryModelFromEntity(entry entities.Entry) (entryModel, error) {
	var metadata []byte
	if entry.Metadata != nil {
		raw, err := json.Marshal(entry.Metadata)
		if err != nil {
			return entryModel{}, err
		}
		metadata = raw
	}
	return entryModel{
		EntryID:    entry.EntryID,
		Actor:      entry.Actor,
		ProjectID:  entry.ProjectID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Success:    entry.Success,
		Message:    entry.Message,
		Metadata:   metadata,
		CreatedAt:  entry.CreatedAt,
	}, nil
}

func entriesFromModels(rows []entryModel) ([]entities.Entry, error) {
	items := make([]entities.Entry, 0, len(rows))
	for _, row := range rows {
		var metadata map[string]any
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &metadata); err != nil {
				return nil, err
			}
		}
		items = append(items, entities.Entry{
			EntryID:    row.EntryID,
			Actor:      row.Actor,
			ProjectID:  row.ProjectID,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Action:     row.Action,
			Success:    row.Success,
			Message:    row.Message,
			Metadata:   metadata,
			CreatedAt:  row.CreatedAt,
		})
	}
	return items, nil
}
