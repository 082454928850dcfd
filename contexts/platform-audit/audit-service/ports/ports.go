package ports

import (
	"context"
	"time"

	"coliseum/contexts/platform-audit/audit-service/domain/entities"
)

type Repository interface {
	AppendEntry(ctx context.Context, entry entities.Entry) error
	ListByProject(ctx context.Context, projectID string, limit int) ([]entities.Entry, error)
	ListByEntity(ctx context.Context, entityType string, entityID string, limit int) ([]entities.Entry, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type AppendInput struct {
	Actor      string
	ProjectID  string
	EntityType string
	EntityID   string
	Action     string
	Success    bool
	Message    string
	Metadata   map[string]any
}
