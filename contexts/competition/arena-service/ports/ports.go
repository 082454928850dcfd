package ports

import (
	"context"
	"time"

	"coliseum/contexts/competition/arena-service/domain/entities"
)

type Repository interface {
	CreateArena(ctx context.Context, arena entities.Arena) error
	GetArena(ctx context.Context, arenaID string) (entities.Arena, error)
	// GetArenaForUpdate loads and row-locks the arena so concurrent callers
	// cannot both observe the pre-transition status.
	GetArenaForUpdate(ctx context.Context, arenaID string) (entities.Arena, error)
	UpdateArena(ctx context.Context, arena entities.Arena) error
	ListArenas(ctx context.Context, projectID string) ([]entities.Arena, error)
	// ListActivePrimaries returns every active primary leaderboard arena of
	// the project, row-locked for update.
	ListActivePrimaries(ctx context.Context, projectID string) ([]entities.Arena, error)
	// FindLatestPrimary returns the most recently touched non-terminal
	// primary leaderboard arena, preferring an active one.
	FindLatestPrimary(ctx context.Context, projectID string) (entities.Arena, bool, error)
	// ListAllActive feeds the worker's scheduled ingestion.
	ListAllActive(ctx context.Context) ([]entities.Arena, error)
}

// ProjectLocker serializes all arena mutations for one project. The lock is
// held across the whole read-validate-write sequence, not just the write.
type ProjectLocker interface {
	AcquireProject(ctx context.Context, projectID string) (release func(), err error)
}

type UnitOfWork interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditEntry struct {
	Actor      string
	ProjectID  string
	EntityType string
	EntityID   string
	Action     string
	Success    bool
	Message    string
	Metadata   map[string]any
}

type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
