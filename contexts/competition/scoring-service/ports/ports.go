package ports

import (
	"context"
	"time"

	"coliseum/contexts/competition/scoring-service/domain/entities"
)

// ActivityRecord is one raw post from the external activity feed.
type ActivityRecord struct {
	SourcePostID    string
	AuthorHandle    string
	AuthorName      string
	AuthorAvatarURL string
	// SelfAuthored marks posts published by the project's own account.
	// The feed client knows which account it queries for, so it sets the
	// flag; such posts never score.
	SelfAuthored bool
	Engagement   entities.EngagementCounts
	OccurredAt   time.Time
}

// ActivityFeed is the external collaborator delivering qualifying activity,
// append-only and ordered by OccurredAt.
type ActivityFeed interface {
	FetchActivity(ctx context.Context, projectID string, since time.Time) ([]ActivityRecord, error)
}

type CreatorRepository interface {
	FindByHandle(ctx context.Context, handle string) (entities.CreatorProfile, bool, error)
	// CreateCreator inserts the profile unless one with the same handle
	// already exists; it reports whether a row was written. Callers that
	// lose the race must re-read the winning row.
	CreateCreator(ctx context.Context, creator entities.CreatorProfile) (bool, error)
	// UpdateProfile refreshes display name and avatar. Implementations must
	// never replace a non-empty avatar URL with an empty one.
	UpdateProfile(ctx context.Context, creatorID string, displayName string, avatarURL string, now time.Time) error
	GetCreator(ctx context.Context, creatorID string) (entities.CreatorProfile, error)
}

type ContributionRepository interface {
	// InsertIgnoreDuplicate inserts the contribution unless a row with the
	// same (projectID, sourcePostID) already exists; it reports whether a
	// row was written.
	InsertIgnoreDuplicate(ctx context.Context, contribution entities.Contribution) (bool, error)
	SumPoints(ctx context.Context, arenaID string, creatorID string) (int64, error)
	ListCreatorIDs(ctx context.Context, arenaID string) ([]string, error)
	ListContributions(ctx context.Context, arenaID string, limit int) ([]entities.Contribution, error)
}

type AdjustmentRepository interface {
	AppendAdjustment(ctx context.Context, adjustment entities.PointAdjustment) error
	SumDeltas(ctx context.Context, arenaID string, creatorID string) (int64, error)
	ListCreatorIDs(ctx context.Context, arenaID string) ([]string, error)
}

type StandingRepository interface {
	GetStanding(ctx context.Context, arenaID string, creatorID string) (entities.Standing, bool, error)
	UpsertStanding(ctx context.Context, standing entities.Standing) error
	// ListStandings returns the arena's standings ordered by points
	// descending, creator id ascending on ties.
	ListStandings(ctx context.Context, arenaID string) ([]entities.Standing, error)
}

// StandingsCache is the ranking read model. A miss is not an error; callers
// fall back to the repository and repopulate.
type StandingsCache interface {
	ReplaceArena(ctx context.Context, arenaID string, standings []entities.Standing) error
	GetArena(ctx context.Context, arenaID string) ([]entities.Standing, bool, error)
}

// StandingsIncrease describes one observed old-to-new points transition.
// BatchID ties the increase to the ingestion batch or adjustment that caused
// it, so downstream reward emission stays replay-safe.
type StandingsIncrease struct {
	ArenaID   string
	CreatorID string
	OldPoints int64
	NewPoints int64
	BatchID   string
}

// RewardSink receives standings increases synchronously after recompute.
type RewardSink interface {
	HandleStandingsIncrease(ctx context.Context, increase StandingsIncrease) error
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
