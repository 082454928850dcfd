package ports

import (
	"context"
	"time"

	"coliseum/contexts/competition/referral-service/domain/entities"
)

type LinkRepository interface {
	// CreateLink inserts the link; a second link for the same
	// (referrer, referred) pair must fail.
	CreateLink(ctx context.Context, link entities.ReferralLink) error
	GetLink(ctx context.Context, linkID string) (entities.ReferralLink, error)
	UpdateLinkStatus(ctx context.Context, linkID string, status entities.LinkStatus, updatedAt time.Time) error
	// FindLatestRewardable returns the most recent accepted or joined link
	// where the creator is the referred party.
	FindLatestRewardable(ctx context.Context, referredID string) (entities.ReferralLink, bool, error)
}

type RewardRepository interface {
	// InsertRewardOnce writes the reward unless a row with the same
	// (referralLinkID, arenaID, batchID) exists; it reports whether a row
	// was written.
	InsertRewardOnce(ctx context.Context, reward entities.ReferralReward) (bool, error)
	ListByReferrer(ctx context.Context, referrerID string) ([]entities.ReferralReward, error)
	ListByArena(ctx context.Context, arenaID string) ([]entities.ReferralReward, error)
}

// WatermarkRepository tracks the highest standing already rewarded per
// (link, arena). The watermark never decreases.
type WatermarkRepository interface {
	// GetWatermark returns the stored mark and whether a row exists for
	// the pair.
	GetWatermark(ctx context.Context, linkID string, arenaID string) (int64, bool, error)
	// RaiseWatermark sets the watermark to points if points is higher
	// than the stored value, creating the row when none exists.
	RaiseWatermark(ctx context.Context, linkID string, arenaID string, points int64, now time.Time) error
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
