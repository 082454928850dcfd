package entities

import (
	"math"
	"strings"
	"time"
)

type EngagementCounts struct {
	Likes    int64
	Replies  int64
	Retweets int64
}

// ScorePoints is the canonical contribution formula. Engagement counts that
// are absent upstream arrive as zero; every qualifying post is worth at
// least one point.
func ScorePoints(counts EngagementCounts) int64 {
	points := counts.Likes + 2*counts.Replies + 3*counts.Retweets
	if points < 1 {
		return 1
	}
	return points
}

// NormalizeHandle lower-cases the author handle and strips a leading @ so
// "@Foo" and "foo" resolve to the same creator.
func NormalizeHandle(handle string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(handle), "@"))
}

type CreatorProfile struct {
	CreatorID   string
	Handle      string
	DisplayName string
	AvatarURL   string
	ReferrerID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Contribution is one scored post. Unique per (projectID, sourcePostID),
// which is what makes re-ingestion over overlapping windows idempotent.
type Contribution struct {
	ContributionID string
	ProjectID      string
	ArenaID        string
	CreatorID      string
	SourcePostID   string
	Engagement     EngagementCounts
	PointsAwarded  int64
	OccurredAt     time.Time
	CreatedAt      time.Time
}

// PointAdjustment is an append-only manual correction. Contributions are
// never edited; corrections are always new rows.
type PointAdjustment struct {
	AdjustmentID string
	ArenaID      string
	CreatorID    string
	Delta        int64
	Reason       string
	Actor        string
	CreatedAt    time.Time
}

type Ring string

const (
	RingCore      Ring = "core"
	RingMomentum  Ring = "momentum"
	RingDiscovery Ring = "discovery"
)

// Standing is the derived per-(arena, creator) total. Points are always
// recomputed from contributions plus adjustments, never incremented in place.
type Standing struct {
	ArenaID   string
	CreatorID string
	Points    int64
	Ring      Ring
	UpdatedAt time.Time
}

// RingForRank assigns the ring tier for a 1-based rank among total ranked
// creators: top 10% core, next 40% momentum, rest discovery.
func RingForRank(rank int, total int) Ring {
	if total <= 0 || rank <= 0 {
		return RingDiscovery
	}
	coreCut := int(math.Ceil(float64(total) * 0.10))
	momentumCut := int(math.Ceil(float64(total) * 0.50))
	switch {
	case rank <= coreCut:
		return RingCore
	case rank <= momentumCut:
		return RingMomentum
	default:
		return RingDiscovery
	}
}
