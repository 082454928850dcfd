package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type LinkStatus string

const (
	LinkStatusPending     LinkStatus = "pending"
	LinkStatusAccepted    LinkStatus = "accepted"
	LinkStatusJoinedArena LinkStatus = "joined_arena"
	LinkStatusExpired     LinkStatus = "expired"
)

// ReferralLink connects a referrer to the creator they brought in. One link
// per directed (referrer, referred) pair; self-referral is forbidden at the
// service layer.
type ReferralLink struct {
	LinkID     string
	ReferrerID string
	ReferredID string
	Status     LinkStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Rewardable reports whether the link currently earns rewards.
func (l ReferralLink) Rewardable() bool {
	return l.Status == LinkStatusAccepted || l.Status == LinkStatusJoinedArena
}

func ValidLinkStatus(status LinkStatus) bool {
	switch status {
	case LinkStatusPending, LinkStatusAccepted, LinkStatusJoinedArena, LinkStatusExpired:
		return true
	default:
		return false
	}
}

type RewardStatus string

const (
	RewardStatusPending   RewardStatus = "pending"
	RewardStatusCredited  RewardStatus = "credited"
	RewardStatusCancelled RewardStatus = "cancelled"
)

// ReferralReward is one ledger row per qualifying standings increase.
// Rewards are never updated; the ledger is strictly additive, and the
// (link, arena, batch) key keeps replays from double-crediting.
type ReferralReward struct {
	RewardID          string
	ReferralLinkID    string
	ArenaID           string
	BatchID           string
	PointsEarnedDelta int64
	RewardPercent     decimal.Decimal
	RewardPoints      decimal.Decimal
	Status            RewardStatus
	CreatedAt         time.Time
}

// MinimumReward is the emission floor; computed rewards below it are skipped.
var MinimumReward = decimal.NewFromFloat(0.01)

// ComputeReward returns delta * percent / 100 in fixed-point decimal.
func ComputeReward(delta int64, percent decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(delta).Mul(percent).Div(decimal.NewFromInt(100))
}
