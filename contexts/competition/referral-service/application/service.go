package application

import (
	"context"
	"log/slog"
	"strings"

	"coliseum/contexts/competition/referral-service/domain/entities"
	domainerrors "coliseum/contexts/competition/referral-service/domain/errors"
	"coliseum/contexts/competition/referral-service/ports"

	"github.com/shopspring/decimal"
)

// StandingsIncrease is the notification the scoring engine delivers after a
// recompute raised a creator's points.
type StandingsIncrease struct {
	ArenaID   string
	CreatorID string
	OldPoints int64
	NewPoints int64
	BatchID   string
}

// Service is the referral reward engine. Reward emission is driven by a
// per-(link, arena) watermark of already-rewarded points: only the portion of
// the new standing above the watermark earns a reward, and the watermark
// never decreases, so replays and overlapping recomputes cannot
// double-credit.
type Service struct {
	Links         ports.LinkRepository
	Rewards       ports.RewardRepository
	Watermarks    ports.WatermarkRepository
	Audit         ports.AuditRecorder
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	RewardPercent decimal.Decimal
	Logger        *slog.Logger
}

func (s Service) rewardPercent() decimal.Decimal {
	if s.RewardPercent.IsZero() {
		return decimal.NewFromInt(5)
	}
	return s.RewardPercent
}

type RegisterLinkInput struct {
	ReferrerID string
	ReferredID string
}

func (s Service) RegisterReferralLink(ctx context.Context, input RegisterLinkInput) (entities.ReferralLink, error) {
	logger := ResolveLogger(s.Logger)
	referrerID := strings.TrimSpace(input.ReferrerID)
	referredID := strings.TrimSpace(input.ReferredID)
	if referrerID == "" || referredID == "" {
		return entities.ReferralLink{}, domainerrors.ErrInvalidReferralInput
	}
	if referrerID == referredID {
		return entities.ReferralLink{}, domainerrors.ErrSelfReferral
	}

	linkID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.ReferralLink{}, err
	}
	now := s.Clock.Now().UTC()
	link := entities.ReferralLink{
		LinkID:     linkID,
		ReferrerID: referrerID,
		ReferredID: referredID,
		Status:     entities.LinkStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Links.CreateLink(ctx, link); err != nil {
		if s.Audit != nil {
			_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
				Actor:      referrerID,
				EntityType: "referral_link",
				EntityID:   linkID,
				Action:     "register_referral_link",
				Success:    false,
				Message:    err.Error(),
				Metadata:   map[string]any{"referred_id": referredID},
			})
		}
		return entities.ReferralLink{}, err
	}

	if s.Audit != nil {
		_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      referrerID,
			EntityType: "referral_link",
			EntityID:   linkID,
			Action:     "register_referral_link",
			Success:    true,
			Metadata:   map[string]any{"referred_id": referredID},
		})
	}

	logger.Info("referral link registered",
		"event", "referral_link_registered",
		"module", "competition/referral-service",
		"layer", "application",
		"link_id", linkID,
		"referrer_id", referrerID,
		"referred_id", referredID,
	)
	return link, nil
}

func (s Service) UpdateLinkStatus(ctx context.Context, linkID string, status entities.LinkStatus) (entities.ReferralLink, error) {
	linkID = strings.TrimSpace(linkID)
	if linkID == "" || !entities.ValidLinkStatus(status) {
		return entities.ReferralLink{}, domainerrors.ErrInvalidLinkStatus
	}
	link, err := s.Links.GetLink(ctx, linkID)
	if err == nil {
		now := s.Clock.Now().UTC()
		if err = s.Links.UpdateLinkStatus(ctx, linkID, status, now); err == nil {
			link.Status = status
			link.UpdatedAt = now
		}
	}
	if err != nil {
		if s.Audit != nil {
			_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
				Actor:      "referral-engine",
				EntityType: "referral_link",
				EntityID:   linkID,
				Action:     "update_referral_link_status",
				Success:    false,
				Message:    err.Error(),
				Metadata:   map[string]any{"status": string(status)},
			})
		}
		return entities.ReferralLink{}, err
	}

	if s.Audit != nil {
		_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      "referral-engine",
			EntityType: "referral_link",
			EntityID:   linkID,
			Action:     "update_referral_link_status",
			Success:    true,
			Metadata:   map[string]any{"status": string(status)},
		})
	}
	return link, nil
}

// HandleStandingsIncrease credits the referrer of the creator whose standing
// rose. It is safe to call more than once for the same transition.
func (s Service) HandleStandingsIncrease(ctx context.Context, increase StandingsIncrease) error {
	logger := ResolveLogger(s.Logger)
	if increase.ArenaID == "" || increase.CreatorID == "" || increase.BatchID == "" {
		return domainerrors.ErrInvalidReferralInput
	}
	if increase.NewPoints <= increase.OldPoints {
		return nil
	}

	link, found, err := s.Links.FindLatestRewardable(ctx, increase.CreatorID)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	watermark, found, err := s.Watermarks.GetWatermark(ctx, link.LinkID, increase.ArenaID)
	if err != nil {
		return err
	}
	if !found {
		// First increase seen for this pair; points earned before it are
		// never rewarded. Anchoring the mark keeps a skipped remainder
		// measurable on the next increase.
		watermark = increase.OldPoints
		if err := s.Watermarks.RaiseWatermark(ctx, link.LinkID, increase.ArenaID, watermark, s.Clock.Now().UTC()); err != nil {
			return err
		}
	}
	if increase.NewPoints <= watermark {
		return nil
	}
	delta := increase.NewPoints - watermark

	percent := s.rewardPercent()
	rewardPoints := entities.ComputeReward(delta, percent)
	if rewardPoints.LessThan(entities.MinimumReward) {
		// Too small to credit; leave the watermark alone so the remainder
		// rolls into the next increase.
		return nil
	}

	rewardID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	inserted, err := s.Rewards.InsertRewardOnce(ctx, entities.ReferralReward{
		RewardID:          rewardID,
		ReferralLinkID:    link.LinkID,
		ArenaID:           increase.ArenaID,
		BatchID:           increase.BatchID,
		PointsEarnedDelta: delta,
		RewardPercent:     percent,
		RewardPoints:      rewardPoints,
		Status:            entities.RewardStatusPending,
		CreatedAt:         s.Clock.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if !inserted {
		return nil
	}

	if err := s.Watermarks.RaiseWatermark(ctx, link.LinkID, increase.ArenaID, increase.NewPoints, s.Clock.Now().UTC()); err != nil {
		return err
	}

	if s.Audit != nil {
		_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      "referral-engine",
			EntityType: "referral_reward",
			EntityID:   rewardID,
			Action:     "emit_referral_reward",
			Success:    true,
			Metadata: map[string]any{
				"link_id":       link.LinkID,
				"arena_id":      increase.ArenaID,
				"batch_id":      increase.BatchID,
				"reward_points": rewardPoints.String(),
			},
		})
	}

	logger.Info("referral reward emitted",
		"event", "referral_reward_emitted",
		"module", "competition/referral-service",
		"layer", "application",
		"link_id", link.LinkID,
		"arena_id", increase.ArenaID,
		"batch_id", increase.BatchID,
		"points_delta", delta,
		"reward_points", rewardPoints.String(),
	)
	return nil
}

func (s Service) ListRewardsByReferrer(ctx context.Context, referrerID string) ([]entities.ReferralReward, error) {
	referrerID = strings.TrimSpace(referrerID)
	if referrerID == "" {
		return nil, domainerrors.ErrInvalidReferralInput
	}
	return s.Rewards.ListByReferrer(ctx, referrerID)
}

func (s Service) ListRewardsByArena(ctx context.Context, arenaID string) ([]entities.ReferralReward, error) {
	arenaID = strings.TrimSpace(arenaID)
	if arenaID == "" {
		return nil, domainerrors.ErrInvalidReferralInput
	}
	return s.Rewards.ListByArena(ctx, arenaID)
}
