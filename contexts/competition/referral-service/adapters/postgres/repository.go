package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coliseum/contexts/competition/referral-service/domain/entities"
	domainerrors "coliseum/contexts/competition/referral-service/domain/errors"
	"coliseum/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LinkRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewLinkRepository(gdb *gorm.DB, logger *slog.Logger) *LinkRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &LinkRepository{db: gdb, logger: logger}
}

func (r *LinkRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&linkModel{})
}

func (r *LinkRepository) CreateLink(ctx context.Context, link entities.ReferralLink) error {
	row := linkModelFromEntity(link)
	err := db.FromContext(ctx, r.db).Create(&row).Error
	if isUniqueViolation(err) {
		return domainerrors.ErrDuplicateReferralLink
	}
	return err
}

func (r *LinkRepository) GetLink(ctx context.Context, linkID string) (entities.ReferralLink, error) {
	var row linkModel
	err := db.FromContext(ctx, r.db).Where("link_id = ?", linkID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ReferralLink{}, domainerrors.ErrReferralLinkNotFound
	}
	if err != nil {
		return entities.ReferralLink{}, err
	}
	return row.toEntity(), nil
}

func (r *LinkRepository) UpdateLinkStatus(ctx context.Context, linkID string, status entities.LinkStatus, updatedAt time.Time) error {
	result := db.FromContext(ctx, r.db).
		Model(&linkModel{}).
		Where("link_id = ?", linkID).
		Updates(map[string]any{"status": string(status), "updated_at": updatedAt})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrReferralLinkNotFound
	}
	return nil
}

func (r *LinkRepository) FindLatestRewardable(ctx context.Context, referredID string) (entities.ReferralLink, bool, error) {
	var row linkModel
	err := db.FromContext(ctx, r.db).
		Where("referred_id = ? AND status IN ?", referredID,
			[]string{string(entities.LinkStatusAccepted), string(entities.LinkStatusJoinedArena)}).
		Order("updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ReferralLink{}, false, nil
	}
	if err != nil {
		return entities.ReferralLink{}, false, err
	}
	return row.toEntity(), true, nil
}

type RewardRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRewardRepository(gdb *gorm.DB, logger *slog.Logger) *RewardRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RewardRepository{db: gdb, logger: logger}
}

func (r *RewardRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&rewardModel{}, &watermarkModel{})
}

func (r *RewardRepository) InsertRewardOnce(ctx context.Context, reward entities.ReferralReward) (bool, error) {
	row := rewardModelFromEntity(reward)
	result := db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "referral_link_id"}, {Name: "arena_id"}, {Name: "batch_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *RewardRepository) ListByReferrer(ctx context.Context, referrerID string) ([]entities.ReferralReward, error) {
	var rows []rewardModel
	err := db.FromContext(ctx, r.db).
		Joins("JOIN referral_links ON referral_links.link_id = referral_rewards.referral_link_id").
		Where("referral_links.referrer_id = ?", referrerID).
		Order("referral_rewards.created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rewardsFromModels(rows), nil
}

func (r *RewardRepository) ListByArena(ctx context.Context, arenaID string) ([]entities.ReferralReward, error) {
	var rows []rewardModel
	err := db.FromContext(ctx, r.db).
		Where("arena_id = ?", arenaID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rewardsFromModels(rows), nil
}

func (r *RewardRepository) GetWatermark(ctx context.Context, linkID string, arenaID string) (int64, bool, error) {
	var row watermarkModel
	err := db.FromContext(ctx, r.db).
		Where("link_id = ? AND arena_id = ?", linkID, arenaID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return row.RewardedPoints, true, nil
}

func (r *RewardRepository) RaiseWatermark(ctx context.Context, linkID string, arenaID string, points int64, now time.Time) error {
	row := watermarkModel{
		LinkID:         linkID,
		ArenaID:        arenaID,
		RewardedPoints: points,
		UpdatedAt:      now.UTC(),
	}
	return db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "link_id"}, {Name: "arena_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"rewarded_points": gorm.Expr("GREATEST(referral_watermarks.rewarded_points, EXCLUDED.rewarded_points)"),
				"updated_at":      row.UpdatedAt,
			}),
		}).
		Create(&row).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type linkModel struct {
	LinkID     string    `gorm:"column:link_id;primaryKey"`
	ReferrerID string    `gorm:"column:referrer_id;uniqueIndex:idx_referral_pair"`
	ReferredID string    `gorm:"column:referred_id;uniqueIndex:idx_referral_pair;index"`
	Status     string    `gorm:"column:status"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (linkModel) TableName() string { return "referral_links" }

func linkModelFromEntity(link entities.ReferralLink) linkModel {
	return linkModel{
		LinkID:     link.LinkID,
		ReferrerID: link.ReferrerID,
		ReferredID: link.ReferredID,
		Status:     string(link.Status),
		CreatedAt:  link.CreatedAt,
		UpdatedAt:  link.UpdatedAt,
	}
}

func (m linkModel) toEntity() entities.ReferralLink {
	return entities.ReferralLink{
		LinkID:     m.LinkID,
		ReferrerID: m.ReferrerID,
		ReferredID: m.ReferredID,
		Status:     entities.LinkStatus(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type rewardModel struct {
	RewardID          string          `gorm:"column:reward_id;primaryKey"`
	ReferralLinkID    string          `gorm:"column:referral_link_id;uniqueIndex:idx_reward_emission"`
	ArenaID           string          `gorm:"column:arena_id;uniqueIndex:idx_reward_emission;index"`
	BatchID           string          `gorm:"column:batch_id;uniqueIndex:idx_reward_emission"`
	PointsEarnedDelta int64           `gorm:"column:points_earned_delta"`
	RewardPercent     decimal.Decimal `gorm:"column:reward_percent;type:numeric(8,4)"`
	RewardPoints      decimal.Decimal `gorm:"column:reward_points;type:numeric(20,4)"`
	Status            string          `gorm:"column:status"`
	CreatedAt         time.Time       `gorm:"column:created_at"`
}

func (rewardModel) TableName() string { return "referral_rewards" }

func rewardModelFromEntity(reward entities.ReferralReward) rewardModel {
	return rewardModel{
		RewardID:          reward.RewardID,
		ReferralLinkID:    reward.ReferralLinkID,
		ArenaID:           reward.ArenaID,
		BatchID:           reward.BatchID,
		PointsEarnedDelta: reward.PointsEarnedDelta,
		RewardPercent:     reward.RewardPercent,
		RewardPoints:      reward.RewardPoints,
		Status:            string(reward.Status),
		CreatedAt:         reward.CreatedAt,
	}
}

func rewardsFromModels(rows []rewardModel) []entities.ReferralReward {
	items := make([]entities.ReferralReward, 0, len(rows))
	for _, row := range rows {
		items = append(items, entities.ReferralReward{
			RewardID:          row.RewardID,
			ReferralLinkID:    row.ReferralLinkID,
			ArenaID:           row.ArenaID,
			BatchID:           row.BatchID,
			PointsEarnedDelta: row.PointsEarnedDelta,
			RewardPercent:     row.RewardPercent,
			RewardPoints:      row.RewardPoints,
			Status:            entities.RewardStatus(row.Status),
			CreatedAt:         row.CreatedAt,
		})
	}
	return items
}

type watermarkModel struct {
	LinkID         string    `gorm:"column:link_id;primaryKey"`
	ArenaID        string    `gorm:"column:arena_id;primaryKey"`
	RewardedPoints int64     `gorm:"column:rewarded_points"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (watermarkModel) TableName() string { return "referral_watermarks" }
