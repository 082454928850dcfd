package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coliseum/contexts/competition/scoring-service/domain/entities"
	domainerrors "coliseum/contexts/competition/scoring-service/domain/errors"
	"coliseum/internal/platform/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreatorRepository persists creator profiles with the normalized handle as
// the unique lookup key.
type CreatorRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewCreatorRepository(gdb *gorm.DB, logger *slog.Logger) *CreatorRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreatorRepository{db: gdb, logger: logger}
}

func (r *CreatorRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&creatorModel{})
}

func (r *CreatorRepository) FindByHandle(ctx context.Context, handle string) (entities.CreatorProfile, bool, error) {
	var row creatorModel
	err := db.FromContext(ctx, r.db).Where("handle = ?", handle).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.CreatorProfile{}, false, nil
	}
	if err != nil {
		return entities.CreatorProfile{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *CreatorRepository) CreateCreator(ctx context.Context, creator entities.CreatorProfile) (bool, error) {
	row := creatorModelFromEntity(creator)
	// Concurrent ingesters may race on the same new handle; the existing
	// row wins.
	result := db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "handle"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *CreatorRepository) UpdateProfile(ctx context.Context, creatorID string, displayName string, avatarURL string, now time.Time) error {
	updates := map[string]any{"updated_at": now.UTC()}
	if displayName != "" {
		updates["display_name"] = displayName
	}
	if avatarURL != "" {
		updates["avatar_url"] = avatarURL
	}
	result := db.FromContext(ctx, r.db).
		Model(&creatorModel{}).
		Where("creator_id = ?", creatorID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCreatorNotFound
	}
	return nil
}

func (r *CreatorRepository) GetCreator(ctx context.Context, creatorID string) (entities.CreatorProfile, error) {
	var row creatorModel
	err := db.FromContext(ctx, r.db).Where("creator_id = ?", creatorID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
	}
	if err != nil {
		return entities.CreatorProfile{}, err
	}
	return row.toEntity(), nil
}

// ContributionRepository owns the dedup key. Inserts go through ON CONFLICT
// DO NOTHING on (project_id, source_post_id).
type ContributionRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewContributionRepository(gdb *gorm.DB, logger *slog.Logger) *ContributionRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContributionRepository{db: gdb, logger: logger}
}

func (r *ContributionRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&contributionModel{})
}

func (r *ContributionRepository) InsertIgnoreDuplicate(ctx context.Context, contribution entities.Contribution) (bool, error) {
	row := contributionModelFromEntity(contribution)
	result := db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "source_post_id"}},
			DoNothing: true,
		}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *ContributionRepository) SumPoints(ctx context.Context, arenaID string, creatorID string) (int64, error) {
	var total int64
	err := db.FromContext(ctx, r.db).
		Model(&contributionModel{}).
		Where("arena_id = ? AND creator_id = ?", arenaID, creatorID).
		Select("COALESCE(SUM(points_awarded), 0)").
		Scan(&total).Error
	return total, err
}

func (r *ContributionRepository) ListCreatorIDs(ctx context.Context, arenaID string) ([]string, error) {
	var ids []string
	err := db.FromContext(ctx, r.db).
		Model(&contributionModel{}).
		Where("arena_id = ?", arenaID).
		Distinct("creator_id").
		Order("creator_id").
		Pluck("creator_id", &ids).Error
	return ids, err
}

func (r *ContributionRepository) ListContributions(ctx context.Context, arenaID string, limit int) ([]entities.Contribution, error) {
	var rows []contributionModel
	err := db.FromContext(ctx, r.db).
		Where("arena_id = ?", arenaID).
		Order("occurred_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Contribution, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

// AdjustmentRepository is append-only.
type AdjustmentRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewAdjustmentRepository(gdb *gorm.DB, logger *slog.Logger) *AdjustmentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdjustmentRepository{db: gdb, logger: logger}
}

func (r *AdjustmentRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&adjustmentModel{})
}

func (r *AdjustmentRepository) AppendAdjustment(ctx context.Context, adjustment entities.PointAdjustment) error {
	row := adjustmentModelFromEntity(adjustment)
	return db.FromContext(ctx, r.db).Create(&row).Error
}

func (r *AdjustmentRepository) SumDeltas(ctx context.Context, arenaID string, creatorID string) (int64, error) {
	var total int64
	err := db.FromContext(ctx, r.db).
		Model(&adjustmentModel{}).
		Where("arena_id = ? AND creator_id = ?", arenaID, creatorID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&total).Error
	return total, err
}

func (r *AdjustmentRepository) ListCreatorIDs(ctx context.Context, arenaID string) ([]string, error) {
	var ids []string
	err := db.FromContext(ctx, r.db).
		Model(&adjustmentModel{}).
		Where("arena_id = ?", arenaID).
		Distinct("creator_id").
		Order("creator_id").
		Pluck("creator_id", &ids).Error
	return ids, err
}

// StandingRepository stores the derived totals.
type StandingRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStandingRepository(gdb *gorm.DB, logger *slog.Logger) *StandingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &StandingRepository{db: gdb, logger: logger}
}

func (r *StandingRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&standingModel{})
}

func (r *StandingRepository) GetStanding(ctx context.Context, arenaID string, creatorID string) (entities.Standing, bool, error) {
	var row standingModel
	err := db.FromContext(ctx, r.db).
		Where("arena_id = ? AND creator_id = ?", arenaID, creatorID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Standing{}, false, nil
	}
	if err != nil {
		return entities.Standing{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *StandingRepository) UpsertStanding(ctx context.Context, standing entities.Standing) error {
	row := standingModelFromEntity(standing)
	return db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "arena_id"}, {Name: "creator_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"points", "ring", "updated_at"}),
		}).
		Create(&row).Error
}

func (r *StandingRepository) ListStandings(ctx context.Context, arenaID string) ([]entities.Standing, error) {
	var rows []standingModel
	err := db.FromContext(ctx, r.db).
		Where("arena_id = ?", arenaID).
		Order("points DESC, creator_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.Standing, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type creatorModel struct {
	CreatorID   string    `gorm:"column:creator_id;primaryKey"`
	Handle      string    `gorm:"column:handle;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name"`
	AvatarURL   string    `gorm:"column:avatar_url"`
	ReferrerID  string    `gorm:"column:referrer_id;index"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (creatorModel) TableName() string { return "creator_profiles" }

func creatorModelFromEntity(creator entities.CreatorProfile) creatorModel {
	return creatorModel{
		CreatorID:   creator.CreatorID,
		Handle:      creator.Handle,
		DisplayName: creator.DisplayName,
		AvatarURL:   creator.AvatarURL,
		ReferrerID:  creator.ReferrerID,
		CreatedAt:   creator.CreatedAt,
		UpdatedAt:   creator.UpdatedAt,
	}
}

func (m creatorModel) toEntity() entities.CreatorProfile {
	return entities.CreatorProfile{
		CreatorID:   m.CreatorID,
		Handle:      m.Handle,
		DisplayName: m.DisplayName,
		AvatarURL:   m.AvatarURL,
		ReferrerID:  m.ReferrerID,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type contributionModel struct {
	ContributionID string    `gorm:"column:contribution_id;primaryKey"`
	ProjectID      string    `gorm:"column:project_id;uniqueIndex:idx_contribution_dedup"`
	ArenaID        string    `gorm:"column:arena_id;index"`
	CreatorID      string    `gorm:"column:creator_id;index"`
	SourcePostID   string    `gorm:"column:source_post_id;uniqueIndex:idx_contribution_dedup"`
	Likes          int64     `gorm:"column:likes"`
	Replies        int64     `gorm:"column:replies"`
	Retweets       int64     `gorm:"column:retweets"`
	PointsAwarded  int64     `gorm:"column:points_awarded"`
	OccurredAt     time.Time `gorm:"column:occurred_at"`
	CreatedAt      time.Time `gorm:"column:created_at"`
}

func (contributionModel) TableName() string { return "contributions" }

func contributionModelFromEntity(contribution entities.Contribution) contributionModel {
	return contributionModel{
		ContributionID: contribution.ContributionID,
		ProjectID:      contribution.ProjectID,
		ArenaID:        contribution.ArenaID,
		CreatorID:      contribution.CreatorID,
		SourcePostID:   contribution.SourcePostID,
		Likes:          contribution.Engagement.Likes,
		Replies:        contribution.Engagement.Replies,
		Retweets:       contribution.Engagement.Retweets,
		PointsAwarded:  contribution.PointsAwarded,
		OccurredAt:     contribution.OccurredAt,
		CreatedAt:      contribution.CreatedAt,
	}
}

func (m contributionModel) toEntity() entities.Contribution {
	return entities.Contribution{
		ContributionID: m.ContributionID,
		ProjectID:      m.ProjectID,
		ArenaID:        m.ArenaID,
		CreatorID:      m.CreatorID,
		SourcePostID:   m.SourcePostID,
		Engagement: entities.EngagementCounts{
			Likes:    m.Likes,
			Replies:  m.Replies,
			Retweets: m.Retweets,
		},
		PointsAwarded: m.PointsAwarded,
		OccurredAt:    m.OccurredAt,
		CreatedAt:     m.CreatedAt,
	}
}

type adjustmentModel struct {
	AdjustmentID string    `gorm:"column:adjustment_id;primaryKey"`
	ArenaID      string    `gorm:"column:arena_id;index"`
	CreatorID    string    `gorm:"column:creator_id;index"`
	Delta        int64     `gorm:"column:delta"`
	Reason       string    `gorm:"column:reason"`
	Actor        string    `gorm:"column:actor"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (adjustmentModel) TableName() string { return "point_adjustments" }

func adjustmentModelFromEntity(adjustment entities.PointAdjustment) adjustmentModel {
	return adjustmentModel{
		AdjustmentID: adjustment.AdjustmentID,
		ArenaID:      adjustment.ArenaID,
		CreatorID:    adjustment.CreatorID,
		Delta:        adjustment.Delta,
		Reason:       adjustment.Reason,
		Actor:        adjustment.Actor,
		CreatedAt:    adjustment.CreatedAt,
	}
}

type standingModel struct {
	ArenaID   string    `gorm:"column:arena_id;primaryKey"`
	CreatorID string    `gorm:"column:creator_id;primaryKey"`
	Points    int64     `gorm:"column:points"`
	Ring      string    `gorm:"column:ring"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (standingModel) TableName() string { return "arena_standings" }

func standingModelFromEntity(standing entities.Standing) standingModel {
	return standingModel{
		ArenaID:   standing.ArenaID,
		CreatorID: standing.CreatorID,
		Points:    standing.Points,
		Ring:      string(standing.Ring),
		UpdatedAt: standing.UpdatedAt,
	}
}

func (m standingModel) toEntity() entities.Standing {
	return entities.Standing{
		ArenaID:   m.ArenaID,
		CreatorID: m.CreatorID,
		Points:    m.Points,
		Ring:      entities.Ring(m.Ring),
		UpdatedAt: m.UpdatedAt,
	}
}
