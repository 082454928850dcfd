package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RequestRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRequestRepository(gdb *gorm.DB, logger *slog.Logger) *RequestRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestRepository{db: gdb, logger: logger}
}

func (r *RequestRepository) AutoMigrate() error {
	if err := r.db.AutoMigrate(&requestModel{}); err != nil {
		return err
	}
	// Partial unique index enforcing one pending request per project;
	// AutoMigrate cannot express the WHERE clause.
	return r.db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_pending_request
		 ON access_requests (project_id) WHERE status = 'pending'`,
	).Error
}

func (r *RequestRepository) CreateRequest(ctx context.Context, request entities.AccessRequest) error {
	row := requestModelFromEntity(request)
	err := db.FromContext(ctx, r.db).Create(&row).Error
	if isUniqueViolation(err) {
		return domainerrors.ErrPendingRequestExists
	}
	return err
}

func (r *RequestRepository) GetRequest(ctx context.Context, requestID string) (entities.AccessRequest, error) {
	var row requestModel
	err := db.FromContext(ctx, r.db).Where("request_id = ?", requestID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.AccessRequest{}, domainerrors.ErrRequestNotFound
	}
	if err != nil {
		return entities.AccessRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *RequestRepository) GetRequestForUpdate(ctx context.Context, requestID string) (entities.AccessRequest, error) {
	var row requestModel
	err := db.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("request_id = ?", requestID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.AccessRequest{}, domainerrors.ErrRequestNotFound
	}
	if err != nil {
		return entities.AccessRequest{}, err
	}
	return row.toEntity(), nil
}

func (r *RequestRepository) UpdateRequest(ctx context.Context, request entities.AccessRequest) error {
	row := requestModelFromEntity(request)
	result := db.FromContext(ctx, r.db).
		Model(&requestModel{}).
		Where("request_id = ?", request.RequestID).
		Updates(map[string]any{
			"status":     row.Status,
			"decided_by": row.DecidedBy,
			"decided_at": row.DecidedAt,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrRequestNotFound
	}
	return nil
}

func (r *RequestRepository) ListByProject(ctx context.Context, projectID string) ([]entities.AccessRequest, error) {
	var rows []requestModel
	err := db.FromContext(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	items := make([]entities.AccessRequest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

type FlagRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewFlagRepository(gdb *gorm.DB, logger *slog.Logger) *FlagRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &FlagRepository{db: gdb, logger: logger}
}

func (r *FlagRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&flagModel{})
}

func (r *FlagRepository) UpsertFlags(ctx context.Context, flags entities.ProjectFeatureFlags) error {
	row := flagModelFromEntity(flags)
	return db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"leaderboard_enabled", "leaderboard_start", "leaderboard_end",
				"gamefi_enabled", "gamefi_start", "gamefi_end",
				"crm_enabled", "crm_start", "crm_end", "crm_visibility",
				"updated_at",
			}),
		}).
		Create(&row).Error
}

func (r *FlagRepository) GetFlags(ctx context.Context, projectID string) (entities.ProjectFeatureFlags, bool, error) {
	var row flagModel
	err := db.FromContext(ctx, r.db).Where("project_id = ?", projectID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ProjectFeatureFlags{}, false, nil
	}
	if err != nil {
		return entities.ProjectFeatureFlags{}, false, err
	}
	return row.toEntity(), true, nil
}

type ProjectRepository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewProjectRepository(gdb *gorm.DB, logger *slog.Logger) *ProjectRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectRepository{db: gdb, logger: logger}
}

func (r *ProjectRepository) AutoMigrate() error {
	return r.db.AutoMigrate(&projectModel{})
}

func (r *ProjectRepository) GetProject(ctx context.Context, projectID string) (entities.ProjectProjection, bool, error) {
	var row projectModel
	err := db.FromContext(ctx, r.db).Where("project_id = ?", projectID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.ProjectProjection{}, false, nil
	}
	if err != nil {
		return entities.ProjectProjection{}, false, err
	}
	return entities.ProjectProjection{
		ProjectID:             row.ProjectID,
		Name:                  row.Name,
		IsLeaderboardEligible: row.IsLeaderboardEligible,
		UpdatedAt:             row.UpdatedAt,
	}, true, nil
}

func (r *ProjectRepository) MarkEligible(ctx context.Context, projectID string, at time.Time) error {
	row := projectModel{
		ProjectID:             projectID,
		IsLeaderboardEligible: true,
		UpdatedAt:             at,
	}
	return db.FromContext(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"is_leaderboard_eligible", "updated_at"}),
		}).
		Create(&row).Error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type requestModel struct {
	RequestID     string     `gorm:"column:request_id;primaryKey"`
	ProjectID     string     `gorm:"column:project_id;index"`
	ProductType   string     `gorm:"column:product_type"`
	Status        string     `gorm:"column:status"`
	Justification string     `gorm:"column:justification"`
	StartAt       time.Time  `gorm:"column:start_at"`
	EndAt         time.Time  `gorm:"column:end_at"`
	DecidedBy     string     `gorm:"column:decided_by"`
	DecidedAt     *time.Time `gorm:"column:decided_at"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	UpdatedAt     time.Time  `gorm:"column:updated_at"`
}

func (requestModel) TableName() string { return "access_requests" }

func requestModelFromEntity(request entities.AccessRequest) requestModel {
	return requestModel{
		RequestID:     request.RequestID,
		ProjectID:     request.ProjectID,
		ProductType:   string(request.ProductType),
		Status:        string(request.Status),
		Justification: request.Justification,
		StartAt:       request.StartAt,
		EndAt:         request.EndAt,
		DecidedBy:     request.DecidedBy,
		DecidedAt:     request.DecidedAt,
		CreatedAt:     request.CreatedAt,
		UpdatedAt:     request.UpdatedAt,
	}
}

func (m requestModel) toEntity() entities.AccessRequest {
	return entities.AccessRequest{
		RequestID:     m.RequestID,
		ProjectID:     m.ProjectID,
		ProductType:   entities.ProductType(m.ProductType),
		Status:        entities.RequestStatus(m.Status),
		Justification: m.Justification,
		StartAt:       m.StartAt,
		EndAt:         m.EndAt,
		DecidedBy:     m.DecidedBy,
		DecidedAt:     m.DecidedAt,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

type flagModel struct {
	ProjectID          string     `gorm:"column:project_id;primaryKey"`
	LeaderboardEnabled bool       `gorm:"column:leaderboard_enabled"`
	LeaderboardStart   *time.Time `gorm:"column:leaderboard_start"`
	LeaderboardEnd     *time.Time `gorm:"column:leaderboard_end"`
	GamefiEnabled      bool       `gorm:"column:gamefi_enabled"`
	GamefiStart        *time.Time `gorm:"column:gamefi_start"`
	GamefiEnd          *time.Time `gorm:"column:gamefi_end"`
	CRMEnabled         bool       `gorm:"column:crm_enabled"`
	CRMStart           *time.Time `gorm:"column:crm_start"`
	CRMEnd             *time.Time `gorm:"column:crm_end"`
	CRMVisibility      string     `gorm:"column:crm_visibility"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (flagModel) TableName() string { return "project_feature_flags" }

func flagModelFromEntity(flags entities.ProjectFeatureFlags) flagModel {
	return flagModel{
		ProjectID:          flags.ProjectID,
		LeaderboardEnabled: flags.Leaderboard.Enabled,
		LeaderboardStart:   flags.Leaderboard.StartAt,
		LeaderboardEnd:     flags.Leaderboard.EndAt,
		GamefiEnabled:      flags.Gamefi.Enabled,
		GamefiStart:        flags.Gamefi.StartAt,
		GamefiEnd:          flags.Gamefi.EndAt,
		CRMEnabled:         flags.CRM.Enabled,
		CRMStart:           flags.CRM.StartAt,
		CRMEnd:             flags.CRM.EndAt,
		CRMVisibility:      flags.CRMVisibility,
		UpdatedAt:          flags.UpdatedAt,
	}
}

func (m flagModel) toEntity() entities.ProjectFeatureFlags {
	return entities.ProjectFeatureFlags{
		ProjectID:     m.ProjectID,
		Leaderboard:   entities.ModuleFlag{Enabled: m.LeaderboardEnabled, StartAt: m.LeaderboardStart, EndAt: m.LeaderboardEnd},
		Gamefi:        entities.ModuleFlag{Enabled: m.GamefiEnabled, StartAt: m.GamefiStart, EndAt: m.GamefiEnd},
		CRM:           entities.ModuleFlag{Enabled: m.CRMEnabled, StartAt: m.CRMStart, EndAt: m.CRMEnd},
		CRMVisibility: m.CRMVisibility,
		UpdatedAt:     m.UpdatedAt,
	}
}

type projectModel struct {
	ProjectID             string    `gorm:"column:project_id;primaryKey"`
	Name                  string    `gorm:"column:name"`
	IsLeaderboardEligible bool      `gorm:"column:is_leaderboard_eligible"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (projectModel) TableName() string { return "project_projections" }
