package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/internal/platform/db"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(gdb *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{db: gdb, logger: logger}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&arenaModel{})
}

func (r *Repository) CreateArena(ctx context.Context, arena entities.Arena) error {
	row := arenaModelFromEntity(arena)
	err := db.FromContext(ctx, r.db).Create(&row).Error
	if isUniqueViolation(err) {
		return domainerrors.ErrDuplicatePrimaryArena
	}
	return err
}

func (r *Repository) GetArena(ctx context.Context, arenaID string) (entities.Arena, error) {
	var row arenaModel
	err := db.FromContext(ctx, r.db).
		Where("arena_id = ?", strings.TrimSpace(arenaID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Arena{}, domainerrors.ErrArenaNotFound
	}
	if err != nil {
		return entities.Arena{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) GetArenaForUpdate(ctx context.Context, arenaID string) (entities.Arena, error) {
	var row arenaModel
	err := db.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("arena_id = ?", strings.TrimSpace(arenaID)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Arena{}, domainerrors.ErrArenaNotFound
	}
	if err != nil {
		return entities.Arena{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) UpdateArena(ctx context.Context, arena entities.Arena) error {
	row := arenaModelFromEntity(arena)
	result := db.FromContext(ctx, r.db).
		Model(&arenaModel{}).
		Where("arena_id = ?", arena.ArenaID).
		Updates(map[string]any{
			"status":     row.Status,
			"name":       row.Name,
			"starts_at":  row.StartsAt,
			"ends_at":    row.EndsAt,
			"updated_at": row.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrArenaNotFound
	}
	return nil
}

func (r *Repository) ListArenas(ctx context.Context, projectID string) ([]entities.Arena, error) {
	var rows []arenaModel
	err := db.FromContext(ctx, r.db).
		Where("project_id = ?", strings.TrimSpace(projectID)).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return arenasFromModels(rows), nil
}

func (r *Repository) ListActivePrimaries(ctx context.Context, projectID string) ([]entities.Arena, error) {
	var rows []arenaModel
	err := db.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND kind = ? AND status = ?",
			projectID, string(entities.KindPrimaryLeaderboard), string(entities.StatusActive)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return arenasFromModels(rows), nil
}

func (r *Repository) FindLatestPrimary(ctx context.Context, projectID string) (entities.Arena, bool, error) {
	var row arenaModel
	err := db.FromContext(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("project_id = ? AND kind = ? AND status NOT IN ?",
			projectID,
			string(entities.KindPrimaryLeaderboard),
			[]string{string(entities.StatusEnded), string(entities.StatusCancelled)}).
		Order("status = 'active' DESC, updated_at DESC").
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return entities.Arena{}, false, nil
	}
	if err != nil {
		return entities.Arena{}, false, err
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListAllActive(ctx context.Context) ([]entities.Arena, error) {
	var rows []arenaModel
	err := db.FromContext(ctx, r.db).
		Where("status = ?", string(entities.StatusActive)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return arenasFromModels(rows), nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

type arenaModel struct {
	ArenaID   string     `gorm:"column:arena_id;primaryKey"`
	ProjectID string     `gorm:"column:project_id;index"`
	Kind      string     `gorm:"column:kind"`
	Status    string     `gorm:"column:status"`
	Name      string     `gorm:"column:name"`
	StartsAt  time.Time  `gorm:"column:starts_at"`
	EndsAt    *time.Time `gorm:"column:ends_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at"`
}

func (arenaModel) TableName() string {
	return "arenas"
}

func arenaModelFromEntity(arena entities.Arena) arenaModel {
	return arenaModel{
		ArenaID:   arena.ArenaID,
		ProjectID: arena.ProjectID,
		Kind:      string(arena.Kind),
		Status:    string(arena.Status),
		Name:      arena.Name,
		StartsAt:  arena.StartsAt,
		EndsAt:    arena.EndsAt,
		CreatedAt: arena.CreatedAt,
		UpdatedAt: arena.UpdatedAt,
	}
}

func (m arenaModel) toEntity() entities.Arena {
	return entities.Arena{
		ArenaID:   m.ArenaID,
		ProjectID: m.ProjectID,
		Kind:      entities.Kind(m.Kind),
		Status:    entities.Status(m.Status),
		Name:      m.Name,
		StartsAt:  m.StartsAt,
		EndsAt:    m.EndsAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func arenasFromModels(rows []arenaModel) []entities.Arena {
	items := make([]entities.Arena, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}
