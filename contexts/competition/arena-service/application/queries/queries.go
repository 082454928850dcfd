package queries

import (
	"context"
	"log/slog"
	"strings"

	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/contexts/competition/arena-service/ports"
)

type GetArenaUseCase struct {
	Arenas ports.Repository
	Logger *slog.Logger
}

func (uc GetArenaUseCase) Execute(ctx context.Context, arenaID string) (entities.Arena, error) {
	if strings.TrimSpace(arenaID) == "" {
		return entities.Arena{}, domainerrors.ErrInvalidArenaInput
	}
	return uc.Arenas.GetArena(ctx, strings.TrimSpace(arenaID))
}

type ListArenasUseCase struct {
	Arenas ports.Repository
	Logger *slog.Logger
}

func (uc ListArenasUseCase) Execute(ctx context.Context, projectID string) ([]entities.Arena, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domainerrors.ErrInvalidArenaInput
	}
	return uc.Arenas.ListArenas(ctx, strings.TrimSpace(projectID))
}

// ListActiveArenasUseCase feeds the ingestion worker with every arena that
// currently accepts contributions.
type ListActiveArenasUseCase struct {
	Arenas ports.Repository
	Logger *slog.Logger
}

func (uc ListActiveArenasUseCase) Execute(ctx context.Context) ([]entities.Arena, error) {
	return uc.Arenas.ListAllActive(ctx)
}
