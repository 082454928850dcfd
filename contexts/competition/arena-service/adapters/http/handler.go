package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/competition/arena-service/application/commands"
	"coliseum/contexts/competition/arena-service/application/queries"
	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	httptransport "coliseum/contexts/competition/arena-service/transport/http"
)

type Handler struct {
	ProvisionPrimary commands.ProvisionPrimaryUseCase
	ActivateArena    commands.ActivateArenaUseCase
	ChangeStatus     commands.ChangeStatusUseCase
	GetArena         queries.GetArenaUseCase
	ListArenas       queries.ListArenasUseCase
	Logger           *slog.Logger
}

func (h Handler) ProvisionPrimaryHandler(ctx context.Context, req httptransport.ProvisionPrimaryRequest) (httptransport.ProvisionPrimaryResponse, error) {
	startsAt, err := parseTime(req.StartsAt, true)
	if err != nil {
		return httptransport.ProvisionPrimaryResponse{}, err
	}
	endsAt, err := parseTime(req.EndsAt, false)
	if err != nil {
		return httptransport.ProvisionPrimaryResponse{}, err
	}
	result, err := h.ProvisionPrimary.Execute(ctx, commands.ProvisionPrimaryCommand{
		ProjectID: req.ProjectID,
		Name:      req.Name,
		StartsAt:  startsAt,
		EndsAt:    endsAt,
		ActorID:   req.ActorID,
	})
	if err != nil {
		return httptransport.ProvisionPrimaryResponse{}, err
	}
	return httptransport.ProvisionPrimaryResponse{
		Status:  "success",
		Data:    arenaDTO(result.Arena),
		Created: result.Created,
	}, nil
}

func (h Handler) ActivateArenaHandler(ctx context.Context, arenaID string, req httptransport.ActivateArenaRequest) (httptransport.ActivateArenaResponse, error) {
	result, err := h.ActivateArena.Execute(ctx, commands.ActivateArenaCommand{
		ArenaID: arenaID,
		ActorID: req.ActorID,
	})
	if err != nil {
		return httptransport.ActivateArenaResponse{}, err
	}
	ended := result.EndedArenas
	if ended == nil {
		ended = []string{}
	}
	return httptransport.ActivateArenaResponse{
		Status:      "success",
		Data:        arenaDTO(result.Arena),
		EndedArenas: ended,
	}, nil
}

func (h Handler) ChangeStatusHandler(ctx context.Context, arenaID string, req httptransport.ChangeStatusRequest) (httptransport.ArenaResponse, error) {
	arena, err := h.ChangeStatus.Execute(ctx, commands.ChangeStatusCommand{
		ArenaID: arenaID,
		ActorID: req.ActorID,
		Action:  commands.ChangeStatusAction(req.Action),
		Reason:  req.Reason,
	})
	if err != nil {
		return httptransport.ArenaResponse{}, err
	}
	return httptransport.ArenaResponse{Status: "success", Data: arenaDTO(arena)}, nil
}

func (h Handler) GetArenaHandler(ctx context.Context, arenaID string) (httptransport.ArenaResponse, error) {
	arena, err := h.GetArena.Execute(ctx, arenaID)
	if err != nil {
		return httptransport.ArenaResponse{}, err
	}
	return httptransport.ArenaResponse{Status: "success", Data: arenaDTO(arena)}, nil
}

func (h Handler) ListArenasHandler(ctx context.Context, projectID string) (httptransport.ArenaListResponse, error) {
	arenas, err := h.ListArenas.Execute(ctx, projectID)
	if err != nil {
		return httptransport.ArenaListResponse{}, err
	}
	resp := httptransport.ArenaListResponse{
		Status: "success",
		Data:   make([]httptransport.ArenaDTO, 0, len(arenas)),
	}
	for _, arena := range arenas {
		resp.Data = append(resp.Data, arenaDTO(arena))
	}
	return resp, nil
}

func parseTime(raw string, required bool) (time.Time, error) {
	if raw == "" {
		if required {
			return time.Time{}, domainerrors.ErrInvalidArenaInput
		}
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidArenaInput
	}
	return parsed, nil
}

func arenaDTO(arena entities.Arena) httptransport.ArenaDTO {
	dto := httptransport.ArenaDTO{
		ArenaID:   arena.ArenaID,
		ProjectID: arena.ProjectID,
		Kind:      string(arena.Kind),
		Status:    string(arena.Status),
		Name:      arena.Name,
		StartsAt:  arena.StartsAt.UTC().Format(time.RFC3339),
		CreatedAt: arena.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: arena.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if arena.EndsAt != nil {
		dto.EndsAt = arena.EndsAt.UTC().Format(time.RFC3339)
	}
	return dto
}
