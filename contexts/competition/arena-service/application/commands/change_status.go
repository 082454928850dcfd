package commands

import (
	"context"
	"log/slog"
	"strings"

	application "coliseum/contexts/competition/arena-service/application"
	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/contexts/competition/arena-service/ports"
)

type ChangeStatusAction string

const (
	StatusActionSchedule ChangeStatusAction = "schedule"
	StatusActionPause    ChangeStatusAction = "pause"
	StatusActionResume   ChangeStatusAction = "resume"
	StatusActionEnd      ChangeStatusAction = "end"
	StatusActionCancel   ChangeStatusAction = "cancel"
)

type ChangeStatusCommand struct {
	ArenaID string
	ActorID string
	Action  ChangeStatusAction
	Reason  string
}

type ChangeStatusUseCase struct {
	Arenas ports.Repository
	Locker ports.ProjectLocker
	UoW    ports.UnitOfWork
	Audit  ports.AuditRecorder
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc ChangeStatusUseCase) Execute(ctx context.Context, cmd ChangeStatusCommand) (entities.Arena, error) {
	logger := application.ResolveLogger(uc.Logger)
	arenaID := strings.TrimSpace(cmd.ArenaID)
	if arenaID == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return entities.Arena{}, domainerrors.ErrInvalidArenaInput
	}

	var to entities.Status
	switch cmd.Action {
	case StatusActionSchedule:
		to = entities.StatusScheduled
	case StatusActionPause:
		to = entities.StatusPaused
	case StatusActionResume:
		to = entities.StatusActive
	case StatusActionEnd:
		to = entities.StatusEnded
	case StatusActionCancel:
		to = entities.StatusCancelled
	default:
		return entities.Arena{}, domainerrors.ErrInvalidStateTransition
	}

	arena, err := uc.Arenas.GetArena(ctx, arenaID)
	if err != nil {
		return entities.Arena{}, err
	}

	release, err := uc.Locker.AcquireProject(ctx, arena.ProjectID)
	if err != nil {
		return entities.Arena{}, err
	}
	defer release()

	var updated entities.Arena
	err = uc.UoW.Atomically(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		target, err := uc.Arenas.GetArenaForUpdate(ctx, arenaID)
		if err != nil {
			return err
		}
		from := target.Status
		if !entities.CanTransition(from, to) {
			return domainerrors.ErrInvalidStateTransition
		}
		target.Status = to
		if to == entities.StatusEnded || to == entities.StatusCancelled {
			endsAt := now
			target.EndsAt = &endsAt
		}
		target.UpdatedAt = now
		if err := uc.Arenas.UpdateArena(ctx, target); err != nil {
			return err
		}
		updated = target

		logger.Info("arena state changed",
			"event", "arena_state_changed",
			"module", "competition/arena-service",
			"layer", "application",
			"arena_id", target.ArenaID,
			"from_status", string(from),
			"to_status", string(to),
		)
		return nil
	})
	if err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      cmd.ActorID,
			ProjectID:  arena.ProjectID,
			EntityType: "arena",
			EntityID:   arenaID,
			Action:     "change_arena_status",
			Success:    false,
			Message:    err.Error(),
		})
		return entities.Arena{}, err
	}

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      cmd.ActorID,
		ProjectID:  arena.ProjectID,
		EntityType: "arena",
		EntityID:   arenaID,
		Action:     "change_arena_status",
		Success:    true,
		Message:    strings.TrimSpace(cmd.Reason),
		Metadata:   map[string]any{"to_status": string(to)},
	}); err != nil {
		return entities.Arena{}, err
	}
	return updated, nil
}
