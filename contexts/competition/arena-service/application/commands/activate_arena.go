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

type ActivateArenaCommand struct {
	ArenaID string
	ActorID string
}

type ActivateArenaResult struct {
	Arena       entities.Arena
	EndedArenas []string
}

// ActivateArenaUseCase transitions the target primary arena to active and
// ends every other active primary arena of the same project, all inside one
// transaction under the project lock.
type ActivateArenaUseCase struct {
	Arenas ports.Repository
	Locker ports.ProjectLocker
	UoW    ports.UnitOfWork
	Audit  ports.AuditRecorder
	Clock  ports.Clock
	Logger *slog.Logger
}

func (uc ActivateArenaUseCase) Execute(ctx context.Context, cmd ActivateArenaCommand) (ActivateArenaResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	arenaID := strings.TrimSpace(cmd.ArenaID)
	if arenaID == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return ActivateArenaResult{}, domainerrors.ErrInvalidArenaInput
	}

	// Resolve the project before locking; the locked section re-reads the
	// row with a row lock.
	arena, err := uc.Arenas.GetArena(ctx, arenaID)
	if err != nil {
		return ActivateArenaResult{}, err
	}
	projectID := arena.ProjectID

	release, err := uc.Locker.AcquireProject(ctx, projectID)
	if err != nil {
		return ActivateArenaResult{}, err
	}
	defer release()

	var result ActivateArenaResult
	err = uc.UoW.Atomically(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		target, err := uc.Arenas.GetArenaForUpdate(ctx, arenaID)
		if err != nil {
			return err
		}
		if target.Kind != entities.KindPrimaryLeaderboard {
			return domainerrors.ErrNotPrimaryLeaderboard
		}
		if target.Status != entities.StatusActive && !entities.CanTransition(target.Status, entities.StatusActive) {
			return domainerrors.ErrInvalidStateTransition
		}

		actives, err := uc.Arenas.ListActivePrimaries(ctx, projectID)
		if err != nil {
			return err
		}
		ended := make([]string, 0)
		for _, other := range actives {
			if other.ArenaID == target.ArenaID {
				continue
			}
			other.Status = entities.StatusEnded
			endsAt := now
			other.EndsAt = &endsAt
			other.UpdatedAt = now
			if err := uc.Arenas.UpdateArena(ctx, other); err != nil {
				return err
			}
			ended = append(ended, other.ArenaID)
		}

		if target.Status != entities.StatusActive {
			target.Status = entities.StatusActive
			target.UpdatedAt = now
			if err := uc.Arenas.UpdateArena(ctx, target); err != nil {
				return err
			}
		}
		result = ActivateArenaResult{Arena: target, EndedArenas: ended}
		return nil
	})
	if err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      cmd.ActorID,
			ProjectID:  projectID,
			EntityType: "arena",
			EntityID:   arenaID,
			Action:     "activate_arena",
			Success:    false,
			Message:    err.Error(),
		})
		return ActivateArenaResult{}, err
	}

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      cmd.ActorID,
		ProjectID:  projectID,
		EntityType: "arena",
		EntityID:   arenaID,
		Action:     "activate_arena",
		Success:    true,
		Metadata:   map[string]any{"ended_arenas": result.EndedArenas},
	}); err != nil {
		return ActivateArenaResult{}, err
	}

	logger.Info("arena activated",
		"event", "arena_activated",
		"module", "competition/arena-service",
		"layer", "application",
		"project_id", projectID,
		"arena_id", arenaID,
		"ended_count", len(result.EndedArenas),
	)
	return result, nil
}
