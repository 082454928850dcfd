package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "coliseum/contexts/competition/arena-service/application"
	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/contexts/competition/arena-service/ports"
)

type ProvisionPrimaryCommand struct {
	ProjectID string
	Name      string
	StartsAt  time.Time
	EndsAt    time.Time
	ActorID   string
}

type ProvisionPrimaryResult struct {
	Arena   entities.Arena
	Created bool
}

// ProvisionPrimaryUseCase is the idempotent get-or-create for a project's
// primary leaderboard arena. The reuse-vs-create decision is a check-then-act
// sequence made safe by the project lock; a uniqueness constraint alone could
// not decide "reuse" correctly.
type ProvisionPrimaryUseCase struct {
	Arenas ports.Repository
	Locker ports.ProjectLocker
	UoW    ports.UnitOfWork
	Audit  ports.AuditRecorder
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc ProvisionPrimaryUseCase) Execute(ctx context.Context, cmd ProvisionPrimaryCommand) (ProvisionPrimaryResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	projectID := strings.TrimSpace(cmd.ProjectID)
	if projectID == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return ProvisionPrimaryResult{}, domainerrors.ErrInvalidArenaInput
	}
	if !cmd.EndsAt.IsZero() && !cmd.EndsAt.After(cmd.StartsAt) {
		return ProvisionPrimaryResult{}, domainerrors.ErrInvalidDateRange
	}

	release, err := uc.Locker.AcquireProject(ctx, projectID)
	if err != nil {
		return ProvisionPrimaryResult{}, err
	}
	defer release()

	var result ProvisionPrimaryResult
	err = uc.UoW.Atomically(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		existing, found, err := uc.Arenas.FindLatestPrimary(ctx, projectID)
		if err != nil {
			return err
		}
		if found {
			// Update in place; never insert a second primary row.
			existing.Name = strings.TrimSpace(cmd.Name)
			existing.StartsAt = cmd.StartsAt.UTC()
			if !cmd.EndsAt.IsZero() {
				endsAt := cmd.EndsAt.UTC()
				existing.EndsAt = &endsAt
			}
			existing.UpdatedAt = now
			if err := uc.Arenas.UpdateArena(ctx, existing); err != nil {
				return err
			}
			result = ProvisionPrimaryResult{Arena: existing, Created: false}
			return nil
		}

		arenaID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return err
		}
		arena := entities.Arena{
			ArenaID:   arenaID,
			ProjectID: projectID,
			Kind:      entities.KindPrimaryLeaderboard,
			Status:    entities.StatusActive,
			Name:      strings.TrimSpace(cmd.Name),
			StartsAt:  cmd.StartsAt.UTC(),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if !cmd.EndsAt.IsZero() {
			endsAt := cmd.EndsAt.UTC()
			arena.EndsAt = &endsAt
		}
		if err := uc.Arenas.CreateArena(ctx, arena); err != nil {
			return err
		}
		result = ProvisionPrimaryResult{Arena: arena, Created: true}
		return nil
	})
	if err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      cmd.ActorID,
			ProjectID:  projectID,
			EntityType: "arena",
			Action:     "provision_primary_arena",
			Success:    false,
			Message:    err.Error(),
		})
		return ProvisionPrimaryResult{}, err
	}

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      cmd.ActorID,
		ProjectID:  projectID,
		EntityType: "arena",
		EntityID:   result.Arena.ArenaID,
		Action:     "provision_primary_arena",
		Success:    true,
		Metadata:   map[string]any{"created": result.Created},
	}); err != nil {
		return ProvisionPrimaryResult{}, err
	}

	logger.Info("primary arena provisioned",
		"event", "primary_arena_provisioned",
		"module", "competition/arena-service",
		"layer", "application",
		"project_id", projectID,
		"arena_id", result.Arena.ArenaID,
		"created", result.Created,
	)
	return result, nil
}
