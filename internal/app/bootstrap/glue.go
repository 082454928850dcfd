package bootstrap

import (
	"context"
	"time"

	accessports "coliseum/contexts/access-governance/access-request-service/ports"
	arenacommands "coliseum/contexts/competition/arena-service/application/commands"
	arenaqueries "coliseum/contexts/competition/arena-service/application/queries"
	arenaports "coliseum/contexts/competition/arena-service/ports"
	referralapp "coliseum/contexts/competition/referral-service/application"
	referralports "coliseum/contexts/competition/referral-service/ports"
	scoringworkers "coliseum/contexts/competition/scoring-service/application/workers"
	scoringports "coliseum/contexts/competition/scoring-service/ports"
	auditapp "coliseum/contexts/platform-audit/audit-service/application"
	auditports "coliseum/contexts/platform-audit/audit-service/ports"
)

// Glue adapters live here so contexts never import each other: every
// cross-context dependency crosses a narrow local port and is bound at the
// composition root.

type accessAuditRecorder struct {
	audit auditapp.Service
}

func (g accessAuditRecorder) RecordAudit(ctx context.Context, entry accessports.AuditEntry) error {
	_, err := g.audit.Append(ctx, auditports.AppendInput{
		Actor:      entry.Actor,
		ProjectID:  entry.ProjectID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Success:    entry.Success,
		Message:    entry.Message,
		Metadata:   entry.Metadata,
	})
	return err
}

type arenaAuditRecorder struct {
	audit auditapp.Service
}

func (g arenaAuditRecorder) RecordAudit(ctx context.Context, entry arenaports.AuditEntry) error {
	_, err := g.audit.Append(ctx, auditports.AppendInput{
		Actor:      entry.Actor,
		ProjectID:  entry.ProjectID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Success:    entry.Success,
		Message:    entry.Message,
		Metadata:   entry.Metadata,
	})
	return err
}

type scoringAuditRecorder struct {
	audit auditapp.Service
}

func (g scoringAuditRecorder) RecordAudit(ctx context.Context, entry scoringports.AuditEntry) error {
	_, err := g.audit.Append(ctx, auditports.AppendInput{
		Actor:      entry.Actor,
		ProjectID:  entry.ProjectID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Success:    entry.Success,
		Message:    entry.Message,
		Metadata:   entry.Metadata,
	})
	return err
}

type referralAuditRecorder struct {
	audit auditapp.Service
}

func (g referralAuditRecorder) RecordAudit(ctx context.Context, entry referralports.AuditEntry) error {
	_, err := g.audit.Append(ctx, auditports.AppendInput{
		Actor:      entry.Actor,
		ProjectID:  entry.ProjectID,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Action:     entry.Action,
		Success:    entry.Success,
		Message:    entry.Message,
		Metadata:   entry.Metadata,
	})
	return err
}

// arenaProvisioner lets the approval orchestrator call the arena coordinator
// through its own idempotent use case; both run in the caller's transaction.
type arenaProvisioner struct {
	provision arenacommands.ProvisionPrimaryUseCase
}

func (g arenaProvisioner) ProvisionPrimaryArena(ctx context.Context, projectID string, name string, startAt time.Time, endAt time.Time, actor string) (accessports.ProvisionedArena, error) {
	result, err := g.provision.Execute(ctx, arenacommands.ProvisionPrimaryCommand{
		ProjectID: projectID,
		Name:      name,
		StartsAt:  startAt,
		EndsAt:    endAt,
		ActorID:   actor,
	})
	if err != nil {
		return accessports.ProvisionedArena{}, err
	}
	return accessports.ProvisionedArena{ArenaID: result.Arena.ArenaID, Created: result.Created}, nil
}

// referralRewardSink feeds standings increases from the recompute pipeline
// into the referral reward engine.
type referralRewardSink struct {
	service referralapp.Service
}

func (g referralRewardSink) HandleStandingsIncrease(ctx context.Context, increase scoringports.StandingsIncrease) error {
	return g.service.HandleStandingsIncrease(ctx, referralapp.StandingsIncrease{
		ArenaID:   increase.ArenaID,
		CreatorID: increase.CreatorID,
		OldPoints: increase.OldPoints,
		NewPoints: increase.NewPoints,
		BatchID:   increase.BatchID,
	})
}

// activeArenaSource feeds the ingest scheduler from the arena coordinator.
type activeArenaSource struct {
	list arenaqueries.ListActiveArenasUseCase
}

func (g activeArenaSource) ListActiveArenas(ctx context.Context) ([]scoringworkers.ActiveArena, error) {
	arenas, err := g.list.Execute(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]scoringworkers.ActiveArena, 0, len(arenas))
	for _, arena := range arenas {
		active = append(active, scoringworkers.ActiveArena{
			ArenaID:   arena.ArenaID,
			ProjectID: arena.ProjectID,
		})
	}
	return active, nil
}
