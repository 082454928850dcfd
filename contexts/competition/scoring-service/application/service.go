package application

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"coliseum/contexts/competition/scoring-service/domain/entities"
	domainerrors "coliseum/contexts/competition/scoring-service/domain/errors"
	"coliseum/contexts/competition/scoring-service/ports"
)

// Service is the contribution ingestion engine: it pulls qualifying activity,
// resolves creators, scores and dedupes contributions, recomputes standings
// from source rows and forwards every standings increase to the reward sink.
type Service struct {
	Feed          ports.ActivityFeed
	Creators      ports.CreatorRepository
	Contributions ports.ContributionRepository
	Adjustments   ports.AdjustmentRepository
	Standings     ports.StandingRepository
	Cache         ports.StandingsCache
	Rewards       ports.RewardSink
	Audit         ports.AuditRecorder
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	Logger        *slog.Logger
}

type IngestInput struct {
	ProjectID string
	ArenaID   string
	Since     time.Time
	ActorID   string
}

type IngestResult struct {
	BatchID          string
	Fetched          int
	Inserted         int
	AffectedCreators []string
}

func (s Service) IngestContributions(ctx context.Context, input IngestInput) (IngestResult, error) {
	logger := ResolveLogger(s.Logger)
	projectID := strings.TrimSpace(input.ProjectID)
	arenaID := strings.TrimSpace(input.ArenaID)
	if projectID == "" || arenaID == "" {
		return IngestResult{}, domainerrors.ErrInvalidIngestInput
	}

	result, err := s.ingest(ctx, projectID, arenaID, input.Since)
	if err != nil {
		if s.Audit != nil {
			_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
				Actor:      input.ActorID,
				ProjectID:  projectID,
				EntityType: "ingestion_batch",
				EntityID:   result.BatchID,
				Action:     "ingest_contributions",
				Success:    false,
				Message:    err.Error(),
				Metadata:   map[string]any{"arena_id": arenaID},
			})
		}
		return IngestResult{}, err
	}

	if s.Audit != nil {
		_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      input.ActorID,
			ProjectID:  projectID,
			EntityType: "ingestion_batch",
			EntityID:   result.BatchID,
			Action:     "ingest_contributions",
			Success:    true,
			Metadata: map[string]any{
				"arena_id": arenaID,
				"fetched":  result.Fetched,
				"inserted": result.Inserted,
			},
		})
	}

	logger.Info("contributions ingested",
		"event", "contributions_ingested",
		"module", "competition/scoring-service",
		"layer", "application",
		"project_id", projectID,
		"arena_id", arenaID,
		"batch_id", result.BatchID,
		"fetched", result.Fetched,
		"inserted", result.Inserted,
	)
	return result, nil
}

func (s Service) ingest(ctx context.Context, projectID string, arenaID string, since time.Time) (IngestResult, error) {
	batchID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return IngestResult{}, err
	}

	result := IngestResult{BatchID: batchID}
	records, err := s.Feed.FetchActivity(ctx, projectID, since)
	if err != nil {
		return result, err
	}
	result.Fetched = len(records)

	affected := make(map[string]struct{})
	for _, record := range records {
		handle := entities.NormalizeHandle(record.AuthorHandle)
		if handle == "" || record.SourcePostID == "" || record.SelfAuthored {
			continue
		}
		if !since.IsZero() && record.OccurredAt.Before(since) {
			continue
		}

		creator, err := s.resolveCreator(ctx, handle, record)
		if err != nil {
			return result, err
		}

		contributionID, err := s.IDGen.NewID(ctx)
		if err != nil {
			return result, err
		}
		inserted, err := s.Contributions.InsertIgnoreDuplicate(ctx, entities.Contribution{
			ContributionID: contributionID,
			ProjectID:      projectID,
			ArenaID:        arenaID,
			CreatorID:      creator.CreatorID,
			SourcePostID:   record.SourcePostID,
			Engagement:     record.Engagement,
			PointsAwarded:  entities.ScorePoints(record.Engagement),
			OccurredAt:     record.OccurredAt.UTC(),
			CreatedAt:      s.Clock.Now().UTC(),
		})
		if err != nil {
			return result, err
		}
		if inserted {
			result.Inserted++
			affected[creator.CreatorID] = struct{}{}
		}
	}

	for creatorID := range affected {
		result.AffectedCreators = append(result.AffectedCreators, creatorID)
	}
	sort.Strings(result.AffectedCreators)

	if len(result.AffectedCreators) > 0 {
		if err := s.recomputeCreators(ctx, arenaID, result.AffectedCreators, batchID); err != nil {
			return result, err
		}
	}
	return result, nil
}

// resolveCreator finds the profile for a normalized handle or creates a
// minimal one. Existing non-empty avatars survive empty feed data.
func (s Service) resolveCreator(ctx context.Context, handle string, record ports.ActivityRecord) (entities.CreatorProfile, error) {
	creator, found, err := s.Creators.FindByHandle(ctx, handle)
	if err != nil {
		return entities.CreatorProfile{}, err
	}
	if found {
		if needsProfileRefresh(creator, record) {
			avatar := record.AuthorAvatarURL
			if avatar == "" {
				avatar = creator.AvatarURL
			}
			name := record.AuthorName
			if name == "" {
				name = creator.DisplayName
			}
			if err := s.Creators.UpdateProfile(ctx, creator.CreatorID, name, avatar, s.Clock.Now().UTC()); err != nil {
				return entities.CreatorProfile{}, err
			}
		}
		return creator, nil
	}

	creatorID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.CreatorProfile{}, err
	}
	now := s.Clock.Now().UTC()
	creator = entities.CreatorProfile{
		CreatorID:   creatorID,
		Handle:      handle,
		DisplayName: record.AuthorName,
		AvatarURL:   record.AuthorAvatarURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	inserted, err := s.Creators.CreateCreator(ctx, creator)
	if err != nil {
		return entities.CreatorProfile{}, err
	}
	if !inserted {
		// Lost the race on a new handle; the stored profile wins.
		winner, found, err := s.Creators.FindByHandle(ctx, handle)
		if err != nil {
			return entities.CreatorProfile{}, err
		}
		if !found {
			return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
		}
		return winner, nil
	}
	return creator, nil
}

func needsProfileRefresh(creator entities.CreatorProfile, record ports.ActivityRecord) bool {
	if record.AuthorAvatarURL != "" && record.AuthorAvatarURL != creator.AvatarURL {
		return true
	}
	if record.AuthorName != "" && record.AuthorName != creator.DisplayName {
		return true
	}
	return false
}

// RecomputeStandings rebuilds every standing of the arena from contributions
// plus adjustments. It is safe to re-run at any time.
func (s Service) RecomputeStandings(ctx context.Context, arenaID string) error {
	arenaID = strings.TrimSpace(arenaID)
	if arenaID == "" {
		return domainerrors.ErrInvalidIngestInput
	}
	batchID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	creatorIDs, err := s.arenaCreators(ctx, arenaID)
	if err == nil {
		err = s.recomputeCreators(ctx, arenaID, creatorIDs, batchID)
	}
	if s.Audit != nil {
		entry := ports.AuditEntry{
			Actor:      "scoring-engine",
			EntityType: "arena_standings",
			EntityID:   arenaID,
			Action:     "recompute_standings",
			Success:    err == nil,
			Metadata:   map[string]any{"batch_id": batchID, "creators": len(creatorIDs)},
		}
		if err != nil {
			entry.Message = err.Error()
		}
		_ = s.Audit.RecordAudit(ctx, entry)
	}
	return err
}

func (s Service) arenaCreators(ctx context.Context, arenaID string) ([]string, error) {
	fromContributions, err := s.Contributions.ListCreatorIDs(ctx, arenaID)
	if err != nil {
		return nil, err
	}
	fromAdjustments, err := s.Adjustments.ListCreatorIDs(ctx, arenaID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(fromContributions)+len(fromAdjustments))
	for _, id := range fromContributions {
		set[id] = struct{}{}
	}
	for _, id := range fromAdjustments {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// recomputeCreators recalculates each creator's points from source rows,
// emits standings increases, then reassigns rings across the whole arena and
// refreshes the ranking cache.
func (s Service) recomputeCreators(ctx context.Context, arenaID string, creatorIDs []string, batchID string) error {
	logger := ResolveLogger(s.Logger)
	now := s.Clock.Now().UTC()

	for _, creatorID := range creatorIDs {
		contributionPoints, err := s.Contributions.SumPoints(ctx, arenaID, creatorID)
		if err != nil {
			return err
		}
		adjustmentDelta, err := s.Adjustments.SumDeltas(ctx, arenaID, creatorID)
		if err != nil {
			return err
		}
		points := contributionPoints + adjustmentDelta

		previous, found, err := s.Standings.GetStanding(ctx, arenaID, creatorID)
		if err != nil {
			return err
		}
		var oldPoints int64
		ring := entities.RingDiscovery
		if found {
			oldPoints = previous.Points
			ring = previous.Ring
		}

		if err := s.Standings.UpsertStanding(ctx, entities.Standing{
			ArenaID:   arenaID,
			CreatorID: creatorID,
			Points:    points,
			Ring:      ring,
			UpdatedAt: now,
		}); err != nil {
			return err
		}

		if points > oldPoints && s.Rewards != nil {
			err := s.Rewards.HandleStandingsIncrease(ctx, ports.StandingsIncrease{
				ArenaID:   arenaID,
				CreatorID: creatorID,
				OldPoints: oldPoints,
				NewPoints: points,
				BatchID:   batchID,
			})
			if err != nil {
				// Reward emission failures must not lose the recomputed
				// standings; they surface in logs and the reward ledger
				// can be caught up from the watermark.
				logger.Warn("reward emission failed",
					"event", "reward_emission_failed",
					"module", "competition/scoring-service",
					"layer", "application",
					"arena_id", arenaID,
					"creator_id", creatorID,
					"error", err.Error(),
				)
			}
		}
	}

	return s.reassignRings(ctx, arenaID, now)
}

func (s Service) reassignRings(ctx context.Context, arenaID string, now time.Time) error {
	standings, err := s.Standings.ListStandings(ctx, arenaID)
	if err != nil {
		return err
	}
	total := len(standings)
	for rank, standing := range standings {
		ring := entities.RingForRank(rank+1, total)
		if ring == standing.Ring {
			continue
		}
		standing.Ring = ring
		standing.UpdatedAt = now
		if err := s.Standings.UpsertStanding(ctx, standing); err != nil {
			return err
		}
		standings[rank] = standing
	}
	if s.Cache != nil {
		if err := s.Cache.ReplaceArena(ctx, arenaID, standings); err != nil {
			ResolveLogger(s.Logger).Warn("standings cache refresh failed",
				"event", "standings_cache_refresh_failed",
				"module", "competition/scoring-service",
				"layer", "application",
				"arena_id", arenaID,
				"error", err.Error(),
			)
		}
	}
	return nil
}

type AdjustmentInput struct {
	ArenaID   string
	CreatorID string
	Delta     int64
	Reason    string
	Actor     string
}

func (s Service) AddPointAdjustment(ctx context.Context, input AdjustmentInput) (entities.PointAdjustment, error) {
	logger := ResolveLogger(s.Logger)
	arenaID := strings.TrimSpace(input.ArenaID)
	creatorID := strings.TrimSpace(input.CreatorID)
	if arenaID == "" || creatorID == "" || input.Delta == 0 ||
		strings.TrimSpace(input.Reason) == "" || strings.TrimSpace(input.Actor) == "" {
		return entities.PointAdjustment{}, domainerrors.ErrInvalidAdjustment
	}
	if _, err := s.Creators.GetCreator(ctx, creatorID); err != nil {
		return entities.PointAdjustment{}, err
	}

	adjustmentID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.PointAdjustment{}, err
	}
	adjustment := entities.PointAdjustment{
		AdjustmentID: adjustmentID,
		ArenaID:      arenaID,
		CreatorID:    creatorID,
		Delta:        input.Delta,
		Reason:       strings.TrimSpace(input.Reason),
		Actor:        strings.TrimSpace(input.Actor),
		CreatedAt:    s.Clock.Now().UTC(),
	}
	err = s.Adjustments.AppendAdjustment(ctx, adjustment)
	if err == nil {
		// The adjustment id doubles as the batch id so a positive
		// correction still produces at most one reward row.
		err = s.recomputeCreators(ctx, arenaID, []string{creatorID}, adjustmentID)
	}
	if err != nil {
		if s.Audit != nil {
			_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
				Actor:      adjustment.Actor,
				EntityType: "point_adjustment",
				EntityID:   adjustmentID,
				Action:     "add_point_adjustment",
				Success:    false,
				Message:    err.Error(),
				Metadata:   map[string]any{"arena_id": arenaID, "creator_id": creatorID, "delta": input.Delta},
			})
		}
		return entities.PointAdjustment{}, err
	}

	if s.Audit != nil {
		_ = s.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      adjustment.Actor,
			EntityType: "point_adjustment",
			EntityID:   adjustmentID,
			Action:     "add_point_adjustment",
			Success:    true,
			Message:    adjustment.Reason,
			Metadata:   map[string]any{"arena_id": arenaID, "creator_id": creatorID, "delta": input.Delta},
		})
	}

	logger.Info("point adjustment recorded",
		"event", "point_adjustment_recorded",
		"module", "competition/scoring-service",
		"layer", "application",
		"arena_id", arenaID,
		"creator_id", creatorID,
		"delta", input.Delta,
	)
	return adjustment, nil
}

// GetArenaStandings returns the ranked standings, serving from the cache
// when it holds the arena and falling back to the repository otherwise.
func (s Service) GetArenaStandings(ctx context.Context, arenaID string) ([]entities.Standing, error) {
	arenaID = strings.TrimSpace(arenaID)
	if arenaID == "" {
		return nil, domainerrors.ErrInvalidIngestInput
	}
	if s.Cache != nil {
		cached, hit, err := s.Cache.GetArena(ctx, arenaID)
		if err == nil && hit {
			return cached, nil
		}
		if err != nil {
			ResolveLogger(s.Logger).Warn("standings cache read failed",
				"event", "standings_cache_read_failed",
				"module", "competition/scoring-service",
				"layer", "application",
				"arena_id", arenaID,
				"error", err.Error(),
			)
		}
	}
	standings, err := s.Standings.ListStandings(ctx, arenaID)
	if err != nil {
		return nil, err
	}
	if s.Cache != nil && len(standings) > 0 {
		_ = s.Cache.ReplaceArena(ctx, arenaID, standings)
	}
	return standings, nil
}

func (s Service) ListContributions(ctx context.Context, arenaID string, limit int) ([]entities.Contribution, error) {
	arenaID = strings.TrimSpace(arenaID)
	if arenaID == "" {
		return nil, domainerrors.ErrInvalidIngestInput
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Contributions.ListContributions(ctx, arenaID, limit)
}
