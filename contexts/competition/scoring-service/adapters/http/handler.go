package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/competition/scoring-service/application"
	domainerrors "coliseum/contexts/competition/scoring-service/domain/errors"
	httptransport "coliseum/contexts/competition/scoring-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) IngestHandler(ctx context.Context, req httptransport.IngestRequest) (httptransport.IngestResponse, error) {
	var since time.Time
	if req.Since != "" {
		parsed, err := time.Parse(time.RFC3339, req.Since)
		if err != nil {
			return httptransport.IngestResponse{}, domainerrors.ErrInvalidIngestInput
		}
		since = parsed
	}
	result, err := h.Service.IngestContributions(ctx, application.IngestInput{
		ProjectID: req.ProjectID,
		ArenaID:   req.ArenaID,
		Since:     since,
		ActorID:   req.ActorID,
	})
	if err != nil {
		return httptransport.IngestResponse{}, err
	}
	affected := result.AffectedCreators
	if affected == nil {
		affected = []string{}
	}
	return httptransport.IngestResponse{
		Status: "success",
		Data: httptransport.IngestData{
			BatchID:          result.BatchID,
			Fetched:          result.Fetched,
			Inserted:         result.Inserted,
			AffectedCreators: affected,
		},
	}, nil
}

func (h Handler) AdjustmentHandler(ctx context.Context, req httptransport.AdjustmentRequest) (httptransport.AdjustmentResponse, error) {
	adjustment, err := h.Service.AddPointAdjustment(ctx, application.AdjustmentInput{
		ArenaID:   req.ArenaID,
		CreatorID: req.CreatorID,
		Delta:     req.Delta,
		Reason:    req.Reason,
		Actor:     req.ActorID,
	})
	if err != nil {
		return httptransport.AdjustmentResponse{}, err
	}
	return httptransport.AdjustmentResponse{
		Status: "success",
		Data: httptransport.AdjustmentDTO{
			AdjustmentID: adjustment.AdjustmentID,
			ArenaID:      adjustment.ArenaID,
			CreatorID:    adjustment.CreatorID,
			Delta:        adjustment.Delta,
			Reason:       adjustment.Reason,
			Actor:        adjustment.Actor,
			CreatedAt:    adjustment.CreatedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

func (h Handler) StandingsHandler(ctx context.Context, arenaID string) (httptransport.StandingsResponse, error) {
	standings, err := h.Service.GetArenaStandings(ctx, arenaID)
	if err != nil {
		return httptransport.StandingsResponse{}, err
	}
	resp := httptransport.StandingsResponse{
		Status: "success",
		Data:   make([]httptransport.StandingDTO, 0, len(standings)),
	}
	for i, standing := range standings {
		resp.Data = append(resp.Data, httptransport.StandingDTO{
			Rank:      i + 1,
			CreatorID: standing.CreatorID,
			Points:    standing.Points,
			Ring:      string(standing.Ring),
		})
	}
	return resp, nil
}

func (h Handler) RecomputeHandler(ctx context.Context, arenaID string) error {
	return h.Service.RecomputeStandings(ctx, arenaID)
}

func (h Handler) ContributionsHandler(ctx context.Context, arenaID string, limit int) (httptransport.ContributionListResponse, error) {
	contributions, err := h.Service.ListContributions(ctx, arenaID, limit)
	if err != nil {
		return httptransport.ContributionListResponse{}, err
	}
	resp := httptransport.ContributionListResponse{
		Status: "success",
		Data:   make([]httptransport.ContributionDTO, 0, len(contributions)),
	}
	for _, contribution := range contributions {
		resp.Data = append(resp.Data, httptransport.ContributionDTO{
			ContributionID: contribution.ContributionID,
			ProjectID:      contribution.ProjectID,
			ArenaID:        contribution.ArenaID,
			CreatorID:      contribution.CreatorID,
			SourcePostID:   contribution.SourcePostID,
			Likes:          contribution.Engagement.Likes,
			Replies:        contribution.Engagement.Replies,
			Retweets:       contribution.Engagement.Retweets,
			PointsAwarded:  contribution.PointsAwarded,
			OccurredAt:     contribution.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return resp, nil
}
