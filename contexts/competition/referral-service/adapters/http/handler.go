package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/competition/referral-service/application"
	"coliseum/contexts/competition/referral-service/domain/entities"
	httptransport "coliseum/contexts/competition/referral-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) RegisterLinkHandler(ctx context.Context, req httptransport.RegisterLinkRequest) (httptransport.LinkResponse, error) {
	link, err := h.Service.RegisterReferralLink(ctx, application.RegisterLinkInput{
		ReferrerID: req.ReferrerID,
		ReferredID: req.ReferredID,
	})
	if err != nil {
		return httptransport.LinkResponse{}, err
	}
	return httptransport.LinkResponse{Status: "success", Data: linkDTO(link)}, nil
}

func (h Handler) UpdateLinkStatusHandler(ctx context.Context, linkID string, req httptransport.UpdateLinkStatusRequest) (httptransport.LinkResponse, error) {
	link, err := h.Service.UpdateLinkStatus(ctx, linkID, entities.LinkStatus(req.Status))
	if err != nil {
		return httptransport.LinkResponse{}, err
	}
	return httptransport.LinkResponse{Status: "success", Data: linkDTO(link)}, nil
}

func (h Handler) ListRewardsByReferrerHandler(ctx context.Context, referrerID string) (httptransport.RewardListResponse, error) {
	rewards, err := h.Service.ListRewardsByReferrer(ctx, referrerID)
	if err != nil {
		return httptransport.RewardListResponse{}, err
	}
	return rewardList(rewards), nil
}

func (h Handler) ListRewardsByArenaHandler(ctx context.Context, arenaID string) (httptransport.RewardListResponse, error) {
	rewards, err := h.Service.ListRewardsByArena(ctx, arenaID)
	if err != nil {
		return httptransport.RewardListResponse{}, err
	}
	return rewardList(rewards), nil
}

func linkDTO(link entities.ReferralLink) httptransport.LinkDTO {
	return httptransport.LinkDTO{
		LinkID:     link.LinkID,
		ReferrerID: link.ReferrerID,
		ReferredID: link.ReferredID,
		Status:     string(link.Status),
		CreatedAt:  link.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  link.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func rewardList(rewards []entities.ReferralReward) httptransport.RewardListResponse {
	resp := httptransport.RewardListResponse{
		Status: "success",
		Data:   make([]httptransport.RewardDTO, 0, len(rewards)),
	}
	for _, reward := range rewards {
		resp.Data = append(resp.Data, httptransport.RewardDTO{
			RewardID:          reward.RewardID,
			ReferralLinkID:    reward.ReferralLinkID,
			ArenaID:           reward.ArenaID,
			BatchID:           reward.BatchID,
			PointsEarnedDelta: reward.PointsEarnedDelta,
			RewardPercent:     reward.RewardPercent.String(),
			RewardPoints:      reward.RewardPoints.String(),
			RewardStatus:      string(reward.Status),
			CreatedAt:         reward.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}
