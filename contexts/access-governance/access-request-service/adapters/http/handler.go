package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/access-governance/access-request-service/application/commands"
	"coliseum/contexts/access-governance/access-request-service/application/queries"
	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	httptransport "coliseum/contexts/access-governance/access-request-service/transport/http"
)

type Handler struct {
	SubmitRequest  commands.SubmitRequestUseCase
	ApproveRequest commands.ApproveRequestUseCase
	RejectRequest  commands.RejectRequestUseCase
	GetRequest     queries.GetRequestUseCase
	ListRequests   queries.ListRequestsUseCase
	GetFlags       queries.GetFlagsUseCase
	Logger         *slog.Logger
}

func (h Handler) SubmitHandler(ctx context.Context, req httptransport.SubmitRequestRequest) (httptransport.AccessRequestResponse, error) {
	startAt, err := parseTime(req.StartAt)
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	endAt, err := parseTime(req.EndAt)
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	request, err := h.SubmitRequest.Execute(ctx, commands.SubmitRequestCommand{
		ProjectID:     req.ProjectID,
		ProductType:   entities.ProductType(req.ProductType),
		Justification: req.Justification,
		StartAt:       startAt,
		EndAt:         endAt,
		ActorID:       req.ActorID,
	})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return httptransport.AccessRequestResponse{Status: "success", Data: requestDTO(request)}, nil
}

func (h Handler) ApproveHandler(ctx context.Context, requestID string, req httptransport.DecideRequestRequest) (httptransport.ApprovalResponse, error) {
	result, err := h.ApproveRequest.Execute(ctx, commands.ApproveRequestCommand{
		RequestID: requestID,
		AdminID:   req.AdminID,
	})
	if err != nil {
		return httptransport.ApprovalResponse{}, err
	}
	warnings := result.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return httptransport.ApprovalResponse{
		Status: "success",
		Data: httptransport.ApprovalData{
			Request:      requestDTO(result.Request),
			ArenaID:      result.ArenaID,
			ArenaCreated: result.ArenaCreated,
			BillingID:    result.BillingID,
		},
		Warnings: warnings,
	}, nil
}

func (h Handler) RejectHandler(ctx context.Context, requestID string, req httptransport.DecideRequestRequest) (httptransport.AccessRequestResponse, error) {
	request, err := h.RejectRequest.Execute(ctx, commands.RejectRequestCommand{
		RequestID: requestID,
		AdminID:   req.AdminID,
		Reason:    req.Reason,
	})
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return httptransport.AccessRequestResponse{Status: "success", Data: requestDTO(request)}, nil
}

func (h Handler) GetRequestHandler(ctx context.Context, requestID string) (httptransport.AccessRequestResponse, error) {
	request, err := h.GetRequest.Execute(ctx, requestID)
	if err != nil {
		return httptransport.AccessRequestResponse{}, err
	}
	return httptransport.AccessRequestResponse{Status: "success", Data: requestDTO(request)}, nil
}

func (h Handler) ListRequestsHandler(ctx context.Context, projectID string) (httptransport.AccessRequestListResponse, error) {
	requests, err := h.ListRequests.Execute(ctx, projectID)
	if err != nil {
		return httptransport.AccessRequestListResponse{}, err
	}
	resp := httptransport.AccessRequestListResponse{
		Status: "success",
		Data:   make([]httptransport.AccessRequestDTO, 0, len(requests)),
	}
	for _, request := range requests {
		resp.Data = append(resp.Data, requestDTO(request))
	}
	return resp, nil
}

func (h Handler) GetFlagsHandler(ctx context.Context, projectID string) (httptransport.FeatureFlagsResponse, error) {
	flags, err := h.GetFlags.Execute(ctx, projectID)
	if err != nil {
		return httptransport.FeatureFlagsResponse{}, err
	}
	return httptransport.FeatureFlagsResponse{
		Status: "success",
		Data: httptransport.FeatureFlagsDTO{
			ProjectID:     flags.ProjectID,
			Leaderboard:   moduleFlagDTO(flags.Leaderboard),
			Gamefi:        moduleFlagDTO(flags.Gamefi),
			CRM:           moduleFlagDTO(flags.CRM),
			CRMVisibility: flags.CRMVisibility,
		},
	}, nil
}

func parseTime(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidRequestInput
	}
	return parsed, nil
}

func requestDTO(request entities.AccessRequest) httptransport.AccessRequestDTO {
	dto := httptransport.AccessRequestDTO{
		RequestID:     request.RequestID,
		ProjectID:     request.ProjectID,
		ProductType:   string(request.ProductType),
		Status:        string(request.Status),
		Justification: request.Justification,
		DecidedBy:     request.DecidedBy,
		CreatedAt:     request.CreatedAt.UTC().Format(time.RFC3339),
	}
	if !request.StartAt.IsZero() {
		dto.StartAt = request.StartAt.UTC().Format(time.RFC3339)
	}
	if !request.EndAt.IsZero() {
		dto.EndAt = request.EndAt.UTC().Format(time.RFC3339)
	}
	if request.DecidedAt != nil {
		dto.DecidedAt = request.DecidedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

func moduleFlagDTO(flag entities.ModuleFlag) httptransport.ModuleFlagDTO {
	dto := httptransport.ModuleFlagDTO{Enabled: flag.Enabled}
	if flag.StartAt != nil {
		dto.StartAt = flag.StartAt.UTC().Format(time.RFC3339)
	}
	if flag.EndAt != nil {
		dto.EndAt = flag.EndAt.UTC().Format(time.RFC3339)
	}
	return dto
}
