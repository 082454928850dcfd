package httpadapter

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/platform-audit/audit-service/application"
	"coliseum/contexts/platform-audit/audit-service/domain/entities"
	httptransport "coliseum/contexts/platform-audit/audit-service/transport/http"
)

type Handler struct {
	Service application.Service
	Logger  *slog.Logger
}

func (h Handler) GetProjectTrailHandler(ctx context.Context, projectID string, limit int) (httptransport.AuditTrailResponse, error) {
	entries, err := h.Service.GetProjectTrail(ctx, projectID, limit)
	if err != nil {
		return httptransport.AuditTrailResponse{}, err
	}
	return trailResponse(entries), nil
}

func (h Handler) GetEntityTrailHandler(ctx context.Context, entityType string, entityID string, limit int) (httptransport.AuditTrailResponse, error) {
	entries, err := h.Service.GetEntityTrail(ctx, entityType, entityID, limit)
	if err != nil {
		return httptransport.AuditTrailResponse{}, err
	}
	return trailResponse(entries), nil
}

func trailResponse(entries []entities.Entry) httptransport.AuditTrailResponse {
	resp := httptransport.AuditTrailResponse{
		Status: "success",
		Data:   make([]httptransport.AuditEntryDTO, 0, len(entries)),
	}
	for _, entry := range entries {
		resp.Data = append(resp.Data, httptransport.AuditEntryDTO{
			EntryID:    entry.EntryID,
			Actor:      entry.Actor,
			ProjectID:  entry.ProjectID,
			EntityType: entry.EntityType,
			EntityID:   entry.EntityID,
			Action:     entry.Action,
			Success:    entry.Success,
			Message:    entry.Message,
			Metadata:   entry.Metadata,
			CreatedAt:  entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return resp
}
