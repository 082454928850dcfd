package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "coliseum/contexts/access-governance/access-request-service/application"
	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/contexts/access-governance/access-request-service/ports"
)

type SubmitRequestCommand struct {
	ProjectID     string
	ProductType   entities.ProductType
	Justification string
	StartAt       time.Time
	EndAt         time.Time
	ActorID       string
}

type SubmitRequestUseCase struct {
	Requests ports.RequestRepository
	Audit    ports.AuditRecorder
	Clock    ports.Clock
	IDGen    ports.IDGenerator
	Logger   *slog.Logger
}

func (uc SubmitRequestUseCase) Execute(ctx context.Context, cmd SubmitRequestCommand) (entities.AccessRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	projectID := strings.TrimSpace(cmd.ProjectID)
	if projectID == "" || strings.TrimSpace(cmd.ActorID) == "" {
		return entities.AccessRequest{}, domainerrors.ErrInvalidRequestInput
	}
	if !entities.ValidProductType(cmd.ProductType) {
		return entities.AccessRequest{}, domainerrors.ErrInvalidProductType
	}
	if !cmd.StartAt.IsZero() && !cmd.EndAt.IsZero() && !cmd.EndAt.After(cmd.StartAt) {
		return entities.AccessRequest{}, domainerrors.ErrInvalidDateRange
	}

	requestID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.AccessRequest{}, err
	}
	now := uc.Clock.Now().UTC()
	request := entities.AccessRequest{
		RequestID:     requestID,
		ProjectID:     projectID,
		ProductType:   cmd.ProductType,
		Status:        entities.RequestStatusPending,
		Justification: strings.TrimSpace(cmd.Justification),
		StartAt:       cmd.StartAt.UTC(),
		EndAt:         cmd.EndAt.UTC(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.Requests.CreateRequest(ctx, request); err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      cmd.ActorID,
			ProjectID:  projectID,
			EntityType: "access_request",
			Action:     "submit_access_request",
			Success:    false,
			Message:    err.Error(),
		})
		return entities.AccessRequest{}, err
	}

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      cmd.ActorID,
		ProjectID:  projectID,
		EntityType: "access_request",
		EntityID:   requestID,
		Action:     "submit_access_request",
		Success:    true,
		Metadata:   map[string]any{"product_type": string(cmd.ProductType)},
	}); err != nil {
		return entities.AccessRequest{}, err
	}

	logger.Info("access request submitted",
		"event", "access_request_submitted",
		"module", "access-governance/access-request-service",
		"layer", "application",
		"project_id", projectID,
		"request_id", requestID,
		"product_type", string(cmd.ProductType),
	)
	return request, nil
}
