package commands

import (
	"context"
	"log/slog"
	"strings"

	application "coliseum/contexts/access-governance/access-request-service/application"
	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/contexts/access-governance/access-request-service/ports"
)

type RejectRequestCommand struct {
	RequestID string
	AdminID   string
	Reason    string
}

type RejectRequestUseCase struct {
	Requests ports.RequestRepository
	UoW      ports.UnitOfWork
	Audit    ports.AuditRecorder
	Clock    ports.Clock
	Logger   *slog.Logger
}

func (uc RejectRequestUseCase) Execute(ctx context.Context, cmd RejectRequestCommand) (entities.AccessRequest, error) {
	logger := application.ResolveLogger(uc.Logger)
	requestID := strings.TrimSpace(cmd.RequestID)
	adminID := strings.TrimSpace(cmd.AdminID)
	if requestID == "" || adminID == "" {
		return entities.AccessRequest{}, domainerrors.ErrInvalidRequestInput
	}

	var rejected entities.AccessRequest
	err := uc.UoW.Atomically(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		request, err := uc.Requests.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != entities.RequestStatusPending {
			return domainerrors.ErrRequestNotPending
		}
		request.Status = entities.RequestStatusRejected
		request.DecidedBy = adminID
		request.DecidedAt = &now
		request.UpdatedAt = now
		if err := uc.Requests.UpdateRequest(ctx, request); err != nil {
			return err
		}
		rejected = request
		return nil
	})
	if err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      adminID,
			EntityType: "access_request",
			EntityID:   requestID,
			Action:     "reject_access_request",
			Success:    false,
			Message:    err.Error(),
		})
		return entities.AccessRequest{}, err
	}

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      adminID,
		ProjectID:  rejected.ProjectID,
		EntityType: "access_request",
		EntityID:   requestID,
		Action:     "reject_access_request",
		Success:    true,
		Message:    strings.TrimSpace(cmd.Reason),
	}); err != nil {
		return entities.AccessRequest{}, err
	}

	logger.Info("access request rejected",
		"event", "access_request_rejected",
		"module", "access-governance/access-request-service",
		"layer", "application",
		"request_id", requestID,
		"project_id", rejected.ProjectID,
	)
	return rejected, nil
}
