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

	"github.com/shopspring/decimal"
)

type ApproveRequestCommand struct {
	RequestID string
	AdminID   string
}

type ApproveRequestResult struct {
	Request      entities.AccessRequest
	ArenaID      string
	ArenaCreated bool
	BillingID    string
	Warnings     []string
}

// ApproveRequestUseCase is the top-level orchestrator: request transition,
// project eligibility, feature-flag upsert, arena provisioning and the outbox
// event commit together; the billing stub runs after commit and only warns.
type ApproveRequestUseCase struct {
	Requests        ports.RequestRepository
	Flags           ports.FlagRepository
	Projects        ports.ProjectRepository
	Billing         ports.BillingGateway
	Arenas          ports.ArenaProvisioner
	Outbox          ports.OutboxWriter
	UoW             ports.UnitOfWork
	Audit           ports.AuditRecorder
	Clock           ports.Clock
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Logger          *slog.Logger
}

func (uc ApproveRequestUseCase) Execute(ctx context.Context, cmd ApproveRequestCommand) (ApproveRequestResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	requestID := strings.TrimSpace(cmd.RequestID)
	adminID := strings.TrimSpace(cmd.AdminID)
	if requestID == "" || adminID == "" {
		return ApproveRequestResult{}, domainerrors.ErrInvalidRequestInput
	}

	var result ApproveRequestResult
	err := uc.UoW.Atomically(ctx, func(ctx context.Context) error {
		now := uc.Clock.Now().UTC()
		request, err := uc.Requests.GetRequestForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if request.Status != entities.RequestStatusPending {
			return domainerrors.ErrRequestNotPending
		}

		request.Status = entities.RequestStatusApproved
		request.DecidedBy = adminID
		request.DecidedAt = &now
		request.UpdatedAt = now
		if err := uc.Requests.UpdateRequest(ctx, request); err != nil {
			return err
		}

		if err := uc.Projects.MarkEligible(ctx, request.ProjectID, now); err != nil {
			return err
		}

		if err := uc.upsertFlags(ctx, request, now); err != nil {
			return err
		}

		if request.ProductType == entities.ProductMindshare || request.ProductType == entities.ProductGamified {
			arena, err := uc.Arenas.ProvisionPrimaryArena(ctx,
				request.ProjectID,
				string(request.ProductType)+" season",
				request.StartAt,
				request.EndAt,
				adminID,
			)
			if err != nil {
				return err
			}
			result.ArenaID = arena.ArenaID
			result.ArenaCreated = arena.Created
		}

		if uc.Outbox != nil {
			err := uc.Outbox.Enqueue(ctx, "access.approved", "access_request", request.RequestID, map[string]any{
				"request_id":   request.RequestID,
				"project_id":   request.ProjectID,
				"product_type": string(request.ProductType),
				"arena_id":     result.ArenaID,
				"decided_by":   adminID,
			}, now)
			if err != nil {
				return err
			}
		}

		result.Request = request
		return nil
	})
	if err != nil {
		_ = uc.Audit.RecordAudit(ctx, ports.AuditEntry{
			Actor:      adminID,
			EntityType: "access_request",
			EntityID:   requestID,
			Action:     "approve_access_request",
			Success:    false,
			Message:    err.Error(),
		})
		return ApproveRequestResult{}, err
	}

	result.BillingID = uc.createBillingRecord(ctx, &result, logger)

	if err := uc.Audit.RecordAudit(ctx, ports.AuditEntry{
		Actor:      adminID,
		ProjectID:  result.Request.ProjectID,
		EntityType: "access_request",
		EntityID:   requestID,
		Action:     "approve_access_request",
		Success:    true,
		Metadata: map[string]any{
			"arena_id":        result.ArenaID,
			"arena_created":   result.ArenaCreated,
			"billing_id":      result.BillingID,
			"billing_warning": strings.Join(result.Warnings, "; "),
		},
	}); err != nil {
		return ApproveRequestResult{}, err
	}

	logger.Info("access request approved",
		"event", "access_request_approved",
		"module", "access-governance/access-request-service",
		"layer", "application",
		"request_id", requestID,
		"project_id", result.Request.ProjectID,
		"arena_id", result.ArenaID,
		"arena_created", result.ArenaCreated,
		"warnings", len(result.Warnings),
	)
	return result, nil
}

func (uc ApproveRequestUseCase) upsertFlags(ctx context.Context, request entities.AccessRequest, now time.Time) error {
	flags, _, err := uc.Flags.GetFlags(ctx, request.ProjectID)
	if err != nil {
		return err
	}
	flags.ProjectID = request.ProjectID
	flags.UpdatedAt = now

	// An enabled module must carry a window; requests without explicit
	// dates get a one-year window from approval time.
	startAt := request.StartAt
	if startAt.IsZero() {
		startAt = now
	}
	endAt := request.EndAt
	if endAt.IsZero() {
		endAt = startAt.AddDate(1, 0, 0)
	}
	window := entities.ModuleFlag{Enabled: true, StartAt: &startAt, EndAt: &endAt}
	if !window.Valid() {
		return domainerrors.ErrInvalidDateRange
	}

	switch request.ProductType {
	case entities.ProductMindshare:
		flags.Leaderboard = window
	case entities.ProductGamified:
		flags.Gamefi = window
	case entities.ProductCRM:
		flags.CRM = window
		if flags.CRMVisibility == "" {
			flags.CRMVisibility = "private"
		}
	}
	return uc.Flags.UpsertFlags(ctx, flags)
}

// createBillingRecord runs outside the transaction. A billing failure is a
// warning on the result, not an approval failure.
func (uc ApproveRequestUseCase) createBillingRecord(ctx context.Context, result *ApproveRequestResult, logger *slog.Logger) string {
	if uc.Billing == nil {
		return ""
	}
	billingID, err := uc.Billing.CreateBillingRecord(ctx,
		result.Request.RequestID,
		string(result.Request.ProductType),
		uc.BasePrice,
		uc.DiscountPercent,
	)
	if err != nil {
		result.Warnings = append(result.Warnings, "billing record creation failed: "+err.Error())
		logger.Warn("billing record creation failed",
			"event", "billing_record_failed",
			"module", "access-governance/access-request-service",
			"layer", "application",
			"request_id", result.Request.RequestID,
			"error", err.Error(),
		)
		return ""
	}
	return billingID
}
