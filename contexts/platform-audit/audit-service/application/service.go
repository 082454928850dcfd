package application

import (
	"context"
	"log/slog"
	"strings"

	"coliseum/contexts/platform-audit/audit-service/domain/entities"
	domainerrors "coliseum/contexts/platform-audit/audit-service/domain/errors"
	"coliseum/contexts/platform-audit/audit-service/ports"
)

// Service owns the append-only audit log. Append must have completed before
// the triggering operation reports success, so every method is synchronous.
type Service struct {
	Repo   ports.Repository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (s Service) Append(ctx context.Context, input ports.AppendInput) (entities.Entry, error) {
	logger := ResolveLogger(s.Logger)
	if strings.TrimSpace(input.Actor) == "" || strings.TrimSpace(input.Action) == "" {
		return entities.Entry{}, domainerrors.ErrInvalidEntry
	}

	entryID, err := s.IDGen.NewID(ctx)
	if err != nil {
		return entities.Entry{}, err
	}
	entry := entities.Entry{
		EntryID:    entryID,
		Actor:      strings.TrimSpace(input.Actor),
		ProjectID:  strings.TrimSpace(input.ProjectID),
		EntityType: strings.TrimSpace(input.EntityType),
		EntityID:   strings.TrimSpace(input.EntityID),
		Action:     strings.TrimSpace(input.Action),
		Success:    input.Success,
		Message:    input.Message,
		Metadata:   input.Metadata,
		CreatedAt:  s.Clock.Now().UTC(),
	}
	if err := s.Repo.AppendEntry(ctx, entry); err != nil {
		return entities.Entry{}, err
	}

	logger.Info("audit entry appended",
		"event", "audit_entry_appended",
		"module", "platform-audit/audit-service",
		"layer", "application",
		"entry_id", entry.EntryID,
		"action", entry.Action,
		"success", entry.Success,
	)
	return entry, nil
}

func (s Service) GetProjectTrail(ctx context.Context, projectID string, limit int) ([]entities.Entry, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domainerrors.ErrInvalidFilter
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Repo.ListByProject(ctx, strings.TrimSpace(projectID), limit)
}

func (s Service) GetEntityTrail(ctx context.Context, entityType string, entityID string, limit int) ([]entities.Entry, error) {
	if strings.TrimSpace(entityType) == "" || strings.TrimSpace(entityID) == "" {
		return nil, domainerrors.ErrInvalidFilter
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.Repo.ListByEntity(ctx, strings.TrimSpace(entityType), strings.TrimSpace(entityID), limit)
}
