package queries

import (
	"context"
	"log/slog"
	"strings"

	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/contexts/access-governance/access-request-service/ports"
)

type GetRequestUseCase struct {
	Requests ports.RequestRepository
	Logger   *slog.Logger
}

func (uc GetRequestUseCase) Execute(ctx context.Context, requestID string) (entities.AccessRequest, error) {
	if strings.TrimSpace(requestID) == "" {
		return entities.AccessRequest{}, domainerrors.ErrInvalidRequestInput
	}
	return uc.Requests.GetRequest(ctx, strings.TrimSpace(requestID))
}

type ListRequestsUseCase struct {
	Requests ports.RequestRepository
	Logger   *slog.Logger
}

func (uc ListRequestsUseCase) Execute(ctx context.Context, projectID string) ([]entities.AccessRequest, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, domainerrors.ErrInvalidRequestInput
	}
	return uc.Requests.ListByProject(ctx, strings.TrimSpace(projectID))
}

type GetFlagsUseCase struct {
	Flags  ports.FlagRepository
	Logger *slog.Logger
}

func (uc GetFlagsUseCase) Execute(ctx context.Context, projectID string) (entities.ProjectFeatureFlags, error) {
	projectID = strings.TrimSpace(projectID)
	if projectID == "" {
		return entities.ProjectFeatureFlags{}, domainerrors.ErrInvalidRequestInput
	}
	flags, found, err := uc.Flags.GetFlags(ctx, projectID)
	if err != nil {
		return entities.ProjectFeatureFlags{}, err
	}
	if !found {
		return entities.ProjectFeatureFlags{}, domainerrors.ErrProjectNotFound
	}
	return flags, nil
}
