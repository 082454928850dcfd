package ports

import (
	"context"
	"time"

	"coliseum/contexts/access-governance/access-request-service/domain/entities"

	"github.com/shopspring/decimal"
)

type RequestRepository interface {
	// CreateRequest inserts the request; a second pending request for the
	// same project must fail.
	CreateRequest(ctx context.Context, request entities.AccessRequest) error
	GetRequest(ctx context.Context, requestID string) (entities.AccessRequest, error)
	// GetRequestForUpdate loads and row-locks the request so two deciders
	// cannot both observe pending.
	GetRequestForUpdate(ctx context.Context, requestID string) (entities.AccessRequest, error)
	UpdateRequest(ctx context.Context, request entities.AccessRequest) error
	ListByProject(ctx context.Context, projectID string) ([]entities.AccessRequest, error)
}

type FlagRepository interface {
	UpsertFlags(ctx context.Context, flags entities.ProjectFeatureFlags) error
	GetFlags(ctx context.Context, projectID string) (entities.ProjectFeatureFlags, bool, error)
}

type ProjectRepository interface {
	GetProject(ctx context.Context, projectID string) (entities.ProjectProjection, bool, error)
	// MarkEligible upserts the projection with the eligibility flag set.
	MarkEligible(ctx context.Context, projectID string, at time.Time) error
}

// BillingGateway is the external billing collaborator. Failures here are
// reported as warnings, never as approval failures.
type BillingGateway interface {
	CreateBillingRecord(ctx context.Context, requestID string, accessLevel string, basePrice decimal.Decimal, discountPercent decimal.Decimal) (string, error)
}

// ArenaProvisioner is the orchestrator's view of the arena lifecycle
// coordinator.
type ArenaProvisioner interface {
	ProvisionPrimaryArena(ctx context.Context, projectID string, name string, startAt time.Time, endAt time.Time, actor string) (ProvisionedArena, error)
}

type ProvisionedArena struct {
	ArenaID string
	Created bool
}

// OutboxWriter enqueues an integration event inside the caller's
// transaction.
type OutboxWriter interface {
	Enqueue(ctx context.Context, eventType string, entityType string, entityID string, payload any, now time.Time) error
}

type UnitOfWork interface {
	Atomically(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditEntry struct {
	Actor      string
	ProjectID  string
	EntityType string
	EntityID   string
	Action     string
	Success    bool
	Message    string
	Metadata   map[string]any
}

type AuditRecorder interface {
	RecordAudit(ctx context.Context, entry AuditEntry) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}
