package entities

import "time"

type ProductType string

const (
	ProductMindshare ProductType = "mindshare"
	ProductGamified  ProductType = "gamified"
	ProductCRM       ProductType = "crm"
)

func ValidProductType(product ProductType) bool {
	switch product {
	case ProductMindshare, ProductGamified, ProductCRM:
		return true
	default:
		return false
	}
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

// AccessRequest is a project's application to run a leaderboard product.
// At most one pending request exists per project; once decided the request
// is immutable except for audit metadata.
type AccessRequest struct {
	RequestID     string
	ProjectID     string
	ProductType   ProductType
	Status        RequestStatus
	Justification string
	StartAt       time.Time
	EndAt         time.Time
	DecidedBy     string
	DecidedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ModuleFlag is one product module's enablement window.
type ModuleFlag struct {
	Enabled bool
	StartAt *time.Time
	EndAt   *time.Time
}

// Valid enforces enabled implies both dates set with end after start.
func (f ModuleFlag) Valid() bool {
	if !f.Enabled {
		return true
	}
	return f.StartAt != nil && f.EndAt != nil && f.EndAt.After(*f.StartAt)
}

// ProjectFeatureFlags is the single per-project row of module enablement.
// It is upserted by the approval orchestrator, never duplicated.
type ProjectFeatureFlags struct {
	ProjectID     string
	Leaderboard   ModuleFlag
	Gamefi        ModuleFlag
	CRM           ModuleFlag
	CRMVisibility string
	UpdatedAt     time.Time
}

// ProjectProjection is the coordinator's read model of a project. Only the
// eligibility flag is written here; the rest is owned by the external admin
// workflow.
type ProjectProjection struct {
	ProjectID             string
	Name                  string
	IsLeaderboardEligible bool
	UpdatedAt             time.Time
}
