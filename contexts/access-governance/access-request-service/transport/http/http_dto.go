package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitRequestRequest struct {
	ProjectID     string `json:"project_id"`
	ProductType   string `json:"product_type"`
	Justification string `json:"justification,omitempty"`
	StartAt       string `json:"start_at,omitempty"`
	EndAt         string `json:"end_at,omitempty"`
	ActorID       string `json:"actor_id"`
}

type DecideRequestRequest struct {
	AdminID string `json:"admin_id"`
	Reason  string `json:"reason,omitempty"`
}

type AccessRequestDTO struct {
	RequestID     string `json:"request_id"`
	ProjectID     string `json:"project_id"`
	ProductType   string `json:"product_type"`
	Status        string `json:"status"`
	Justification string `json:"justification,omitempty"`
	StartAt       string `json:"start_at,omitempty"`
	EndAt         string `json:"end_at,omitempty"`
	DecidedBy     string `json:"decided_by,omitempty"`
	DecidedAt     string `json:"decided_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type AccessRequestResponse struct {
	Status string           `json:"status"`
	Data   AccessRequestDTO `json:"data"`
}

type AccessRequestListResponse struct {
	Status string             `json:"status"`
	Data   []AccessRequestDTO `json:"data"`
}

type ApprovalResponse struct {
	Status   string       `json:"status"`
	Data     ApprovalData `json:"data"`
	Warnings []string     `json:"warnings"`
}

type ApprovalData struct {
	Request      AccessRequestDTO `json:"request"`
	ArenaID      string           `json:"arena_id,omitempty"`
	ArenaCreated bool             `json:"arena_created"`
	BillingID    string           `json:"billing_id,omitempty"`
}

type ModuleFlagDTO struct {
	Enabled bool   `json:"enabled"`
	StartAt string `json:"start_at,omitempty"`
	EndAt   string `json:"end_at,omitempty"`
}

type FeatureFlagsDTO struct {
	ProjectID     string        `json:"project_id"`
	Leaderboard   ModuleFlagDTO `json:"leaderboard"`
	Gamefi        ModuleFlagDTO `json:"gamefi"`
	CRM           ModuleFlagDTO `json:"crm"`
	CRMVisibility string        `json:"crm_visibility,omitempty"`
}

type FeatureFlagsResponse struct {
	Status string          `json:"status"`
	Data   FeatureFlagsDTO `json:"data"`
}
