package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuditEntryDTO struct {
	EntryID    string         `json:"entry_id"`
	Actor      string         `json:"actor"`
	ProjectID  string         `json:"project_id,omitempty"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Action     string         `json:"action"`
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

type AuditTrailResponse struct {
	Status string          `json:"status"`
	Data   []AuditEntryDTO `json:"data"`
}
