package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ProvisionPrimaryRequest struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at,omitempty"`
	ActorID   string `json:"actor_id"`
}

type ChangeStatusRequest struct {
	Action  string `json:"action"`
	ActorID string `json:"actor_id"`
	Reason  string `json:"reason,omitempty"`
}

type ActivateArenaRequest struct {
	ActorID string `json:"actor_id"`
}

type ArenaDTO struct {
	ArenaID   string `json:"arena_id"`
	ProjectID string `json:"project_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
	Name      string `json:"name"`
	StartsAt  string `json:"starts_at"`
	EndsAt    string `json:"ends_at,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ArenaResponse struct {
	Status string   `json:"status"`
	Data   ArenaDTO `json:"data"`
}

type ProvisionPrimaryResponse struct {
	Status  string   `json:"status"`
	Data    ArenaDTO `json:"data"`
	Created bool     `json:"created"`
}

type ActivateArenaResponse struct {
	Status      string   `json:"status"`
	Data        ArenaDTO `json:"data"`
	EndedArenas []string `json:"ended_arenas"`
}

type ArenaListResponse struct {
	Status string     `json:"status"`
	Data   []ArenaDTO `json:"data"`
}
