package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type IngestRequest struct {
	ProjectID string `json:"project_id"`
	ArenaID   string `json:"arena_id"`
	Since     string `json:"since,omitempty"`
	ActorID   string `json:"actor_id"`
}

type IngestResponse struct {
	Status string     `json:"status"`
	Data   IngestData `json:"data"`
}

type IngestData struct {
	BatchID          string   `json:"batch_id"`
	Fetched          int      `json:"fetched"`
	Inserted         int      `json:"inserted"`
	AffectedCreators []string `json:"affected_creators"`
}

type AdjustmentRequest struct {
	ArenaID   string `json:"arena_id"`
	CreatorID string `json:"creator_id"`
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason"`
	ActorID   string `json:"actor_id"`
}

type AdjustmentResponse struct {
	Status string        `json:"status"`
	Data   AdjustmentDTO `json:"data"`
}

type AdjustmentDTO struct {
	AdjustmentID string `json:"adjustment_id"`
	ArenaID      string `json:"arena_id"`
	CreatorID    string `json:"creator_id"`
	Delta        int64  `json:"delta"`
	Reason       string `json:"reason"`
	Actor        string `json:"actor"`
	CreatedAt    string `json:"created_at"`
}

type StandingDTO struct {
	Rank      int    `json:"rank"`
	CreatorID string `json:"creator_id"`
	Points    int64  `json:"points"`
	Ring      string `json:"ring"`
}

type StandingsResponse struct {
	Status string        `json:"status"`
	Data   []StandingDTO `json:"data"`
}

type ContributionDTO struct {
	ContributionID string `json:"contribution_id"`
	ProjectID      string `json:"project_id"`
	ArenaID        string `json:"arena_id"`
	CreatorID      string `json:"creator_id"`
	SourcePostID   string `json:"source_post_id"`
	Likes          int64  `json:"likes"`
	Replies        int64  `json:"replies"`
	Retweets       int64  `json:"retweets"`
	PointsAwarded  int64  `json:"points_awarded"`
	OccurredAt     string `json:"occurred_at"`
}

type ContributionListResponse struct {
	Status string            `json:"status"`
	Data   []ContributionDTO `json:"data"`
}
