package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RegisterLinkRequest struct {
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
}

type UpdateLinkStatusRequest struct {
	Status string `json:"status"`
}

type LinkDTO struct {
	LinkID     string `json:"link_id"`
	ReferrerID string `json:"referrer_id"`
	ReferredID string `json:"referred_id"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type LinkResponse struct {
	Status string  `json:"status"`
	Data   LinkDTO `json:"data"`
}

type RewardDTO struct {
	RewardID          string `json:"reward_id"`
	ReferralLinkID    string `json:"referral_link_id"`
	ArenaID           string `json:"arena_id"`
	BatchID           string `json:"batch_id"`
	PointsEarnedDelta int64  `json:"points_earned_delta"`
	RewardPercent     string `json:"reward_percent"`
	RewardPoints      string `json:"reward_points"`
	RewardStatus      string `json:"reward_status"`
	CreatedAt         string `json:"created_at"`
}

type RewardListResponse struct {
	Status string      `json:"status"`
	Data   []RewardDTO `json:"data"`
}
