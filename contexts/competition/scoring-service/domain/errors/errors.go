package errors

import "errors"

var (
	ErrInvalidIngestInput = errors.New("project id and arena id are required for ingestion")
	ErrInvalidAdjustment  = errors.New("adjustment requires arena, creator, non-zero delta, reason and actor")
	ErrCreatorNotFound    = errors.New("creator profile not found")
	ErrStandingNotFound   = errors.New("standing not found for creator in arena")
)
