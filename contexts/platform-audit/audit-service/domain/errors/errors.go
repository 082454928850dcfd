package errors

import "errors"

var (
	ErrInvalidEntry  = errors.New("audit entry requires actor and action")
	ErrTrailNotFound = errors.New("no audit trail for the requested scope")
	ErrInvalidFilter = errors.New("audit trail filter requires a project id or an entity reference")
)
