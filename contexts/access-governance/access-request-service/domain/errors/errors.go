package errors

import "errors"

var (
	ErrPendingRequestExists = errors.New("a pending access request already exists for this project")
	ErrRequestNotFound      = errors.New("access request not found")
	ErrRequestNotPending    = errors.New("access request is not pending")
	ErrProjectNotFound      = errors.New("project not found")
	ErrInvalidProductType   = errors.New("invalid product type")
	ErrInvalidDateRange     = errors.New("end date must be after start date")
	ErrInvalidRequestInput  = errors.New("project id and actor are required")
)
