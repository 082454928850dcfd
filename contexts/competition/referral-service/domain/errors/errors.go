package errors

import "errors"

var (
	ErrSelfReferral          = errors.New("a creator cannot refer themselves")
	ErrDuplicateReferralLink = errors.New("a referral link already exists for this pair")
	ErrReferralLinkNotFound  = errors.New("referral link not found")
	ErrInvalidLinkStatus     = errors.New("invalid referral link status")
	ErrInvalidReferralInput  = errors.New("referrer and referred creator ids are required")
)
