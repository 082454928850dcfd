package errors

import "errors"

var (
	ErrArenaNotFound          = errors.New("arena not found")
	ErrNotPrimaryLeaderboard  = errors.New("operation applies only to primary leaderboard arenas")
	ErrInvalidStateTransition = errors.New("invalid arena state transition")
	ErrDuplicatePrimaryArena  = errors.New("project already has a live primary leaderboard arena")
	ErrInvalidArenaInput      = errors.New("invalid arena input")
	ErrInvalidDateRange       = errors.New("arena end must be after start")
)
