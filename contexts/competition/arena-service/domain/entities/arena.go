package entities

import "time"

type Kind string

const (
	KindPrimaryLeaderboard Kind = "primary_leaderboard"
	KindGamified           Kind = "gamified"
	KindCRM                Kind = "crm"
)

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusEnded     Status = "ended"
	StatusCancelled Status = "cancelled"
)

// Arena is one time-boxed leaderboard instance owned by a project.
// Invariant: at most one arena per project with kind=primary_leaderboard in a
// non-terminal status.
type Arena struct {
	ArenaID   string
	ProjectID string
	Kind      Kind
	Status    Status
	Name      string
	StartsAt  time.Time
	EndsAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (s Status) Terminal() bool {
	return s == StatusEnded || s == StatusCancelled
}

// CanTransition encodes the arena state machine:
// draft -> scheduled -> active <-> paused -> ended, cancelled from any
// non-terminal state. Draft arenas may activate directly (first approval).
func CanTransition(from Status, to Status) bool {
	if from.Terminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	switch from {
	case StatusDraft:
		return to == StatusScheduled || to == StatusActive
	case StatusScheduled:
		return to == StatusActive
	case StatusActive:
		return to == StatusPaused || to == StatusEnded
	case StatusPaused:
		return to == StatusActive || to == StatusEnded
	default:
		return false
	}
}

func ValidKind(kind Kind) bool {
	switch kind {
	case KindPrimaryLeaderboard, KindGamified, KindCRM:
		return true
	default:
		return false
	}
}
