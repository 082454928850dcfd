package entities

import "time"

// Entry is one immutable audit record. Entries are append-only: no update or
// delete operation exists anywhere in this service.
type Entry struct {
	EntryID    string
	Actor      string
	ProjectID  string
	EntityType string
	EntityID   string
	Action     string
	Success    bool
	Message    string
	Metadata   map[string]any
	CreatedAt  time.Time
}
