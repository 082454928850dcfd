package memory

import (
	"context"
	"sync"
	"time"

	"coliseum/contexts/competition/scoring-service/ports"
)

// Feed is a canned activity feed keyed by project.
type Feed struct {
	mu      sync.Mutex
	records map[string][]ports.ActivityRecord
}

func NewFeed() *Feed {
	return &Feed{records: make(map[string][]ports.ActivityRecord)}
}

func (f *Feed) AddRecords(projectID string, records ...ports.ActivityRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[projectID] = append(f.records[projectID], records...)
}

func (f *Feed) FetchActivity(_ context.Context, projectID string, since time.Time) ([]ports.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]ports.ActivityRecord, 0)
	for _, record := range f.records[projectID] {
		if !since.IsZero() && record.OccurredAt.Before(since) {
			continue
		}
		items = append(items, record)
	}
	return items, nil
}
