package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"coliseum/contexts/platform-audit/audit-service/domain/entities"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used by tests. It also implements the Clock
// and IDGenerator ports so modules can be composed without infrastructure.
type Store struct {
	mu      sync.RWMutex
	entries []entities.Entry
}

func NewStore() *Store {
	return &Store{entries: make([]entities.Entry, 0)}
}

func (s *Store) AppendEntry(_ context.Context, entry entities.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *Store) ListByProject(_ context.Context, projectID string, limit int) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Entry, 0)
	for i := len(s.entries) - 1; i >= 0 && len(items) < limit; i-- {
		if s.entries[i].ProjectID == strings.TrimSpace(projectID) {
			items = append(items, s.entries[i])
		}
	}
	return items, nil
}

func (s *Store) ListByEntity(_ context.Context, entityType string, entityID string, limit int) ([]entities.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]entities.Entry, 0)
	for i := len(s.entries) - 1; i >= 0 && len(items) < limit; i-- {
		if s.entries[i].EntityType == entityType && s.entries[i].EntityID == entityID {
			items = append(items, s.entries[i])
		}
	}
	return items, nil
}

// All returns every stored entry in append order; test helper.
func (s *Store) All() []entities.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Entry(nil), s.entries...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
