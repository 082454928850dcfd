package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/contexts/competition/arena-service/ports"

	"github.com/google/uuid"
)

// Store is the in-memory adapter used by tests. It implements the arena
// repository plus Clock, IDGenerator, UnitOfWork and AuditRecorder so modules
// compose without infrastructure. Atomically takes a snapshot of the arena
// table and restores it when fn fails, mirroring transaction rollback.
type Store struct {
	mu     sync.Mutex
	arenas map[string]entities.Arena
	audits []ports.AuditEntry
}

func NewStore(seed []entities.Arena) *Store {
	arenas := make(map[string]entities.Arena, len(seed))
	for _, arena := range seed {
		arenas[arena.ArenaID] = arena
	}
	return &Store{arenas: arenas}
}

func (s *Store) CreateArena(_ context.Context, arena entities.Arena) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arenas[arena.ArenaID]; ok {
		return domainerrors.ErrInvalidArenaInput
	}
	s.arenas[arena.ArenaID] = arena
	return nil
}

func (s *Store) GetArena(_ context.Context, arenaID string) (entities.Arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	arena, ok := s.arenas[strings.TrimSpace(arenaID)]
	if !ok {
		return entities.Arena{}, domainerrors.ErrArenaNotFound
	}
	return arena, nil
}

func (s *Store) GetArenaForUpdate(ctx context.Context, arenaID string) (entities.Arena, error) {
	// Row locking is meaningful only for the SQL adapter; callers already
	// hold the project lock here.
	return s.GetArena(ctx, arenaID)
}

func (s *Store) UpdateArena(_ context.Context, arena entities.Arena) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.arenas[arena.ArenaID]; !ok {
		return domainerrors.ErrArenaNotFound
	}
	s.arenas[arena.ArenaID] = arena
	return nil
}

func (s *Store) ListArenas(_ context.Context, projectID string) ([]entities.Arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Arena, 0)
	for _, arena := range s.arenas {
		if arena.ProjectID == strings.TrimSpace(projectID) {
			items = append(items, arena)
		}
	}
	return items, nil
}

func (s *Store) ListActivePrimaries(_ context.Context, projectID string) ([]entities.Arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Arena, 0)
	for _, arena := range s.arenas {
		if arena.ProjectID == projectID &&
			arena.Kind == entities.KindPrimaryLeaderboard &&
			arena.Status == entities.StatusActive {
			items = append(items, arena)
		}
	}
	return items, nil
}

func (s *Store) FindLatestPrimary(_ context.Context, projectID string) (entities.Arena, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best entities.Arena
	found := false
	for _, arena := range s.arenas {
		if arena.ProjectID != projectID ||
			arena.Kind != entities.KindPrimaryLeaderboard ||
			arena.Status.Terminal() {
			continue
		}
		if !found || betterPrimary(arena, best) {
			best = arena
			found = true
		}
	}
	return best, found, nil
}

func betterPrimary(candidate entities.Arena, current entities.Arena) bool {
	candidateActive := candidate.Status == entities.StatusActive
	currentActive := current.Status == entities.StatusActive
	if candidateActive != currentActive {
		return candidateActive
	}
	return candidate.UpdatedAt.After(current.UpdatedAt)
}

func (s *Store) ListAllActive(_ context.Context) ([]entities.Arena, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Arena, 0)
	for _, arena := range s.arenas {
		if arena.Status == entities.StatusActive {
			items = append(items, arena)
		}
	}
	return items, nil
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snapshot := make(map[string]entities.Arena, len(s.arenas))
	for id, arena := range s.arenas {
		snapshot[id] = arena
	}
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.arenas = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) RecordAudit(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, entry)
	return nil
}

// Audits returns recorded audit entries; test helper.
func (s *Store) Audits() []ports.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.AuditEntry(nil), s.audits...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
