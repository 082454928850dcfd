package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coliseum/contexts/competition/arena-service/adapters/memory"
	"coliseum/contexts/competition/arena-service/domain/entities"
	domainerrors "coliseum/contexts/competition/arena-service/domain/errors"
	"coliseum/internal/platform/locking"
)

func newProvisionUseCase(store *memory.Store) ProvisionPrimaryUseCase {
	return ProvisionPrimaryUseCase{
		Arenas: store,
		Locker: locking.NewManager(),
		UoW:    store,
		Audit:  store,
		Clock:  store,
		IDGen:  store,
	}
}

func seedArena(id string, projectID string, kind entities.Kind, status entities.Status) entities.Arena {
	now := time.Now().UTC()
	return entities.Arena{
		ArenaID:   id,
		ProjectID: projectID,
		Kind:      kind,
		Status:    status,
		Name:      "season one",
		StartsAt:  now.Add(-time.Hour),
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

func TestProvisionCreatesActivePrimary(t *testing.T) {
	store := memory.NewStore(nil)
	uc := newProvisionUseCase(store)

	result, err := uc.Execute(context.Background(), ProvisionPrimaryCommand{
		ProjectID: "project-1",
		Name:      "launch season",
		StartsAt:  time.Now().UTC(),
		ActorID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if !result.Created {
		t.Fatalf("expected a new arena to be created")
	}
	if result.Arena.Kind != entities.KindPrimaryLeaderboard {
		t.Fatalf("expected primary leaderboard kind, got %s", result.Arena.Kind)
	}
	if result.Arena.Status != entities.StatusActive {
		t.Fatalf("expected active status, got %s", result.Arena.Status)
	}
}

func TestProvisionReusesExistingPrimary(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-1", "project-1", entities.KindPrimaryLeaderboard, entities.StatusActive),
	})
	uc := newProvisionUseCase(store)

	result, err := uc.Execute(context.Background(), ProvisionPrimaryCommand{
		ProjectID: "project-1",
		Name:      "renamed season",
		StartsAt:  time.Now().UTC(),
		ActorID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("provision failed: %v", err)
	}
	if result.Created {
		t.Fatalf("expected reuse of the existing primary arena")
	}
	if result.Arena.ArenaID != "arena-1" {
		t.Fatalf("expected arena-1 to be reused, got %s", result.Arena.ArenaID)
	}
	if result.Arena.Name != "renamed season" {
		t.Fatalf("expected in-place update of the name, got %q", result.Arena.Name)
	}

	arenas, err := store.ListArenas(context.Background(), "project-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(arenas) != 1 {
		t.Fatalf("expected exactly one arena, got %d", len(arenas))
	}
}

func TestProvisionRejectsInvalidDateRange(t *testing.T) {
	uc := newProvisionUseCase(memory.NewStore(nil))

	start := time.Now().UTC()
	_, err := uc.Execute(context.Background(), ProvisionPrimaryCommand{
		ProjectID: "project-1",
		Name:      "broken season",
		StartsAt:  start,
		EndsAt:    start.Add(-time.Hour),
		ActorID:   "admin-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestConcurrentProvisionYieldsSingleArena(t *testing.T) {
	store := memory.NewStore(nil)
	uc := newProvisionUseCase(store)

	var wg sync.WaitGroup
	created := make([]bool, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := uc.Execute(context.Background(), ProvisionPrimaryCommand{
				ProjectID: "project-1",
				Name:      "launch season",
				StartsAt:  time.Now().UTC(),
				ActorID:   "admin-1",
			})
			if err != nil {
				t.Errorf("provision failed: %v", err)
				return
			}
			created[i] = result.Created
		}(i)
	}
	wg.Wait()

	createdCount := 0
	for _, c := range created {
		if c {
			createdCount++
		}
	}
	if createdCount != 1 {
		t.Fatalf("expected exactly one creation among concurrent calls, got %d", createdCount)
	}
	arenas, err := store.ListArenas(context.Background(), "project-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(arenas) != 1 {
		t.Fatalf("expected a single arena row, got %d", len(arenas))
	}
}

func TestActivateEndsOtherActivePrimaries(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-old", "project-1", entities.KindPrimaryLeaderboard, entities.StatusActive),
		seedArena("arena-new", "project-1", entities.KindPrimaryLeaderboard, entities.StatusScheduled),
	})
	uc := ActivateArenaUseCase{
		Arenas: store,
		Locker: locking.NewManager(),
		UoW:    store,
		Audit:  store,
		Clock:  store,
	}

	result, err := uc.Execute(context.Background(), ActivateArenaCommand{ArenaID: "arena-new", ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if result.Arena.Status != entities.StatusActive {
		t.Fatalf("expected arena-new to be active, got %s", result.Arena.Status)
	}
	if len(result.EndedArenas) != 1 || result.EndedArenas[0] != "arena-old" {
		t.Fatalf("expected arena-old to be ended, got %v", result.EndedArenas)
	}

	old, err := store.GetArena(context.Background(), "arena-old")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if old.Status != entities.StatusEnded {
		t.Fatalf("expected ended status for arena-old, got %s", old.Status)
	}
	if old.EndsAt == nil {
		t.Fatalf("expected ends_at to be stamped on the ended arena")
	}
}

func TestActivateIsIdempotentForActiveArena(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-1", "project-1", entities.KindPrimaryLeaderboard, entities.StatusActive),
	})
	uc := ActivateArenaUseCase{
		Arenas: store,
		Locker: locking.NewManager(),
		UoW:    store,
		Audit:  store,
		Clock:  store,
	}

	result, err := uc.Execute(context.Background(), ActivateArenaCommand{ArenaID: "arena-1", ActorID: "admin-1"})
	if err != nil {
		t.Fatalf("activate failed: %v", err)
	}
	if result.Arena.Status != entities.StatusActive {
		t.Fatalf("expected arena to stay active, got %s", result.Arena.Status)
	}
	if len(result.EndedArenas) != 0 {
		t.Fatalf("expected no arenas to be ended, got %v", result.EndedArenas)
	}
}

func TestActivateRejectsNonPrimaryArena(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-crm", "project-1", entities.KindCRM, entities.StatusScheduled),
	})
	uc := ActivateArenaUseCase{
		Arenas: store,
		Locker: locking.NewManager(),
		UoW:    store,
		Audit:  store,
		Clock:  store,
	}

	_, err := uc.Execute(context.Background(), ActivateArenaCommand{ArenaID: "arena-crm", ActorID: "admin-1"})
	if !errors.Is(err, domainerrors.ErrNotPrimaryLeaderboard) {
		t.Fatalf("expected ErrNotPrimaryLeaderboard, got %v", err)
	}
	audits := store.Audits()
	if len(audits) == 0 || audits[len(audits)-1].Success {
		t.Fatalf("expected a failed audit entry, got %+v", audits)
	}
}

func TestConcurrentActivationKeepsOneActivePrimary(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-a", "project-1", entities.KindPrimaryLeaderboard, entities.StatusScheduled),
		seedArena("arena-b", "project-1", entities.KindPrimaryLeaderboard, entities.StatusScheduled),
	})
	locker := locking.NewManager()
	uc := ActivateArenaUseCase{
		Arenas: store,
		Locker: locker,
		UoW:    store,
		Audit:  store,
		Clock:  store,
	}

	var wg sync.WaitGroup
	for _, id := range []string{"arena-a", "arena-b"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := uc.Execute(context.Background(), ActivateArenaCommand{ArenaID: id, ActorID: "admin-1"}); err != nil {
				t.Errorf("activate %s failed: %v", id, err)
			}
		}(id)
	}
	wg.Wait()

	actives, err := store.ListActivePrimaries(context.Background(), "project-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(actives) != 1 {
		t.Fatalf("expected exactly one active primary arena, got %d", len(actives))
	}
}

func TestChangeStatusTransitions(t *testing.T) {
	store := memory.NewStore([]entities.Arena{
		seedArena("arena-1", "project-1", entities.KindPrimaryLeaderboard, entities.StatusActive),
	})
	uc := ChangeStatusUseCase{
		Arenas: store,
		Locker: locking.NewManager(),
		UoW:    store,
		Audit:  store,
		Clock:  store,
	}

	paused, err := uc.Execute(context.Background(), ChangeStatusCommand{
		ArenaID: "arena-1", ActorID: "admin-1", Action: StatusActionPause,
	})
	if err != nil {
		t.Fatalf("pause failed: %v", err)
	}
	if paused.Status != entities.StatusPaused {
		t.Fatalf("expected paused, got %s", paused.Status)
	}

	ended, err := uc.Execute(context.Background(), ChangeStatusCommand{
		ArenaID: "arena-1", ActorID: "admin-1", Action: StatusActionEnd, Reason: "season over",
	})
	if err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if ended.Status != entities.StatusEnded {
		t.Fatalf("expected ended, got %s", ended.Status)
	}
	if ended.EndsAt == nil {
		t.Fatalf("expected ends_at to be set")
	}

	_, err = uc.Execute(context.Background(), ChangeStatusCommand{
		ArenaID: "arena-1", ActorID: "admin-1", Action: StatusActionResume,
	})
	if !errors.Is(err, domainerrors.ErrInvalidStateTransition) {
		t.Fatalf("expected ErrInvalidStateTransition on ended arena, got %v", err)
	}
}

func TestChangeStatusUnknownArena(t *testing.T) {
	uc := func() ChangeStatusUseCase {
		store := memory.NewStore(nil)
		return ChangeStatusUseCase{
			Arenas: store,
			Locker: locking.NewManager(),
			UoW:    store,
			Audit:  store,
			Clock:  store,
		}
	}()

	_, err := uc.Execute(context.Background(), ChangeStatusCommand{
		ArenaID: "missing", ActorID: "admin-1", Action: StatusActionPause,
	})
	if !errors.Is(err, domainerrors.ErrArenaNotFound) {
		t.Fatalf("expected ErrArenaNotFound, got %v", err)
	}
}
