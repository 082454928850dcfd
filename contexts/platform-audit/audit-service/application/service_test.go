package application

import (
	"context"
	"errors"
	"testing"

	"coliseum/contexts/platform-audit/audit-service/adapters/memory"
	domainerrors "coliseum/contexts/platform-audit/audit-service/domain/errors"
	"coliseum/contexts/platform-audit/audit-service/ports"
)

func newService(store *memory.Store) Service {
	return Service{
		Repo:  store,
		Clock: store,
		IDGen: store,
	}
}

func TestAppendRequiresActorAndAction(t *testing.T) {
	service := newService(memory.NewStore())

	_, err := service.Append(context.Background(), ports.AppendInput{Actor: "", Action: "approve"})
	if !errors.Is(err, domainerrors.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
	_, err = service.Append(context.Background(), ports.AppendInput{Actor: "admin-1", Action: "  "})
	if !errors.Is(err, domainerrors.ErrInvalidEntry) {
		t.Fatalf("expected ErrInvalidEntry, got %v", err)
	}
}

func TestAppendRecordsFailedAttempts(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)

	entry, err := service.Append(context.Background(), ports.AppendInput{
		Actor:      "admin-1",
		ProjectID:  "project-1",
		EntityType: "access_request",
		EntityID:   "req-1",
		Action:     "approve_access_request",
		Success:    false,
		Message:    "request is not pending",
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if entry.EntryID == "" {
		t.Fatalf("expected generated entry id")
	}
	if entry.Success {
		t.Fatalf("expected failed attempt to stay success=false")
	}

	trail, err := service.GetProjectTrail(context.Background(), "project-1", 10)
	if err != nil {
		t.Fatalf("project trail failed: %v", err)
	}
	if len(trail) != 1 || trail[0].Message != "request is not pending" {
		t.Fatalf("unexpected trail: %#v", trail)
	}
}

func TestGetEntityTrailFiltersByEntity(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	ctx := context.Background()

	for _, entityID := range []string{"arena-1", "arena-2", "arena-1"} {
		if _, err := service.Append(ctx, ports.AppendInput{
			Actor:      "admin-1",
			EntityType: "arena",
			EntityID:   entityID,
			Action:     "activate_arena",
			Success:    true,
		}); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	trail, err := service.GetEntityTrail(ctx, "arena", "arena-1", 10)
	if err != nil {
		t.Fatalf("entity trail failed: %v", err)
	}
	if len(trail) != 2 {
		t.Fatalf("expected 2 entries for arena-1, got %d", len(trail))
	}

	if _, err := service.GetEntityTrail(ctx, "", "arena-1", 10); !errors.Is(err, domainerrors.ErrInvalidFilter) {
		t.Fatalf("expected ErrInvalidFilter, got %v", err)
	}
}
