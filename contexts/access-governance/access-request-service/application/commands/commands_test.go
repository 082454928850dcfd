package commands

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coliseum/contexts/access-governance/access-request-service/adapters/memory"
	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/contexts/access-governance/access-request-service/ports"

	"github.com/shopspring/decimal"
)

// provisionerStub returns a fixed arena and records calls. Repeated calls
// for the same project report Created false, mirroring the idempotent
// provisioning behavior of the real coordinator.
type provisionerStub struct {
	mu       sync.Mutex
	failWith error
	calls    []string
	seen     map[string]bool
}

func (p *provisionerStub) ProvisionPrimaryArena(_ context.Context, projectID string, _ string, _ time.Time, _ time.Time, _ string) (ports.ProvisionedArena, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failWith != nil {
		return ports.ProvisionedArena{}, p.failWith
	}
	if p.seen == nil {
		p.seen = make(map[string]bool)
	}
	p.calls = append(p.calls, projectID)
	created := !p.seen[projectID]
	p.seen[projectID] = true
	return ports.ProvisionedArena{ArenaID: "arena-" + projectID, Created: created}, nil
}

func newSubmitUseCase(store *memory.Store) SubmitRequestUseCase {
	return SubmitRequestUseCase{
		Requests: store,
		Audit:    store,
		Clock:    store,
		IDGen:    store,
	}
}

func newApproveUseCase(store *memory.Store, billing *memory.BillingStub, arenas ports.ArenaProvisioner) ApproveRequestUseCase {
	return ApproveRequestUseCase{
		Requests:        store,
		Flags:           store,
		Projects:        store,
		Billing:         billing,
		Arenas:          arenas,
		Outbox:          store,
		UoW:             store,
		Audit:           store,
		Clock:           store,
		BasePrice:       decimal.NewFromInt(1000),
		DiscountPercent: decimal.NewFromInt(10),
	}
}

func submitPending(t *testing.T, store *memory.Store, projectID string, product entities.ProductType) entities.AccessRequest {
	t.Helper()
	request, err := newSubmitUseCase(store).Execute(context.Background(), SubmitRequestCommand{
		ProjectID:   projectID,
		ProductType: product,
		ActorID:     "founder-1",
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	return request
}

func TestSubmitRejectsSecondPendingRequest(t *testing.T) {
	store := memory.NewStore()
	submitPending(t, store, "project-1", entities.ProductMindshare)

	_, err := newSubmitUseCase(store).Execute(context.Background(), SubmitRequestCommand{
		ProjectID:   "project-1",
		ProductType: entities.ProductGamified,
		ActorID:     "founder-2",
	})
	if !errors.Is(err, domainerrors.ErrPendingRequestExists) {
		t.Fatalf("expected ErrPendingRequestExists, got %v", err)
	}
}

func TestConcurrentSubmitsYieldOnePending(t *testing.T) {
	store := memory.NewStore()
	uc := newSubmitUseCase(store)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Execute(context.Background(), SubmitRequestCommand{
				ProjectID:   "project-1",
				ProductType: entities.ProductMindshare,
				ActorID:     "founder-1",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		} else if !errors.Is(err, domainerrors.ErrPendingRequestExists) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one submit to succeed, got %d", succeeded)
	}
}

func TestSubmitValidation(t *testing.T) {
	store := memory.NewStore()
	uc := newSubmitUseCase(store)
	now := time.Now().UTC()

	_, err := uc.Execute(context.Background(), SubmitRequestCommand{
		ProjectID:   "project-1",
		ProductType: "vip",
		ActorID:     "founder-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidProductType) {
		t.Fatalf("expected ErrInvalidProductType, got %v", err)
	}

	_, err = uc.Execute(context.Background(), SubmitRequestCommand{
		ProjectID:   "project-1",
		ProductType: entities.ProductMindshare,
		StartAt:     now,
		EndAt:       now.Add(-time.Hour),
		ActorID:     "founder-1",
	})
	if !errors.Is(err, domainerrors.ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestApproveRunsFullOrchestration(t *testing.T) {
	store := memory.NewStore()
	billing := &memory.BillingStub{}
	arenas := &provisionerStub{}
	request := submitPending(t, store, "project-1", entities.ProductMindshare)

	result, err := newApproveUseCase(store, billing, arenas).Execute(context.Background(), ApproveRequestCommand{
		RequestID: request.RequestID,
		AdminID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.Request.Status != entities.RequestStatusApproved {
		t.Fatalf("expected approved status, got %s", result.Request.Status)
	}
	if result.Request.DecidedBy != "admin-1" || result.Request.DecidedAt == nil {
		t.Fatalf("expected decision metadata to be recorded")
	}

	project, ok, err := store.GetProject(context.Background(), "project-1")
	if err != nil || !ok {
		t.Fatalf("expected project projection, got ok=%v err=%v", ok, err)
	}
	if !project.IsLeaderboardEligible {
		t.Fatalf("expected project to be leaderboard eligible")
	}

	flags, ok, err := store.GetFlags(context.Background(), "project-1")
	if err != nil || !ok {
		t.Fatalf("expected feature flags, got ok=%v err=%v", ok, err)
	}
	if !flags.Leaderboard.Enabled || !flags.Leaderboard.Valid() {
		t.Fatalf("expected a valid enabled leaderboard window, got %+v", flags.Leaderboard)
	}

	if result.ArenaID != "arena-project-1" || !result.ArenaCreated {
		t.Fatalf("expected a freshly provisioned arena, got %+v", result)
	}
	if result.BillingID == "" {
		t.Fatalf("expected a billing id")
	}
	if len(result.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", result.Warnings)
	}

	messages := store.OutboxMessages()
	if len(messages) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(messages))
	}
	if messages[0].EventType != "access.approved" || messages[0].Status != "pending" {
		t.Fatalf("unexpected outbox message: %+v", messages[0])
	}
}

func TestApproveOfGamifiedReusesExistingArena(t *testing.T) {
	store := memory.NewStore()
	arenas := &provisionerStub{}
	uc := newApproveUseCase(store, &memory.BillingStub{}, arenas)

	first := submitPending(t, store, "project-1", entities.ProductGamified)
	if _, err := uc.Execute(context.Background(), ApproveRequestCommand{RequestID: first.RequestID, AdminID: "admin-1"}); err != nil {
		t.Fatalf("first approve failed: %v", err)
	}

	second := submitPending(t, store, "project-1", entities.ProductGamified)
	result, err := uc.Execute(context.Background(), ApproveRequestCommand{RequestID: second.RequestID, AdminID: "admin-1"})
	if err != nil {
		t.Fatalf("second approve failed: %v", err)
	}
	if result.ArenaCreated {
		t.Fatalf("expected the existing arena to be reused")
	}
	if result.ArenaID != "arena-project-1" {
		t.Fatalf("expected the same arena id, got %s", result.ArenaID)
	}
}

func TestApproveOfCRMSkipsArenaProvisioning(t *testing.T) {
	store := memory.NewStore()
	arenas := &provisionerStub{}
	request := submitPending(t, store, "project-1", entities.ProductCRM)

	result, err := newApproveUseCase(store, &memory.BillingStub{}, arenas).Execute(context.Background(), ApproveRequestCommand{
		RequestID: request.RequestID,
		AdminID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.ArenaID != "" || len(arenas.calls) != 0 {
		t.Fatalf("expected no arena provisioning for crm, got %+v", result)
	}

	flags, ok, _ := store.GetFlags(context.Background(), "project-1")
	if !ok || !flags.CRM.Enabled {
		t.Fatalf("expected crm flag enabled, got %+v", flags)
	}
	if flags.CRMVisibility != "private" {
		t.Fatalf("expected default private crm visibility, got %q", flags.CRMVisibility)
	}
}

func TestApproveOfDecidedRequestFails(t *testing.T) {
	store := memory.NewStore()
	uc := newApproveUseCase(store, &memory.BillingStub{}, &provisionerStub{})
	request := submitPending(t, store, "project-1", entities.ProductMindshare)

	if _, err := uc.Execute(context.Background(), ApproveRequestCommand{RequestID: request.RequestID, AdminID: "admin-1"}); err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	_, err := uc.Execute(context.Background(), ApproveRequestCommand{RequestID: request.RequestID, AdminID: "admin-2"})
	if !errors.Is(err, domainerrors.ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending, got %v", err)
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if stored.DecidedBy != "admin-1" {
		t.Fatalf("expected the first decision to stand, got %s", stored.DecidedBy)
	}
}

func TestApproveRollsBackWhenProvisioningFails(t *testing.T) {
	store := memory.NewStore()
	provisionErr := errors.New("arena coordinator unavailable")
	uc := newApproveUseCase(store, &memory.BillingStub{}, &provisionerStub{failWith: provisionErr})
	request := submitPending(t, store, "project-1", entities.ProductMindshare)

	_, err := uc.Execute(context.Background(), ApproveRequestCommand{RequestID: request.RequestID, AdminID: "admin-1"})
	if !errors.Is(err, provisionErr) {
		t.Fatalf("expected provisioning error, got %v", err)
	}

	stored, err := store.GetRequest(context.Background(), request.RequestID)
	if err != nil {
		t.Fatalf("get request failed: %v", err)
	}
	if stored.Status != entities.RequestStatusPending {
		t.Fatalf("expected request to remain pending after rollback, got %s", stored.Status)
	}
	if _, ok, _ := store.GetFlags(context.Background(), "project-1"); ok {
		t.Fatalf("expected no feature flags after rollback")
	}
	if len(store.OutboxMessages()) != 0 {
		t.Fatalf("expected no outbox rows after rollback")
	}
}

func TestBillingFailureDoesNotBlockApproval(t *testing.T) {
	store := memory.NewStore()
	billing := &memory.BillingStub{FailWith: errors.New("billing backend down")}
	request := submitPending(t, store, "project-1", entities.ProductMindshare)

	result, err := newApproveUseCase(store, billing, &provisionerStub{}).Execute(context.Background(), ApproveRequestCommand{
		RequestID: request.RequestID,
		AdminID:   "admin-1",
	})
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if result.Request.Status != entities.RequestStatusApproved {
		t.Fatalf("expected approval to survive the billing failure")
	}
	if result.BillingID != "" {
		t.Fatalf("expected no billing id, got %s", result.BillingID)
	}
	if len(result.Warnings) != 1 {
		t.Fatalf("expected one billing warning, got %v", result.Warnings)
	}
	if len(store.OutboxMessages()) != 1 {
		t.Fatalf("expected the outbox event to remain committed")
	}
}

func TestRejectMarksRequestRejected(t *testing.T) {
	store := memory.NewStore()
	request := submitPending(t, store, "project-1", entities.ProductMindshare)

	reject := RejectRequestUseCase{Requests: store, UoW: store, Audit: store, Clock: store}
	rejected, err := reject.Execute(context.Background(), RejectRequestCommand{
		RequestID: request.RequestID,
		AdminID:   "admin-1",
		Reason:    "incomplete project profile",
	})
	if err != nil {
		t.Fatalf("reject failed: %v", err)
	}
	if rejected.Status != entities.RequestStatusRejected {
		t.Fatalf("expected rejected status, got %s", rejected.Status)
	}

	// A rejected project can apply again.
	submitPending(t, store, "project-1", entities.ProductMindshare)

	_, err = reject.Execute(context.Background(), RejectRequestCommand{
		RequestID: request.RequestID,
		AdminID:   "admin-2",
		Reason:    "already decided",
	})
	if !errors.Is(err, domainerrors.ErrRequestNotPending) {
		t.Fatalf("expected ErrRequestNotPending, got %v", err)
	}
}
