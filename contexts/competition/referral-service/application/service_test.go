package application

import (
	"context"
	"errors"
	"testing"

	"coliseum/contexts/competition/referral-service/adapters/memory"
	"coliseum/contexts/competition/referral-service/domain/entities"
	domainerrors "coliseum/contexts/competition/referral-service/domain/errors"

	"github.com/shopspring/decimal"
)

func newService(store *memory.Store) Service {
	return Service{
		Links:      store,
		Rewards:    store,
		Watermarks: store,
		Audit:      store,
		Clock:      store,
		IDGen:      store,
	}
}

func registerAcceptedLink(t *testing.T, service Service, referrerID string, referredID string) entities.ReferralLink {
	t.Helper()
	link, err := service.RegisterReferralLink(context.Background(), RegisterLinkInput{
		ReferrerID: referrerID,
		ReferredID: referredID,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	link, err = service.UpdateLinkStatus(context.Background(), link.LinkID, entities.LinkStatusAccepted)
	if err != nil {
		t.Fatalf("status update failed: %v", err)
	}
	return link
}

func TestRegisterRejectsSelfReferral(t *testing.T) {
	service := newService(memory.NewStore())
	_, err := service.RegisterReferralLink(context.Background(), RegisterLinkInput{
		ReferrerID: "creator-1",
		ReferredID: "creator-1",
	})
	if !errors.Is(err, domainerrors.ErrSelfReferral) {
		t.Fatalf("expected ErrSelfReferral, got %v", err)
	}
}

func TestRegisterRejectsDuplicatePair(t *testing.T) {
	service := newService(memory.NewStore())
	if _, err := service.RegisterReferralLink(context.Background(), RegisterLinkInput{
		ReferrerID: "creator-1", ReferredID: "creator-2",
	}); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := service.RegisterReferralLink(context.Background(), RegisterLinkInput{
		ReferrerID: "creator-1", ReferredID: "creator-2",
	})
	if !errors.Is(err, domainerrors.ErrDuplicateReferralLink) {
		t.Fatalf("expected ErrDuplicateReferralLink, got %v", err)
	}
}

func TestIncreaseEmitsSingleRewardAtDefaultPercent(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID:   "arena-1",
		CreatorID: "creator-2",
		OldPoints: 100,
		NewPoints: 150,
		BatchID:   "batch-1",
	})
	if err != nil {
		t.Fatalf("increase failed: %v", err)
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected exactly one reward, got %d", len(rewards))
	}
	if !rewards[0].RewardPoints.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected 50 * 5%% = 2.5 reward points, got %s", rewards[0].RewardPoints)
	}
	if rewards[0].PointsEarnedDelta != 50 {
		t.Fatalf("expected delta 50, got %d", rewards[0].PointsEarnedDelta)
	}
}

func TestIncreaseReplayDoesNotDoubleCredit(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	increase := StandingsIncrease{
		ArenaID:   "arena-1",
		CreatorID: "creator-2",
		OldPoints: 100,
		NewPoints: 150,
		BatchID:   "batch-1",
	}
	for i := 0; i < 3; i++ {
		if err := service.HandleStandingsIncrease(context.Background(), increase); err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected one reward after replays, got %d", len(rewards))
	}
}

func TestWatermarkPreventsRecreditAfterAdjustmentDip(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	// Points climb to 150, then an adjustment drops them to 120, then they
	// climb back to 150. Only the first climb is rewarded.
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 0, NewPoints: 150, BatchID: "batch-1",
	}); err != nil {
		t.Fatalf("first increase failed: %v", err)
	}
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 120, NewPoints: 150, BatchID: "batch-2",
	}); err != nil {
		t.Fatalf("regain failed: %v", err)
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected the regained points to earn nothing, got %d rewards", len(rewards))
	}

	// A genuine climb past the watermark is rewarded only for the portion
	// above it.
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 140, NewPoints: 250, BatchID: "batch-3",
	}); err != nil {
		t.Fatalf("third increase failed: %v", err)
	}
	rewards, _ = service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if len(rewards) != 2 {
		t.Fatalf("expected a second reward, got %d", len(rewards))
	}
	var total decimal.Decimal
	for _, reward := range rewards {
		total = total.Add(reward.RewardPoints)
	}
	// 5% of the 250 total points is the additivity ceiling.
	if total.GreaterThan(decimal.RequireFromString("12.5")) {
		t.Fatalf("rewards exceed 5%% of total points: %s", total)
	}
}

func TestTinyIncreaseIsSkipped(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	link := registerAcceptedLink(t, service, "referrer-1", "creator-2")

	// With integer points a 5% reward never lands below 0.01, so a tiny
	// configured percent exercises the skip path.
	service.RewardPercent = decimal.RequireFromString("0.005")
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 0, NewPoints: 1, BatchID: "batch-1",
	}); err != nil {
		t.Fatalf("increase failed: %v", err)
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 0 {
		t.Fatalf("expected sub-0.01 reward to be skipped, got %d rewards", len(rewards))
	}

	// The skipped delta stays below the watermark so it rolls into the
	// next emission.
	watermark, _, err := store.GetWatermark(context.Background(), link.LinkID, "arena-1")
	if err != nil {
		t.Fatalf("watermark read failed: %v", err)
	}
	if watermark != 0 {
		t.Fatalf("expected watermark untouched after skip, got %d", watermark)
	}
}

func TestSkippedRemainderRollsIntoNextIncrease(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	service.RewardPercent = decimal.RequireFromString("0.5")
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 0, NewPoints: 1, BatchID: "batch-1",
	}); err != nil {
		t.Fatalf("first increase failed: %v", err)
	}
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 1, NewPoints: 3, BatchID: "batch-2",
	}); err != nil {
		t.Fatalf("second increase failed: %v", err)
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected one reward after the remainder rolled over, got %d", len(rewards))
	}
	// The sub-0.01 skip left the watermark at 0, so the second emission
	// measures the full 3 points.
	if rewards[0].PointsEarnedDelta != 3 {
		t.Fatalf("expected delta 3, got %d", rewards[0].PointsEarnedDelta)
	}
	if !rewards[0].RewardPoints.Equal(decimal.RequireFromString("0.015")) {
		t.Fatalf("expected 3 * 0.5%% = 0.015 reward points, got %s", rewards[0].RewardPoints)
	}
}

func TestPointsEarnedBeforeLinkAreNotRewarded(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	// The creator stood at 100 before the link earned anything; only the
	// 50 points above that first-seen mark are credited.
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 100, NewPoints: 150, BatchID: "batch-1",
	}); err != nil {
		t.Fatalf("increase failed: %v", err)
	}

	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 1 {
		t.Fatalf("expected one reward, got %d", len(rewards))
	}
	if rewards[0].PointsEarnedDelta != 50 {
		t.Fatalf("expected delta 50, got %d", rewards[0].PointsEarnedDelta)
	}
}

func TestLinkLifecycleIsAudited(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	registerAcceptedLink(t, service, "referrer-1", "creator-2")

	actions := make(map[string]int)
	for _, entry := range store.Audits() {
		if !entry.Success {
			t.Fatalf("unexpected failed audit entry: %+v", entry)
		}
		actions[entry.Action]++
	}
	if actions["register_referral_link"] != 1 {
		t.Fatalf("expected one register audit entry, got %d", actions["register_referral_link"])
	}
	if actions["update_referral_link_status"] != 1 {
		t.Fatalf("expected one status-change audit entry, got %d", actions["update_referral_link_status"])
	}

	// A failed status change is still recorded.
	if _, err := service.UpdateLinkStatus(context.Background(), "missing-link", entities.LinkStatusAccepted); err == nil {
		t.Fatal("expected status update of a missing link to fail")
	}
	failed := false
	for _, entry := range store.Audits() {
		if entry.Action == "update_referral_link_status" && !entry.Success && entry.EntityID == "missing-link" {
			failed = true
		}
	}
	if !failed {
		t.Fatal("expected a failure audit entry for the missing link")
	}
}

func TestIncreaseWithoutRewardableLinkIsNoop(t *testing.T) {
	store := memory.NewStore()
	service := newService(store)
	if _, err := service.RegisterReferralLink(context.Background(), RegisterLinkInput{
		ReferrerID: "referrer-1", ReferredID: "creator-2",
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Link is still pending, so nothing is credited.
	if err := service.HandleStandingsIncrease(context.Background(), StandingsIncrease{
		ArenaID: "arena-1", CreatorID: "creator-2", OldPoints: 0, NewPoints: 100, BatchID: "batch-1",
	}); err != nil {
		t.Fatalf("increase failed: %v", err)
	}
	rewards, err := service.ListRewardsByReferrer(context.Background(), "referrer-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rewards) != 0 {
		t.Fatalf("expected no rewards for a pending link, got %d", len(rewards))
	}
}
