package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"coliseum/contexts/competition/scoring-service/adapters/memory"
	"coliseum/contexts/competition/scoring-service/domain/entities"
	"coliseum/contexts/competition/scoring-service/ports"
)

type rewardCapture struct {
	mu        sync.Mutex
	increases []ports.StandingsIncrease
}

func (r *rewardCapture) HandleStandingsIncrease(_ context.Context, increase ports.StandingsIncrease) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.increases = append(r.increases, increase)
	return nil
}

func (r *rewardCapture) All() []ports.StandingsIncrease {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ports.StandingsIncrease(nil), r.increases...)
}

func newScoringFixture(rewards ports.RewardSink) (Service, *memory.Store, *memory.Feed) {
	store := memory.NewStore()
	feed := memory.NewFeed()
	service := Service{
		Feed:          feed,
		Creators:      store,
		Contributions: store,
		Adjustments:   memory.AdjustmentView{Store: store},
		Standings:     store,
		Cache:         store,
		Rewards:       rewards,
		Audit:         store,
		Clock:         store,
		IDGen:         store,
	}
	return service, store, feed
}

func post(id string, handle string, likes int64, replies int64, retweets int64) ports.ActivityRecord {
	return ports.ActivityRecord{
		SourcePostID: id,
		AuthorHandle: handle,
		Engagement:   entities.EngagementCounts{Likes: likes, Replies: replies, Retweets: retweets},
		OccurredAt:   time.Now().UTC(),
	}
}

func TestScoreAppliesMinimumFloor(t *testing.T) {
	if got := entities.ScorePoints(entities.EngagementCounts{}); got != 1 {
		t.Fatalf("expected zero-engagement post to score 1, got %d", got)
	}
	if got := entities.ScorePoints(entities.EngagementCounts{Likes: 2, Replies: 1, Retweets: 1}); got != 7 {
		t.Fatalf("expected 2+2*1+3*1=7, got %d", got)
	}
}

func TestIngestIsIdempotentAcrossOverlappingWindows(t *testing.T) {
	service, store, feed := newScoringFixture(nil)
	feed.AddRecords("project-1",
		post("123", "@Foo", 10, 0, 0),
		post("124", "foo", 0, 5, 0),
	)

	first, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	})
	if err != nil {
		t.Fatalf("first ingest failed: %v", err)
	}
	if first.Inserted != 2 {
		t.Fatalf("expected 2 inserts, got %d", first.Inserted)
	}

	second, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	})
	if err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}
	if second.Inserted != 0 {
		t.Fatalf("expected re-ingestion to insert nothing, got %d", second.Inserted)
	}

	standings, err := service.GetArenaStandings(context.Background(), "arena-1")
	if err != nil {
		t.Fatalf("standings failed: %v", err)
	}
	if len(standings) != 1 {
		t.Fatalf("expected one creator in the standings, got %d", len(standings))
	}
	if standings[0].Points != 20 {
		t.Fatalf("expected 10+2*5=20 points counted once, got %d", standings[0].Points)
	}

	contributions, err := service.ListContributions(context.Background(), "arena-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(contributions) != 2 {
		t.Fatalf("expected exactly two contribution rows, got %d", len(contributions))
	}

	creator, found, err := store.FindByHandle(context.Background(), "foo")
	if err != nil || !found {
		t.Fatalf("expected creator foo to exist, found=%v err=%v", found, err)
	}
	if creator.Handle != "foo" {
		t.Fatalf("expected normalized handle foo, got %q", creator.Handle)
	}
}

func TestIngestNeverOverwritesAvatarWithEmpty(t *testing.T) {
	service, store, feed := newScoringFixture(nil)
	withAvatar := post("p1", "bar", 1, 0, 0)
	withAvatar.AuthorAvatarURL = "https://img.example/bar.png"
	feed.AddRecords("project-1", withAvatar)

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	feed.AddRecords("project-1", post("p2", "bar", 1, 0, 0))
	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("second ingest failed: %v", err)
	}

	creator, found, err := store.FindByHandle(context.Background(), "bar")
	if err != nil || !found {
		t.Fatalf("expected creator bar, found=%v err=%v", found, err)
	}
	if creator.AvatarURL != "https://img.example/bar.png" {
		t.Fatalf("avatar was overwritten: %q", creator.AvatarURL)
	}
}

func TestAdjustmentKeepsStandingsReconcilable(t *testing.T) {
	rewards := &rewardCapture{}
	service, store, feed := newScoringFixture(rewards)
	feed.AddRecords("project-1", post("p1", "baz", 10, 0, 0))

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	creator, _, err := store.FindByHandle(context.Background(), "baz")
	if err != nil {
		t.Fatalf("creator lookup failed: %v", err)
	}

	if _, err := service.AddPointAdjustment(context.Background(), AdjustmentInput{
		ArenaID:   "arena-1",
		CreatorID: creator.CreatorID,
		Delta:     -4,
		Reason:    "spam penalty",
		Actor:     "admin-1",
	}); err != nil {
		t.Fatalf("adjustment failed: %v", err)
	}

	standing, found, err := store.GetStanding(context.Background(), "arena-1", creator.CreatorID)
	if err != nil || !found {
		t.Fatalf("standing missing: found=%v err=%v", found, err)
	}
	if standing.Points != 6 {
		t.Fatalf("expected 10-4=6 points, got %d", standing.Points)
	}

	// A later positive correction raises the standing again and reports the
	// increase to the reward sink.
	if _, err := service.AddPointAdjustment(context.Background(), AdjustmentInput{
		ArenaID:   "arena-1",
		CreatorID: creator.CreatorID,
		Delta:     14,
		Reason:    "appeal granted",
		Actor:     "admin-1",
	}); err != nil {
		t.Fatalf("second adjustment failed: %v", err)
	}
	standing, _, err = store.GetStanding(context.Background(), "arena-1", creator.CreatorID)
	if err != nil {
		t.Fatalf("standing lookup failed: %v", err)
	}
	if standing.Points != 20 {
		t.Fatalf("expected 10-4+14=20 points, got %d", standing.Points)
	}

	increases := rewards.All()
	if len(increases) != 2 {
		t.Fatalf("expected two increase events (ingest and positive adjustment), got %d", len(increases))
	}
	last := increases[len(increases)-1]
	if last.OldPoints != 6 || last.NewPoints != 20 {
		t.Fatalf("expected increase 6->20, got %d->%d", last.OldPoints, last.NewPoints)
	}
	if last.BatchID == "" {
		t.Fatalf("expected increase to carry a batch id")
	}
}

func TestAdjustmentValidation(t *testing.T) {
	service, _, _ := newScoringFixture(nil)
	_, err := service.AddPointAdjustment(context.Background(), AdjustmentInput{
		ArenaID: "arena-1", CreatorID: "creator-1", Delta: 0, Reason: "none", Actor: "admin-1",
	})
	if err == nil {
		t.Fatalf("expected zero-delta adjustment to be rejected")
	}
}

func TestRingAssignmentByRankTier(t *testing.T) {
	service, _, feed := newScoringFixture(nil)
	for i := 0; i < 10; i++ {
		handle := string(rune('a' + i))
		likes := int64(100 - i*10)
		feed.AddRecords("project-1", post("post-"+handle, handle, likes, 0, 0))
	}

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	standings, err := service.GetArenaStandings(context.Background(), "arena-1")
	if err != nil {
		t.Fatalf("standings failed: %v", err)
	}
	if len(standings) != 10 {
		t.Fatalf("expected 10 standings, got %d", len(standings))
	}
	if standings[0].Ring != entities.RingCore {
		t.Fatalf("expected rank 1 of 10 in core, got %s", standings[0].Ring)
	}
	if standings[4].Ring != entities.RingMomentum {
		t.Fatalf("expected rank 5 of 10 in momentum, got %s", standings[4].Ring)
	}
	if standings[9].Ring != entities.RingDiscovery {
		t.Fatalf("expected rank 10 of 10 in discovery, got %s", standings[9].Ring)
	}
}

func TestStandingsServedFromCacheAfterRecompute(t *testing.T) {
	service, store, feed := newScoringFixture(nil)
	feed.AddRecords("project-1", post("p1", "qux", 3, 0, 0))

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	cached, hit, err := store.GetArena(context.Background(), "arena-1")
	if err != nil {
		t.Fatalf("cache read failed: %v", err)
	}
	if !hit || len(cached) != 1 {
		t.Fatalf("expected the recompute to populate the cache, hit=%v len=%d", hit, len(cached))
	}
}

// racingCreators reports the first handle lookup as a miss so two ingesters
// appear to race on creating the same creator.
type racingCreators struct {
	ports.CreatorRepository
	mu     sync.Mutex
	missed bool
}

func (r *racingCreators) FindByHandle(ctx context.Context, handle string) (entities.CreatorProfile, bool, error) {
	r.mu.Lock()
	first := !r.missed
	r.missed = true
	r.mu.Unlock()
	if first {
		return entities.CreatorProfile{}, false, nil
	}
	return r.CreatorRepository.FindByHandle(ctx, handle)
}

func TestLostCreatorInsertRaceResolvesToStoredProfile(t *testing.T) {
	service, store, feed := newScoringFixture(nil)
	winner := entities.CreatorProfile{
		CreatorID: "creator-existing",
		Handle:    "foo",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if inserted, err := store.CreateCreator(context.Background(), winner); err != nil || !inserted {
		t.Fatalf("seeding winner failed: inserted=%v err=%v", inserted, err)
	}
	service.Creators = &racingCreators{CreatorRepository: store}
	feed.AddRecords("project-1", post("555", "@Foo", 3, 0, 0))

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	rows, err := service.ListContributions(context.Background(), "arena-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected one contribution, got %d", len(rows))
	}
	if rows[0].CreatorID != "creator-existing" {
		t.Fatalf("contribution attributed to %s, want the stored profile creator-existing", rows[0].CreatorID)
	}
}

func TestSelfAuthoredPostsNeverScore(t *testing.T) {
	service, _, feed := newScoringFixture(nil)
	own := post("900", "project-account", 50, 0, 0)
	own.SelfAuthored = true
	feed.AddRecords("project-1", own, post("901", "fan", 1, 0, 0))

	result, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "worker",
	})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("expected only the fan post to score, inserted %d", result.Inserted)
	}
	rows, err := service.ListContributions(context.Background(), "arena-1", 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 || rows[0].SourcePostID != "901" {
		t.Fatalf("unexpected contributions: %+v", rows)
	}
}

type failingFeed struct {
	err error
}

func (f failingFeed) FetchActivity(context.Context, string, time.Time) ([]ports.ActivityRecord, error) {
	return nil, f.err
}

func TestIngestAndRecomputeAreAudited(t *testing.T) {
	service, store, feed := newScoringFixture(nil)
	feed.AddRecords("project-1", post("1", "alice", 1, 0, 0))

	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "admin-1",
	}); err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if err := service.RecomputeStandings(context.Background(), "arena-1"); err != nil {
		t.Fatalf("recompute failed: %v", err)
	}

	actions := make(map[string]bool)
	for _, entry := range store.Audits() {
		if entry.Success {
			actions[entry.Action] = true
		}
	}
	if !actions["ingest_contributions"] {
		t.Fatal("expected a success audit entry for the ingestion batch")
	}
	if !actions["recompute_standings"] {
		t.Fatal("expected a success audit entry for the recompute")
	}

	service.Feed = failingFeed{err: errors.New("feed down")}
	if _, err := service.IngestContributions(context.Background(), IngestInput{
		ProjectID: "project-1", ArenaID: "arena-1", ActorID: "admin-1",
	}); err == nil {
		t.Fatal("expected ingest to fail when the feed is down")
	}
	audited := false
	for _, entry := range store.Audits() {
		if entry.Action == "ingest_contributions" && !entry.Success {
			audited = true
		}
	}
	if !audited {
		t.Fatal("expected a failure audit entry for the failed ingestion")
	}
}
