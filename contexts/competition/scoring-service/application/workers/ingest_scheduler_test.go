package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"coliseum/contexts/competition/scoring-service/adapters/memory"
	"coliseum/contexts/competition/scoring-service/application"
	"coliseum/contexts/competition/scoring-service/domain/entities"
	"coliseum/contexts/competition/scoring-service/ports"
)

type arenaSourceStub struct {
	arenas []ActiveArena
	err    error
}

func (s arenaSourceStub) ListActiveArenas(_ context.Context) ([]ActiveArena, error) {
	return s.arenas, s.err
}

func newSchedulerFixture(source ArenaSource) (IngestScheduler, application.Service, *memory.Feed) {
	store := memory.NewStore()
	feed := memory.NewFeed()
	service := application.Service{
		Feed:          feed,
		Creators:      store,
		Contributions: store,
		Adjustments:   memory.AdjustmentView{Store: store},
		Standings:     store,
		Cache:         store,
		Audit:         store,
		Clock:         store,
		IDGen:         store,
	}
	worker := IngestScheduler{Service: service, Arenas: source}
	return worker, service, feed
}

func TestRunOnceIngestsEveryActiveArena(t *testing.T) {
	source := arenaSourceStub{arenas: []ActiveArena{
		{ArenaID: "arena-1", ProjectID: "project-1"},
		{ArenaID: "arena-2", ProjectID: "project-2"},
	}}
	worker, service, feed := newSchedulerFixture(source)
	now := time.Now().UTC()
	feed.AddRecords("project-1", ports.ActivityRecord{
		SourcePostID: "101",
		AuthorHandle: "alice",
		Engagement:   entities.EngagementCounts{Likes: 4},
		OccurredAt:   now,
	})
	feed.AddRecords("project-2", ports.ActivityRecord{
		SourcePostID: "201",
		AuthorHandle: "bob",
		Engagement:   entities.EngagementCounts{Replies: 2},
		OccurredAt:   now,
	})

	worker.runOnce(context.Background(), time.Minute, application.ResolveLogger(nil))

	for _, arenaID := range []string{"arena-1", "arena-2"} {
		rows, err := service.ListContributions(context.Background(), arenaID, 10)
		if err != nil {
			t.Fatalf("listing contributions for %s failed: %v", arenaID, err)
		}
		if len(rows) != 1 {
			t.Fatalf("expected 1 contribution in %s, got %d", arenaID, len(rows))
		}
	}
}

func TestRunOnceSkipsFailedArenaAndContinues(t *testing.T) {
	source := arenaSourceStub{arenas: []ActiveArena{
		{ArenaID: "arena-1", ProjectID: ""},
		{ArenaID: "arena-2", ProjectID: "project-2"},
	}}
	worker, service, feed := newSchedulerFixture(source)
	feed.AddRecords("project-2", ports.ActivityRecord{
		SourcePostID: "202",
		AuthorHandle: "carol",
		Engagement:   entities.EngagementCounts{Retweets: 1},
		OccurredAt:   time.Now().UTC(),
	})

	worker.runOnce(context.Background(), time.Minute, application.ResolveLogger(nil))

	rows, err := service.ListContributions(context.Background(), "arena-2", 10)
	if err != nil {
		t.Fatalf("listing contributions failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected the healthy arena to ingest 1 contribution, got %d", len(rows))
	}
}

func TestRunOnceStopsWhenArenaSourceFails(t *testing.T) {
	worker, service, _ := newSchedulerFixture(arenaSourceStub{err: errors.New("listing down")})

	worker.runOnce(context.Background(), time.Minute, application.ResolveLogger(nil))

	rows, err := service.ListContributions(context.Background(), "arena-1", 10)
	if err != nil {
		t.Fatalf("listing contributions failed: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no contributions after source failure, got %d", len(rows))
	}
}
