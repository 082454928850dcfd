package workers

import (
	"context"
	"log/slog"
	"time"

	"coliseum/contexts/competition/scoring-service/application"

	"github.com/go-co-op/gocron/v2"
)

// ActiveArena identifies one arena the scheduler pulls activity for.
type ActiveArena struct {
	ArenaID   string
	ProjectID string
}

// ArenaSource feeds the scheduler with the arenas that currently accept
// contributions.
type ArenaSource interface {
	ListActiveArenas(ctx context.Context) ([]ActiveArena, error)
}

// IngestScheduler runs periodic contribution ingestion over every active
// arena. Each run looks back twice the interval so a slow or skipped run
// cannot open a gap; the dedup key absorbs the overlap.
type IngestScheduler struct {
	Service  application.Service
	Arenas   ArenaSource
	Interval time.Duration
	Logger   *slog.Logger
}

func (w IngestScheduler) Start(ctx context.Context) (gocron.Scheduler, error) {
	logger := application.ResolveLogger(w.Logger)
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			w.runOnce(ctx, interval, logger)
		}),
	)
	if err != nil {
		return nil, err
	}
	sched.Start()
	return sched, nil
}

func (w IngestScheduler) runOnce(ctx context.Context, interval time.Duration, logger *slog.Logger) {
	arenas, err := w.Arenas.ListActiveArenas(ctx)
	if err != nil {
		logger.Error("active arena listing failed",
			"event", "scheduled_ingest_failed",
			"module", "competition/scoring-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return
	}

	since := time.Now().UTC().Add(-2 * interval)
	for _, arena := range arenas {
		result, err := w.Service.IngestContributions(ctx, application.IngestInput{
			ProjectID: arena.ProjectID,
			ArenaID:   arena.ArenaID,
			Since:     since,
			ActorID:   "ingest-worker",
		})
		if err != nil {
			logger.Error("scheduled ingestion failed",
				"event", "scheduled_ingest_failed",
				"module", "competition/scoring-service",
				"layer", "worker",
				"arena_id", arena.ArenaID,
				"error", err.Error(),
			)
			continue
		}
		logger.Info("scheduled ingestion completed",
			"event", "scheduled_ingest_completed",
			"module", "competition/scoring-service",
			"layer", "worker",
			"arena_id", arena.ArenaID,
			"batch_id", result.BatchID,
			"inserted", result.Inserted,
		)
	}
}
