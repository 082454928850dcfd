package scoringservice

import (
	"log/slog"

	httpadapter "coliseum/contexts/competition/scoring-service/adapters/http"
	"coliseum/contexts/competition/scoring-service/adapters/memory"
	"coliseum/contexts/competition/scoring-service/application"
	"coliseum/contexts/competition/scoring-service/ports"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
	Feed    *memory.Feed
}

type Dependencies struct {
	ActivityFeed  ports.ActivityFeed
	Creators      ports.CreatorRepository
	Contributions ports.ContributionRepository
	Adjustments   ports.AdjustmentRepository
	Standings     ports.StandingRepository
	Cache         ports.StandingsCache
	RewardSink    ports.RewardSink
	AuditRecorder ports.AuditRecorder
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Feed:          deps.ActivityFeed,
		Creators:      deps.Creators,
		Contributions: deps.Contributions,
		Adjustments:   deps.Adjustments,
		Standings:     deps.Standings,
		Cache:         deps.Cache,
		Rewards:       deps.RewardSink,
		Audit:         deps.AuditRecorder,
		Clock:         deps.Clock,
		IDGen:         deps.IDGenerator,
		Logger:        deps.Logger,
	}
	return Module{
		Service: service,
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger, rewardSink ports.RewardSink) Module {
	store := memory.NewStore()
	feed := memory.NewFeed()
	module := NewModule(Dependencies{
		ActivityFeed:  feed,
		Creators:      store,
		Contributions: store,
		Adjustments:   memory.AdjustmentView{Store: store},
		Standings:     store,
		Cache:         store,
		RewardSink:    rewardSink,
		AuditRecorder: store,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	module.Feed = feed
	return module
}
