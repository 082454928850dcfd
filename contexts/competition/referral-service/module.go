package referralservice

import (
	"log/slog"

	httpadapter "coliseum/contexts/competition/referral-service/adapters/http"
	"coliseum/contexts/competition/referral-service/adapters/memory"
	"coliseum/contexts/competition/referral-service/application"
	"coliseum/contexts/competition/referral-service/ports"

	"github.com/shopspring/decimal"
)

type Module struct {
	Service application.Service
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Links         ports.LinkRepository
	Rewards       ports.RewardRepository
	Watermarks    ports.WatermarkRepository
	AuditRecorder ports.AuditRecorder
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	RewardPercent decimal.Decimal
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Links:         deps.Links,
		Rewards:       deps.Rewards,
		Watermarks:    deps.Watermarks,
		Audit:         deps.AuditRecorder,
		Clock:         deps.Clock,
		IDGen:         deps.IDGenerator,
		RewardPercent: deps.RewardPercent,
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

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Links:         store,
		Rewards:       store,
		Watermarks:    store,
		AuditRecorder: store,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
