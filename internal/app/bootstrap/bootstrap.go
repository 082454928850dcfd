package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/go-co-op/gocron/v2"
	"github.com/shopspring/decimal"

	accessrequestservice "coliseum/contexts/access-governance/access-request-service"
	accessmemory "coliseum/contexts/access-governance/access-request-service/adapters/memory"
	accesspostgres "coliseum/contexts/access-governance/access-request-service/adapters/postgres"
	accessworkers "coliseum/contexts/access-governance/access-request-service/application/workers"
	accessports "coliseum/contexts/access-governance/access-request-service/ports"
	arenaservice "coliseum/contexts/competition/arena-service"
	arenapostgres "coliseum/contexts/competition/arena-service/adapters/postgres"
	referralservice "coliseum/contexts/competition/referral-service"
	referralpostgres "coliseum/contexts/competition/referral-service/adapters/postgres"
	scoringservice "coliseum/contexts/competition/scoring-service"
	scoringmemory "coliseum/contexts/competition/scoring-service/adapters/memory"
	scoringpostgres "coliseum/contexts/competition/scoring-service/adapters/postgres"
	redisadapter "coliseum/contexts/competition/scoring-service/adapters/redis"
	scoringworkers "coliseum/contexts/competition/scoring-service/application/workers"
	scoringports "coliseum/contexts/competition/scoring-service/ports"
	auditservice "coliseum/contexts/platform-audit/audit-service"
	auditpostgres "coliseum/contexts/platform-audit/audit-service/adapters/postgres"
	"coliseum/internal/platform/config"
	"coliseum/internal/platform/db"
	"coliseum/internal/platform/httpserver"
	"coliseum/internal/platform/locking"
	"coliseum/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres      *db.Postgres
	outboxRelay   accessworkers.OutboxRelay
	ingest        scoringworkers.IngestScheduler
	ingestEnabled bool
	logger        *slog.Logger
	scheduler     gocron.Scheduler
}

type modules struct {
	access   accessrequestservice.Module
	arenas   arenaservice.Module
	scoring  scoringservice.Module
	referral referralservice.Module
	audit    auditservice.Module
	outbox   *accesspostgres.OutboxRepository
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	pg, err := connectPostgres(cfg)
	if err != nil {
		return nil, err
	}

	mods, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	server := httpserver.New(
		mods.access,
		mods.arenas,
		mods.scoring,
		mods.referral,
		mods.audit,
		logger,
		normalizeAddr(cfg.HTTPPort),
	)
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	pg, err := connectPostgres(cfg)
	if err != nil {
		return nil, err
	}

	mods, err := buildModules(cfg, pg, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &WorkerApp{
		postgres: pg,
		outboxRelay: accessworkers.OutboxRelay{
			Source:    mods.outbox,
			Publisher: kafka,
			Interval:  cfg.OutboxPollInterval,
			BatchSize: 50,
			Logger:    logger,
		},
		ingest: scoringworkers.IngestScheduler{
			Service:  mods.scoring.Service,
			Arenas:   activeArenaSource{list: mods.arenas.ListActiveArenas},
			Interval: cfg.IngestInterval,
			Logger:   logger,
		},
		ingestEnabled: cfg.EnableScheduledIngest,
		logger:        logger,
	}, nil
}

func buildModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) (modules, error) {
	uow := db.UnitOfWork{DB: pg.DB}
	locker := locking.NewManager()

	auditRepo := auditpostgres.NewRepository(pg.DB, logger)
	auditModule := auditservice.NewModule(auditservice.Dependencies{
		Repository:  auditRepo,
		Clock:       auditpostgres.SystemClock{},
		IDGenerator: auditpostgres.UUIDGenerator{},
		Logger:      logger,
	})

	arenaRepo := arenapostgres.NewRepository(pg.DB, logger)
	arenaModule := arenaservice.NewModule(arenaservice.Dependencies{
		Repository:    arenaRepo,
		ProjectLocker: locker,
		UnitOfWork:    uow,
		AuditRecorder: arenaAuditRecorder{audit: auditModule.Service},
		Clock:         arenapostgres.SystemClock{},
		IDGenerator:   arenapostgres.UUIDGenerator{},
		Logger:        logger,
	})

	linkRepo := referralpostgres.NewLinkRepository(pg.DB, logger)
	rewardRepo := referralpostgres.NewRewardRepository(pg.DB, logger)
	rewardPercent, err := decimal.NewFromString(cfg.DefaultRewardPercent)
	if err != nil {
		return modules{}, errors.New("REFERRAL_REWARD_PERCENT must be a decimal number")
	}
	referralModule := referralservice.NewModule(referralservice.Dependencies{
		Links:         linkRepo,
		Rewards:       rewardRepo,
		Watermarks:    rewardRepo,
		AuditRecorder: referralAuditRecorder{audit: auditModule.Service},
		Clock:         referralpostgres.SystemClock{},
		IDGenerator:   referralpostgres.UUIDGenerator{},
		RewardPercent: rewardPercent,
		Logger:        logger,
	})

	var cache scoringports.StandingsCache
	if cfg.EnableStandingsCache && strings.TrimSpace(cfg.RedisAddr) != "" {
		client, err := db.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			return modules{}, err
		}
		cache = redisadapter.NewStandingsCache(client, logger)
	}

	// The external activity feed client is bound at deploy time; the
	// in-process feed keeps ingestion runnable until then.
	creatorRepo := scoringpostgres.NewCreatorRepository(pg.DB, logger)
	contributionRepo := scoringpostgres.NewContributionRepository(pg.DB, logger)
	adjustmentRepo := scoringpostgres.NewAdjustmentRepository(pg.DB, logger)
	standingRepo := scoringpostgres.NewStandingRepository(pg.DB, logger)
	scoringModule := scoringservice.NewModule(scoringservice.Dependencies{
		ActivityFeed:  scoringmemory.NewFeed(),
		Creators:      creatorRepo,
		Contributions: contributionRepo,
		Adjustments:   adjustmentRepo,
		Standings:     standingRepo,
		Cache:         cache,
		RewardSink:    referralRewardSink{service: referralModule.Service},
		AuditRecorder: scoringAuditRecorder{audit: auditModule.Service},
		Clock:         scoringpostgres.SystemClock{},
		IDGenerator:   scoringpostgres.UUIDGenerator{},
		Logger:        logger,
	})

	requestRepo := accesspostgres.NewRequestRepository(pg.DB, logger)
	flagRepo := accesspostgres.NewFlagRepository(pg.DB, logger)
	projectRepo := accesspostgres.NewProjectRepository(pg.DB, logger)
	outboxRepo := accesspostgres.NewOutboxRepository(pg.DB, logger)

	var billing accessports.BillingGateway
	if cfg.EnableBillingStubCalls {
		billing = &accessmemory.BillingStub{}
	}
	accessModule := accessrequestservice.NewModule(accessrequestservice.Dependencies{
		Requests:        requestRepo,
		Flags:           flagRepo,
		Projects:        projectRepo,
		Billing:         billing,
		Arenas:          arenaProvisioner{provision: arenaModule.ProvisionPrimary},
		Outbox:          outboxRepo,
		UnitOfWork:      uow,
		AuditRecorder:   accessAuditRecorder{audit: auditModule.Service},
		Clock:           accesspostgres.SystemClock{},
		IDGenerator:     accesspostgres.UUIDGenerator{},
		BasePrice:       decimal.NewFromInt(1000),
		DiscountPercent: decimal.Zero,
		Logger:          logger,
	})

	if err := migrate(
		auditRepo, arenaRepo, linkRepo, rewardRepo,
		requestRepo, flagRepo, projectRepo, outboxRepo,
		creatorRepo, contributionRepo, adjustmentRepo, standingRepo,
	); err != nil {
		return modules{}, err
	}

	return modules{
		access:   accessModule,
		arenas:   arenaModule,
		scoring:  scoringModule,
		referral: referralModule,
		audit:    auditModule,
		outbox:   outboxRepo,
	}, nil
}

type migrator interface {
	AutoMigrate() error
}

func migrate(repos ...migrator) error {
	for _, repo := range repos {
		if err := repo.AutoMigrate(); err != nil {
			return err
		}
	}
	return nil
}

func connectPostgres(cfg config.Config) (*db.Postgres, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}
	return db.Connect(cfg.PostgresDSN)
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if w.ingestEnabled {
		sched, err := w.ingest.Start(ctx)
		if err != nil {
			return err
		}
		w.scheduler = sched
	}

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"outbox_interval", w.outboxRelay.Interval.String(),
		"scheduled_ingest", w.ingestEnabled,
	)

	w.outboxRelay.Run(ctx)
	return nil
}

func (w *WorkerApp) Close() error {
	if w.scheduler != nil {
		_ = w.scheduler.Shutdown()
	}
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
