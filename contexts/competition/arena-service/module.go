package arenaservice

import (
	"log/slog"

	httpadapter "coliseum/contexts/competition/arena-service/adapters/http"
	"coliseum/contexts/competition/arena-service/adapters/memory"
	"coliseum/contexts/competition/arena-service/application/commands"
	"coliseum/contexts/competition/arena-service/application/queries"
	"coliseum/contexts/competition/arena-service/ports"
	"coliseum/internal/platform/locking"
)

type Module struct {
	ProvisionPrimary commands.ProvisionPrimaryUseCase
	ActivateArena    commands.ActivateArenaUseCase
	ChangeStatus     commands.ChangeStatusUseCase
	GetArena         queries.GetArenaUseCase
	ListArenas       queries.ListArenasUseCase
	ListActiveArenas queries.ListActiveArenasUseCase
	Handler          httpadapter.Handler
	Store            *memory.Store
}

type Dependencies struct {
	Repository    ports.Repository
	ProjectLocker ports.ProjectLocker
	UnitOfWork    ports.UnitOfWork
	AuditRecorder ports.AuditRecorder
	Clock         ports.Clock
	IDGenerator   ports.IDGenerator
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	provision := commands.ProvisionPrimaryUseCase{
		Arenas: deps.Repository,
		Locker: deps.ProjectLocker,
		UoW:    deps.UnitOfWork,
		Audit:  deps.AuditRecorder,
		Clock:  deps.Clock,
		IDGen:  deps.IDGenerator,
		Logger: deps.Logger,
	}
	activate := commands.ActivateArenaUseCase{
		Arenas: deps.Repository,
		Locker: deps.ProjectLocker,
		UoW:    deps.UnitOfWork,
		Audit:  deps.AuditRecorder,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	changeStatus := commands.ChangeStatusUseCase{
		Arenas: deps.Repository,
		Locker: deps.ProjectLocker,
		UoW:    deps.UnitOfWork,
		Audit:  deps.AuditRecorder,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	getArena := queries.GetArenaUseCase{Arenas: deps.Repository, Logger: deps.Logger}
	listArenas := queries.ListArenasUseCase{Arenas: deps.Repository, Logger: deps.Logger}
	listActive := queries.ListActiveArenasUseCase{Arenas: deps.Repository, Logger: deps.Logger}

	return Module{
		ProvisionPrimary: provision,
		ActivateArena:    activate,
		ChangeStatus:     changeStatus,
		GetArena:         getArena,
		ListArenas:       listArenas,
		ListActiveArenas: listActive,
		Handler: httpadapter.Handler{
			ProvisionPrimary: provision,
			ActivateArena:    activate,
			ChangeStatus:     changeStatus,
			GetArena:         getArena,
			ListArenas:       listArenas,
			Logger:           deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore(nil)
	module := NewModule(Dependencies{
		Repository:    store,
		ProjectLocker: locking.NewManager(),
		UnitOfWork:    store,
		AuditRecorder: store,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
