package accessrequestservice

import (
	"log/slog"

	"github.com/shopspring/decimal"

	httpadapter "coliseum/contexts/access-governance/access-request-service/adapters/http"
	"coliseum/contexts/access-governance/access-request-service/adapters/memory"
	"coliseum/contexts/access-governance/access-request-service/application/commands"
	"coliseum/contexts/access-governance/access-request-service/application/queries"
	"coliseum/contexts/access-governance/access-request-service/ports"
)

type Module struct {
	SubmitRequest  commands.SubmitRequestUseCase
	ApproveRequest commands.ApproveRequestUseCase
	RejectRequest  commands.RejectRequestUseCase
	GetRequest     queries.GetRequestUseCase
	ListRequests   queries.ListRequestsUseCase
	GetFlags       queries.GetFlagsUseCase
	Handler        httpadapter.Handler
	Store          *memory.Store
}

type Dependencies struct {
	Requests        ports.RequestRepository
	Flags           ports.FlagRepository
	Projects        ports.ProjectRepository
	Billing         ports.BillingGateway
	Arenas          ports.ArenaProvisioner
	Outbox          ports.OutboxWriter
	UnitOfWork      ports.UnitOfWork
	AuditRecorder   ports.AuditRecorder
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	BasePrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submit := commands.SubmitRequestUseCase{
		Requests: deps.Requests,
		Audit:    deps.AuditRecorder,
		Clock:    deps.Clock,
		IDGen:    deps.IDGenerator,
		Logger:   deps.Logger,
	}
	approve := commands.ApproveRequestUseCase{
		Requests:        deps.Requests,
		Flags:           deps.Flags,
		Projects:        deps.Projects,
		Billing:         deps.Billing,
		Arenas:          deps.Arenas,
		Outbox:          deps.Outbox,
		UoW:             deps.UnitOfWork,
		Audit:           deps.AuditRecorder,
		Clock:           deps.Clock,
		BasePrice:       deps.BasePrice,
		DiscountPercent: deps.DiscountPercent,
		Logger:          deps.Logger,
	}
	reject := commands.RejectRequestUseCase{
		Requests: deps.Requests,
		UoW:      deps.UnitOfWork,
		Audit:    deps.AuditRecorder,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
	}
	getRequest := queries.GetRequestUseCase{Requests: deps.Requests, Logger: deps.Logger}
	listRequests := queries.ListRequestsUseCase{Requests: deps.Requests, Logger: deps.Logger}
	getFlags := queries.GetFlagsUseCase{Flags: deps.Flags, Logger: deps.Logger}

	return Module{
		SubmitRequest:  submit,
		ApproveRequest: approve,
		RejectRequest:  reject,
		GetRequest:     getRequest,
		ListRequests:   listRequests,
		GetFlags:       getFlags,
		Handler: httpadapter.Handler{
			SubmitRequest:  submit,
			ApproveRequest: approve,
			RejectRequest:  reject,
			GetRequest:     getRequest,
			ListRequests:   listRequests,
			GetFlags:       getFlags,
			Logger:         deps.Logger,
		},
	}
}

// NewInMemoryModule wires the service against the in-memory store with a
// billing stub. Arena provisioning still crosses a context boundary, so the
// caller supplies it.
func NewInMemoryModule(logger *slog.Logger, arenas ports.ArenaProvisioner) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Requests:      store,
		Flags:         store,
		Projects:      store,
		Billing:       &memory.BillingStub{},
		Arenas:        arenas,
		Outbox:        store,
		UnitOfWork:    store,
		AuditRecorder: store,
		Clock:         store,
		IDGenerator:   store,
		Logger:        logger,
	})
	module.Store = store
	return module
}
