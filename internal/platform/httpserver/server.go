package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	accessrequestservice "coliseum/contexts/access-governance/access-request-service"
	accesserrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	accesshttp "coliseum/contexts/access-governance/access-request-service/transport/http"
	arenaservice "coliseum/contexts/competition/arena-service"
	arenaerrors "coliseum/contexts/competition/arena-service/domain/errors"
	arenahttp "coliseum/contexts/competition/arena-service/transport/http"
	referralservice "coliseum/contexts/competition/referral-service"
	referralerrors "coliseum/contexts/competition/referral-service/domain/errors"
	referralhttp "coliseum/contexts/competition/referral-service/transport/http"
	scoringservice "coliseum/contexts/competition/scoring-service"
	scoringerrors "coliseum/contexts/competition/scoring-service/domain/errors"
	scoringhttp "coliseum/contexts/competition/scoring-service/transport/http"
	auditservice "coliseum/contexts/platform-audit/audit-service"
	auditerrors "coliseum/contexts/platform-audit/audit-service/domain/errors"
	audithttp "coliseum/contexts/platform-audit/audit-service/transport/http"

	_ "coliseum/internal/platform/httpserver/docs"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	addr     string
	access   accessrequestservice.Module
	arenas   arenaservice.Module
	scoring  scoringservice.Module
	referral referralservice.Module
	audit    auditservice.Module
}

func New(
	access accessrequestservice.Module,
	arenas arenaservice.Module,
	scoring scoringservice.Module,
	referral referralservice.Module,
	audit auditservice.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:      http.NewServeMux(),
		logger:   logger,
		addr:     addr,
		access:   access,
		arenas:   arenas,
		scoring:  scoring,
		referral: referral,
		audit:    audit,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Mux exposes the routing table for tests.
func (s *Server) Mux() *http.ServeMux {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/v1/access-requests", s.handleSubmitAccessRequest)
	s.mux.HandleFunc("GET /api/v1/access-requests/{request_id}", s.handleGetAccessRequest)
	s.mux.HandleFunc("POST /api/v1/access-requests/{request_id}/approve", s.handleApproveAccessRequest)
	s.mux.HandleFunc("POST /api/v1/access-requests/{request_id}/reject", s.handleRejectAccessRequest)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/access-requests", s.handleListAccessRequests)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/feature-flags", s.handleGetFeatureFlags)

	s.mux.HandleFunc("POST /api/v1/arenas/provision-primary", s.handleProvisionPrimaryArena)
	s.mux.HandleFunc("GET /api/v1/arenas/{arena_id}", s.handleGetArena)
	s.mux.HandleFunc("POST /api/v1/arenas/{arena_id}/activate", s.handleActivateArena)
	s.mux.HandleFunc("POST /api/v1/arenas/{arena_id}/status", s.handleChangeArenaStatus)
	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/arenas", s.handleListArenas)

	s.mux.HandleFunc("POST /api/v1/contributions/ingest", s.handleIngestContributions)
	s.mux.HandleFunc("POST /api/v1/adjustments", s.handleAddAdjustment)
	s.mux.HandleFunc("GET /api/v1/arenas/{arena_id}/standings", s.handleGetStandings)
	s.mux.HandleFunc("POST /api/v1/arenas/{arena_id}/standings/recompute", s.handleRecomputeStandings)
	s.mux.HandleFunc("GET /api/v1/arenas/{arena_id}/contributions", s.handleListContributions)

	s.mux.HandleFunc("POST /api/v1/referral-links", s.handleRegisterReferralLink)
	s.mux.HandleFunc("POST /api/v1/referral-links/{link_id}/status", s.handleUpdateReferralLinkStatus)
	s.mux.HandleFunc("GET /api/v1/creators/{creator_id}/referral-rewards", s.handleListRewardsByReferrer)
	s.mux.HandleFunc("GET /api/v1/arenas/{arena_id}/referral-rewards", s.handleListRewardsByArena)

	s.mux.HandleFunc("GET /api/v1/projects/{project_id}/audit-trail", s.handleProjectAuditTrail)
	s.mux.HandleFunc("GET /api/v1/audit-trail/{entity_type}/{entity_id}", s.handleEntityAuditTrail)
}

func (s *Server) handleSubmitAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req accesshttp.SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-User-Id")
	}
	resp, err := s.access.Handler.SubmitHandler(r.Context(), req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAccessRequest(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.GetRequestHandler(r.Context(), r.PathValue("request_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleApproveAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req accesshttp.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.AdminID) == "" {
		req.AdminID = r.Header.Get("X-Admin-Id")
	}
	resp, err := s.access.Handler.ApproveHandler(r.Context(), r.PathValue("request_id"), req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRejectAccessRequest(w http.ResponseWriter, r *http.Request) {
	var req accesshttp.DecideRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAccessError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.AdminID) == "" {
		req.AdminID = r.Header.Get("X-Admin-Id")
	}
	resp, err := s.access.Handler.RejectHandler(r.Context(), r.PathValue("request_id"), req)
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListAccessRequests(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.ListRequestsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetFeatureFlags(w http.ResponseWriter, r *http.Request) {
	resp, err := s.access.Handler.GetFlagsHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeAccessDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProvisionPrimaryArena(w http.ResponseWriter, r *http.Request) {
	var req arenahttp.ProvisionPrimaryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeArenaError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-User-Id")
	}
	resp, err := s.arenas.Handler.ProvisionPrimaryHandler(r.Context(), req)
	if err != nil {
		writeArenaDomainError(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleGetArena(w http.ResponseWriter, r *http.Request) {
	resp, err := s.arenas.Handler.GetArenaHandler(r.Context(), r.PathValue("arena_id"))
	if err != nil {
		writeArenaDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleActivateArena(w http.ResponseWriter, r *http.Request) {
	var req arenahttp.ActivateArenaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeArenaError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-User-Id")
	}
	resp, err := s.arenas.Handler.ActivateArenaHandler(r.Context(), r.PathValue("arena_id"), req)
	if err != nil {
		writeArenaDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChangeArenaStatus(w http.ResponseWriter, r *http.Request) {
	var req arenahttp.ChangeStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeArenaError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-User-Id")
	}
	resp, err := s.arenas.Handler.ChangeStatusHandler(r.Context(), r.PathValue("arena_id"), req)
	if err != nil {
		writeArenaDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListArenas(w http.ResponseWriter, r *http.Request) {
	resp, err := s.arenas.Handler.ListArenasHandler(r.Context(), r.PathValue("project_id"))
	if err != nil {
		writeArenaDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngestContributions(w http.ResponseWriter, r *http.Request) {
	var req scoringhttp.IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScoringError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-User-Id")
	}
	resp, err := s.scoring.Handler.IngestHandler(r.Context(), req)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddAdjustment(w http.ResponseWriter, r *http.Request) {
	var req scoringhttp.AdjustmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeScoringError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if strings.TrimSpace(req.ActorID) == "" {
		req.ActorID = r.Header.Get("X-Admin-Id")
	}
	resp, err := s.scoring.Handler.AdjustmentHandler(r.Context(), req)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetStandings(w http.ResponseWriter, r *http.Request) {
	resp, err := s.scoring.Handler.StandingsHandler(r.Context(), r.PathValue("arena_id"))
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecomputeStandings(w http.ResponseWriter, r *http.Request) {
	if err := s.scoring.Handler.RecomputeHandler(r.Context(), r.PathValue("arena_id")); err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "success"})
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		parsed, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeScoringError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		limit = parsed
	}
	resp, err := s.scoring.Handler.ContributionsHandler(r.Context(), r.PathValue("arena_id"), limit)
	if err != nil {
		writeScoringDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRegisterReferralLink(w http.ResponseWriter, r *http.Request) {
	var req referralhttp.RegisterLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReferralError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.referral.Handler.RegisterLinkHandler(r.Context(), req)
	if err != nil {
		writeReferralDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateReferralLinkStatus(w http.ResponseWriter, r *http.Request) {
	var req referralhttp.UpdateLinkStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeReferralError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.referral.Handler.UpdateLinkStatusHandler(r.Context(), r.PathValue("link_id"), req)
	if err != nil {
		writeReferralDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRewardsByReferrer(w http.ResponseWriter, r *http.Request) {
	resp, err := s.referral.Handler.ListRewardsByReferrerHandler(r.Context(), r.PathValue("creator_id"))
	if err != nil {
		writeReferralDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRewardsByArena(w http.ResponseWriter, r *http.Request) {
	resp, err := s.referral.Handler.ListRewardsByArenaHandler(r.Context(), r.PathValue("arena_id"))
	if err != nil {
		writeReferralDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleProjectAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.audit.Handler.GetProjectTrailHandler(r.Context(), r.PathValue("project_id"), limit)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEntityAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(w, r)
	if !ok {
		return
	}
	resp, err := s.audit.Handler.GetEntityTrailHandler(r.Context(), r.PathValue("entity_type"), r.PathValue("entity_id"), limit)
	if err != nil {
		writeAuditDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func parseLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	limitRaw := r.URL.Query().Get("limit")
	if limitRaw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(limitRaw)
	if err != nil {
		writeAuditError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
		return 0, false
	}
	return limit, true
}

func writeAccessDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, accesserrors.ErrRequestNotFound),
		errors.Is(err, accesserrors.ErrProjectNotFound):
		writeAccessError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, accesserrors.ErrPendingRequestExists):
		writeAccessError(w, http.StatusConflict, "pending_request_exists", err.Error())
	case errors.Is(err, accesserrors.ErrRequestNotPending):
		writeAccessError(w, http.StatusConflict, "request_not_pending", err.Error())
	case errors.Is(err, accesserrors.ErrInvalidProductType),
		errors.Is(err, accesserrors.ErrInvalidDateRange),
		errors.Is(err, accesserrors.ErrInvalidRequestInput):
		writeAccessError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAccessError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeArenaDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, arenaerrors.ErrArenaNotFound):
		writeArenaError(w, http.StatusNotFound, "arena_not_found", err.Error())
	case errors.Is(err, arenaerrors.ErrDuplicatePrimaryArena):
		writeArenaError(w, http.StatusConflict, "duplicate_primary_arena", err.Error())
	case errors.Is(err, arenaerrors.ErrInvalidStateTransition):
		writeArenaError(w, http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, arenaerrors.ErrNotPrimaryLeaderboard):
		writeArenaError(w, http.StatusUnprocessableEntity, "not_primary_leaderboard", err.Error())
	case errors.Is(err, arenaerrors.ErrInvalidArenaInput),
		errors.Is(err, arenaerrors.ErrInvalidDateRange):
		writeArenaError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeArenaError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeScoringDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, scoringerrors.ErrCreatorNotFound),
		errors.Is(err, scoringerrors.ErrStandingNotFound):
		writeScoringError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, scoringerrors.ErrInvalidIngestInput),
		errors.Is(err, scoringerrors.ErrInvalidAdjustment):
		writeScoringError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeScoringError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeReferralDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, referralerrors.ErrReferralLinkNotFound):
		writeReferralError(w, http.StatusNotFound, "referral_link_not_found", err.Error())
	case errors.Is(err, referralerrors.ErrDuplicateReferralLink):
		writeReferralError(w, http.StatusConflict, "duplicate_referral_link", err.Error())
	case errors.Is(err, referralerrors.ErrSelfReferral):
		writeReferralError(w, http.StatusUnprocessableEntity, "self_referral", err.Error())
	case errors.Is(err, referralerrors.ErrInvalidLinkStatus),
		errors.Is(err, referralerrors.ErrInvalidReferralInput):
		writeReferralError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeReferralError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAuditDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auditerrors.ErrTrailNotFound):
		writeAuditError(w, http.StatusNotFound, "trail_not_found", err.Error())
	case errors.Is(err, auditerrors.ErrInvalidFilter),
		errors.Is(err, auditerrors.ErrInvalidEntry):
		writeAuditError(w, http.StatusBadRequest, "invalid_request", err.Error())
	default:
		writeAuditError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeAccessError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, accesshttp.ErrorResponse{Code: code, Message: message})
}

func writeArenaError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, arenahttp.ErrorResponse{Code: code, Message: message})
}

func writeScoringError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, scoringhttp.ErrorResponse{Code: code, Message: message})
}

func writeReferralError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, referralhttp.ErrorResponse{Code: code, Message: message})
}

func writeAuditError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, audithttp.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
