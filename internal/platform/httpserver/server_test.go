package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	accessrequestservice "coliseum/contexts/access-governance/access-request-service"
	accessports "coliseum/contexts/access-governance/access-request-service/ports"
	arenaservice "coliseum/contexts/competition/arena-service"
	arenacommands "coliseum/contexts/competition/arena-service/application/commands"
	referralservice "coliseum/contexts/competition/referral-service"
	referralapp "coliseum/contexts/competition/referral-service/application"
	scoringservice "coliseum/contexts/competition/scoring-service"
	scoringentities "coliseum/contexts/competition/scoring-service/domain/entities"
	scoringports "coliseum/contexts/competition/scoring-service/ports"
	auditservice "coliseum/contexts/platform-audit/audit-service"
)

type testProvisioner struct {
	provision arenacommands.ProvisionPrimaryUseCase
}

func (p testProvisioner) ProvisionPrimaryArena(ctx context.Context, projectID string, name string, startAt time.Time, endAt time.Time, actor string) (accessports.ProvisionedArena, error) {
	result, err := p.provision.Execute(ctx, arenacommands.ProvisionPrimaryCommand{
		ProjectID: projectID,
		Name:      name,
		StartsAt:  startAt,
		EndsAt:    endAt,
		ActorID:   actor,
	})
	if err != nil {
		return accessports.ProvisionedArena{}, err
	}
	return accessports.ProvisionedArena{ArenaID: result.Arena.ArenaID, Created: result.Created}, nil
}

type testRewardSink struct {
	service referralapp.Service
}

func (s testRewardSink) HandleStandingsIncrease(ctx context.Context, increase scoringports.StandingsIncrease) error {
	return s.service.HandleStandingsIncrease(ctx, referralapp.StandingsIncrease{
		ArenaID:   increase.ArenaID,
		CreatorID: increase.CreatorID,
		OldPoints: increase.OldPoints,
		NewPoints: increase.NewPoints,
		BatchID:   increase.BatchID,
	})
}

func newTestServer() (*Server, scoringservice.Module) {
	arenas := arenaservice.NewInMemoryModule(nil)
	access := accessrequestservice.NewInMemoryModule(nil, testProvisioner{provision: arenas.ProvisionPrimary})
	referral := referralservice.NewInMemoryModule(nil)
	scoring := scoringservice.NewInMemoryModule(nil, testRewardSink{service: referral.Service})
	audit := auditservice.NewInMemoryModule(nil)
	return New(access, arenas, scoring, referral, audit, nil, ":0"), scoring
}

func doJSON(t *testing.T, mux *http.ServeMux, method string, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestAccessRequestApprovalFlow(t *testing.T) {
	srv, _ := newTestServer()
	mux := srv.Mux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/access-requests", map[string]any{
		"project_id":   "project-1",
		"product_type": "mindshare",
		"actor_id":     "founder-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var submitted struct {
		Data struct {
			RequestID string `json:"request_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/access-requests", map[string]any{
		"project_id":   "project-1",
		"product_type": "gamified",
		"actor_id":     "founder-2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("second pending submit: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/access-requests/"+submitted.Data.RequestID+"/approve", map[string]any{
		"admin_id": "admin-1",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var approved struct {
		Data struct {
			ArenaID      string `json:"arena_id"`
			ArenaCreated bool   `json:"arena_created"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("decode approve response: %v", err)
	}
	if approved.Data.ArenaID == "" || !approved.Data.ArenaCreated {
		t.Fatalf("expected a provisioned arena, got %+v", approved.Data)
	}

	rec = doJSON(t, mux, http.MethodPost, "/api/v1/access-requests/"+submitted.Data.RequestID+"/approve", map[string]any{
		"admin_id": "admin-2",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("re-approve: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/projects/project-1/feature-flags", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("flags: expected 200, got %d", rec.Code)
	}
	var flags struct {
		Data struct {
			Leaderboard struct {
				Enabled bool `json:"enabled"`
			} `json:"leaderboard"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &flags); err != nil {
		t.Fatalf("decode flags response: %v", err)
	}
	if !flags.Data.Leaderboard.Enabled {
		t.Fatalf("expected leaderboard flag enabled")
	}
}

func TestStandingsRouteServesRankedRows(t *testing.T) {
	srv, scoring := newTestServer()
	mux := srv.Mux()

	rec := doJSON(t, mux, http.MethodPost, "/api/v1/arenas/provision-primary", map[string]any{
		"project_id": "project-1",
		"name":       "launch season",
		"starts_at":  time.Now().UTC().Format(time.RFC3339),
		"actor_id":   "admin-1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("provision: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var provisioned struct {
		Data struct {
			ArenaID string `json:"arena_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &provisioned); err != nil {
		t.Fatalf("decode provision response: %v", err)
	}
	arenaID := provisioned.Data.ArenaID

	scoring.Feed.AddRecords("project-1",
		scoringports.ActivityRecord{SourcePostID: "post-1", AuthorHandle: "alice", Engagement: scoringentities.EngagementCounts{Likes: 10}, OccurredAt: time.Now().UTC()},
		scoringports.ActivityRecord{SourcePostID: "post-2", AuthorHandle: "bob", Engagement: scoringentities.EngagementCounts{Likes: 2}, OccurredAt: time.Now().UTC()},
	)
	rec = doJSON(t, mux, http.MethodPost, "/api/v1/contributions/ingest", map[string]any{
		"project_id": "project-1",
		"arena_id":   arenaID,
		"actor_id":   "ingest-worker",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("ingest: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, mux, http.MethodGet, "/api/v1/arenas/"+arenaID+"/standings", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("standings: expected 200, got %d", rec.Code)
	}
	var standings struct {
		Data []struct {
			Rank   int   `json:"rank"`
			Points int64 `json:"points"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &standings); err != nil {
		t.Fatalf("decode standings response: %v", err)
	}
	if len(standings.Data) != 2 {
		t.Fatalf("expected two standings rows, got %d", len(standings.Data))
	}
	if standings.Data[0].Rank != 1 || standings.Data[0].Points < standings.Data[1].Points {
		t.Fatalf("expected descending ranked rows, got %+v", standings.Data)
	}
}

func TestUnknownArenaReturnsNotFound(t *testing.T) {
	srv, _ := newTestServer()
	rec := doJSON(t, srv.Mux(), http.MethodGet, "/api/v1/arenas/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
