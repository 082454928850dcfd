package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"coliseum/contexts/access-governance/access-request-service/domain/entities"
	domainerrors "coliseum/contexts/access-governance/access-request-service/domain/errors"
	"coliseum/contexts/access-governance/access-request-service/ports"
	"coliseum/internal/shared/events"
	"coliseum/internal/shared/outbox"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store backs the access-governance ports in memory for tests: requests with
// the single-pending rule, feature flags, project projections, the outbox,
// audit capture, Clock and IDGenerator. Atomically snapshots the mutable
// tables and restores them when fn fails.
type Store struct {
	mu       sync.Mutex
	requests map[string]entities.AccessRequest
	flags    map[string]entities.ProjectFeatureFlags
	projects map[string]entities.ProjectProjection
	outbox   []outbox.Message
	audits   []ports.AuditEntry
}

func NewStore() *Store {
	return &Store{
		requests: make(map[string]entities.AccessRequest),
		flags:    make(map[string]entities.ProjectFeatureFlags),
		projects: make(map[string]entities.ProjectProjection),
	}
}

func (s *Store) CreateRequest(_ context.Context, request entities.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.ProjectID == request.ProjectID && existing.Status == entities.RequestStatusPending {
			return domainerrors.ErrPendingRequestExists
		}
	}
	s.requests[request.RequestID] = request
	return nil
}

func (s *Store) GetRequest(_ context.Context, requestID string) (entities.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return entities.AccessRequest{}, domainerrors.ErrRequestNotFound
	}
	return request, nil
}

func (s *Store) GetRequestForUpdate(ctx context.Context, requestID string) (entities.AccessRequest, error) {
	return s.GetRequest(ctx, requestID)
}

func (s *Store) UpdateRequest(_ context.Context, request entities.AccessRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[request.RequestID]; !ok {
		return domainerrors.ErrRequestNotFound
	}
	s.requests[request.RequestID] = request
	return nil
}

func (s *Store) ListByProject(_ context.Context, projectID string) ([]entities.AccessRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.AccessRequest, 0)
	for _, request := range s.requests {
		if request.ProjectID == projectID {
			items = append(items, request)
		}
	}
	return items, nil
}

func (s *Store) UpsertFlags(_ context.Context, flags entities.ProjectFeatureFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[flags.ProjectID] = flags
	return nil
}

func (s *Store) GetFlags(_ context.Context, projectID string) (entities.ProjectFeatureFlags, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flags, ok := s.flags[projectID]
	return flags, ok, nil
}

func (s *Store) GetProject(_ context.Context, projectID string) (entities.ProjectProjection, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[projectID]
	return project, ok, nil
}

func (s *Store) MarkEligible(_ context.Context, projectID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	project := s.projects[projectID]
	project.ProjectID = projectID
	project.IsLeaderboardEligible = true
	project.UpdatedAt = at
	s.projects[projectID] = project
	return nil
}

func (s *Store) Enqueue(_ context.Context, eventType string, entityType string, entityID string, payload any, now time.Time) error {
	envelope := events.Envelope{
		EventID:        uuid.NewString(),
		EventType:      eventType,
		SourceService:  "access-request-service",
		OccurredAtUTC:  now.UTC(),
		EntityType:     entityType,
		EntityID:       entityID,
		PayloadVersion: 1,
		Payload:        payload,
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox = append(s.outbox, outbox.Message{
		ID:        envelope.EventID,
		EventType: eventType,
		Payload:   raw,
		Status:    "pending",
	})
	return nil
}

func (s *Store) ListPending(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]outbox.Message, 0)
	for _, message := range s.outbox {
		if message.Status == "pending" {
			items = append(items, message)
			if len(items) == limit {
				break
			}
		}
	}
	return items, nil
}

func (s *Store) MarkPublished(_ context.Context, messageID string) error {
	return s.setOutboxStatus(messageID, "published", false)
}

func (s *Store) MarkFailed(_ context.Context, messageID string) error {
	return s.setOutboxStatus(messageID, "failed", true)
}

func (s *Store) setOutboxStatus(messageID string, status string, bumpRetry bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, message := range s.outbox {
		if message.ID == messageID {
			s.outbox[i].Status = status
			if bumpRetry {
				s.outbox[i].RetryCount++
			}
			return nil
		}
	}
	return nil
}

// OutboxMessages returns every outbox row; test helper.
func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.Message(nil), s.outbox...)
}

func (s *Store) Atomically(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	requests := make(map[string]entities.AccessRequest, len(s.requests))
	for id, request := range s.requests {
		requests[id] = request
	}
	flags := make(map[string]entities.ProjectFeatureFlags, len(s.flags))
	for id, f := range s.flags {
		flags[id] = f
	}
	projects := make(map[string]entities.ProjectProjection, len(s.projects))
	for id, project := range s.projects {
		projects[id] = project
	}
	outboxRows := append([]outbox.Message(nil), s.outbox...)
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.requests = requests
		s.flags = flags
		s.projects = projects
		s.outbox = outboxRows
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) RecordAudit(_ context.Context, entry ports.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audits = append(s.audits, entry)
	return nil
}

// Audits returns recorded audit entries; test helper.
func (s *Store) Audits() []ports.AuditEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.AuditEntry(nil), s.audits...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

// BillingStub records billing calls and fails on demand.
type BillingStub struct {
	mu       sync.Mutex
	FailWith error
	records  []string
}

func (b *BillingStub) CreateBillingRecord(_ context.Context, requestID string, _ string, _ decimal.Decimal, _ decimal.Decimal) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.FailWith != nil {
		return "", b.FailWith
	}
	billingID := "billing-" + requestID
	b.records = append(b.records, billingID)
	return billingID, nil
}

// Records returns created billing ids; test helper.
func (b *BillingStub) Records() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.records...)
}
