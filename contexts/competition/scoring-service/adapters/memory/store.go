package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"coliseum/contexts/competition/scoring-service/domain/entities"
	domainerrors "coliseum/contexts/competition/scoring-service/domain/errors"
	"coliseum/contexts/competition/scoring-service/ports"

	"github.com/google/uuid"
)

type dedupKey struct {
	projectID    string
	sourcePostID string
}

type standingKey struct {
	arenaID   string
	creatorID string
}

// Store backs every scoring port in memory for tests: creators,
// contributions with the dedup key, adjustments, standings and the ranking
// cache, plus Clock, IDGenerator and AuditRecorder.
type Store struct {
	mu            sync.Mutex
	creators      map[string]entities.CreatorProfile
	byHandle      map[string]string
	contributions map[dedupKey]entities.Contribution
	adjustments   []entities.PointAdjustment
	standings     map[standingKey]entities.Standing
	cache         map[string][]entities.Standing
	audits        []ports.AuditEntry
}

func NewStore() *Store {
	return &Store{
		creators:      make(map[string]entities.CreatorProfile),
		byHandle:      make(map[string]string),
		contributions: make(map[dedupKey]entities.Contribution),
		standings:     make(map[standingKey]entities.Standing),
		cache:         make(map[string][]entities.Standing),
	}
}

func (s *Store) FindByHandle(_ context.Context, handle string) (entities.CreatorProfile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creatorID, ok := s.byHandle[handle]
	if !ok {
		return entities.CreatorProfile{}, false, nil
	}
	return s.creators[creatorID], true, nil
}

func (s *Store) CreateCreator(_ context.Context, creator entities.CreatorProfile) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byHandle[creator.Handle]; exists {
		return false, nil
	}
	s.creators[creator.CreatorID] = creator
	s.byHandle[creator.Handle] = creator.CreatorID
	return true, nil
}

func (s *Store) UpdateProfile(_ context.Context, creatorID string, displayName string, avatarURL string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator, ok := s.creators[creatorID]
	if !ok {
		return domainerrors.ErrCreatorNotFound
	}
	if displayName != "" {
		creator.DisplayName = displayName
	}
	if avatarURL != "" {
		creator.AvatarURL = avatarURL
	}
	creator.UpdatedAt = now.UTC()
	s.creators[creatorID] = creator
	return nil
}

func (s *Store) GetCreator(_ context.Context, creatorID string) (entities.CreatorProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator, ok := s.creators[creatorID]
	if !ok {
		return entities.CreatorProfile{}, domainerrors.ErrCreatorNotFound
	}
	return creator, nil
}

// SetReferrer is a test helper; the runtime path writes referrers through
// the referral service.
func (s *Store) SetReferrer(creatorID string, referrerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	creator := s.creators[creatorID]
	creator.ReferrerID = referrerID
	s.creators[creatorID] = creator
}

func (s *Store) InsertIgnoreDuplicate(_ context.Context, contribution entities.Contribution) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := dedupKey{projectID: contribution.ProjectID, sourcePostID: contribution.SourcePostID}
	if _, exists := s.contributions[key]; exists {
		return false, nil
	}
	s.contributions[key] = contribution
	return true, nil
}

func (s *Store) SumPoints(_ context.Context, arenaID string, creatorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, contribution := range s.contributions {
		if contribution.ArenaID == arenaID && contribution.CreatorID == creatorID {
			total += contribution.PointsAwarded
		}
	}
	return total, nil
}

func (s *Store) ListCreatorIDs(_ context.Context, arenaID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[string]struct{})
	for _, contribution := range s.contributions {
		if contribution.ArenaID == arenaID {
			set[contribution.CreatorID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) ListContributions(_ context.Context, arenaID string, limit int) ([]entities.Contribution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Contribution, 0)
	for _, contribution := range s.contributions {
		if contribution.ArenaID == arenaID {
			items = append(items, contribution)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].OccurredAt.After(items[j].OccurredAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendAdjustment(_ context.Context, adjustment entities.PointAdjustment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adjustments = append(s.adjustments, adjustment)
	return nil
}

func (s *Store) SumDeltas(_ context.Context, arenaID string, creatorID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, adjustment := range s.adjustments {
		if adjustment.ArenaID == arenaID && adjustment.CreatorID == creatorID {
			total += adjustment.Delta
		}
	}
	return total, nil
}

// adjustmentCreatorIDs is split out because ContributionRepository and
// AdjustmentRepository both declare ListCreatorIDs; Adjustments exposes the
// adjustment-side view through a wrapper.
func (s *Store) adjustmentCreatorIDs(arenaID string) []string {
	set := make(map[string]struct{})
	for _, adjustment := range s.adjustments {
		if adjustment.ArenaID == arenaID {
			set[adjustment.CreatorID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AdjustmentView adapts the store to ports.AdjustmentRepository without the
// method-set collision on ListCreatorIDs.
type AdjustmentView struct {
	Store *Store
}

func (v AdjustmentView) AppendAdjustment(ctx context.Context, adjustment entities.PointAdjustment) error {
	return v.Store.AppendAdjustment(ctx, adjustment)
}

func (v AdjustmentView) SumDeltas(ctx context.Context, arenaID string, creatorID string) (int64, error) {
	return v.Store.SumDeltas(ctx, arenaID, creatorID)
}

func (v AdjustmentView) ListCreatorIDs(_ context.Context, arenaID string) ([]string, error) {
	v.Store.mu.Lock()
	defer v.Store.mu.Unlock()
	return v.Store.adjustmentCreatorIDs(arenaID), nil
}

func (s *Store) GetStanding(_ context.Context, arenaID string, creatorID string) (entities.Standing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	standing, ok := s.standings[standingKey{arenaID: arenaID, creatorID: creatorID}]
	return standing, ok, nil
}

func (s *Store) UpsertStanding(_ context.Context, standing entities.Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.standings[standingKey{arenaID: standing.ArenaID, creatorID: standing.CreatorID}] = standing
	return nil
}

func (s *Store) ListStandings(_ context.Context, arenaID string) ([]entities.Standing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.Standing, 0)
	for key, standing := range s.standings {
		if key.arenaID == arenaID {
			items = append(items, standing)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Points != items[j].Points {
			return items[i].Points > items[j].Points
		}
		return items[i].CreatorID < items[j].CreatorID
	})
	return items, nil
}

func (s *Store) ReplaceArena(_ context.Context, arenaID string, standings []entities.Standing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache[arenaID] = append([]entities.Standing(nil), standings...)
	return nil
}

func (s *Store) GetArena(_ context.Context, arenaID string) ([]entities.Standing, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cached, ok := s.cache[arenaID]
	if !ok {
		return nil, false, nil
	}
	return append([]entities.Standing(nil), cached...), true, nil
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
