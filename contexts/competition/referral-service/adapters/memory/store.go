package memory

import (
	"context"
	"sync"
	"time"

	"coliseum/contexts/competition/referral-service/domain/entities"
	domainerrors "coliseum/contexts/competition/referral-service/domain/errors"
	"coliseum/contexts/competition/referral-service/ports"

	"github.com/google/uuid"
)

type pairKey struct {
	referrerID string
	referredID string
}

type rewardKey struct {
	linkID  string
	arenaID string
	batchID string
}

type watermarkKey struct {
	linkID  string
	arenaID string
}

// Store backs every referral port in memory for tests.
type Store struct {
	mu         sync.Mutex
	links      map[string]entities.ReferralLink
	byPair     map[pairKey]string
	rewards    map[rewardKey]entities.ReferralReward
	watermarks map[watermarkKey]int64
	audits     []ports.AuditEntry
}

func NewStore() *Store {
	return &Store{
		links:      make(map[string]entities.ReferralLink),
		byPair:     make(map[pairKey]string),
		rewards:    make(map[rewardKey]entities.ReferralReward),
		watermarks: make(map[watermarkKey]int64),
	}
}

func (s *Store) CreateLink(_ context.Context, link entities.ReferralLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := pairKey{referrerID: link.ReferrerID, referredID: link.ReferredID}
	if _, exists := s.byPair[pair]; exists {
		return domainerrors.ErrDuplicateReferralLink
	}
	s.links[link.LinkID] = link
	s.byPair[pair] = link.LinkID
	return nil
}

func (s *Store) GetLink(_ context.Context, linkID string) (entities.ReferralLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[linkID]
	if !ok {
		return entities.ReferralLink{}, domainerrors.ErrReferralLinkNotFound
	}
	return link, nil
}

func (s *Store) UpdateLinkStatus(_ context.Context, linkID string, status entities.LinkStatus, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[linkID]
	if !ok {
		return domainerrors.ErrReferralLinkNotFound
	}
	link.Status = status
	link.UpdatedAt = updatedAt
	s.links[linkID] = link
	return nil
}

func (s *Store) FindLatestRewardable(_ context.Context, referredID string) (entities.ReferralLink, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best entities.ReferralLink
	found := false
	for _, link := range s.links {
		if link.ReferredID != referredID || !link.Rewardable() {
			continue
		}
		if !found || link.UpdatedAt.After(best.UpdatedAt) {
			best = link
			found = true
		}
	}
	return best, found, nil
}

func (s *Store) InsertRewardOnce(_ context.Context, reward entities.ReferralReward) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := rewardKey{linkID: reward.ReferralLinkID, arenaID: reward.ArenaID, batchID: reward.BatchID}
	if _, exists := s.rewards[key]; exists {
		return false, nil
	}
	s.rewards[key] = reward
	return true, nil
}

func (s *Store) ListByReferrer(_ context.Context, referrerID string) ([]entities.ReferralReward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.ReferralReward, 0)
	for _, reward := range s.rewards {
		link, ok := s.links[reward.ReferralLinkID]
		if ok && link.ReferrerID == referrerID {
			items = append(items, reward)
		}
	}
	return items, nil
}

func (s *Store) ListByArena(_ context.Context, arenaID string) ([]entities.ReferralReward, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]entities.ReferralReward, 0)
	for _, reward := range s.rewards {
		if reward.ArenaID == arenaID {
			items = append(items, reward)
		}
	}
	return items, nil
}

func (s *Store) GetWatermark(_ context.Context, linkID string, arenaID string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	points, ok := s.watermarks[watermarkKey{linkID: linkID, arenaID: arenaID}]
	return points, ok, nil
}

func (s *Store) RaiseWatermark(_ context.Context, linkID string, arenaID string, points int64, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := watermarkKey{linkID: linkID, arenaID: arenaID}
	if current, ok := s.watermarks[key]; !ok || points > current {
		s.watermarks[key] = points
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
