package storage

import (
	"context"
	"sync"
	"time"

	"github.com/example/ride-compare/internal/models"
)

// MemoryStore keeps everything in process. One mutex serializes the
// log append and the profile counter bump, so concurrent comparisons
// for the same user cannot lose an increment.
type MemoryStore struct {
	mu          sync.RWMutex
	catalog     []models.RideOffer
	byID        map[string]models.RideOffer
	comparisons []models.ComparisonRequest
	profiles    map[string]models.UserProfile
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		byID:     make(map[string]models.RideOffer),
		profiles: make(map[string]models.UserProfile),
	}
	s.catalog = SeedCatalog()
	for _, r := range s.catalog {
		s.byID[r.ID] = r
	}
	return s
}

func (s *MemoryStore) ListRides(ctx context.Context) ([]models.RideOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.RideOffer, len(s.catalog))
	copy(out, s.catalog)
	return out, nil
}

func (s *MemoryStore) GetRide(ctx context.Context, id string) (models.RideOffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byID[id]
	if !ok {
		return models.RideOffer{}, ErrNotFound
	}
	return r, nil
}

func (s *MemoryStore) RecordComparison(ctx context.Context, req *models.ComparisonRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comparisons = append(s.comparisons, *req)

	p, ok := s.profiles[req.UserID]
	if !ok {
		p = newProfile(req.UserID, req.CreatedAt)
	}
	p.TotalRideCount++
	p.TotalSavings += req.SavingsAmount
	p.TotalMinutesSaved += req.MinutesSaved
	s.profiles[req.UserID] = p
	return nil
}

func (s *MemoryStore) GetProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = newProfile(userID, time.Now())
		s.profiles[userID] = p
	}
	return p, nil
}

func (s *MemoryStore) SetPaymentMethod(ctx context.Context, userID, method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.profiles[userID]
	if !ok {
		p = newProfile(userID, time.Now())
	}
	p.PreferredPaymentMethod = method
	s.profiles[userID] = p
	return nil
}

func (s *MemoryStore) ListComparisons(ctx context.Context, userID string, limit int) ([]models.ComparisonRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ComparisonRequest, 0)
	// log is append-ordered; walk backwards for most-recent-first
	for i := len(s.comparisons) - 1; i >= 0; i-- {
		if s.comparisons[i].UserID != userID {
			continue
		}
		out = append(out, s.comparisons[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}
