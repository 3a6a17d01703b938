package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"land-auction-scraper/models"
	"land-auction-scraper/utils"
)

// MemoryStore keeps auctions in process memory. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	byID  map[string]*models.Auction
	byURL map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:  make(map[string]*models.Auction),
		byURL: make(map[string]string),
	}
}

func (s *MemoryStore) CreateAuction(_ context.Context, fields models.AuctionFields) (*models.Auction, error) {
	now := time.Now().UTC()
	a := &models.Auction{
		ID:               uuid.NewString(),
		AuctionFields:    fields,
		EnrichmentStatus: models.EnrichmentPending,
		Status:           models.AuctionActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[a.ID] = a
	if key := utils.NormalizeURL(fields.URL); key != "" {
		s.byURL[key] = a.ID
	}
	return a.Clone(), nil
}

func (s *MemoryStore) UpdateAuctionEnrichment(_ context.Context, id string, patch models.EnrichmentPatch) (*models.Auction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	patch.Apply(a)
	a.UpdatedAt = time.Now().UTC()
	return a.Clone(), nil
}

func (s *MemoryStore) GetAuctionByID(_ context.Context, id string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) FindAuctionByURL(_ context.Context, url string) (*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byURL[utils.NormalizeURL(url)]
	if !ok {
		return nil, nil
	}
	return s.byID[id].Clone(), nil
}

func (s *MemoryStore) ListAuctions(_ context.Context) ([]*models.Auction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Auction, 0, len(s.byID))
	for _, a := range s.byID {
		out = append(out, a.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
