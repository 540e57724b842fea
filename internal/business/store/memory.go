package store

import (
	"context"
	"sort"
	"sync"

	"civica/internal/business/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory keeps businesses in a map for tests and single-node deployments.
type InMemory struct {
	mu         sync.RWMutex
	businesses map[id.BusinessID]*models.Business
}

func NewInMemory() *InMemory {
	return &InMemory{businesses: make(map[id.BusinessID]*models.Business)}
}

func (s *InMemory) Create(_ context.Context, business *models.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.businesses[business.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *business
	s.businesses[business.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, businessID id.BusinessID) (*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	business, ok := s.businesses[businessID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *business
	return &copied, nil
}

// Execute runs validate-then-mutate while holding the store lock.
func (s *InMemory) Execute(
	_ context.Context,
	businessID id.BusinessID,
	validate func(*models.Business) error,
	mutate func(*models.Business),
) (*models.Business, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	business, ok := s.businesses[businessID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(business); err != nil {
		return nil, err
	}
	mutate(business)
	copied := *business
	return &copied, nil
}

// ListByOwner returns the citizen's businesses in creation order.
func (s *InMemory) ListByOwner(_ context.Context, ownerID id.CitizenID) ([]*models.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := make([]*models.Business, 0)
	for _, b := range s.businesses {
		if b.IsOwnedBy(ownerID) {
			copied := *b
			owned = append(owned, &copied)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if owned[i].CreatedAt.Equal(owned[j].CreatedAt) {
			return owned[i].ID.String() < owned[j].ID.String()
		}
		return owned[i].CreatedAt.Before(owned[j].CreatedAt)
	})
	return owned, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.businesses), nil
}
