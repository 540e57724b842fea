package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"civica/internal/property/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory keeps properties in a map for tests and single-node deployments.
type InMemory struct {
	mu         sync.RWMutex
	properties map[id.PropertyID]*models.Property
}

func NewInMemory() *InMemory {
	return &InMemory{properties: make(map[id.PropertyID]*models.Property)}
}

func (s *InMemory) Create(_ context.Context, property *models.Property) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.properties[property.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *property
	s.properties[property.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, propertyID id.PropertyID) (*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *property
	return &copied, nil
}

// Execute runs validate-then-mutate while holding the store lock.
func (s *InMemory) Execute(
	_ context.Context,
	propertyID id.PropertyID,
	validate func(*models.Property) error,
	mutate func(*models.Property),
) (*models.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	property, ok := s.properties[propertyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(property); err != nil {
		return nil, err
	}
	mutate(property)
	copied := *property
	return &copied, nil
}

// ListByOccupant returns properties the citizen owns or rents.
func (s *InMemory) ListByOccupant(_ context.Context, citizenID id.CitizenID) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	occupied := make([]*models.Property, 0)
	for _, p := range s.properties {
		if p.IsOccupiedBy(citizenID) {
			copied := *p
			occupied = append(occupied, &copied)
		}
	}
	sortProperties(occupied)
	return occupied, nil
}

// ListExpiredRentals returns rentals whose expiry has passed as of now.
func (s *InMemory) ListExpiredRentals(_ context.Context, now time.Time) ([]*models.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expired := make([]*models.Property, 0)
	for _, p := range s.properties {
		if p.RentalExpired(now) {
			copied := *p
			expired = append(expired, &copied)
		}
	}
	sortProperties(expired)
	return expired, nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.properties), nil
}

func sortProperties(properties []*models.Property) {
	sort.Slice(properties, func(i, j int) bool {
		if properties[i].CreatedAt.Equal(properties[j].CreatedAt) {
			return properties[i].ID.String() < properties[j].ID.String()
		}
		return properties[i].CreatedAt.Before(properties[j].CreatedAt)
	})
}
