package store

import (
	"context"
	"sort"
	"sync"

	"civica/internal/citizen/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory keeps citizens in maps for tests and single-node deployments. It
// intentionally favors clarity over performance.
type InMemory struct {
	mu        sync.RWMutex
	citizens  map[id.CitizenID]*models.Citizen
	byAccount map[string]id.CitizenID
}

func NewInMemory() *InMemory {
	return &InMemory{
		citizens:  make(map[id.CitizenID]*models.Citizen),
		byAccount: make(map[string]id.CitizenID),
	}
}

// CreateIfAccountAvailable inserts the citizen, enforcing external-account-id
// uniqueness. Returns sentinel.ErrAlreadyUsed on a clash.
func (s *InMemory) CreateIfAccountAvailable(_ context.Context, citizen *models.Citizen) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAccount[citizen.ExternalAccountID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	copied := *citizen
	s.citizens[citizen.ID] = &copied
	s.byAccount[citizen.ExternalAccountID] = citizen.ID
	return nil
}

// Delete removes a citizen row. Registration uses it to compensate when the
// ledger account cannot be opened; archived citizens are never deleted.
func (s *InMemory) Delete(_ context.Context, citizenID id.CitizenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	citizen, ok := s.citizens[citizenID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byAccount, citizen.ExternalAccountID)
	delete(s.citizens, citizenID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, citizenID id.CitizenID) (*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	citizen, ok := s.citizens[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *citizen
	return &copied, nil
}

func (s *InMemory) FindByExternalAccount(_ context.Context, externalAccountID string) (*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	citizenID, ok := s.byAccount[externalAccountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *s.citizens[citizenID]
	return &copied, nil
}

// Execute runs validate-then-mutate while holding the store lock.
func (s *InMemory) Execute(
	_ context.Context,
	citizenID id.CitizenID,
	validate func(*models.Citizen) error,
	mutate func(*models.Citizen),
) (*models.Citizen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	citizen, ok := s.citizens[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(citizen); err != nil {
		return nil, err
	}
	mutate(citizen)
	copied := *citizen
	return &copied, nil
}

// List returns a stable, creation-ordered page of citizens.
func (s *InMemory) List(_ context.Context, offset, limit int) ([]*models.Citizen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.Citizen, 0, len(s.citizens))
	for _, c := range s.citizens {
		copied := *c
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []*models.Citizen{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.citizens), nil
}
