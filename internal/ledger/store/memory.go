package store

import (
	"context"
	"sync"

	"civica/internal/ledger/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory keeps accounts in a map for tests and single-node deployments. It
// intentionally favors clarity over performance.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.CitizenID]*models.Account
}

func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.CitizenID]*models.Account)}
}

// Create opens an account. Returns sentinel.ErrConflict if one already exists.
func (s *InMemory) Create(_ context.Context, account *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[account.CitizenID]; ok {
		return sentinel.ErrConflict
	}
	copied := *account
	s.accounts[account.CitizenID] = &copied
	return nil
}

// FindByCitizen returns a copy of the account.
func (s *InMemory) FindByCitizen(_ context.Context, citizenID id.CitizenID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

// Execute runs validate-then-mutate while holding the store lock, so the
// read-modify-write is atomic. The mutation is applied only when validate
// returns nil.
func (s *InMemory) Execute(
	_ context.Context,
	citizenID id.CitizenID,
	validate func(*models.Account) error,
	mutate func(*models.Account),
) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[citizenID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(account); err != nil {
		return nil, err
	}
	mutate(account)
	copied := *account
	return &copied, nil
}
