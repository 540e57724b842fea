package store

import (
	"context"
	"sync"
	"time"

	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory tracks per-citizen last-earn timestamps.
type InMemory struct {
	mu       sync.RWMutex
	lastEarn map[id.CitizenID]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{lastEarn: make(map[id.CitizenID]time.Time)}
}

// LastEarn returns the citizen's last successful payout time, or
// sentinel.ErrNotFound if they never earned.
func (s *InMemory) LastEarn(_ context.Context, citizenID id.CitizenID) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.lastEarn[citizenID]
	if !ok {
		return time.Time{}, sentinel.ErrNotFound
	}
	return at, nil
}

// SetLastEarn records a successful payout time.
func (s *InMemory) SetLastEarn(_ context.Context, citizenID id.CitizenID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastEarn[citizenID] = at
	return nil
}
