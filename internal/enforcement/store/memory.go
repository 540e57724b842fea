package store

import (
	"context"
	"sort"
	"sync"

	"civica/internal/enforcement/models"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
)

// InMemory keeps enforcement records in maps for tests and single-node
// deployments.
type InMemory struct {
	mu     sync.RWMutex
	wanted map[id.WantedID]*models.WantedRecord
	fines  map[id.FineID]*models.Fine
}

func NewInMemory() *InMemory {
	return &InMemory{
		wanted: make(map[id.WantedID]*models.WantedRecord),
		fines:  make(map[id.FineID]*models.Fine),
	}
}

// CreateWanted inserts an active record, enforcing at most one active record
// per citizen. Returns sentinel.ErrConflict on a clash.
func (s *InMemory) CreateWanted(_ context.Context, record *models.WantedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range s.wanted {
		if w.CitizenID == record.CitizenID && !w.Cleared {
			return sentinel.ErrConflict
		}
	}
	copied := *record
	s.wanted[record.ID] = &copied
	return nil
}

// FindActiveWanted returns the citizen's active record, or
// sentinel.ErrNotFound when none exists.
func (s *InMemory) FindActiveWanted(_ context.Context, citizenID id.CitizenID) (*models.WantedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, w := range s.wanted {
		if w.CitizenID == citizenID && !w.Cleared {
			copied := *w
			return &copied, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// ExecuteWanted runs validate-then-mutate on one record while holding the
// store lock.
func (s *InMemory) ExecuteWanted(
	_ context.Context,
	wantedID id.WantedID,
	validate func(*models.WantedRecord) error,
	mutate func(*models.WantedRecord),
) (*models.WantedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.wanted[wantedID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(record); err != nil {
		return nil, err
	}
	mutate(record)
	copied := *record
	return &copied, nil
}

// ListWantedByCitizen returns the citizen's wanted records, oldest first.
func (s *InMemory) ListWantedByCitizen(_ context.Context, citizenID id.CitizenID) ([]*models.WantedRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*models.WantedRecord, 0)
	for _, w := range s.wanted {
		if w.CitizenID == citizenID {
			copied := *w
			records = append(records, &copied)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].IssuedAt.Equal(records[j].IssuedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].IssuedAt.Before(records[j].IssuedAt)
	})
	return records, nil
}

func (s *InMemory) CreateFine(_ context.Context, fine *models.Fine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fines[fine.ID]; ok {
		return sentinel.ErrConflict
	}
	copied := *fine
	s.fines[fine.ID] = &copied
	return nil
}

func (s *InMemory) FindFine(_ context.Context, fineID id.FineID) (*models.Fine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fine, ok := s.fines[fineID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *fine
	return &copied, nil
}

// ExecuteFine runs validate-then-mutate on one fine while holding the store
// lock.
func (s *InMemory) ExecuteFine(
	_ context.Context,
	fineID id.FineID,
	validate func(*models.Fine) error,
	mutate func(*models.Fine),
) (*models.Fine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fine, ok := s.fines[fineID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if err := validate(fine); err != nil {
		return nil, err
	}
	mutate(fine)
	copied := *fine
	return &copied, nil
}

// ListFinesByCitizen returns the citizen's fines, oldest first.
func (s *InMemory) ListFinesByCitizen(_ context.Context, citizenID id.CitizenID) ([]*models.Fine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fines := make([]*models.Fine, 0)
	for _, f := range s.fines {
		if f.CitizenID == citizenID {
			copied := *f
			fines = append(fines, &copied)
		}
	}
	sort.Slice(fines, func(i, j int) bool {
		if fines[i].IssuedAt.Equal(fines[j].IssuedAt) {
			return fines[i].ID.String() < fines[j].ID.String()
		}
		return fines[i].IssuedAt.Before(fines[j].IssuedAt)
	})
	return fines, nil
}

// CountOpenFines reports how many fines are still issued.
func (s *InMemory) CountOpenFines(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, f := range s.fines {
		if f.Status == models.FineIssued {
			count++
		}
	}
	return count, nil
}
