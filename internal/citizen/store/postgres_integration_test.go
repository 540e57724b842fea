//go:build integration

package store_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civica/internal/citizen/models"
	"civica/internal/citizen/store"
	id "civica/pkg/domain"
	"civica/pkg/platform/sentinel"
	"civica/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	_ = s.postgres.DB.Close()
	_ = s.postgres.Container.Terminate(context.Background())
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func newTestCitizen(account string) *models.Citizen {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Citizen{
		ID:                id.CitizenID(uuid.New()),
		ExternalAccountID: account,
		DisplayName:       "Test Citizen",
		Age:               30,
		Job:               id.JobUnemployed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	citizen := newTestCitizen("acct-" + uuid.NewString())

	s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, citizen))

	byID, err := s.store.FindByID(ctx, citizen.ID)
	s.Require().NoError(err)
	s.Equal(citizen.DisplayName, byID.DisplayName)
	s.Equal(citizen.ExternalAccountID, byID.ExternalAccountID)

	byAccount, err := s.store.FindByExternalAccount(ctx, citizen.ExternalAccountID)
	s.Require().NoError(err)
	s.Equal(citizen.ID, byAccount.ID)
}

func (s *PostgresStoreSuite) TestDelete() {
	ctx := context.Background()
	citizen := newTestCitizen("acct-" + uuid.NewString())
	s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, citizen))

	s.Require().NoError(s.store.Delete(ctx, citizen.ID))

	_, err := s.store.FindByID(ctx, citizen.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)

	// The external account is free for a fresh registration.
	replacement := newTestCitizen(citizen.ExternalAccountID)
	s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, replacement))

	s.ErrorIs(s.store.Delete(ctx, id.CitizenID(uuid.New())), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestFindMissingReturnsNotFound() {
	_, err := s.store.FindByID(context.Background(), id.CitizenID(uuid.New()))
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// TestConcurrentAccountClaim verifies that concurrent registrations for the
// same external account result in exactly one citizen row.
func (s *PostgresStoreSuite) TestConcurrentAccountClaim() {
	ctx := context.Background()
	account := "acct-" + uuid.NewString()
	const goroutines = 50

	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.CreateIfAccountAvailable(ctx, newTestCitizen(account))
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrAlreadyUsed) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one registration should succeed")
	s.Equal(int32(goroutines-1), conflictCount.Load())

	count, err := s.store.Count(ctx)
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *PostgresStoreSuite) TestExecutePersistsMutation() {
	ctx := context.Background()
	citizen := newTestCitizen("acct-" + uuid.NewString())
	s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, citizen))

	updated, err := s.store.Execute(ctx, citizen.ID,
		func(*models.Citizen) error { return nil },
		func(c *models.Citizen) {
			c.Job = id.JobTaxi
			c.UpdatedAt = time.Now().UTC()
		},
	)
	s.Require().NoError(err)
	s.Equal(id.JobTaxi, updated.Job)

	found, err := s.store.FindByID(ctx, citizen.ID)
	s.Require().NoError(err)
	s.Equal(id.JobTaxi, found.Job)
}

func (s *PostgresStoreSuite) TestExecuteValidateFailureLeavesRowUntouched() {
	ctx := context.Background()
	citizen := newTestCitizen("acct-" + uuid.NewString())
	s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, citizen))

	wantErr := errors.New("rejected")
	_, err := s.store.Execute(ctx, citizen.ID,
		func(*models.Citizen) error { return wantErr },
		func(c *models.Citizen) { c.Archived = true },
	)
	s.ErrorIs(err, wantErr)

	found, err := s.store.FindByID(ctx, citizen.ID)
	s.Require().NoError(err)
	s.False(found.Archived)
}

func (s *PostgresStoreSuite) TestListPagination() {
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		s.Require().NoError(s.store.CreateIfAccountAvailable(ctx, newTestCitizen("acct-"+uuid.NewString())))
	}

	page, err := s.store.List(ctx, 0, 3)
	s.Require().NoError(err)
	s.Len(page, 3)

	rest, err := s.store.List(ctx, 3, 3)
	s.Require().NoError(err)
	s.Len(rest, 2)
}
