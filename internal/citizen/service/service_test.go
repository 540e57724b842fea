package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civica/internal/citizen/models"
	citizenstore "civica/internal/citizen/store"
	ledgerservice "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/requestcontext"
)

type CitizenSuite struct {
	suite.Suite
	service *Service
	ledger  *ledgerservice.Service
	ctx     context.Context
}

func TestCitizenSuite(t *testing.T) {
	suite.Run(t, new(CitizenSuite))
}

func (s *CitizenSuite) SetupTest() {
	locks := keylock.New(200 * time.Millisecond)
	s.ledger = ledgerservice.New(ledgerstore.NewInMemory(), locks)
	s.service = New(citizenstore.NewInMemory(), s.ledger, locks, models.AgeBounds{Min: 1, Max: 120})
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *CitizenSuite) TestRegister() {
	s.Run("creates citizen with zero balance and no job", func() {
		citizen, err := s.service.Register(s.ctx, "acct-1", "Alice", 30)
		s.Require().NoError(err)
		s.Equal("Alice", citizen.DisplayName)
		s.Equal(id.JobUnemployed, citizen.Job)
		s.False(citizen.Archived)

		account, err := s.ledger.Balance(s.ctx, citizen.ID)
		s.Require().NoError(err)
		s.Equal(int64(0), account.Cash)
	})

	s.Run("rejects duplicate external account", func() {
		_, err := s.service.Register(s.ctx, "acct-dup", "Alice", 30)
		s.Require().NoError(err)

		_, err = s.service.Register(s.ctx, "acct-dup", "Impostor", 25)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeAlreadyRegistered))
	})

	s.Run("rejects out-of-range age", func() {
		for _, age := range []int{0, -1, 121} {
			_, err := s.service.Register(s.ctx, "acct-age", "Alice", age)
			s.Require().Error(err)
			s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
		}
	})

	s.Run("rejects blank display name", func() {
		_, err := s.service.Register(s.ctx, "acct-blank", "   ", 30)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
	})
}

func (s *CitizenSuite) TestLookup() {
	s.Run("finds citizen by external account", func() {
		registered, err := s.service.Register(s.ctx, "acct-2", "Bob", 40)
		s.Require().NoError(err)

		found, err := s.service.Lookup(s.ctx, "acct-2")
		s.Require().NoError(err)
		s.Equal(registered.ID, found.ID)
	})

	s.Run("unknown account fails", func() {
		_, err := s.service.Lookup(s.ctx, "acct-missing")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
	})
}

func (s *CitizenSuite) TestFieldUpdates() {
	citizen, err := s.service.Register(s.ctx, "acct-3", "Carol", 28)
	s.Require().NoError(err)

	s.Run("rename", func() {
		updated, err := s.service.Rename(s.ctx, citizen.ID, "Caroline")
		s.Require().NoError(err)
		s.Equal("Caroline", updated.DisplayName)
	})

	s.Run("set age within bounds", func() {
		updated, err := s.service.SetAge(s.ctx, citizen.ID, 29)
		s.Require().NoError(err)
		s.Equal(29, updated.Age)
	})

	s.Run("set age out of bounds", func() {
		_, err := s.service.SetAge(s.ctx, citizen.ID, 0)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
	})

	s.Run("unknown citizen", func() {
		_, err := s.service.Rename(s.ctx, id.CitizenID(uuid.New()), "Nobody")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
	})
}

type recordingReleaser struct {
	released []id.CitizenID
	failures int
}

func (r *recordingReleaser) ReleaseCitizen(_ context.Context, citizenID id.CitizenID) error {
	if r.failures > 0 {
		r.failures--
		return errors.New("registry offline")
	}
	r.released = append(r.released, citizenID)
	return nil
}

// flakyOpener fails a set number of OpenAccount calls before delegating to the
// real ledger.
type flakyOpener struct {
	ledger   *ledgerservice.Service
	failures int
}

func (o *flakyOpener) OpenAccount(ctx context.Context, citizenID id.CitizenID) error {
	if o.failures > 0 {
		o.failures--
		return errors.New("account store offline")
	}
	return o.ledger.OpenAccount(ctx, citizenID)
}

func (s *CitizenSuite) TestArchive() {
	s.Run("denied without authority capability", func() {
		citizen, err := s.service.Register(s.ctx, "acct-4", "Dave", 35)
		s.Require().NoError(err)

		err = s.service.Archive(s.ctx, citizen.ID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("archives and releases holdings", func() {
		releaser := &recordingReleaser{}
		locks := keylock.New(200 * time.Millisecond)
		ledger := ledgerservice.New(ledgerstore.NewInMemory(), locks)
		svc := New(citizenstore.NewInMemory(), ledger, locks,
			models.AgeBounds{Min: 1, Max: 120}, WithReleasers(releaser))

		citizen, err := svc.Register(s.ctx, "acct-5", "Eve", 32)
		s.Require().NoError(err)

		ctx := requestcontext.WithActor(s.ctx, "admin-1", true)
		s.Require().NoError(svc.Archive(ctx, citizen.ID))
		s.Equal([]id.CitizenID{citizen.ID}, releaser.released)

		archived, err := svc.Get(ctx, citizen.ID)
		s.Require().NoError(err)
		s.True(archived.Archived)

		// Archived citizens reject further mutation.
		_, err = svc.Rename(ctx, citizen.ID, "Evelyn")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeArchived))
	})

	s.Run("failed holdings release is retryable", func() {
		releaser := &recordingReleaser{failures: 1}
		locks := keylock.New(200 * time.Millisecond)
		ledger := ledgerservice.New(ledgerstore.NewInMemory(), locks)
		svc := New(citizenstore.NewInMemory(), ledger, locks,
			models.AgeBounds{Min: 1, Max: 120}, WithReleasers(releaser))

		citizen, err := svc.Register(s.ctx, "acct-6", "Frank", 41)
		s.Require().NoError(err)

		ctx := requestcontext.WithActor(s.ctx, "admin-1", true)
		err = svc.Archive(ctx, citizen.ID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInternal))
		s.Empty(releaser.released)

		// The retry must reach the releasers even though the citizen is
		// already archived.
		s.Require().NoError(svc.Archive(ctx, citizen.ID))
		s.Equal([]id.CitizenID{citizen.ID}, releaser.released)

		archived, err := svc.Get(ctx, citizen.ID)
		s.Require().NoError(err)
		s.True(archived.Archived)
	})
}

func (s *CitizenSuite) TestRegisterRollsBackOnAccountFailure() {
	locks := keylock.New(200 * time.Millisecond)
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), locks)
	opener := &flakyOpener{ledger: ledger, failures: 1}
	svc := New(citizenstore.NewInMemory(), opener, locks, models.AgeBounds{Min: 1, Max: 120})

	_, err := svc.Register(s.ctx, "acct-7", "Grace", 27)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInternal))

	// The half-registered row is gone, so the account is free again.
	_, err = svc.Lookup(s.ctx, "acct-7")
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))

	citizen, err := svc.Register(s.ctx, "acct-7", "Grace", 27)
	s.Require().NoError(err)

	account, err := ledger.Balance(s.ctx, citizen.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), account.Cash)
}

func (s *CitizenSuite) TestList() {
	for _, name := range []string{"P1", "P2", "P3"} {
		_, err := s.service.Register(s.ctx, "acct-list-"+name, name, 30)
		s.Require().NoError(err)
	}

	s.Run("pages in registration order", func() {
		page, err := s.service.List(s.ctx, 0, 2)
		s.Require().NoError(err)
		s.Len(page, 2)

		rest, err := s.service.List(s.ctx, 2, 2)
		s.Require().NoError(err)
		s.Len(rest, 1)
	})

	s.Run("rejects negative paging", func() {
		_, err := s.service.List(s.ctx, -1, 10)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
	})
}
