package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	citizenmodels "civica/internal/citizen/models"
	citizenservice "civica/internal/citizen/service"
	citizenstore "civica/internal/citizen/store"
	"civica/internal/enforcement/models"
	enfstore "civica/internal/enforcement/store"
	ledgerservice "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/requestcontext"
)

type EnforcementSuite struct {
	suite.Suite
	service  *Service
	citizens *citizenservice.Service
	ledger   *ledgerservice.Service
	ctx      context.Context
	officer  context.Context
}

func TestEnforcementSuite(t *testing.T) {
	suite.Run(t, new(EnforcementSuite))
}

func (s *EnforcementSuite) SetupTest() {
	locks := keylock.New(200 * time.Millisecond)
	s.ledger = ledgerservice.New(ledgerstore.NewInMemory(), locks)
	s.citizens = citizenservice.New(citizenstore.NewInMemory(), s.ledger, locks,
		citizenmodels.AgeBounds{Min: 1, Max: 120})
	s.service = New(enfstore.NewInMemory(), s.citizens, s.ledger, locks)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.officer = requestcontext.WithActor(s.ctx, "officer-7", true)
}

func (s *EnforcementSuite) register(account, name string, funds int64) id.CitizenID {
	citizen, err := s.citizens.Register(s.ctx, account, name, 30)
	s.Require().NoError(err)
	if funds > 0 {
		s.Require().NoError(s.ledger.Credit(s.ctx, citizen.ID, funds))
	}
	return citizen.ID
}

func (s *EnforcementSuite) cash(citizenID id.CitizenID) int64 {
	account, err := s.ledger.Balance(s.ctx, citizenID)
	s.Require().NoError(err)
	return account.Cash
}

func (s *EnforcementSuite) TestWantedLifecycle() {
	citizenID := s.register("acct-1", "Alice", 0)

	s.Run("issue requires authority", func() {
		_, err := s.service.IssueWanted(s.ctx, citizenID, "speeding")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("issue flags the citizen", func() {
		record, err := s.service.IssueWanted(s.officer, citizenID, "speeding")
		s.Require().NoError(err)
		s.Equal("officer-7", record.IssuedBy)

		wanted, err := s.service.IsWanted(s.ctx, citizenID)
		s.Require().NoError(err)
		s.True(wanted)
	})

	s.Run("second issue while active fails", func() {
		_, err := s.service.IssueWanted(s.officer, citizenID, "reckless driving")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeAlreadyWanted))
	})

	s.Run("clear then re-issue succeeds", func() {
		record, err := s.service.ClearWanted(s.officer, citizenID)
		s.Require().NoError(err)
		s.True(record.Cleared)

		wanted, err := s.service.IsWanted(s.ctx, citizenID)
		s.Require().NoError(err)
		s.False(wanted)

		_, err = s.service.IssueWanted(s.officer, citizenID, "reckless driving")
		s.Require().NoError(err)
	})

	s.Run("clear without active record fails", func() {
		cleanID := s.register("acct-2", "Bob", 0)
		_, err := s.service.ClearWanted(s.officer, cleanID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotWanted))
	})

	s.Run("unknown citizen fails", func() {
		_, err := s.service.IssueWanted(s.officer, id.CitizenID(uuid.New()), "speeding")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
	})
}

func (s *EnforcementSuite) TestIssueFine() {
	citizenID := s.register("acct-3", "Carol", 0)

	s.Run("requires authority", func() {
		_, err := s.service.IssueFine(s.ctx, citizenID, 100, "littering")
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("issues an open fine", func() {
		fine, err := s.service.IssueFine(s.officer, citizenID, 100, "littering")
		s.Require().NoError(err)
		s.Equal(models.FineIssued, fine.Status)
	})

	s.Run("non-positive amounts fail", func() {
		for _, amount := range []int64{0, -10} {
			_, err := s.service.IssueFine(s.officer, citizenID, amount, "littering")
			s.Require().Error(err)
			s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
		}
	})
}

func (s *EnforcementSuite) TestPayFine() {
	citizenID := s.register("acct-4", "Dave", 300)
	fine, err := s.service.IssueFine(s.officer, citizenID, 200, "speeding")
	s.Require().NoError(err)

	s.Run("another citizen cannot pay it", func() {
		strangerID := s.register("acct-5", "Erin", 500)
		_, err := s.service.PayFine(s.ctx, fine.ID, strangerID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeNotYourFine))
		s.Equal(int64(500), s.cash(strangerID))
	})

	s.Run("debits exactly once and marks paid", func() {
		paid, err := s.service.PayFine(s.ctx, fine.ID, citizenID)
		s.Require().NoError(err)
		s.Equal(models.FinePaid, paid.Status)
		s.Equal(int64(100), s.cash(citizenID))
	})

	s.Run("second payment fails without another debit", func() {
		_, err := s.service.PayFine(s.ctx, fine.ID, citizenID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeAlreadyPaid))
		s.Equal(int64(100), s.cash(citizenID))
	})

	s.Run("insufficient funds leaves the fine open", func() {
		poorID := s.register("acct-6", "Frank", 50)
		bigFine, err := s.service.IssueFine(s.officer, poorID, 500, "vandalism")
		s.Require().NoError(err)

		_, err = s.service.PayFine(s.ctx, bigFine.ID, poorID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInsufficientFunds))

		current, err := s.service.History(s.ctx, poorID)
		s.Require().NoError(err)
		s.Require().Len(current.Fines, 1)
		s.Equal(models.FineIssued, current.Fines[0].Status)
		s.Equal(int64(50), s.cash(poorID))
	})

	s.Run("unknown fine fails", func() {
		_, err := s.service.PayFine(s.ctx, id.FineID(uuid.New()), citizenID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownFine))
	})
}

func (s *EnforcementSuite) TestWaiveFine() {
	citizenID := s.register("acct-7", "Gina", 100)
	fine, err := s.service.IssueFine(s.officer, citizenID, 80, "jaywalking")
	s.Require().NoError(err)

	s.Run("requires authority", func() {
		_, err := s.service.WaiveFine(s.ctx, fine.ID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("waives without touching the balance", func() {
		waived, err := s.service.WaiveFine(s.officer, fine.ID)
		s.Require().NoError(err)
		s.Equal(models.FineWaived, waived.Status)
		s.Equal(int64(100), s.cash(citizenID))
	})

	s.Run("waived is terminal", func() {
		_, err := s.service.PayFine(s.ctx, fine.ID, citizenID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeAlreadyPaid))

		_, err = s.service.WaiveFine(s.officer, fine.ID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeAlreadyPaid))
	})
}

func (s *EnforcementSuite) TestHistory() {
	citizenID := s.register("acct-8", "Hank", 1000)

	_, err := s.service.IssueWanted(s.officer, citizenID, "speeding")
	s.Require().NoError(err)
	_, err = s.service.ClearWanted(s.officer, citizenID)
	s.Require().NoError(err)

	fine, err := s.service.IssueFine(s.officer, citizenID, 150, "speeding")
	s.Require().NoError(err)
	_, err = s.service.PayFine(s.ctx, fine.ID, citizenID)
	s.Require().NoError(err)

	history, err := s.service.History(s.ctx, citizenID)
	s.Require().NoError(err)
	s.Len(history.Wanted, 1)
	s.True(history.Wanted[0].Cleared)
	s.Len(history.Fines, 1)
	s.Equal(models.FinePaid, history.Fines[0].Status)

	open, err := s.service.CountOpenFines(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, open)
}
