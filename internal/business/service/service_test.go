package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	busstore "civica/internal/business/store"
	citizenmodels "civica/internal/citizen/models"
	citizenservice "civica/internal/citizen/service"
	citizenstore "civica/internal/citizen/store"
	ledgerservice "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/requestcontext"
)

type BusinessSuite struct {
	suite.Suite
	service  *Service
	citizens *citizenservice.Service
	ledger   *ledgerservice.Service
	ctx      context.Context
}

func TestBusinessSuite(t *testing.T) {
	suite.Run(t, new(BusinessSuite))
}

func (s *BusinessSuite) SetupTest() {
	locks := keylock.New(200 * time.Millisecond)
	s.ledger = ledgerservice.New(ledgerstore.NewInMemory(), locks)
	s.citizens = citizenservice.New(citizenstore.NewInMemory(), s.ledger, locks,
		citizenmodels.AgeBounds{Min: 1, Max: 120})
	s.service = New(busstore.NewInMemory(), s.citizens, s.ledger, locks)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *BusinessSuite) register(account, name string) id.CitizenID {
	citizen, err := s.citizens.Register(s.ctx, account, name, 30)
	s.Require().NoError(err)
	return citizen.ID
}

func (s *BusinessSuite) cash(citizenID id.CitizenID) int64 {
	account, err := s.ledger.Balance(s.ctx, citizenID)
	s.Require().NoError(err)
	return account.Cash
}

func (s *BusinessSuite) TestCreate() {
	s.Run("founder becomes owner with zero revenue", func() {
		founderID := s.register("acct-1", "Bob")
		business, err := s.service.Create(s.ctx, "Bob's Garage", "mechanic", founderID)
		s.Require().NoError(err)
		s.True(business.IsOwnedBy(founderID))
		s.Equal(int64(0), business.Revenue)
	})

	s.Run("unknown founder fails", func() {
		_, err := s.service.Create(s.ctx, "Ghost LLC", "shop", id.CitizenID(uuid.New()))
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
	})

	s.Run("blank name fails", func() {
		founderID := s.register("acct-2", "Carol")
		_, err := s.service.Create(s.ctx, "  ", "shop", founderID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
	})
}

func (s *BusinessSuite) TestTransferOwnership() {
	founderID := s.register("acct-3", "Bob")
	newOwnerID := s.register("acct-4", "Carol")
	business, err := s.service.Create(s.ctx, "Bob's Garage", "mechanic", founderID)
	s.Require().NoError(err)

	s.Run("reassigns owner", func() {
		updated, err := s.service.TransferOwnership(s.ctx, business.ID, newOwnerID)
		s.Require().NoError(err)
		s.True(updated.IsOwnedBy(newOwnerID))
		s.False(updated.IsOwnedBy(founderID))
	})

	s.Run("unknown business fails", func() {
		_, err := s.service.TransferOwnership(s.ctx, id.BusinessID(uuid.New()), newOwnerID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownBusiness))
	})

	s.Run("unknown new owner fails", func() {
		_, err := s.service.TransferOwnership(s.ctx, business.ID, id.CitizenID(uuid.New()))
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
	})
}

func (s *BusinessSuite) TestRevenue() {
	ownerID := s.register("acct-5", "Bob")
	business, err := s.service.Create(s.ctx, "Bob's Garage", "mechanic", ownerID)
	s.Require().NoError(err)

	_, err = s.service.DepositRevenue(s.ctx, business.ID, 500)
	s.Require().NoError(err)

	s.Run("overdraw fails and leaves revenue unchanged", func() {
		_, err := s.service.WithdrawRevenue(s.ctx, business.ID, 600, ownerID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeInsufficientRevenue))

		current, err := s.service.Get(s.ctx, business.ID)
		s.Require().NoError(err)
		s.Equal(int64(500), current.Revenue)
		s.Equal(int64(0), s.cash(ownerID))
	})

	s.Run("only the owner may withdraw", func() {
		strangerID := s.register("acct-6", "Mallory")
		_, err := s.service.WithdrawRevenue(s.ctx, business.ID, 100, strangerID)
		s.Require().Error(err)
		s.True(derrors.HasCode(err, derrors.CodeUnauthorized))
	})

	s.Run("full withdrawal drains revenue into owner cash", func() {
		updated, err := s.service.WithdrawRevenue(s.ctx, business.ID, 500, ownerID)
		s.Require().NoError(err)
		s.Equal(int64(0), updated.Revenue)
		s.Equal(int64(500), s.cash(ownerID))
	})

	s.Run("non-positive amounts fail", func() {
		for _, amount := range []int64{0, -5} {
			_, err := s.service.DepositRevenue(s.ctx, business.ID, amount)
			s.Require().Error(err)
			s.True(derrors.HasCode(err, derrors.CodeInvalidValue))
		}
	})
}

func (s *BusinessSuite) TestReleaseCitizen() {
	ownerID := s.register("acct-7", "Bob")
	business, err := s.service.Create(s.ctx, "Bob's Garage", "mechanic", ownerID)
	s.Require().NoError(err)
	_, err = s.service.DepositRevenue(s.ctx, business.ID, 300)
	s.Require().NoError(err)

	s.Require().NoError(s.service.ReleaseCitizen(s.ctx, ownerID))

	released, err := s.service.Get(s.ctx, business.ID)
	s.Require().NoError(err)
	s.Nil(released.OwnerID)
	// Revenue survives the release.
	s.Equal(int64(300), released.Revenue)

	// Releasing again is a no-op.
	s.Require().NoError(s.service.ReleaseCitizen(s.ctx, ownerID))
}

func (s *BusinessSuite) TestListByOwner() {
	ownerID := s.register("acct-8", "Bob")
	for _, name := range []string{"First", "Second"} {
		_, err := s.service.Create(s.ctx, name, "shop", ownerID)
		s.Require().NoError(err)
	}

	owned, err := s.service.ListByOwner(s.ctx, ownerID)
	s.Require().NoError(err)
	s.Len(owned, 2)
}
