package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"civica/internal/ledger/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/sentinel"
)

type AccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(AccountStoreSuite))
}

func (s *AccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *AccountStoreSuite) newAccount() *models.Account {
	return models.NewAccount(id.CitizenID(uuid.New()), time.Now())
}

func (s *AccountStoreSuite) TestCreateAndFind() {
	s.Run("creates and finds account", func() {
		account := s.newAccount()
		s.Require().NoError(s.store.Create(s.ctx, account))

		found, err := s.store.FindByCitizen(s.ctx, account.CitizenID)
		s.Require().NoError(err)
		s.Equal(account.CitizenID, found.CitizenID)
		s.Equal(int64(0), found.Cash)
	})

	s.Run("rejects duplicate citizen", func() {
		account := s.newAccount()
		s.Require().NoError(s.store.Create(s.ctx, account))
		s.Require().ErrorIs(s.store.Create(s.ctx, account), sentinel.ErrConflict)
	})

	s.Run("returns ErrNotFound for unknown citizen", func() {
		_, err := s.store.FindByCitizen(s.ctx, id.CitizenID(uuid.New()))
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *AccountStoreSuite) TestExecute() {
	s.Run("applies mutation when validation passes", func() {
		account := s.newAccount()
		s.Require().NoError(s.store.Create(s.ctx, account))

		updated, err := s.store.Execute(s.ctx, account.CitizenID,
			func(*models.Account) error { return nil },
			func(a *models.Account) { a.Cash = 150 },
		)
		s.Require().NoError(err)
		s.Equal(int64(150), updated.Cash)

		found, err := s.store.FindByCitizen(s.ctx, account.CitizenID)
		s.Require().NoError(err)
		s.Equal(int64(150), found.Cash)
	})

	s.Run("skips mutation when validation fails", func() {
		account := s.newAccount()
		s.Require().NoError(s.store.Create(s.ctx, account))

		_, err := s.store.Execute(s.ctx, account.CitizenID,
			func(*models.Account) error {
				return derrors.New(derrors.CodeInsufficientFunds, "nope")
			},
			func(a *models.Account) { a.Cash = 999 },
		)
		s.Require().Error(err)

		found, err := s.store.FindByCitizen(s.ctx, account.CitizenID)
		s.Require().NoError(err)
		s.Equal(int64(0), found.Cash)
	})

	s.Run("returns ErrNotFound for unknown citizen", func() {
		_, err := s.store.Execute(s.ctx, id.CitizenID(uuid.New()),
			func(*models.Account) error { return nil },
			func(*models.Account) {},
		)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned account is a copy", func() {
		account := s.newAccount()
		s.Require().NoError(s.store.Create(s.ctx, account))

		found, err := s.store.FindByCitizen(s.ctx, account.CitizenID)
		s.Require().NoError(err)
		found.Cash = 12345

		again, err := s.store.FindByCitizen(s.ctx, account.CitizenID)
		s.Require().NoError(err)
		s.Equal(int64(0), again.Cash)
	})
}
