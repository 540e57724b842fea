package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks CooldownStore,CitizenDirectory,Ledger,AuditPublisher

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	citizenmodels "civica/internal/citizen/models"
	"civica/internal/employment/service/mocks"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// EarnRollbackSuite isolates the payout compensation path: a cooldown store
// failure after the credit must reverse the payout. Real stores cannot be
// made to fail at the right moment, hence the mocks.
type EarnRollbackSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	cooldowns *mocks.MockCooldownStore
	citizens  *mocks.MockCitizenDirectory
	ledger    *mocks.MockLedger
	service   *Service
	ctx       context.Context
}

func TestEarnRollbackSuite(t *testing.T) {
	suite.Run(t, new(EarnRollbackSuite))
}

func (s *EarnRollbackSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.cooldowns = mocks.NewMockCooldownStore(s.ctrl)
	s.citizens = mocks.NewMockCitizenDirectory(s.ctrl)
	s.ledger = mocks.NewMockLedger(s.ctrl)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	s.service = New(s.cooldowns, s.citizens, s.ledger, keylock.New(200*time.Millisecond),
		WithLogger(logger))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *EarnRollbackSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *EarnRollbackSuite) taxiDriver(citizenID id.CitizenID) *citizenmodels.Citizen {
	return &citizenmodels.Citizen{ID: citizenID, DisplayName: "Alice", Age: 30, Job: id.JobTaxi}
}

func (s *EarnRollbackSuite) TestStampFailureReversesCredit() {
	citizenID := id.CitizenID(uuid.New())
	now := requestcontext.Now(s.ctx)

	s.citizens.EXPECT().Get(gomock.Any(), citizenID).Return(s.taxiDriver(citizenID), nil)
	s.cooldowns.EXPECT().LastEarn(gomock.Any(), citizenID).Return(time.Time{}, sentinel.ErrNotFound)
	s.ledger.EXPECT().Credit(gomock.Any(), citizenID, int64(100)).Return(nil)
	s.cooldowns.EXPECT().SetLastEarn(gomock.Any(), citizenID, now).Return(errors.New("store down"))
	s.ledger.EXPECT().Debit(gomock.Any(), citizenID, int64(100)).Return(nil)

	_, err := s.service.Earn(s.ctx, citizenID)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeInternal))
}

func (s *EarnRollbackSuite) TestCreditFailureSkipsStamp() {
	citizenID := id.CitizenID(uuid.New())

	s.citizens.EXPECT().Get(gomock.Any(), citizenID).Return(s.taxiDriver(citizenID), nil)
	s.cooldowns.EXPECT().LastEarn(gomock.Any(), citizenID).Return(time.Time{}, sentinel.ErrNotFound)
	s.ledger.EXPECT().Credit(gomock.Any(), citizenID, int64(100)).
		Return(derrors.New(derrors.CodeUnknownCitizen, "citizen not found"))

	_, err := s.service.Earn(s.ctx, citizenID)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeUnknownCitizen))
}

func (s *EarnRollbackSuite) TestCooldownShortCircuitsBeforeMoneyMoves() {
	citizenID := id.CitizenID(uuid.New())
	now := requestcontext.Now(s.ctx)

	s.citizens.EXPECT().Get(gomock.Any(), citizenID).Return(s.taxiDriver(citizenID), nil)
	s.cooldowns.EXPECT().LastEarn(gomock.Any(), citizenID).Return(now.Add(-time.Minute), nil)

	_, err := s.service.Earn(s.ctx, citizenID)
	s.Require().Error(err)
	s.True(derrors.HasCode(err, derrors.CodeOnCooldown))
}
