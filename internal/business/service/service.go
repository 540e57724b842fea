// Package service implements the Business Registry: single-owner ventures with
// a revenue accumulator paid out through the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civica/internal/audit"
	busmetrics "civica/internal/business/metrics"
	"civica/internal/business/models"
	citizenmodels "civica/internal/citizen/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// BusinessStore persists businesses. Execute runs validate-then-mutate while
// holding the business's storage-level lock.
type BusinessStore interface {
	Create(ctx context.Context, business *models.Business) error
	FindByID(ctx context.Context, businessID id.BusinessID) (*models.Business, error)
	Execute(ctx context.Context, businessID id.BusinessID, validate func(*models.Business) error, mutate func(*models.Business)) (*models.Business, error)
	ListByOwner(ctx context.Context, ownerID id.CitizenID) ([]*models.Business, error)
	Count(ctx context.Context) (int, error)
}

// CitizenDirectory is the slice of the citizen service the registry needs.
type CitizenDirectory interface {
	Get(ctx context.Context, citizenID id.CitizenID) (*citizenmodels.Citizen, error)
}

// Ledger credits owners on revenue withdrawal.
type Ledger interface {
	Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates business lifecycle and revenue movement.
type Service struct {
	businesses BusinessStore
	citizens   CitizenDirectory
	ledger     Ledger
	locks      *keylock.Manager
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *busmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *busmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the business registry service.
func New(businesses BusinessStore, citizens CitizenDirectory, ledger Ledger, locks *keylock.Manager, opts ...Option) *Service {
	s := &Service{
		businesses: businesses,
		citizens:   citizens,
		ledger:     ledger,
		locks:      locks,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create founds a business owned by the founding citizen.
func (s *Service) Create(ctx context.Context, name, businessType string, founderID id.CitizenID) (*models.Business, error) {
	if err := s.requireActiveCitizen(ctx, founderID); err != nil {
		return nil, err
	}

	business, err := models.NewBusiness(name, businessType, founderID, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.businesses.Create(ctx, business); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create business")
	}

	if s.metrics != nil {
		s.metrics.Created.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionBusinessCreated,
		CitizenID: founderID.String(),
		Detail:    business.ID.String(),
	})
	return business, nil
}

// Get returns one business.
func (s *Service) Get(ctx context.Context, businessID id.BusinessID) (*models.Business, error) {
	business, err := s.businesses.FindByID(ctx, businessID)
	if err != nil {
		return nil, wrapBusinessErr(err)
	}
	return business, nil
}

// ListByOwner returns the citizen's businesses.
func (s *Service) ListByOwner(ctx context.Context, ownerID id.CitizenID) ([]*models.Business, error) {
	businesses, err := s.businesses.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, wrapBusinessErr(err)
	}
	return businesses, nil
}

// TransferOwnership reassigns the business to a new owner. The old owner's
// reference is cleared in the same mutation that sets the new one.
func (s *Service) TransferOwnership(ctx context.Context, businessID id.BusinessID, newOwnerID id.CitizenID) (*models.Business, error) {
	if err := s.requireActiveCitizen(ctx, newOwnerID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.BusinessKey(businessID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	business, err := s.businesses.Execute(ctx, businessID,
		func(*models.Business) error { return nil },
		func(b *models.Business) { b.ApplyTransfer(newOwnerID, now) },
	)
	if err != nil {
		return nil, wrapBusinessErr(err)
	}

	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionOwnershipTransferred,
		CitizenID: newOwnerID.String(),
		Detail:    businessID.String(),
	})
	return business, nil
}

// DepositRevenue adds earnings to the business's revenue accumulator.
func (s *Service) DepositRevenue(ctx context.Context, businessID id.BusinessID, amount int64) (*models.Business, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.BusinessKey(businessID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	business, err := s.businesses.Execute(ctx, businessID,
		func(*models.Business) error { return nil },
		func(b *models.Business) { b.ApplyDeposit(amount, now) },
	)
	if err != nil {
		return nil, wrapBusinessErr(err)
	}
	return business, nil
}

// WithdrawRevenue moves accumulated revenue into the owner's cash balance.
// The decrement and the credit stand or fall together: if the credit leg
// fails, the revenue is restored.
func (s *Service) WithdrawRevenue(ctx context.Context, businessID id.BusinessID, amount int64, toCitizenID id.CitizenID) (*models.Business, error) {
	if err := requireAmount(amount); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.BusinessKey(businessID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	business, err := s.businesses.Execute(ctx, businessID,
		func(b *models.Business) error {
			if !b.IsOwnedBy(toCitizenID) {
				return derrors.New(derrors.CodeUnauthorized, "only the owner may withdraw revenue")
			}
			return b.CanWithdraw(amount)
		},
		func(b *models.Business) { b.ApplyWithdrawal(amount, now) },
	)
	if err != nil {
		return nil, wrapBusinessErr(err)
	}

	if err := s.ledger.Credit(ctx, toCitizenID, amount); err != nil {
		if _, rbErr := s.businesses.Execute(ctx, businessID,
			func(*models.Business) error { return nil },
			func(b *models.Business) { b.ApplyDeposit(amount, now) },
		); rbErr != nil {
			s.logger.ErrorContext(ctx, "revenue rollback failed",
				"business_id", businessID, "amount", amount, "error", rbErr)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Withdrawals.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionRevenueWithdrawn,
		CitizenID: toCitizenID.String(),
		Amount:    amount,
		Detail:    businessID.String(),
	})
	return business, nil
}

// ReleaseCitizen detaches the citizen from every business they own, keeping
// accumulated revenue on the record. Idempotent; the citizen service calls it
// on archive.
func (s *Service) ReleaseCitizen(ctx context.Context, citizenID id.CitizenID) error {
	owned, err := s.businesses.ListByOwner(ctx, citizenID)
	if err != nil {
		return wrapBusinessErr(err)
	}

	now := requestcontext.Now(ctx)
	for _, business := range owned {
		release, err := s.locks.Acquire(ctx, keylock.BusinessKey(business.ID.String()))
		if err != nil {
			return err
		}
		_, err = s.businesses.Execute(ctx, business.ID,
			func(*models.Business) error { return nil },
			func(b *models.Business) {
				if b.IsOwnedBy(citizenID) {
					b.ApplyRelease(now)
				}
			},
		)
		release()
		if err != nil {
			return wrapBusinessErr(err)
		}
	}
	return nil
}

// Count reports how many businesses exist.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.businesses.Count(ctx)
}

func (s *Service) requireActiveCitizen(ctx context.Context, citizenID id.CitizenID) error {
	citizen, err := s.citizens.Get(ctx, citizenID)
	if err != nil {
		return err
	}
	if citizen.Archived {
		return derrors.New(derrors.CodeArchived, "citizen is archived")
	}
	return nil
}

func requireAmount(amount int64) error {
	if amount <= 0 {
		return derrors.Newf(derrors.CodeInvalidValue, "amount must be positive, got %d", amount)
	}
	return nil
}

func wrapBusinessErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeUnknownBusiness, "business not found")
	}
	var de *derrors.Error
	if errors.As(err, &de) {
		return err
	}
	return derrors.Wrap(err, derrors.CodeInternal, "business store failure")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	event.ActorID = requestcontext.ActorID(ctx)
	event.RequestID = requestcontext.RequestID(ctx)
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
