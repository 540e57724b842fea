// Package service implements the Ledger: atomic credit, debit, transfer, and
// bank deposit/withdrawal over per-citizen accounts. Balances never go
// negative; every mutation is serialized on the citizen's key.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civica/internal/audit"
	ledgermetrics "civica/internal/ledger/metrics"
	"civica/internal/ledger/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// AccountStore persists ledger accounts. Execute runs validate-then-mutate
// while holding the account's storage-level lock.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	FindByCitizen(ctx context.Context, citizenID id.CitizenID) (*models.Account, error)
	Execute(ctx context.Context, citizenID id.CitizenID, validate func(*models.Account) error, mutate func(*models.Account)) (*models.Account, error)
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates all money movement in the engine.
type Service struct {
	accounts AccountStore
	locks    *keylock.Manager
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *ledgermetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *ledgermetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the ledger service.
func New(accounts AccountStore, locks *keylock.Manager, opts ...Option) *Service {
	s := &Service{
		accounts: accounts,
		locks:    locks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenAccount creates a zero-balance account for a newly registered citizen.
func (s *Service) OpenAccount(ctx context.Context, citizenID id.CitizenID) error {
	account := models.NewAccount(citizenID, requestcontext.Now(ctx))
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return derrors.New(derrors.CodeAlreadyRegistered, "account already exists")
		}
		return derrors.Wrap(err, derrors.CodeInternal, "failed to open account")
	}
	return nil
}

// Balance returns the citizen's account.
func (s *Service) Balance(ctx context.Context, citizenID id.CitizenID) (*models.Account, error) {
	account, err := s.accounts.FindByCitizen(ctx, citizenID)
	if err != nil {
		return nil, wrapAccountErr(err)
	}
	return account, nil
}

// Credit increases the citizen's cash balance. Amount must be positive.
func (s *Service) Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error {
	if err := requireAmount(amount); err != nil {
		return err
	}
	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return err
	}
	defer release()

	now := requestcontext.Now(ctx)
	_, err = s.accounts.Execute(ctx, citizenID,
		func(*models.Account) error { return nil },
		func(a *models.Account) { a.ApplyCredit(amount, now) },
	)
	if err != nil {
		return wrapAccountErr(err)
	}

	if s.metrics != nil {
		s.metrics.Credits.Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionCredited, CitizenID: citizenID.String(), Amount: amount})
	return nil
}

// Debit decreases the citizen's cash balance. Fails with insufficient_funds
// when the balance is below the amount; no partial debit ever happens.
func (s *Service) Debit(ctx context.Context, citizenID id.CitizenID, amount int64) error {
	if err := requireAmount(amount); err != nil {
		return err
	}
	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return err
	}
	defer release()

	return s.debitLocked(ctx, citizenID, amount)
}

// debitLocked applies a debit assuming the citizen's key lock is already held.
func (s *Service) debitLocked(ctx context.Context, citizenID id.CitizenID, amount int64) error {
	now := requestcontext.Now(ctx)
	_, err := s.accounts.Execute(ctx, citizenID,
		func(a *models.Account) error { return a.CanDebit(amount) },
		func(a *models.Account) { a.ApplyDebit(amount, now) },
	)
	if err != nil {
		return wrapAccountErr(err)
	}

	if s.metrics != nil {
		s.metrics.Debits.Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionDebited, CitizenID: citizenID.String(), Amount: amount})
	return nil
}

// Transfer moves cash between two citizens as an atomic debit-then-credit.
// Both citizen keys are locked in ascending order to avoid deadlock between
// opposite-direction transfers. If the debit fails, nothing changes.
func (s *Service) Transfer(ctx context.Context, from, to id.CitizenID, amount int64) error {
	if err := requireAmount(amount); err != nil {
		return err
	}
	if from == to {
		return derrors.New(derrors.CodeSameAccount, "cannot transfer to the same account")
	}

	release, err := s.locks.AcquirePair(ctx,
		keylock.CitizenKey(from.String()),
		keylock.CitizenKey(to.String()),
	)
	if err != nil {
		return err
	}
	defer release()

	// The recipient account must exist before any debit so the credit leg
	// cannot fail after money has left the sender.
	if _, err := s.accounts.FindByCitizen(ctx, to); err != nil {
		return wrapAccountErr(err)
	}

	now := requestcontext.Now(ctx)
	_, err = s.accounts.Execute(ctx, from,
		func(a *models.Account) error { return a.CanDebit(amount) },
		func(a *models.Account) { a.ApplyDebit(amount, now) },
	)
	if err != nil {
		return wrapAccountErr(err)
	}

	_, err = s.accounts.Execute(ctx, to,
		func(*models.Account) error { return nil },
		func(a *models.Account) { a.ApplyCredit(amount, now) },
	)
	if err != nil {
		// Give the debit back; the recipient existed a moment ago so this is
		// an infrastructure fault, not a domain state.
		_, rollbackErr := s.accounts.Execute(ctx, from,
			func(*models.Account) error { return nil },
			func(a *models.Account) { a.ApplyCredit(amount, now) },
		)
		if rollbackErr != nil {
			s.logger.ErrorContext(ctx, "transfer rollback failed",
				"from", from, "to", to, "amount", amount, "error", rollbackErr)
		}
		return wrapAccountErr(err)
	}

	if s.metrics != nil {
		s.metrics.Transfers.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionTransferred,
		CitizenID: from.String(),
		Detail:    "to " + to.String(),
		Amount:    amount,
	})
	return nil
}

// Deposit moves cash into the citizen's bank balance.
func (s *Service) Deposit(ctx context.Context, citizenID id.CitizenID, amount int64) error {
	if err := requireAmount(amount); err != nil {
		return err
	}
	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return err
	}
	defer release()

	now := requestcontext.Now(ctx)
	_, err = s.accounts.Execute(ctx, citizenID,
		func(a *models.Account) error { return a.CanDebit(amount) },
		func(a *models.Account) { a.ApplyDeposit(amount, now) },
	)
	if err != nil {
		return wrapAccountErr(err)
	}
	s.emit(ctx, audit.Event{Action: audit.ActionDeposited, CitizenID: citizenID.String(), Amount: amount})
	return nil
}

// Withdraw moves bank balance back to cash.
func (s *Service) Withdraw(ctx context.Context, citizenID id.CitizenID, amount int64) error {
	if err := requireAmount(amount); err != nil {
		return err
	}
	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return err
	}
	defer release()

	now := requestcontext.Now(ctx)
	_, err = s.accounts.Execute(ctx, citizenID,
		func(a *models.Account) error { return a.CanWithdraw(amount) },
		func(a *models.Account) { a.ApplyWithdrawal(amount, now) },
	)
	if err != nil {
		return wrapAccountErr(err)
	}
	s.emit(ctx, audit.Event{Action: audit.ActionWithdrawn, CitizenID: citizenID.String(), Amount: amount})
	return nil
}

// AdminAdjust applies an administrative balance delta. Requires the authority
// capability; a negative delta still may not push the balance below zero.
func (s *Service) AdminAdjust(ctx context.Context, citizenID id.CitizenID, delta int64) error {
	if !requestcontext.IsAuthority(ctx) {
		return derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}
	if delta == 0 {
		return derrors.New(derrors.CodeInvalidValue, "delta cannot be zero")
	}
	if delta > 0 {
		return s.Credit(ctx, citizenID, delta)
	}
	return s.Debit(ctx, citizenID, -delta)
}

func requireAmount(amount int64) error {
	if amount <= 0 {
		return derrors.New(derrors.CodeInvalidValue, "amount must be positive")
	}
	return nil
}

func wrapAccountErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeUnknownCitizen, "no account for citizen")
	}
	var de *derrors.Error
	if errors.As(err, &de) {
		return err
	}
	return derrors.Wrap(err, derrors.CodeInternal, "account store failure")
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
