// Package service implements Law Enforcement: wanted records with at most one
// active flag per citizen, and fines settled through the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"

	"civica/internal/audit"
	citizenmodels "civica/internal/citizen/models"
	enfmetrics "civica/internal/enforcement/metrics"
	"civica/internal/enforcement/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// EnforcementStore persists wanted records and fines. The Execute methods run
// validate-then-mutate while holding the record's storage-level lock.
type EnforcementStore interface {
	CreateWanted(ctx context.Context, record *models.WantedRecord) error
	FindActiveWanted(ctx context.Context, citizenID id.CitizenID) (*models.WantedRecord, error)
	ExecuteWanted(ctx context.Context, wantedID id.WantedID, validate func(*models.WantedRecord) error, mutate func(*models.WantedRecord)) (*models.WantedRecord, error)
	ListWantedByCitizen(ctx context.Context, citizenID id.CitizenID) ([]*models.WantedRecord, error)

	CreateFine(ctx context.Context, fine *models.Fine) error
	FindFine(ctx context.Context, fineID id.FineID) (*models.Fine, error)
	ExecuteFine(ctx context.Context, fineID id.FineID, validate func(*models.Fine) error, mutate func(*models.Fine)) (*models.Fine, error)
	ListFinesByCitizen(ctx context.Context, citizenID id.CitizenID) ([]*models.Fine, error)
	CountOpenFines(ctx context.Context) (int, error)
}

// CitizenDirectory is the slice of the citizen service enforcement needs.
type CitizenDirectory interface {
	Get(ctx context.Context, citizenID id.CitizenID) (*citizenmodels.Citizen, error)
}

// Ledger debits citizens paying fines and refunds failed settlements.
type Ledger interface {
	Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Debit(ctx context.Context, citizenID id.CitizenID, amount int64) error
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates wanted flags and fines.
type Service struct {
	records  EnforcementStore
	citizens CitizenDirectory
	ledger   Ledger
	locks    *keylock.Manager
	logger   *slog.Logger
	auditor  AuditPublisher
	metrics  *enfmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *enfmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the enforcement service.
func New(records EnforcementStore, citizens CitizenDirectory, ledger Ledger, locks *keylock.Manager, opts ...Option) *Service {
	s := &Service{
		records:  records,
		citizens: citizens,
		ledger:   ledger,
		locks:    locks,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueWanted flags the citizen as wanted. Requires the authority capability;
// fails with already_wanted if an active record exists.
func (s *Service) IssueWanted(ctx context.Context, citizenID id.CitizenID, reason string) (*models.WantedRecord, error) {
	if !requestcontext.IsAuthority(ctx) {
		return nil, derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}
	if _, err := s.citizens.Get(ctx, citizenID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.WantedKey(citizenID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	record, err := models.NewWantedRecord(citizenID, reason, requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.records.CreateWanted(ctx, record); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, derrors.New(derrors.CodeAlreadyWanted, "citizen already has an active wanted record")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create wanted record")
	}

	if s.metrics != nil {
		s.metrics.WantedIssued.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionWantedIssued,
		CitizenID: citizenID.String(),
		Detail:    record.Reason,
	})
	return record, nil
}

// ClearWanted clears the citizen's active wanted record. Requires the
// authority capability; fails with not_wanted when no active record exists.
func (s *Service) ClearWanted(ctx context.Context, citizenID id.CitizenID) (*models.WantedRecord, error) {
	if !requestcontext.IsAuthority(ctx) {
		return nil, derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}

	release, err := s.locks.Acquire(ctx, keylock.WantedKey(citizenID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	active, err := s.records.FindActiveWanted(ctx, citizenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, derrors.New(derrors.CodeNotWanted, "citizen has no active wanted record")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "wanted lookup failed")
	}

	clearedBy := requestcontext.ActorID(ctx)
	now := requestcontext.Now(ctx)
	record, err := s.records.ExecuteWanted(ctx, active.ID,
		func(w *models.WantedRecord) error {
			if w.Cleared {
				return derrors.New(derrors.CodeNotWanted, "record already cleared")
			}
			return nil
		},
		func(w *models.WantedRecord) { w.ApplyClear(clearedBy, now) },
	)
	if err != nil {
		return nil, wrapEnforcementErr(err)
	}

	if s.metrics != nil {
		s.metrics.WantedCleared.Inc()
	}
	s.emit(ctx, audit.Event{Action: audit.ActionWantedCleared, CitizenID: citizenID.String()})
	return record, nil
}

// IsWanted reports whether the citizen has an active wanted record.
func (s *Service) IsWanted(ctx context.Context, citizenID id.CitizenID) (bool, error) {
	_, err := s.records.FindActiveWanted(ctx, citizenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return false, nil
		}
		return false, derrors.Wrap(err, derrors.CodeInternal, "wanted lookup failed")
	}
	return true, nil
}

// IssueFine issues a fine against the citizen. Requires the authority
// capability; amount must be positive.
func (s *Service) IssueFine(ctx context.Context, citizenID id.CitizenID, amount int64, reason string) (*models.Fine, error) {
	if !requestcontext.IsAuthority(ctx) {
		return nil, derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}
	if _, err := s.citizens.Get(ctx, citizenID); err != nil {
		return nil, err
	}

	fine, err := models.NewFine(citizenID, amount, reason, requestcontext.ActorID(ctx), requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.records.CreateFine(ctx, fine); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create fine")
	}

	if s.metrics != nil {
		s.metrics.FinesIssued.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionFineIssued,
		CitizenID: citizenID.String(),
		Amount:    amount,
		Detail:    fine.Reason,
	})
	return fine, nil
}

// PayFine settles the fine from the paying citizen's cash balance. The payer
// must be the fined citizen; the debit and the paid mark stand or fall
// together, so a failed mark refunds the debit.
func (s *Service) PayFine(ctx context.Context, fineID id.FineID, payerID id.CitizenID) (*models.Fine, error) {
	release, err := s.locks.Acquire(ctx, keylock.FineKey(fineID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	fine, err := s.records.FindFine(ctx, fineID)
	if err != nil {
		return nil, wrapEnforcementErr(err)
	}
	if fine.CitizenID != payerID {
		return nil, derrors.New(derrors.CodeNotYourFine, "fine targets another citizen")
	}
	if err := fine.CanSettle(); err != nil {
		return nil, err
	}

	if err := s.ledger.Debit(ctx, payerID, fine.Amount); err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	settled, err := s.records.ExecuteFine(ctx, fineID,
		func(f *models.Fine) error { return f.CanSettle() },
		func(f *models.Fine) { f.ApplyPaid(now) },
	)
	if err != nil {
		if rbErr := s.ledger.Credit(ctx, payerID, fine.Amount); rbErr != nil {
			s.logger.ErrorContext(ctx, "fine refund failed",
				"fine_id", fineID, "amount", fine.Amount, "error", rbErr)
		}
		return nil, wrapEnforcementErr(err)
	}

	if s.metrics != nil {
		s.metrics.FinesSettled.WithLabelValues(string(models.FinePaid)).Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionFinePaid,
		CitizenID: payerID.String(),
		Amount:    fine.Amount,
		Detail:    fineID.String(),
	})
	return settled, nil
}

// WaiveFine settles the fine without payment. Requires the authority
// capability; waived is terminal like paid.
func (s *Service) WaiveFine(ctx context.Context, fineID id.FineID) (*models.Fine, error) {
	if !requestcontext.IsAuthority(ctx) {
		return nil, derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}

	release, err := s.locks.Acquire(ctx, keylock.FineKey(fineID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	fine, err := s.records.ExecuteFine(ctx, fineID,
		func(f *models.Fine) error { return f.CanSettle() },
		func(f *models.Fine) { f.ApplyWaived(now) },
	)
	if err != nil {
		return nil, wrapEnforcementErr(err)
	}

	if s.metrics != nil {
		s.metrics.FinesSettled.WithLabelValues(string(models.FineWaived)).Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionFineWaived,
		CitizenID: fine.CitizenID.String(),
		Amount:    fine.Amount,
		Detail:    fineID.String(),
	})
	return fine, nil
}

// History returns the citizen's full enforcement trail, cleared records and
// settled fines included.
func (s *Service) History(ctx context.Context, citizenID id.CitizenID) (*models.History, error) {
	if _, err := s.citizens.Get(ctx, citizenID); err != nil {
		return nil, err
	}

	wanted, err := s.records.ListWantedByCitizen(ctx, citizenID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "wanted history lookup failed")
	}
	fines, err := s.records.ListFinesByCitizen(ctx, citizenID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "fine history lookup failed")
	}
	return &models.History{CitizenID: citizenID, Wanted: wanted, Fines: fines}, nil
}

// CountOpenFines reports how many fines are still unsettled.
func (s *Service) CountOpenFines(ctx context.Context) (int, error) {
	return s.records.CountOpenFines(ctx)
}

func wrapEnforcementErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeUnknownFine, "fine not found")
	}
	var de *derrors.Error
	if errors.As(err, &de) {
		return err
	}
	return derrors.Wrap(err, derrors.CodeInternal, "enforcement store failure")
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
