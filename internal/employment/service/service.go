// Package service implements Employment: catalog-validated job assignment and
// cooldown-gated shift payouts credited through the ledger.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"civica/internal/audit"
	citizenmodels "civica/internal/citizen/models"
	empmetrics "civica/internal/employment/metrics"
	"civica/internal/employment/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// CooldownStore tracks per-citizen last-earn timestamps. LastEarn returns
// sentinel.ErrNotFound for citizens who never earned.
type CooldownStore interface {
	LastEarn(ctx context.Context, citizenID id.CitizenID) (time.Time, error)
	SetLastEarn(ctx context.Context, citizenID id.CitizenID, at time.Time) error
}

// CitizenDirectory is the slice of the citizen service employment needs.
type CitizenDirectory interface {
	Get(ctx context.Context, citizenID id.CitizenID) (*citizenmodels.Citizen, error)
	SetJob(ctx context.Context, citizenID id.CitizenID, kind id.JobKind) (*citizenmodels.Citizen, error)
}

// Ledger is the money-movement slice employment needs for payouts.
type Ledger interface {
	Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Debit(ctx context.Context, citizenID id.CitizenID, amount int64) error
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates job assignment and payouts.
type Service struct {
	cooldowns CooldownStore
	citizens  CitizenDirectory
	ledger    Ledger
	locks     *keylock.Manager
	logger    *slog.Logger
	auditor   AuditPublisher
	metrics   *empmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *empmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the employment service.
func New(cooldowns CooldownStore, citizens CitizenDirectory, ledger Ledger, locks *keylock.Manager, opts ...Option) *Service {
	s := &Service{
		cooldowns: cooldowns,
		citizens:  citizens,
		ledger:    ledger,
		locks:     locks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Jobs returns the fixed job catalog.
func (s *Service) Jobs() []models.Job {
	jobs := make([]models.Job, 0, len(models.Catalog))
	for _, kind := range id.JobKinds() {
		jobs = append(jobs, models.Catalog[kind])
	}
	return jobs
}

// AssignJob switches the citizen to a catalog job. Assigning the job the
// citizen already holds is a no-op success; the cooldown clock is untouched
// either way, so job-hopping never shortens the wait.
func (s *Service) AssignJob(ctx context.Context, citizenID id.CitizenID, kind id.JobKind) (*citizenmodels.Citizen, error) {
	job, err := models.LookupJob(kind)
	if err != nil {
		return nil, err
	}

	citizen, err := s.citizens.SetJob(ctx, citizenID, job.Kind)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.Assignments.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionJobAssigned,
		CitizenID: citizenID.String(),
		Detail:    string(job.Kind),
	})
	return citizen, nil
}

// Earn pays the citizen one shift of their current job. The payout is gated by
// the job's cooldown measured from the last successful earn; unemployed
// citizens have nothing to earn. The credit and the cooldown stamp move
// together: if the stamp cannot be written the credit is reversed.
func (s *Service) Earn(ctx context.Context, citizenID id.CitizenID) (models.Job, error) {
	release, err := s.locks.Acquire(ctx, keylock.EmploymentKey(citizenID.String()))
	if err != nil {
		return models.Job{}, err
	}
	defer release()

	citizen, err := s.citizens.Get(ctx, citizenID)
	if err != nil {
		return models.Job{}, err
	}
	if citizen.Archived {
		return models.Job{}, derrors.New(derrors.CodeArchived, "citizen is archived")
	}

	job, err := models.LookupJob(citizen.Job)
	if err != nil {
		return models.Job{}, err
	}
	if job.Payout <= 0 {
		return models.Job{}, derrors.New(derrors.CodeInvalidValue, "citizen is unemployed")
	}

	now := requestcontext.Now(ctx)
	if err := s.checkCooldown(ctx, citizenID, job, now); err != nil {
		return models.Job{}, err
	}

	if err := s.ledger.Credit(ctx, citizenID, job.Payout); err != nil {
		return models.Job{}, err
	}

	if err := s.cooldowns.SetLastEarn(ctx, citizenID, now); err != nil {
		// Reverse the payout so a broken cooldown store cannot mint money.
		if rbErr := s.ledger.Debit(ctx, citizenID, job.Payout); rbErr != nil {
			s.logger.ErrorContext(ctx, "payout rollback failed",
				"citizen_id", citizenID, "amount", job.Payout, "error", rbErr)
		}
		return models.Job{}, derrors.Wrap(err, derrors.CodeInternal, "failed to record payout")
	}

	if s.metrics != nil {
		s.metrics.Payouts.WithLabelValues(string(job.Kind)).Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionPayoutEarned,
		CitizenID: citizenID.String(),
		Amount:    job.Payout,
		Detail:    string(job.Kind),
	})
	return job, nil
}

// NextEarnAt reports when the citizen may next earn. The zero time means they
// may earn immediately.
func (s *Service) NextEarnAt(ctx context.Context, citizenID id.CitizenID) (time.Time, error) {
	citizen, err := s.citizens.Get(ctx, citizenID)
	if err != nil {
		return time.Time{}, err
	}
	job, err := models.LookupJob(citizen.Job)
	if err != nil {
		return time.Time{}, err
	}

	last, err := s.cooldowns.LastEarn(ctx, citizenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return time.Time{}, nil
		}
		return time.Time{}, derrors.Wrap(err, derrors.CodeInternal, "cooldown store failure")
	}

	ready := last.Add(job.Cooldown)
	if !requestcontext.Now(ctx).Before(ready) {
		return time.Time{}, nil
	}
	return ready, nil
}

func (s *Service) checkCooldown(ctx context.Context, citizenID id.CitizenID, job models.Job, now time.Time) error {
	last, err := s.cooldowns.LastEarn(ctx, citizenID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil
		}
		return derrors.Wrap(err, derrors.CodeInternal, "cooldown store failure")
	}

	ready := last.Add(job.Cooldown)
	if now.Before(ready) {
		return derrors.Newf(derrors.CodeOnCooldown, "next payout available at %s", ready.UTC().Format(time.RFC3339))
	}
	return nil
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
