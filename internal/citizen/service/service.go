// Package service implements the Citizen Registry: registration against a
// unique external account id, lookups, field updates, and soft-archival.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"civica/internal/audit"
	"civica/internal/citizen/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// CitizenStore persists citizen records.
type CitizenStore interface {
	CreateIfAccountAvailable(ctx context.Context, citizen *models.Citizen) error
	Delete(ctx context.Context, citizenID id.CitizenID) error
	FindByID(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error)
	FindByExternalAccount(ctx context.Context, externalAccountID string) (*models.Citizen, error)
	Execute(ctx context.Context, citizenID id.CitizenID, validate func(*models.Citizen) error, mutate func(*models.Citizen)) (*models.Citizen, error)
	List(ctx context.Context, offset, limit int) ([]*models.Citizen, error)
	Count(ctx context.Context) (int, error)
}

// AccountOpener is the slice of the ledger the registry needs: every citizen
// gets a zero-balance account at registration.
type AccountOpener interface {
	OpenAccount(ctx context.Context, citizenID id.CitizenID) error
}

// OwnershipReleaser releases a citizen's holdings when the citizen is
// archived. The business and property registries implement it.
type OwnershipReleaser interface {
	ReleaseCitizen(ctx context.Context, citizenID id.CitizenID) error
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates the citizen lifecycle.
type Service struct {
	citizens  CitizenStore
	ledger    AccountOpener
	locks     *keylock.Manager
	bounds    models.AgeBounds
	releasers []OwnershipReleaser
	logger    *slog.Logger
	auditor   AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

// WithReleasers registers the registries whose holdings are released when a
// citizen is archived.
func WithReleasers(releasers ...OwnershipReleaser) Option {
	return func(s *Service) { s.releasers = releasers }
}

// New constructs the citizen registry service.
func New(citizens CitizenStore, ledger AccountOpener, locks *keylock.Manager, bounds models.AgeBounds, opts ...Option) *Service {
	s := &Service{
		citizens: citizens,
		ledger:   ledger,
		locks:    locks,
		bounds:   bounds,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates a citizen for an external account on first registration.
// The new citizen starts unemployed with a zero-balance ledger account.
func (s *Service) Register(ctx context.Context, externalAccountID, displayName string, age int) (*models.Citizen, error) {
	citizen, err := models.NewCitizen(
		id.CitizenID(uuid.New()), externalAccountID, displayName, age,
		s.bounds, requestcontext.Now(ctx),
	)
	if err != nil {
		return nil, err
	}

	if err := s.citizens.CreateIfAccountAvailable(ctx, citizen); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, derrors.New(derrors.CodeAlreadyRegistered, "external account already registered")
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create citizen")
	}

	if err := s.ledger.OpenAccount(ctx, citizen.ID); err != nil {
		// Remove the citizen row so the external account can register again.
		if delErr := s.citizens.Delete(ctx, citizen.ID); delErr != nil {
			s.logger.ErrorContext(ctx, "registration rollback failed",
				"citizen_id", citizen.ID, "error", delErr)
		}
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to open ledger account")
	}

	s.emit(ctx, audit.Event{Action: audit.ActionCitizenRegistered, CitizenID: citizen.ID.String()})
	return citizen, nil
}

// Lookup returns the citizen mapped to an external account id.
func (s *Service) Lookup(ctx context.Context, externalAccountID string) (*models.Citizen, error) {
	externalAccountID = strings.TrimSpace(externalAccountID)
	if externalAccountID == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "external account id is required")
	}
	citizen, err := s.citizens.FindByExternalAccount(ctx, externalAccountID)
	if err != nil {
		return nil, wrapCitizenErr(err)
	}
	return citizen, nil
}

// Get returns the citizen by id.
func (s *Service) Get(ctx context.Context, citizenID id.CitizenID) (*models.Citizen, error) {
	citizen, err := s.citizens.FindByID(ctx, citizenID)
	if err != nil {
		return nil, wrapCitizenErr(err)
	}
	return citizen, nil
}

// List returns a page of citizens in registration order.
func (s *Service) List(ctx context.Context, offset, limit int) ([]*models.Citizen, error) {
	if offset < 0 || limit < 0 {
		return nil, derrors.New(derrors.CodeInvalidValue, "offset and limit must be non-negative")
	}
	citizens, err := s.citizens.List(ctx, offset, limit)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list citizens")
	}
	return citizens, nil
}

// Rename updates the display name.
func (s *Service) Rename(ctx context.Context, citizenID id.CitizenID, displayName string) (*models.Citizen, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "display name is required")
	}
	citizen, err := s.mutate(ctx, citizenID, func(c *models.Citizen) {
		c.ApplyRename(displayName, requestcontext.Now(ctx))
	})
	if err != nil {
		return nil, err
	}
	s.emit(ctx, audit.Event{Action: audit.ActionCitizenRenamed, CitizenID: citizenID.String(), Detail: displayName})
	return citizen, nil
}

// SetAge updates the age, enforcing the configured bounds.
func (s *Service) SetAge(ctx context.Context, citizenID id.CitizenID, age int) (*models.Citizen, error) {
	if err := s.bounds.Check(age); err != nil {
		return nil, err
	}
	return s.mutate(ctx, citizenID, func(c *models.Citizen) {
		c.ApplySetAge(age, requestcontext.Now(ctx))
	})
}

// SetJob switches the citizen's job. The employment module is the caller; the
// kind has already been validated against the catalog.
func (s *Service) SetJob(ctx context.Context, citizenID id.CitizenID, kind id.JobKind) (*models.Citizen, error) {
	return s.mutate(ctx, citizenID, func(c *models.Citizen) {
		c.ApplySetJob(kind, requestcontext.Now(ctx))
	})
}

// Archive soft-archives a citizen and releases their businesses and
// properties. Historical fines and wanted records stay referenced. Requires
// the authority capability.
func (s *Service) Archive(ctx context.Context, citizenID id.CitizenID) error {
	if !requestcontext.IsAuthority(ctx) {
		return derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}

	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return err
	}
	// Unlike mutate, already-archived citizens pass validation here: a retry
	// after a failed holdings release must reach the releasers again.
	_, err = s.citizens.Execute(ctx, citizenID,
		func(*models.Citizen) error { return nil },
		func(c *models.Citizen) { c.ApplyArchive(requestcontext.Now(ctx)) },
	)
	release()
	if err != nil {
		return wrapCitizenErr(err)
	}

	for _, releaser := range s.releasers {
		if err := releaser.ReleaseCitizen(ctx, citizenID); err != nil {
			// Release is idempotent; the caller can re-run archive to retry.
			return derrors.Wrap(err, derrors.CodeInternal, "failed to release holdings")
		}
	}

	s.emit(ctx, audit.Event{Action: audit.ActionCitizenArchived, CitizenID: citizenID.String()})
	return nil
}

// mutate applies a field update under the citizen's key lock, rejecting
// archived citizens.
func (s *Service) mutate(ctx context.Context, citizenID id.CitizenID, apply func(*models.Citizen)) (*models.Citizen, error) {
	release, err := s.locks.Acquire(ctx, keylock.CitizenKey(citizenID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	citizen, err := s.citizens.Execute(ctx, citizenID,
		func(c *models.Citizen) error { return c.CanMutate() },
		apply,
	)
	if err != nil {
		return nil, wrapCitizenErr(err)
	}
	return citizen, nil
}

func wrapCitizenErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeUnknownCitizen, "citizen not found")
	}
	var de *derrors.Error
	if errors.As(err, &de) {
		return err
	}
	return derrors.Wrap(err, derrors.CodeInternal, "citizen store failure")
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
