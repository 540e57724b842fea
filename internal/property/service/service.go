// Package service implements the Property Registry: listings that are owned,
// rented, or vacant, with purchases paid through the ledger and rentals swept
// on expiry.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"civica/internal/audit"
	citizenmodels "civica/internal/citizen/models"
	propmetrics "civica/internal/property/metrics"
	"civica/internal/property/models"
	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
	"civica/pkg/platform/keylock"
	"civica/pkg/platform/sentinel"
	"civica/pkg/requestcontext"
)

// PropertyStore persists properties. Execute runs validate-then-mutate while
// holding the property's storage-level lock.
type PropertyStore interface {
	Create(ctx context.Context, property *models.Property) error
	FindByID(ctx context.Context, propertyID id.PropertyID) (*models.Property, error)
	Execute(ctx context.Context, propertyID id.PropertyID, validate func(*models.Property) error, mutate func(*models.Property)) (*models.Property, error)
	ListByOccupant(ctx context.Context, citizenID id.CitizenID) ([]*models.Property, error)
	ListExpiredRentals(ctx context.Context, now time.Time) ([]*models.Property, error)
	Count(ctx context.Context) (int, error)
}

// CitizenDirectory is the slice of the citizen service the registry needs.
type CitizenDirectory interface {
	Get(ctx context.Context, citizenID id.CitizenID) (*citizenmodels.Citizen, error)
}

// Ledger debits buyers on purchase and refunds failed assignments.
type Ledger interface {
	Credit(ctx context.Context, citizenID id.CitizenID, amount int64) error
	Debit(ctx context.Context, citizenID id.CitizenID, amount int64) error
}

// AuditPublisher records world-state change events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates property occupancy.
type Service struct {
	properties PropertyStore
	citizens   CitizenDirectory
	ledger     Ledger
	locks      *keylock.Manager
	logger     *slog.Logger
	auditor    AuditPublisher
	metrics    *propmetrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) { s.auditor = publisher }
}

func WithMetrics(m *propmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the property registry service.
func New(properties PropertyStore, citizens CitizenDirectory, ledger Ledger, locks *keylock.Manager, opts ...Option) *Service {
	s := &Service{
		properties: properties,
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

// AddListing registers a vacant property. Requires the authority capability.
func (s *Service) AddListing(ctx context.Context, kind, name string, price int64) (*models.Property, error) {
	if !requestcontext.IsAuthority(ctx) {
		return nil, derrors.New(derrors.CodeUnauthorized, "authority capability required")
	}

	property, err := models.NewProperty(kind, name, price, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.properties.Create(ctx, property); err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to create property")
	}
	return property, nil
}

// Get returns one property.
func (s *Service) Get(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapPropertyErr(err)
	}
	return property, nil
}

// ListByOccupant returns properties the citizen owns or rents.
func (s *Service) ListByOccupant(ctx context.Context, citizenID id.CitizenID) ([]*models.Property, error) {
	properties, err := s.properties.ListByOccupant(ctx, citizenID)
	if err != nil {
		return nil, wrapPropertyErr(err)
	}
	return properties, nil
}

// Purchase debits the buyer for the listed price and assigns ownership. The
// debit and the assignment stand or fall together: if the assignment cannot
// be written the debit is refunded.
func (s *Service) Purchase(ctx context.Context, propertyID id.PropertyID, buyerID id.CitizenID) (*models.Property, error) {
	if err := s.requireActiveCitizen(ctx, buyerID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.PropertyKey(propertyID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	property, err := s.properties.FindByID(ctx, propertyID)
	if err != nil {
		return nil, wrapPropertyErr(err)
	}
	if err := property.CanOccupy(); err != nil {
		return nil, err
	}

	if property.Price > 0 {
		if err := s.ledger.Debit(ctx, buyerID, property.Price); err != nil {
			return nil, err
		}
	}

	now := requestcontext.Now(ctx)
	updated, err := s.properties.Execute(ctx, propertyID,
		func(p *models.Property) error { return p.CanOccupy() },
		func(p *models.Property) { p.ApplyPurchase(buyerID, now) },
	)
	if err != nil {
		if property.Price > 0 {
			if rbErr := s.ledger.Credit(ctx, buyerID, property.Price); rbErr != nil {
				s.logger.ErrorContext(ctx, "purchase refund failed",
					"property_id", propertyID, "amount", property.Price, "error", rbErr)
			}
		}
		return nil, wrapPropertyErr(err)
	}

	if s.metrics != nil {
		s.metrics.Purchases.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionPropertyPurchased,
		CitizenID: buyerID.String(),
		Amount:    property.Price,
		Detail:    propertyID.String(),
	})
	return updated, nil
}

// Rent assigns the citizen as renter for the period. Only vacant properties
// can be rented; the expiry sweep vacates lapsed rentals.
func (s *Service) Rent(ctx context.Context, propertyID id.PropertyID, renterID id.CitizenID, period time.Duration) (*models.Property, error) {
	if period <= 0 {
		return nil, derrors.New(derrors.CodeInvalidValue, "rental period must be positive")
	}
	if err := s.requireActiveCitizen(ctx, renterID); err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, keylock.PropertyKey(propertyID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	expiresAt := now.Add(period)
	property, err := s.properties.Execute(ctx, propertyID,
		func(p *models.Property) error { return p.CanOccupy() },
		func(p *models.Property) { p.ApplyRent(renterID, expiresAt, now) },
	)
	if err != nil {
		return nil, wrapPropertyErr(err)
	}

	if s.metrics != nil {
		s.metrics.Rentals.Inc()
	}
	s.emit(ctx, audit.Event{
		Action:    audit.ActionPropertyRented,
		CitizenID: renterID.String(),
		Detail:    propertyID.String(),
	})
	return property, nil
}

// Vacate clears the occupant regardless of prior state. Idempotent.
func (s *Service) Vacate(ctx context.Context, propertyID id.PropertyID) (*models.Property, error) {
	release, err := s.locks.Acquire(ctx, keylock.PropertyKey(propertyID.String()))
	if err != nil {
		return nil, err
	}
	defer release()

	now := requestcontext.Now(ctx)
	property, err := s.properties.Execute(ctx, propertyID,
		func(*models.Property) error { return nil },
		func(p *models.Property) { p.ApplyVacate(now) },
	)
	if err != nil {
		return nil, wrapPropertyErr(err)
	}

	if s.metrics != nil {
		s.metrics.Vacancies.Inc()
	}
	s.emit(ctx, audit.Event{
		Action: audit.ActionPropertyVacated,
		Detail: propertyID.String(),
	})
	return property, nil
}

// SweepExpiredRentals vacates every rental whose expiry has passed. The server
// runs it on a timer; it is also safe to call ad hoc.
func (s *Service) SweepExpiredRentals(ctx context.Context) (int, error) {
	expired, err := s.properties.ListExpiredRentals(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, wrapPropertyErr(err)
	}

	swept := 0
	for _, property := range expired {
		if _, err := s.Vacate(ctx, property.ID); err != nil {
			// A concurrent vacate already cleared it; keep sweeping.
			if derrors.HasCode(err, derrors.CodeUnknownProperty) {
				continue
			}
			return swept, err
		}
		swept++
		if s.metrics != nil {
			s.metrics.ExpiredRentals.Inc()
		}
	}
	return swept, nil
}

// ReleaseCitizen vacates every property the citizen owns or rents. Idempotent;
// the citizen service calls it on archive.
func (s *Service) ReleaseCitizen(ctx context.Context, citizenID id.CitizenID) error {
	occupied, err := s.properties.ListByOccupant(ctx, citizenID)
	if err != nil {
		return wrapPropertyErr(err)
	}
	for _, property := range occupied {
		if _, err := s.Vacate(ctx, property.ID); err != nil {
			return err
		}
	}
	return nil
}

// Count reports how many properties exist.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.properties.Count(ctx)
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

func wrapPropertyErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return derrors.New(derrors.CodeUnknownProperty, "property not found")
	}
	var de *derrors.Error
	if errors.As(err, &de) {
		return err
	}
	return derrors.Wrap(err, derrors.CodeInternal, "property store failure")
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
