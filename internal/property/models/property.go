package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// Property is a piece of real estate. At any moment it is owned, rented, or
// vacant; owner and renter are never both set.
type Property struct {
	ID              id.PropertyID
	Kind            string
	Name            string
	Price           int64
	OwnerID         *id.CitizenID
	RenterID        *id.CitizenID
	RentalExpiresAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewProperty validates inputs and constructs a vacant listing.
func NewProperty(kind, name string, price int64, now time.Time) (*Property, error) {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "property kind cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "property name cannot be empty")
	}
	if price < 0 {
		return nil, derrors.Newf(derrors.CodeInvalidValue, "price cannot be negative, got %d", price)
	}
	return &Property{
		ID:        id.PropertyID(uuid.New()),
		Kind:      kind,
		Name:      name,
		Price:     price,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsVacant reports whether the property has neither owner nor renter.
func (p *Property) IsVacant() bool {
	return p.OwnerID == nil && p.RenterID == nil
}

// IsOccupiedBy reports whether the citizen owns or rents the property.
func (p *Property) IsOccupiedBy(citizenID id.CitizenID) bool {
	if p.OwnerID != nil && *p.OwnerID == citizenID {
		return true
	}
	return p.RenterID != nil && *p.RenterID == citizenID
}

// RentalExpired reports whether a rental has lapsed as of now.
func (p *Property) RentalExpired(now time.Time) bool {
	return p.RenterID != nil && p.RentalExpiresAt != nil && !now.Before(*p.RentalExpiresAt)
}

// CanOccupy rejects purchase or rent attempts on a non-vacant property.
func (p *Property) CanOccupy() error {
	if !p.IsVacant() {
		return derrors.New(derrors.CodeAlreadyOccupied, "property already has an occupant")
	}
	return nil
}

// ApplyPurchase assigns the buyer as owner. Call CanOccupy first.
func (p *Property) ApplyPurchase(buyerID id.CitizenID, now time.Time) {
	owner := buyerID
	p.OwnerID = &owner
	p.RenterID = nil
	p.RentalExpiresAt = nil
	p.UpdatedAt = now
}

// ApplyRent assigns the renter with an expiry. Call CanOccupy first.
func (p *Property) ApplyRent(renterID id.CitizenID, expiresAt time.Time, now time.Time) {
	renter := renterID
	p.RenterID = &renter
	p.OwnerID = nil
	p.RentalExpiresAt = &expiresAt
	p.UpdatedAt = now
}

// ApplyVacate clears the occupant regardless of prior state.
func (p *Property) ApplyVacate(now time.Time) {
	p.OwnerID = nil
	p.RenterID = nil
	p.RentalExpiresAt = nil
	p.UpdatedAt = now
}
