package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// Business is a citizen-owned venture with a revenue accumulator. Owner is nil
// only while the business is unowned (founder archived); the record itself is
// never deleted.
type Business struct {
	ID        id.BusinessID
	Name      string
	Type      string
	OwnerID   *id.CitizenID
	Revenue   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBusiness validates inputs and constructs a business owned by its founder.
func NewBusiness(name, businessType string, founderID id.CitizenID, now time.Time) (*Business, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "business name cannot be empty")
	}
	businessType = strings.TrimSpace(businessType)
	if businessType == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "business type cannot be empty")
	}
	owner := founderID
	return &Business{
		ID:        id.BusinessID(uuid.New()),
		Name:      name,
		Type:      businessType,
		OwnerID:   &owner,
		Revenue:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsOwnedBy reports whether the citizen currently owns the business.
func (b *Business) IsOwnedBy(citizenID id.CitizenID) bool {
	return b.OwnerID != nil && *b.OwnerID == citizenID
}

// CanWithdraw checks the revenue accumulator covers the amount.
func (b *Business) CanWithdraw(amount int64) error {
	if b.Revenue < amount {
		return derrors.Newf(derrors.CodeInsufficientRevenue,
			"revenue %d below requested %d", b.Revenue, amount)
	}
	return nil
}

// ApplyTransfer reassigns the owner. Clearing the old owner and setting the
// new one is a single field write, so the two cannot diverge.
func (b *Business) ApplyTransfer(newOwnerID id.CitizenID, now time.Time) {
	owner := newOwnerID
	b.OwnerID = &owner
	b.UpdatedAt = now
}

// ApplyRelease detaches the owner, keeping accumulated revenue.
func (b *Business) ApplyRelease(now time.Time) {
	b.OwnerID = nil
	b.UpdatedAt = now
}

// ApplyDeposit adds to the revenue accumulator.
func (b *Business) ApplyDeposit(amount int64, now time.Time) {
	b.Revenue += amount
	b.UpdatedAt = now
}

// ApplyWithdrawal removes from the revenue accumulator. Call CanWithdraw first.
func (b *Business) ApplyWithdrawal(amount int64, now time.Time) {
	b.Revenue -= amount
	b.UpdatedAt = now
}
