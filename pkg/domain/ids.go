// Package domain holds the typed identifiers shared across the engine.
//
// Each entity kind gets its own UUID-backed type so a BusinessID can never be
// passed where a CitizenID is expected. Construct from external input via the
// ParseXxxID functions; direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	derrors "civica/pkg/domain-errors"
)

type (
	// CitizenID identifies a citizen record. It is the join point every other
	// registry references.
	CitizenID uuid.UUID

	// BusinessID identifies a business.
	BusinessID uuid.UUID

	// PropertyID identifies a dwelling or vehicle.
	PropertyID uuid.UUID

	// FineID identifies a fine.
	FineID uuid.UUID

	// WantedID identifies a wanted record.
	WantedID uuid.UUID
)

func (id CitizenID) String() string  { return uuid.UUID(id).String() }
func (id BusinessID) String() string { return uuid.UUID(id).String() }
func (id PropertyID) String() string { return uuid.UUID(id).String() }
func (id FineID) String() string     { return uuid.UUID(id).String() }
func (id WantedID) String() string   { return uuid.UUID(id).String() }

func (id CitizenID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id BusinessID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id PropertyID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id FineID) IsZero() bool     { return uuid.UUID(id) == uuid.Nil }

// parseUUID enforces the shared invariant: IDs must be valid, non-empty,
// non-nil UUIDs.
func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidValue, "%s id cannot be empty", kind)
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidValue, "invalid %s id", kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, derrors.Newf(derrors.CodeInvalidValue, "%s id cannot be nil", kind)
	}
	return u, nil
}

// ParseCitizenID constructs a CitizenID from external input.
func ParseCitizenID(s string) (CitizenID, error) {
	u, err := parseUUID(s, "citizen")
	return CitizenID(u), err
}

// ParseBusinessID constructs a BusinessID from external input.
func ParseBusinessID(s string) (BusinessID, error) {
	u, err := parseUUID(s, "business")
	return BusinessID(u), err
}

// ParsePropertyID constructs a PropertyID from external input.
func ParsePropertyID(s string) (PropertyID, error) {
	u, err := parseUUID(s, "property")
	return PropertyID(u), err
}

// ParseFineID constructs a FineID from external input.
func ParseFineID(s string) (FineID, error) {
	u, err := parseUUID(s, "fine")
	return FineID(u), err
}
