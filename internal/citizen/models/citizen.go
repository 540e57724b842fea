package models

import (
	"strings"
	"time"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// Citizen is the persistent world identity tied to one external account.
// The ledger owns the citizen's balances; registries reference the citizen by
// id. Citizens are never hard-deleted, only archived, so historical fines and
// wanted records keep a valid reference.
type Citizen struct {
	ID                id.CitizenID
	ExternalAccountID string
	DisplayName       string
	Age               int
	Job               id.JobKind
	Archived          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AgeBounds is the configurable valid age range.
type AgeBounds struct {
	Min int
	Max int
}

// NewCitizen validates and constructs a citizen record. New citizens start
// unemployed.
func NewCitizen(citizenID id.CitizenID, externalAccountID, displayName string, age int, bounds AgeBounds, now time.Time) (*Citizen, error) {
	externalAccountID = strings.TrimSpace(externalAccountID)
	if externalAccountID == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "external account id is required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "display name is required")
	}
	if err := bounds.Check(age); err != nil {
		return nil, err
	}
	return &Citizen{
		ID:                citizenID,
		ExternalAccountID: externalAccountID,
		DisplayName:       displayName,
		Age:               age,
		Job:               id.JobUnemployed,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// Check validates an age against the bounds.
func (b AgeBounds) Check(age int) error {
	if age < b.Min || age > b.Max {
		return derrors.Newf(derrors.CodeInvalidValue, "age must be between %d and %d", b.Min, b.Max)
	}
	return nil
}

// CanMutate rejects updates against archived citizens.
func (c *Citizen) CanMutate() error {
	if c.Archived {
		return derrors.New(derrors.CodeArchived, "citizen is archived")
	}
	return nil
}

// ApplyRename updates the display name.
func (c *Citizen) ApplyRename(displayName string, now time.Time) {
	c.DisplayName = displayName
	c.UpdatedAt = now
}

// ApplySetAge updates the age.
func (c *Citizen) ApplySetAge(age int, now time.Time) {
	c.Age = age
	c.UpdatedAt = now
}

// ApplySetJob switches the citizen's job.
func (c *Citizen) ApplySetJob(kind id.JobKind, now time.Time) {
	c.Job = kind
	c.UpdatedAt = now
}

// ApplyArchive soft-archives the citizen.
func (c *Citizen) ApplyArchive(now time.Time) {
	c.Archived = true
	c.UpdatedAt = now
}
