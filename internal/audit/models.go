package audit

import (
	"context"
	"time"
)

// Event is emitted from domain logic to capture key world-state changes. Keep
// it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	CitizenID string    `json:"citizen_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
	Amount    int64     `json:"amount,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Action names a world-state change.
type Action string

const (
	// Citizen events
	ActionCitizenRegistered Action = "citizen_registered"
	ActionCitizenRenamed    Action = "citizen_renamed"
	ActionCitizenArchived   Action = "citizen_archived"

	// Ledger events
	ActionCredited    Action = "credited"
	ActionDebited     Action = "debited"
	ActionTransferred Action = "transferred"
	ActionDeposited   Action = "deposited"
	ActionWithdrawn   Action = "withdrawn"

	// Employment events
	ActionJobAssigned  Action = "job_assigned"
	ActionPayoutEarned Action = "payout_earned"

	// Business events
	ActionBusinessCreated      Action = "business_created"
	ActionOwnershipTransferred Action = "ownership_transferred"
	ActionRevenueWithdrawn     Action = "revenue_withdrawn"

	// Property events
	ActionPropertyPurchased Action = "property_purchased"
	ActionPropertyRented    Action = "property_rented"
	ActionPropertyVacated   Action = "property_vacated"

	// Law enforcement events
	ActionWantedIssued  Action = "wanted_issued"
	ActionWantedCleared Action = "wanted_cleared"
	ActionFineIssued    Action = "fine_issued"
	ActionFinePaid      Action = "fine_paid"
	ActionFineWaived    Action = "fine_waived"
)

// Store persists audit events append-only.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByCitizen(ctx context.Context, citizenID string) ([]Event, error)
}
