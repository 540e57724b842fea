package domain

import derrors "civica/pkg/domain-errors"

// JobKind is the fixed catalog of jobs a citizen may hold. Payout amounts and
// cooldowns per kind live with the employment module; the kind itself is a
// shared domain value because the citizen record references it.
//
// Usage: construct via ParseJobKind at trust boundaries to enforce the
// catalog; direct casting bypasses validation.
type JobKind string

const (
	JobUnemployed JobKind = "unemployed"
	JobTaxi       JobKind = "taxi"
	JobPolice     JobKind = "police"
	JobMedic      JobKind = "medic"
	JobTrucker    JobKind = "trucker"
	JobMechanic   JobKind = "mechanic"
)

// validJobKinds is the single source of truth for the job catalog.
var validJobKinds = map[JobKind]bool{
	JobUnemployed: true,
	JobTaxi:       true,
	JobPolice:     true,
	JobMedic:      true,
	JobTrucker:    true,
	JobMechanic:   true,
}

// ParseJobKind constructs a JobKind from external input.
//
// Errors: returns CodeUnknownJobKind when the value is empty or outside the
// catalog; no other errors are expected.
func ParseJobKind(s string) (JobKind, error) {
	if s == "" {
		return "", derrors.New(derrors.CodeUnknownJobKind, "job kind cannot be empty")
	}
	k := JobKind(s)
	if !k.IsValid() {
		return "", derrors.Newf(derrors.CodeUnknownJobKind, "unknown job kind %q", s)
	}
	return k, nil
}

// JobKinds returns the catalog kinds in a stable order.
func JobKinds() []JobKind {
	return []JobKind{JobUnemployed, JobTaxi, JobPolice, JobMedic, JobTrucker, JobMechanic}
}

// IsValid checks if the job kind is in the catalog.
func (k JobKind) IsValid() bool {
	return validJobKinds[k]
}
