package models

import (
	"time"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// Job describes one entry of the fixed job catalog: what a shift pays and how
// long a citizen must wait between payouts.
type Job struct {
	Kind     id.JobKind
	Payout   int64
	Cooldown time.Duration
}

// Catalog is the fixed job catalog. Jobs have no lifecycle beyond it.
var Catalog = map[id.JobKind]Job{
	id.JobUnemployed: {Kind: id.JobUnemployed, Payout: 0, Cooldown: 0},
	id.JobTaxi:       {Kind: id.JobTaxi, Payout: 100, Cooldown: 30 * time.Minute},
	id.JobPolice:     {Kind: id.JobPolice, Payout: 150, Cooldown: 20 * time.Minute},
	id.JobMedic:      {Kind: id.JobMedic, Payout: 120, Cooldown: 25 * time.Minute},
	id.JobTrucker:    {Kind: id.JobTrucker, Payout: 110, Cooldown: 30 * time.Minute},
	id.JobMechanic:   {Kind: id.JobMechanic, Payout: 90, Cooldown: 15 * time.Minute},
}

// LookupJob resolves a catalog entry.
func LookupJob(kind id.JobKind) (Job, error) {
	job, ok := Catalog[kind]
	if !ok {
		return Job{}, derrors.Newf(derrors.CodeUnknownJobKind, "unknown job kind %q", kind)
	}
	return job, nil
}
