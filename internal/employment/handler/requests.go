package handler

import (
	"time"

	"civica/internal/employment/models"
)

// AssignJobRequest is the HTTP request body for POST /citizens/{id}/job.
type AssignJobRequest struct {
	Job string `json:"job"`
}

// JobResponse is one catalog entry.
type JobResponse struct {
	Kind            string `json:"kind"`
	Payout          int64  `json:"payout"`
	CooldownSeconds int64  `json:"cooldown_seconds"`
}

// FromJobs converts the catalog to its HTTP representation.
func FromJobs(jobs []models.Job) []*JobResponse {
	out := make([]*JobResponse, 0, len(jobs))
	for _, job := range jobs {
		out = append(out, &JobResponse{
			Kind:            string(job.Kind),
			Payout:          job.Payout,
			CooldownSeconds: int64(job.Cooldown.Seconds()),
		})
	}
	return out
}

// EarnResponse is the HTTP response for a successful payout.
type EarnResponse struct {
	Job    string `json:"job"`
	Payout int64  `json:"payout"`
}

// NextEarnResponse reports cooldown status.
type NextEarnResponse struct {
	Ready      bool       `json:"ready"`
	NextEarnAt *time.Time `json:"next_earn_at,omitempty"`
}
