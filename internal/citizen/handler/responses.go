package handler

import (
	"time"

	"civica/internal/citizen/models"
)

// CitizenResponse is the HTTP representation of a citizen.
type CitizenResponse struct {
	ID                string    `json:"id"`
	ExternalAccountID string    `json:"external_account_id"`
	DisplayName       string    `json:"display_name"`
	Age               int       `json:"age"`
	Job               string    `json:"job"`
	Archived          bool      `json:"archived"`
	CreatedAt         time.Time `json:"created_at"`
}

// FromCitizen converts a domain citizen to its HTTP representation.
func FromCitizen(citizen *models.Citizen) *CitizenResponse {
	return &CitizenResponse{
		ID:                citizen.ID.String(),
		ExternalAccountID: citizen.ExternalAccountID,
		DisplayName:       citizen.DisplayName,
		Age:               citizen.Age,
		Job:               string(citizen.Job),
		Archived:          citizen.Archived,
		CreatedAt:         citizen.CreatedAt,
	}
}

// ListResponse pages citizens.
type ListResponse struct {
	Citizens []*CitizenResponse `json:"citizens"`
}

// FromCitizenList converts a page of citizens.
func FromCitizenList(citizens []*models.Citizen) *ListResponse {
	out := make([]*CitizenResponse, 0, len(citizens))
	for _, c := range citizens {
		out = append(out, FromCitizen(c))
	}
	return &ListResponse{Citizens: out}
}
