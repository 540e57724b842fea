package handler

import (
	"time"

	"civica/internal/property/models"
)

// AddListingRequest is the HTTP request body for POST /properties.
type AddListingRequest struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Price int64  `json:"price"`
}

// PurchaseRequest is the body for POST /properties/{id}/purchase.
type PurchaseRequest struct {
	CitizenID string `json:"citizen_id"`
}

// RentRequest is the body for POST /properties/{id}/rent.
type RentRequest struct {
	CitizenID     string `json:"citizen_id"`
	PeriodSeconds int64  `json:"period_seconds"`
}

// PropertyResponse is the HTTP representation of a property.
type PropertyResponse struct {
	ID              string     `json:"id"`
	Kind            string     `json:"kind"`
	Name            string     `json:"name"`
	Price           int64      `json:"price"`
	OwnerID         *string    `json:"owner_id,omitempty"`
	RenterID        *string    `json:"renter_id,omitempty"`
	RentalExpiresAt *time.Time `json:"rental_expires_at,omitempty"`
	Vacant          bool       `json:"vacant"`
}

// FromProperty converts a domain property to its HTTP representation.
func FromProperty(property *models.Property) *PropertyResponse {
	resp := &PropertyResponse{
		ID:              property.ID.String(),
		Kind:            property.Kind,
		Name:            property.Name,
		Price:           property.Price,
		RentalExpiresAt: property.RentalExpiresAt,
		Vacant:          property.IsVacant(),
	}
	if property.OwnerID != nil {
		owner := property.OwnerID.String()
		resp.OwnerID = &owner
	}
	if property.RenterID != nil {
		renter := property.RenterID.String()
		resp.RenterID = &renter
	}
	return resp
}

// ListResponse holds a citizen's properties.
type ListResponse struct {
	Properties []*PropertyResponse `json:"properties"`
}

// FromPropertyList converts a list of properties.
func FromPropertyList(properties []*models.Property) *ListResponse {
	out := make([]*PropertyResponse, 0, len(properties))
	for _, p := range properties {
		out = append(out, FromProperty(p))
	}
	return &ListResponse{Properties: out}
}
