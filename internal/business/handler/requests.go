package handler

import (
	"time"

	"civica/internal/business/models"
)

// CreateRequest is the HTTP request body for POST /businesses.
type CreateRequest struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	FounderID string `json:"founder_id"`
}

// TransferRequest is the HTTP request body for POST /businesses/{id}/transfer.
type TransferRequest struct {
	NewOwnerID string `json:"new_owner_id"`
}

// DepositRequest is the body for POST /businesses/{id}/revenue/deposit.
type DepositRequest struct {
	Amount int64 `json:"amount"`
}

// WithdrawRequest is the body for POST /businesses/{id}/revenue/withdraw.
type WithdrawRequest struct {
	Amount      int64  `json:"amount"`
	ToCitizenID string `json:"to_citizen_id"`
}

// BusinessResponse is the HTTP representation of a business.
type BusinessResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	OwnerID   *string   `json:"owner_id"`
	Revenue   int64     `json:"revenue"`
	CreatedAt time.Time `json:"created_at"`
}

// FromBusiness converts a domain business to its HTTP representation.
func FromBusiness(business *models.Business) *BusinessResponse {
	resp := &BusinessResponse{
		ID:        business.ID.String(),
		Name:      business.Name,
		Type:      business.Type,
		Revenue:   business.Revenue,
		CreatedAt: business.CreatedAt,
	}
	if business.OwnerID != nil {
		owner := business.OwnerID.String()
		resp.OwnerID = &owner
	}
	return resp
}

// ListResponse holds a citizen's businesses.
type ListResponse struct {
	Businesses []*BusinessResponse `json:"businesses"`
}

// FromBusinessList converts a list of businesses.
func FromBusinessList(businesses []*models.Business) *ListResponse {
	out := make([]*BusinessResponse, 0, len(businesses))
	for _, b := range businesses {
		out = append(out, FromBusiness(b))
	}
	return &ListResponse{Businesses: out}
}
