package handler

import (
	"civica/internal/ledger/models"
)

// AccountResponse is the HTTP representation of a ledger account.
type AccountResponse struct {
	CitizenID string `json:"citizen_id"`
	Cash      int64  `json:"cash"`
	Bank      int64  `json:"bank"`
}

// FromAccount converts a domain account to its HTTP representation.
func FromAccount(account *models.Account) *AccountResponse {
	return &AccountResponse{
		CitizenID: account.CitizenID.String(),
		Cash:      account.Cash,
		Bank:      account.Bank,
	}
}
