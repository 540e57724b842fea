package handler

import (
	"time"

	"civica/internal/enforcement/models"
)

// WantedResponse is the HTTP representation of a wanted record.
type WantedResponse struct {
	ID        string     `json:"id"`
	CitizenID string     `json:"citizen_id"`
	Reason    string     `json:"reason"`
	IssuedBy  string     `json:"issued_by"`
	IssuedAt  time.Time  `json:"issued_at"`
	Cleared   bool       `json:"cleared"`
	ClearedBy string     `json:"cleared_by,omitempty"`
	ClearedAt *time.Time `json:"cleared_at,omitempty"`
}

// FromWanted converts a domain wanted record to its HTTP representation.
func FromWanted(record *models.WantedRecord) *WantedResponse {
	return &WantedResponse{
		ID:        record.ID.String(),
		CitizenID: record.CitizenID.String(),
		Reason:    record.Reason,
		IssuedBy:  record.IssuedBy,
		IssuedAt:  record.IssuedAt,
		Cleared:   record.Cleared,
		ClearedBy: record.ClearedBy,
		ClearedAt: record.ClearedAt,
	}
}

// WantedStatusResponse reports whether a citizen is currently wanted.
type WantedStatusResponse struct {
	Wanted bool `json:"wanted"`
}

// FineResponse is the HTTP representation of a fine.
type FineResponse struct {
	ID        string     `json:"id"`
	CitizenID string     `json:"citizen_id"`
	Amount    int64      `json:"amount"`
	Reason    string     `json:"reason"`
	IssuedBy  string     `json:"issued_by"`
	Status    string     `json:"status"`
	IssuedAt  time.Time  `json:"issued_at"`
	SettledAt *time.Time `json:"settled_at,omitempty"`
}

// FromFine converts a domain fine to its HTTP representation.
func FromFine(fine *models.Fine) *FineResponse {
	return &FineResponse{
		ID:        fine.ID.String(),
		CitizenID: fine.CitizenID.String(),
		Amount:    fine.Amount,
		Reason:    fine.Reason,
		IssuedBy:  fine.IssuedBy,
		Status:    string(fine.Status),
		IssuedAt:  fine.IssuedAt,
		SettledAt: fine.SettledAt,
	}
}

// HistoryResponse is the full enforcement trail for one citizen.
type HistoryResponse struct {
	CitizenID string            `json:"citizen_id"`
	Wanted    []*WantedResponse `json:"wanted"`
	Fines     []*FineResponse   `json:"fines"`
}

// FromHistory converts a domain history to its HTTP representation.
func FromHistory(history *models.History) *HistoryResponse {
	resp := &HistoryResponse{
		CitizenID: history.CitizenID.String(),
		Wanted:    make([]*WantedResponse, 0, len(history.Wanted)),
		Fines:     make([]*FineResponse, 0, len(history.Fines)),
	}
	for _, record := range history.Wanted {
		resp.Wanted = append(resp.Wanted, FromWanted(record))
	}
	for _, fine := range history.Fines {
		resp.Fines = append(resp.Fines, FromFine(fine))
	}
	return resp
}
