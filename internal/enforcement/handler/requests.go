package handler

// IssueWantedRequest is the body for POST /citizens/{id}/wanted.
type IssueWantedRequest struct {
	Reason string `json:"reason"`
}

// IssueFineRequest is the body for POST /citizens/{id}/fines.
type IssueFineRequest struct {
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// PayFineRequest is the body for POST /fines/{id}/pay.
type PayFineRequest struct {
	CitizenID string `json:"citizen_id"`
}
