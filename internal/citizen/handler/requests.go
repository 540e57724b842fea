package handler

// RegisterRequest is the HTTP request body for POST /citizens.
type RegisterRequest struct {
	ExternalAccountID string `json:"external_account_id"`
	DisplayName       string `json:"display_name"`
	Age               int    `json:"age"`
}

// RenameRequest is the HTTP request body for PATCH /citizens/{id}/name.
type RenameRequest struct {
	DisplayName string `json:"display_name"`
}

// SetAgeRequest is the HTTP request body for PATCH /citizens/{id}/age.
type SetAgeRequest struct {
	Age int `json:"age"`
}
