// Package httputil centralizes JSON encoding and the mapping from domain error
// codes to HTTP statuses so handlers stay thin and no failure kind is ever
// swallowed.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	derrors "civica/pkg/domain-errors"
)

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError translates a tagged domain error into an HTTP response. Internal
// errors deliberately omit the description so infrastructure details never
// leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if code != derrors.CodeInternal {
		var de *derrors.Error
		if errors.As(err, &de) {
			resp.ErrorDescription = de.Message()
		}
	}
	WriteJSON(w, statusFor(code), resp)
}

// statusFor maps the failure taxonomy onto HTTP statuses. Adapters never branch
// on message text, only on the code.
func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeBadRequest, derrors.CodeInvalidValue, derrors.CodeSameAccount, derrors.CodeUnknownJobKind:
		return http.StatusBadRequest
	case derrors.CodeNotFound, derrors.CodeUnknownCitizen, derrors.CodeUnknownBusiness,
		derrors.CodeUnknownProperty, derrors.CodeUnknownFine:
		return http.StatusNotFound
	case derrors.CodeAlreadyRegistered, derrors.CodeAlreadyOccupied, derrors.CodeAlreadyWanted,
		derrors.CodeNotWanted, derrors.CodeAlreadyPaid, derrors.CodeNotYourFine,
		derrors.CodeInsufficientFunds, derrors.CodeInsufficientRevenue, derrors.CodeArchived:
		return http.StatusConflict
	case derrors.CodeOnCooldown:
		return http.StatusTooManyRequests
	case derrors.CodeUnauthorized:
		return http.StatusForbidden
	case derrors.CodeContention:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Decode parses a JSON request body into T, writing a bad_request response and
// returning false when the body is malformed.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var v T
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "malformed request body", "error", err)
		}
		WriteError(w, derrors.New(derrors.CodeBadRequest, "malformed request body"))
		return v, false
	}
	return v, true
}
