// Package derrors defines the tagged failure taxonomy shared by every engine
// operation. Services construct these; adapters translate them into user-facing
// responses. Infrastructure facts (row missing, key clash) live in
// pkg/platform/sentinel and are translated into these codes at the service layer.
package derrors

import (
	"errors"
	"fmt"
)

// Code identifies a failure kind. Adapters branch on the code, never on the
// message text.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidValue Code = "invalid_value"
	CodeNotFound     Code = "not_found"
	CodeInternal     Code = "internal"
	CodeUnauthorized Code = "unauthorized"

	// Contention signals a bounded lock wait that expired; the caller may retry.
	CodeContention Code = "contention"

	CodeUnknownCitizen    Code = "unknown_citizen"
	CodeAlreadyRegistered Code = "already_registered"
	CodeArchived          Code = "archived"

	CodeInsufficientFunds Code = "insufficient_funds"
	CodeSameAccount       Code = "same_account"

	CodeUnknownJobKind Code = "unknown_job_kind"
	CodeOnCooldown     Code = "on_cooldown"

	CodeUnknownBusiness     Code = "unknown_business"
	CodeInsufficientRevenue Code = "insufficient_revenue"

	CodeUnknownProperty Code = "unknown_property"
	CodeAlreadyOccupied Code = "already_occupied"

	CodeAlreadyWanted Code = "already_wanted"
	CodeNotWanted     Code = "not_wanted"
	CodeUnknownFine   Code = "unknown_fine"
	CodeAlreadyPaid   Code = "already_paid"
	CodeNotYourFine   Code = "not_your_fine"
)

// Error carries a code plus a human-readable message and an optional cause.
type Error struct {
	code  Code
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.msg)
}

func (e *Error) Unwrap() error { return e.cause }

// Code returns the failure kind.
func (e *Error) Code() Code { return e.code }

// Message returns the human-readable description without the code prefix.
func (e *Error) Message() string { return e.msg }

// New constructs a tagged error.
func New(code Code, msg string) error {
	return &Error{code: code, msg: msg}
}

// Newf constructs a tagged error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{code: code, msg: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause. The cause remains
// reachable via errors.Is/As.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{code: code, msg: msg, cause: err}
}

// HasCode reports whether any error in the chain carries the given code.
func HasCode(err error, code Code) bool {
	var de *Error
	for errors.As(err, &de) {
		if de.code == code {
			return true
		}
		err = de.cause
		if err == nil {
			return false
		}
	}
	return false
}

// CodeOf returns the code of the outermost tagged error, or CodeInternal when
// the error carries no tag.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.code
	}
	return CodeInternal
}
