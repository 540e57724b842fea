package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// WantedRecord flags a citizen as wanted. A citizen has at most one active
// (uncleared) record; cleared records stay on file.
type WantedRecord struct {
	ID        id.WantedID
	CitizenID id.CitizenID
	Reason    string
	IssuedBy  string
	IssuedAt  time.Time
	Cleared   bool
	ClearedBy string
	ClearedAt *time.Time
}

// NewWantedRecord validates the reason and constructs an active record.
func NewWantedRecord(citizenID id.CitizenID, reason, issuedBy string, now time.Time) (*WantedRecord, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "wanted reason cannot be empty")
	}
	return &WantedRecord{
		ID:        id.WantedID(uuid.New()),
		CitizenID: citizenID,
		Reason:    reason,
		IssuedBy:  issuedBy,
		IssuedAt:  now,
	}, nil
}

// ApplyClear marks the record cleared. Clearing twice is rejected upstream by
// the active-record lookup.
func (w *WantedRecord) ApplyClear(clearedBy string, now time.Time) {
	w.Cleared = true
	w.ClearedBy = clearedBy
	w.ClearedAt = &now
}

// FineStatus is the fine lifecycle state. Paid and waived are terminal.
type FineStatus string

const (
	FineIssued FineStatus = "issued"
	FinePaid   FineStatus = "paid"
	FineWaived FineStatus = "waived"
)

// Fine is a monetary penalty against a citizen.
type Fine struct {
	ID        id.FineID
	CitizenID id.CitizenID
	Amount    int64
	Reason    string
	IssuedBy  string
	Status    FineStatus
	IssuedAt  time.Time
	SettledAt *time.Time
}

// NewFine validates inputs and constructs an issued fine.
func NewFine(citizenID id.CitizenID, amount int64, reason, issuedBy string, now time.Time) (*Fine, error) {
	if amount <= 0 {
		return nil, derrors.Newf(derrors.CodeInvalidValue, "fine amount must be positive, got %d", amount)
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, derrors.New(derrors.CodeInvalidValue, "fine reason cannot be empty")
	}
	return &Fine{
		ID:        id.FineID(uuid.New()),
		CitizenID: citizenID,
		Amount:    amount,
		Reason:    reason,
		IssuedBy:  issuedBy,
		Status:    FineIssued,
		IssuedAt:  now,
	}, nil
}

// CanSettle rejects settling a fine that already reached a terminal state.
func (f *Fine) CanSettle() error {
	if f.Status != FineIssued {
		return derrors.Newf(derrors.CodeAlreadyPaid, "fine already %s", f.Status)
	}
	return nil
}

// ApplyPaid marks the fine paid. Call CanSettle first.
func (f *Fine) ApplyPaid(now time.Time) {
	f.Status = FinePaid
	f.SettledAt = &now
}

// ApplyWaived marks the fine waived. Call CanSettle first.
func (f *Fine) ApplyWaived(now time.Time) {
	f.Status = FineWaived
	f.SettledAt = &now
}

// History is the full enforcement trail for one citizen.
type History struct {
	CitizenID id.CitizenID
	Wanted    []*WantedRecord
	Fines     []*Fine
}
