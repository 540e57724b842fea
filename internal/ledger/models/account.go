package models

import (
	"time"

	id "civica/pkg/domain"
	derrors "civica/pkg/domain-errors"
)

// Account holds the authoritative currency balances for one citizen. Cash is
// the spendable balance every engine operation debits and credits; Bank is the
// deposit balance moved via deposit/withdraw.
//
// Invariant: Cash >= 0 and Bank >= 0 at all times. Every mutation is an atomic
// delta applied under the citizen's key lock.
type Account struct {
	CitizenID id.CitizenID
	Cash      int64
	Bank      int64
	UpdatedAt time.Time
}

// NewAccount opens a zero-balance account for a citizen.
func NewAccount(citizenID id.CitizenID, now time.Time) *Account {
	return &Account{CitizenID: citizenID, UpdatedAt: now}
}

// CanDebit validates a cash debit without applying it.
func (a *Account) CanDebit(amount int64) error {
	if a.Cash < amount {
		return derrors.New(derrors.CodeInsufficientFunds, "balance below debit amount")
	}
	return nil
}

// ApplyCredit increases the cash balance.
func (a *Account) ApplyCredit(amount int64, now time.Time) {
	a.Cash += amount
	a.UpdatedAt = now
}

// ApplyDebit decreases the cash balance. Callers validate via CanDebit first.
func (a *Account) ApplyDebit(amount int64, now time.Time) {
	a.Cash -= amount
	a.UpdatedAt = now
}

// CanWithdraw validates a bank-to-cash move without applying it.
func (a *Account) CanWithdraw(amount int64) error {
	if a.Bank < amount {
		return derrors.New(derrors.CodeInsufficientFunds, "bank balance below withdrawal amount")
	}
	return nil
}

// ApplyDeposit moves cash into the bank balance.
func (a *Account) ApplyDeposit(amount int64, now time.Time) {
	a.Cash -= amount
	a.Bank += amount
	a.UpdatedAt = now
}

// ApplyWithdrawal moves bank balance back to cash.
func (a *Account) ApplyWithdrawal(amount int64, now time.Time) {
	a.Bank -= amount
	a.Cash += amount
	a.UpdatedAt = now
}
