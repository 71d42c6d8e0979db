// Package budget implements the budget projection: recurring cash-flow
// rules, their expansion into dated plan items, point-in-time balance
// replay, and the week-by-week forecast of account remains reconciled
// against real bank operations.
package budget

import (
	"fmt"

	"budget/internal/core"
)

// Remain is an account balance known (or derived) as of a specific date.
// Identity is the (account, date) pair; the value never changes after
// construction.
type Remain struct {
	Account core.AccountNumber
	Date    core.Date
	Value   core.Money
}

// NewRemain creates a balance snapshot.
func NewRemain(account core.AccountNumber, date core.Date, value core.Money) (Remain, error) {
	if err := account.Validate(); err != nil {
		return Remain{}, fmt.Errorf("remain: %w", err)
	}
	if err := date.Validate(); err != nil {
		return Remain{}, fmt.Errorf("remain: %w", err)
	}
	return Remain{Account: account, Date: date, Value: value}, nil
}

// ID returns the natural identifier, e.g. "40817810108290012345_20180101".
func (r Remain) ID() string {
	return fmt.Sprintf("%s_%s", r.Account, r.Date.Compact())
}

// SameIdentityAs reports whether two remains describe the same account
// on the same date, regardless of value.
func (r Remain) SameIdentityAs(o Remain) bool {
	return r.Account == o.Account && r.Date.Equal(o.Date)
}

func (r Remain) String() string {
	return fmt.Sprintf("remain{%s, %s, %s}", r.Account, r.Date, r.Value)
}
