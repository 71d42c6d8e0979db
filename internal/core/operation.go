package core

import "strings"

// AccountNumber identifies a bank account.
type AccountNumber string

func (a AccountNumber) String() string {
	return string(a)
}

func (a AccountNumber) Validate() error {
	if strings.TrimSpace(string(a)) == "" {
		return ErrEmptyAccount
	}
	return nil
}

// OperationType is the direction of a real bank operation.
type OperationType string

const (
	Deposit  OperationType = "deposit"
	Withdraw OperationType = "withdraw"
)

// Operation is a real, recorded bank operation: the shape the projection
// consumes when reconciling planned flows against actual activity.
type Operation struct {
	ID       string
	Recorded Date
	Amount   Money
	Type     OperationType
	Account  AccountNumber
	Comment  string
}

func (op Operation) Validate() error {
	if err := op.Recorded.Validate(); err != nil {
		return err
	}
	if err := op.Account.Validate(); err != nil {
		return err
	}
	switch op.Type {
	case Deposit, Withdraw:
	default:
		return ErrUnknownOperationType
	}
	return nil
}

// Apply folds the operation into a running total: deposits add, withdrawals
// subtract. Fails with ErrCurrencyMismatch on a currency difference and
// with ErrUnknownOperationType for anything outside the closed type set.
func (op Operation) Apply(total Money) (Money, error) {
	switch op.Type {
	case Deposit:
		return total.Add(op.Amount)
	case Withdraw:
		return total.Subtract(op.Amount)
	default:
		return Money{}, ErrUnknownOperationType
	}
}
