package budget

import (
	"fmt"

	"budget/internal/core"
)

// Balance is the result of replaying recorded operations on top of a known
// remain: the answer to "what is the balance now, given the snapshot we
// trust and everything that happened since".
type Balance struct {
	Remain     Remain
	Operations []core.Operation
	Value      core.Money
}

// NewBalance replays the operations against the remain and fixes the
// resulting value. Operations recorded strictly before the remain's date
// are already reflected in the snapshot and are skipped. The replay result
// does not depend on operation order; the list is kept as given for
// display. Fails with ErrCurrencyMismatch when an operation's currency
// differs from the running value and with ErrUnknownOperationType for a
// type outside the closed set.
func NewBalance(remain Remain, operations []core.Operation) (Balance, error) {
	value := remain.Value
	for _, op := range operations {
		if op.Recorded.Before(remain.Date) {
			// already included in the snapshot
			continue
		}
		var err error
		value, err = op.Apply(value)
		if err != nil {
			return Balance{}, fmt.Errorf("balance of %s: operation %s: %w", remain.Account, op.ID, err)
		}
	}
	ops := make([]core.Operation, len(operations))
	copy(ops, operations)
	return Balance{Remain: remain, Operations: ops, Value: value}, nil
}
