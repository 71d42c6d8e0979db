package budget

import (
	"fmt"

	"budget/internal/core"
)

// Plan is one concrete occurrence of a rule on a specific date within a
// calculation. Plans are generated fresh on every Calculate call and are
// never persisted by the projection itself.
type Plan struct {
	ID        string
	Rule      Rule
	Date      core.Date
	Direction Direction
	Value     core.Money
	Source    core.AccountNumber
	Target    core.AccountNumber
	Category  string
}

// planID derives a deterministic identifier for a plan item. At most one
// plan per rule exists in a sub-period, so the rule and the cursor date
// identify it.
func planID(rule RuleID, date core.Date) string {
	return fmt.Sprintf("%s:%s", rule, date.Compact())
}

// AccountMovement models the observed activity of one account within one
// sub-period: the remain it started from, the recorded operations, and the
// remain they produce.
type AccountMovement struct {
	Start      Remain
	Finish     Remain
	Operations []core.Operation
}
