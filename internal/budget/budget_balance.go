package budget

import (
	"fmt"

	"budget/internal/core"
)

// BudgetBalance is the calculation result for one week-aligned sub-period:
// the planned items, the projected end-of-period remains per account, and
// the observed movements. It is derived data and is never stored.
type BudgetBalance struct {
	From      core.Date
	To        core.Date
	Items     []Plan
	Remains   []Remain
	Movements []AccountMovement
}

func newBudgetBalance(from, to core.Date, items []Plan, remains []Remain, movements []AccountMovement) (BudgetBalance, error) {
	if from.After(to) {
		return BudgetBalance{}, fmt.Errorf("budget balance %s..%s: from is after to", from, to)
	}
	return BudgetBalance{From: from, To: to, Items: items, Remains: remains, Movements: movements}, nil
}

// Incomes sums the income items. ok is false when the period plans no
// income.
func (b BudgetBalance) Incomes() (sum core.Money, ok bool, err error) {
	return b.sumByDirection(DirIncome)
}

// Expenses sums the expense items. ok is false when the period plans no
// expenses.
func (b BudgetBalance) Expenses() (sum core.Money, ok bool, err error) {
	return b.sumByDirection(DirExpense)
}

// Balance returns incomes minus expenses. A side with no items counts as
// zero when the other side is present; ok is false when neither side has
// items. Transfers do not contribute.
func (b BudgetBalance) Balance() (core.Money, bool, error) {
	incomes, hasIncomes, err := b.Incomes()
	if err != nil {
		return core.Money{}, false, err
	}
	expenses, hasExpenses, err := b.Expenses()
	if err != nil {
		return core.Money{}, false, err
	}
	switch {
	case !hasIncomes && !hasExpenses:
		return core.Money{}, false, nil
	case !hasIncomes:
		incomes = core.Zero(expenses.Currency)
	case !hasExpenses:
		expenses = core.Zero(incomes.Currency)
	}
	diff, err := incomes.Subtract(expenses)
	if err != nil {
		return core.Money{}, false, fmt.Errorf("balance %s..%s: %w", b.From, b.To, err)
	}
	return diff, true, nil
}

func (b BudgetBalance) sumByDirection(dir Direction) (core.Money, bool, error) {
	var sum core.Money
	found := false
	for _, item := range b.Items {
		if item.Direction != dir {
			continue
		}
		if !found {
			sum = item.Value
			found = true
			continue
		}
		var err error
		sum, err = sum.Add(item.Value)
		if err != nil {
			return core.Money{}, false, fmt.Errorf("sum of %s..%s items: %w", b.From, b.To, err)
		}
	}
	return sum, found, nil
}

// IsPast reports whether the whole sub-period is before the evaluation day.
func (b BudgetBalance) IsPast(today core.Date) bool {
	return b.To.Before(today)
}

// IsCurrent reports whether the evaluation day falls inside the sub-period.
func (b BudgetBalance) IsCurrent(today core.Date) bool {
	return !today.Before(b.From) && !today.After(b.To)
}

// IsFuture reports whether the sub-period is entirely after the evaluation day.
func (b BudgetBalance) IsFuture(today core.Date) bool {
	return b.From.After(today)
}

func (b BudgetBalance) String() string {
	return fmt.Sprintf("BudgetBalance{from=%s, to=%s, items=%d}", b.From, b.To, len(b.Items))
}
