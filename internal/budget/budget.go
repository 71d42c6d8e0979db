package budget

import (
	"fmt"
	"sort"
	"strings"

	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/eval"
)

const (
	// DefaultLocale decides the first day of the week when a budget does
	// not set one. "en" weeks run Sunday through Saturday.
	DefaultLocale = "en"
)

// BudgetID identifies a budget.
type BudgetID string

// A Budget is a named set of cash-flow rules with the currency and locale
// the projection runs under. The locale only decides which weekday starts
// a week; it affects segmentation and nothing else.
type Budget struct {
	ID       BudgetID
	Name     string
	Currency string
	Locale   string

	rules []Rule
}

// NewBudget creates a budget over a copy of the given rules.
func NewBudget(id BudgetID, name string, rules []Rule, currency, locale string) (*Budget, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("budget %q: empty name", id)
	}
	if currency == "" {
		currency = core.DefaultCurrency
	}
	if locale == "" {
		locale = DefaultLocale
	}
	b := &Budget{ID: id, Name: name, Currency: currency, Locale: locale}
	b.rules = append(b.rules, rules...)
	return b, nil
}

// Rules returns a copy of the rule set in iteration order.
func (b *Budget) Rules() []Rule {
	out := make([]Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// AddRule appends a rule to the budget.
func (b *Budget) AddRule(r Rule) {
	b.rules = append(b.rules, r)
}

// DeleteRule removes the rule with the given id.
func (b *Budget) DeleteRule(id RuleID) {
	for i, r := range b.rules {
		if r.ID == id {
			b.rules = append(b.rules[:i], b.rules[i+1:]...)
			return
		}
	}
}

// Calculate projects the budget over [start, finish] and returns one
// BudgetBalance per week-aligned sub-period, in date order.
//
// The first sub-period starts exactly at start; every following one starts
// on the locale's first weekday. The running remains map persists across
// sub-periods: known actual remains merge in as their dates are reached,
// and every plan item folds into it in generation order. Real operations
// are tracked separately as per-account movements and never influence the
// plan-driven remains.
//
// The calendar must cover the whole range; the rule set is only read.
func (b *Budget) Calculate(
	cal *calendar.WorkCalendar,
	actualRemains []Remain,
	defaultAccount core.AccountNumber,
	start, finish core.Date,
	operations []core.Operation,
) ([]BudgetBalance, error) {
	if cal == nil {
		return nil, fmt.Errorf("calculate %s..%s: nil calendar: %w", start, finish, ErrCalendarRange)
	}
	if start.After(finish) {
		return nil, fmt.Errorf("calculate: start %s is after finish %s", start, finish)
	}
	if !cal.Covers(start, finish) {
		return nil, fmt.Errorf("calculate %s..%s: calendar covers %s..%s: %w",
			start, finish, cal.From(), cal.To(), ErrCalendarRange)
	}

	firstDay := firstDayOfWeek(b.Locale)

	var knownRemains []Remain
	for _, r := range actualRemains {
		if !r.Date.After(finish) {
			knownRemains = append(knownRemains, r)
		}
	}

	var knownOps []core.Operation
	for _, op := range operations {
		if !op.Recorded.After(finish) && !op.Recorded.Before(start) {
			knownOps = append(knownOps, op)
		}
	}

	currentRemains := make(map[core.AccountNumber]Remain)
	var result []BudgetBalance

	// The cursor advances seven days per iteration; sub-period boundaries
	// snap to the locale week containing it. The loop runs until the
	// clipped period boundary reaches finish, so the periods tile
	// [start, finish] exactly.
	for date := start; ; date = date.AddDays(7) {
		weekStart := date
		if !date.Equal(start) {
			weekStart = startOfWeek(date, firstDay)
		}
		weekEnd := startOfWeek(date, firstDay).AddDays(6)
		if weekEnd.After(finish) {
			weekEnd = finish
		}

		// Actual remains known by the start of this sub-period override the
		// projected ones; per account the latest-dated remain wins.
		for _, r := range knownRemains {
			if r.Date.After(weekStart) {
				continue
			}
			if cur, ok := currentRemains[r.Account]; !ok || !r.Date.Before(cur.Date) {
				currentRemains[r.Account] = r
			}
		}

		startRemains := make(map[core.AccountNumber]Remain, len(currentRemains))
		for k, v := range currentRemains {
			startRemains[k] = v
		}

		expansion, err := b.expandRules(cal, weekStart, weekEnd)
		if err != nil {
			return nil, err
		}

		// Phase one: turn the expansion into plan items dated at the cursor
		// (clamped to the range end on the final period).
		itemDate := date
		if itemDate.After(finish) {
			itemDate = finish
		}
		items := make([]Plan, 0, len(expansion))
		for _, rv := range expansion {
			dir, err := DirectionOf(rv.Rule.Type.Symbol())
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", rv.Rule.Name, err)
			}
			items = append(items, Plan{
				ID:        planID(rv.Rule.ID, itemDate),
				Rule:      rv.Rule,
				Date:      itemDate,
				Direction: dir,
				Value:     rv.Value,
				Source:    rv.Rule.Source,
				Target:    rv.Rule.Target,
				Category:  rv.Rule.Category,
			})
		}

		// Phase two: fold the items over the running remains in generation
		// order.
		for _, item := range items {
			if err := applyPlan(currentRemains, item, defaultAccount, weekEnd); err != nil {
				return nil, err
			}
		}

		movements, err := weekMovements(knownOps, startRemains, weekStart, weekEnd)
		if err != nil {
			return nil, err
		}

		balance, err := newBudgetBalance(weekStart, weekEnd, items, snapshotRemains(currentRemains), movements)
		if err != nil {
			return nil, err
		}
		result = append(result, balance)

		if !weekEnd.Before(finish) {
			break
		}
	}

	return result, nil
}

// ruleValue is one entry of an expansion: a matched rule and its resolved
// value for the period.
type ruleValue struct {
	Rule  Rule
	Value core.Money
}

// expandRules walks every day of [start, finish] and resolves the value of
// every rule matching that day. A rule appears once per period, positioned
// where it first matched; when it matches several days, the value from the
// last matching day wins.
func (b *Budget) expandRules(cal *calendar.WorkCalendar, start, finish core.Date) ([]ruleValue, error) {
	var out []ruleValue
	index := make(map[RuleID]int)
	for d := start; !d.After(finish); d = d.AddDays(1) {
		for _, rule := range b.rules {
			if !rule.Matches(d, cal) {
				continue
			}
			value := rule.Value
			if !rule.Formula.IsZero() {
				month := calendar.YearMonthOf(d)
				v, err := rule.Formula.Evaluate(eval.Args{
					Date:      d,
					Month:     month,
					PrevMonth: month.Prev(),
					NextMonth: month.Next(),
					Value:     rule.Value,
					Currency:  rule.Value.Currency,
					Calendar:  cal,
				})
				if err != nil {
					return nil, fmt.Errorf("rule %q on %s: %w", rule.Name, d, err)
				}
				value = v
			}
			if i, ok := index[rule.ID]; ok {
				out[i].Value = value
			} else {
				index[rule.ID] = len(out)
				out = append(out, ruleValue{Rule: rule, Value: value})
			}
		}
	}
	return out, nil
}

// applyPlan adjusts the running remains for a single plan item. Accounts
// without a remain start from zero in the item's currency, dated at the
// period end.
func applyPlan(remains map[core.AccountNumber]Remain, item Plan, defaultAccount core.AccountNumber, weekEnd core.Date) error {
	source := item.Source
	if source == "" {
		source = defaultAccount
	}
	target := item.Target
	if target == "" {
		target = defaultAccount
	}

	get := func(acct core.AccountNumber) Remain {
		if r, ok := remains[acct]; ok {
			return r
		}
		return Remain{Account: acct, Date: weekEnd, Value: core.Zero(item.Value.Currency)}
	}

	credit := func(acct core.AccountNumber) error {
		r := get(acct)
		v, err := r.Value.Add(item.Value)
		if err != nil {
			return fmt.Errorf("plan %s: credit %s: %w", item.ID, acct, err)
		}
		remains[acct] = Remain{Account: acct, Date: weekEnd, Value: v}
		return nil
	}
	debit := func(acct core.AccountNumber) error {
		r := get(acct)
		v, err := r.Value.Subtract(item.Value)
		if err != nil {
			return fmt.Errorf("plan %s: debit %s: %w", item.ID, acct, err)
		}
		remains[acct] = Remain{Account: acct, Date: weekEnd, Value: v}
		return nil
	}

	switch item.Direction {
	case DirIncome:
		return credit(target)
	case DirExpense:
		return debit(source)
	case DirMove:
		if err := debit(source); err != nil {
			return err
		}
		return credit(target)
	default:
		return fmt.Errorf("plan %s: %w: %q", item.ID, ErrInvalidDirection, string(item.Direction))
	}
}

// weekMovements folds the operations recorded within [weekStart, weekEnd]
// into one movement per touched account. The start remain is the known
// remain at the period start, or zero when the account has none yet.
func weekMovements(ops []core.Operation, startRemains map[core.AccountNumber]Remain, weekStart, weekEnd core.Date) ([]AccountMovement, error) {
	grouped := make(map[core.AccountNumber][]core.Operation)
	var order []core.AccountNumber
	for _, op := range ops {
		if op.Recorded.After(weekEnd) || op.Recorded.Before(weekStart) {
			continue
		}
		if _, ok := grouped[op.Account]; !ok {
			order = append(order, op.Account)
		}
		grouped[op.Account] = append(grouped[op.Account], op)
	}

	movements := make([]AccountMovement, 0, len(order))
	for _, acct := range order {
		accountOps := grouped[acct]
		start, ok := startRemains[acct]
		if !ok {
			start = Remain{Account: acct, Date: weekStart, Value: core.Zero(accountOps[0].Amount.Currency)}
		}
		value := start.Value
		for _, op := range accountOps {
			var err error
			value, err = op.Apply(value)
			if err != nil {
				return nil, fmt.Errorf("movement of %s in %s..%s: operation %s: %w",
					acct, weekStart, weekEnd, op.ID, err)
			}
		}
		movements = append(movements, AccountMovement{
			Start:      start,
			Finish:     Remain{Account: acct, Date: weekEnd, Value: value},
			Operations: accountOps,
		})
	}
	return movements, nil
}

// snapshotRemains copies the full running map, ordered by account for
// deterministic output.
func snapshotRemains(remains map[core.AccountNumber]Remain) []Remain {
	out := make([]Remain, 0, len(remains))
	for _, r := range remains {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Account < out[j].Account })
	return out
}
