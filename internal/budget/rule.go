package budget

import (
	"errors"
	"fmt"
	"strings"

	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/eval"
)

var (
	ErrInvalidRuleType  = errors.New("unknown rule type")
	ErrInvalidDirection = errors.New("unknown direction")
	ErrCalendarRange    = errors.New("calendar does not cover the calculation period")
)

// RuleType classifies a budget rule by the kind of cash flow it plans.
type RuleType byte

const (
	Income  RuleType = '+'
	Expense RuleType = '-'
	Move    RuleType = 'M'
)

// Symbol returns the single-character code of the type.
func (t RuleType) Symbol() byte {
	return byte(t)
}

// RuleTypeOf resolves a symbol to a rule type.
func RuleTypeOf(symbol byte) (RuleType, error) {
	switch t := RuleType(symbol); t {
	case Income, Expense, Move:
		return t, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRuleType, string(symbol))
	}
}

// Direction is the sign of a concrete plan item. It mirrors the rule type
// symbol set.
type Direction byte

const (
	DirIncome  Direction = '+'
	DirExpense Direction = '-'
	DirMove    Direction = 'M'
)

// DirectionOf resolves a symbol to a direction.
func DirectionOf(symbol byte) (Direction, error) {
	switch d := Direction(symbol); d {
	case DirIncome, DirExpense, DirMove:
		return d, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, string(symbol))
	}
}

// RecurrencePattern is the predicate a rule consults to decide whether it
// fires on a given day. calendar.Recurrence is the standard implementation.
type RecurrencePattern interface {
	Matches(d core.Date, cal *calendar.WorkCalendar) bool
}

// RuleID identifies a budget rule.
type RuleID string

// A Rule is a recurring cash-flow definition: on every day its recurrence
// matches, it plans a flow of Value (or of the formula result when a
// formula is set) between its accounts.
//
// Source and Target may be empty; the projection substitutes the caller's
// default account at evaluation time.
type Rule struct {
	ID         RuleID
	Type       RuleType
	Name       string
	Source     core.AccountNumber
	Target     core.AccountNumber
	Category   string
	Recurrence RecurrencePattern
	Value      core.Money
	Formula    eval.Expression
	Enabled    bool
}

// NewRule creates an enabled rule and checks the construction invariants:
// type, name, value currency and recurrence must all be set.
func NewRule(id RuleID, t RuleType, name string, source, target core.AccountNumber,
	recurrence RecurrencePattern, value core.Money) (Rule, error) {
	if _, err := RuleTypeOf(t.Symbol()); err != nil {
		return Rule{}, fmt.Errorf("rule %q: %w", name, err)
	}
	if strings.TrimSpace(name) == "" {
		return Rule{}, fmt.Errorf("rule %q: empty name", id)
	}
	if value.Currency == "" {
		return Rule{}, fmt.Errorf("rule %q: value has no currency", name)
	}
	if recurrence == nil {
		return Rule{}, fmt.Errorf("rule %q: nil recurrence", name)
	}
	return Rule{
		ID:         id,
		Type:       t,
		Name:       name,
		Source:     source,
		Target:     target,
		Recurrence: recurrence,
		Value:      value,
		Enabled:    true,
	}, nil
}

// WithFormula returns a copy of the rule whose value is computed by the
// given formula instead of taken verbatim.
func (r Rule) WithFormula(formula eval.Expression) Rule {
	r.Formula = formula
	return r
}

// WithCategory returns a copy of the rule tagged with a category id.
func (r Rule) WithCategory(category string) Rule {
	r.Category = category
	return r
}

// Matches reports whether the rule fires on the given day.
func (r Rule) Matches(d core.Date, cal *calendar.WorkCalendar) bool {
	return r.Enabled && r.Recurrence.Matches(d, cal)
}

func (r Rule) String() string {
	return fmt.Sprintf("rule{%s, %s, source=%s, target=%s, value=%s, id=%s}",
		string(r.Type.Symbol()), r.Name, r.Source, r.Target, r.Value, r.ID)
}
