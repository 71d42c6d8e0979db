// Package eval evaluates budget rule formulas.
//
// Formulas are plain arithmetic expressions over a fixed set of bindings:
// date, month, prevMonth, nextMonth, value, currency and calendar. They are
// parsed with go/parser and interpreted over a whitelisted AST, so a formula
// can reach arithmetic, month/date helpers and workday counting and nothing
// else: no filesystem, network or process access is visible.
//
// Example formula, prorating a salary by the workdays of the second half of
// the previous month:
//
//	value.amount() * (calendar.workdaysBetween(prevMonth.atDay(16), prevMonth.atEndOfMonth()) / calendar.workdaysBetween(prevMonth.atDay(1), prevMonth.atEndOfMonth()))
package eval

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"strconv"
	"time"

	"budget/internal/cache"
	"budget/internal/calendar"
	"budget/internal/core"
)

// ErrFormula reports that a formula failed to parse, referenced something
// outside the sandbox, or did not reduce to a number.
var ErrFormula = errors.New("formula error")

// Args is the complete set of bindings visible to a formula.
type Args struct {
	Date      core.Date
	Month     calendar.YearMonth
	PrevMonth calendar.YearMonth
	NextMonth calendar.YearMonth
	Value     core.Money
	Currency  string
	Calendar  *calendar.WorkCalendar
}

// Expression is a formula source string. The zero value is the empty
// expression, which is invalid to evaluate.
type Expression struct {
	src string
}

// New creates an expression from its source text. The text is not parsed
// until evaluation.
func New(src string) Expression {
	return Expression{src: src}
}

func (e Expression) String() string {
	return e.src
}

// IsZero reports whether the expression is empty.
func (e Expression) IsZero() bool {
	return e.src == ""
}

// Parsed expressions are cached: budgets re-evaluate the same handful of
// formulas once per matched day.
var astCache = cache.NewLRUCache[ast.Expr](256, time.Hour)

// ASTCache exposes the parsed-expression cache for registration with a
// cache.Manager cleanup loop.
func ASTCache() cache.Cleaner {
	return astCache
}

// Evaluate runs the formula against the given bindings and wraps the
// resulting scalar as Money in args.Currency. The scalar is interpreted in
// major units and rounded half-up to cents.
func (e Expression) Evaluate(args Args) (core.Money, error) {
	if e.src == "" {
		return core.Money{}, fmt.Errorf("%w: empty expression", ErrFormula)
	}
	root, ok := astCache.Get(e.src)
	if !ok {
		parsed, err := parser.ParseExpr(e.src)
		if err != nil {
			return core.Money{}, fmt.Errorf("parse %q: %w: %v", e.src, ErrFormula, err)
		}
		astCache.Set(e.src, parsed)
		root = parsed
	}

	env := map[string]any{
		"date":      args.Date,
		"month":     args.Month,
		"prevMonth": args.PrevMonth,
		"nextMonth": args.NextMonth,
		"value":     args.Value,
		"currency":  args.Currency,
		"calendar":  args.Calendar,
	}

	result, err := evalNode(root, env)
	if err != nil {
		return core.Money{}, fmt.Errorf("evaluate %q: %w", e.src, err)
	}
	scalar, ok := result.(float64)
	if !ok {
		return core.Money{}, fmt.Errorf("evaluate %q: %w: result is %T, not a number", e.src, ErrFormula, result)
	}
	if math.IsNaN(scalar) || math.IsInf(scalar, 0) {
		return core.Money{}, fmt.Errorf("evaluate %q: %w: result is not finite", e.src, ErrFormula)
	}
	return core.NewMoney(roundToCents(scalar), args.Currency), nil
}

func roundToCents(major float64) int64 {
	return int64(math.Round(major * 100))
}

func evalNode(node ast.Expr, env map[string]any) (any, error) {
	switch n := node.(type) {
	case *ast.BasicLit:
		switch n.Kind {
		case token.INT, token.FLOAT:
			v, err := strconv.ParseFloat(n.Value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad literal %q", ErrFormula, n.Value)
			}
			return v, nil
		default:
			return nil, fmt.Errorf("%w: literal %q not allowed", ErrFormula, n.Value)
		}

	case *ast.ParenExpr:
		return evalNode(n.X, env)

	case *ast.Ident:
		v, ok := env[n.Name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown identifier %q", ErrFormula, n.Name)
		}
		return v, nil

	case *ast.UnaryExpr:
		x, err := evalNumber(n.X, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		default:
			return nil, fmt.Errorf("%w: operator %s not allowed", ErrFormula, n.Op)
		}

	case *ast.BinaryExpr:
		x, err := evalNumber(n.X, env)
		if err != nil {
			return nil, err
		}
		y, err := evalNumber(n.Y, env)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrFormula)
			}
			return x / y, nil
		default:
			return nil, fmt.Errorf("%w: operator %s not allowed", ErrFormula, n.Op)
		}

	case *ast.CallExpr:
		return evalCall(n, env)

	default:
		return nil, fmt.Errorf("%w: expression form %T not allowed", ErrFormula, node)
	}
}

func evalNumber(node ast.Expr, env map[string]any) (float64, error) {
	v, err := evalNode(node, env)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: %T is not a number", ErrFormula, v)
	}
	return f, nil
}

// evalCall dispatches the whitelisted method set. Every method lives on one
// of the bound values; free function calls are rejected.
func evalCall(call *ast.CallExpr, env map[string]any) (any, error) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok {
		return nil, fmt.Errorf("%w: only method calls on bound values are allowed", ErrFormula)
	}
	recv, err := evalNode(sel.X, env)
	if err != nil {
		return nil, err
	}
	method := sel.Sel.Name

	args := make([]any, len(call.Args))
	for i, a := range call.Args {
		v, err := evalNode(a, env)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	switch r := recv.(type) {
	case calendar.YearMonth:
		return callYearMonth(r, method, args)
	case core.Date:
		return callDate(r, method, args)
	case core.Money:
		return callMoney(r, method, args)
	case *calendar.WorkCalendar:
		return callCalendar(r, method, args)
	default:
		return nil, fmt.Errorf("%w: no methods on %T", ErrFormula, recv)
	}
}

func callYearMonth(ym calendar.YearMonth, method string, args []any) (any, error) {
	switch method {
	case "atDay":
		if err := arity(method, args, 1); err != nil {
			return nil, err
		}
		day, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%w: atDay expects a numeric argument", ErrFormula)
		}
		return ym.AtDay(int(day)), nil
	case "atEndOfMonth":
		if err := arity(method, args, 0); err != nil {
			return nil, err
		}
		return ym.AtEndOfMonth(), nil
	default:
		return nil, fmt.Errorf("%w: unknown month method %q", ErrFormula, method)
	}
}

func callDate(d core.Date, method string, args []any) (any, error) {
	if err := arity(method, args, 0); err != nil {
		return nil, err
	}
	switch method {
	case "day":
		return float64(d.Day()), nil
	case "month":
		return float64(d.Month()), nil
	case "year":
		return float64(d.Year()), nil
	default:
		return nil, fmt.Errorf("%w: unknown date method %q", ErrFormula, method)
	}
}

func callMoney(m core.Money, method string, args []any) (any, error) {
	if err := arity(method, args, 0); err != nil {
		return nil, err
	}
	switch method {
	case "amount":
		return m.Amount(), nil
	default:
		return nil, fmt.Errorf("%w: unknown money method %q", ErrFormula, method)
	}
}

func callCalendar(c *calendar.WorkCalendar, method string, args []any) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("%w: no calendar bound", ErrFormula)
	}
	switch method {
	case "workdaysBetween":
		if err := arity(method, args, 2); err != nil {
			return nil, err
		}
		from, ok1 := args[0].(core.Date)
		to, ok2 := args[1].(core.Date)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("%w: workdaysBetween expects two dates", ErrFormula)
		}
		return float64(c.WorkdaysBetween(from, to)), nil
	case "isWorkday":
		if err := arity(method, args, 1); err != nil {
			return nil, err
		}
		d, ok := args[0].(core.Date)
		if !ok {
			return nil, fmt.Errorf("%w: isWorkday expects a date", ErrFormula)
		}
		if c.IsWorkday(d) {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return nil, fmt.Errorf("%w: unknown calendar method %q", ErrFormula, method)
	}
}

func arity(method string, args []any, want int) error {
	if len(args) != want {
		return fmt.Errorf("%w: %s expects %d argument(s), got %d", ErrFormula, method, want, len(args))
	}
	return nil
}
