// Package export publishes calculation results to outbound sinks.
package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"budget/internal/budget"
)

// ForecastWriter is the port for forecast sinks.
type ForecastWriter interface {
	// WriteForecast replaces the stored forecast of one budget with the
	// given sub-period results and returns a sink-specific reference.
	WriteForecast(ctx context.Context, budgetID budget.BudgetID, result []budget.BudgetBalance) (ref string, err error)
}

// Header is the column layout produced by Rows.
var Header = []any{"From", "To", "Incomes", "Expenses", "Balance", "Remains"}

// Rows flattens a calculation result into spreadsheet rows, one per
// sub-period, matching Header. Monetary cells hold major units; absent
// sides are left empty.
func Rows(result []budget.BudgetBalance) ([][]any, error) {
	rows := make([][]any, 0, len(result))
	for _, bb := range result {
		incomes, hasIncomes, err := bb.Incomes()
		if err != nil {
			return nil, fmt.Errorf("flatten %s..%s: %w", bb.From, bb.To, err)
		}
		expenses, hasExpenses, err := bb.Expenses()
		if err != nil {
			return nil, fmt.Errorf("flatten %s..%s: %w", bb.From, bb.To, err)
		}
		balance, hasBalance, err := bb.Balance()
		if err != nil {
			return nil, fmt.Errorf("flatten %s..%s: %w", bb.From, bb.To, err)
		}

		row := []any{bb.From.String(), bb.To.String(), "", "", "", remainsCell(bb.Remains)}
		if hasIncomes {
			row[2] = incomes.Amount()
		}
		if hasExpenses {
			row[3] = expenses.Amount()
		}
		if hasBalance {
			row[4] = balance.Amount()
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// remainsCell renders the projected remains as "account=value" pairs,
// ordered by account.
func remainsCell(remains []budget.Remain) string {
	sorted := append([]budget.Remain(nil), remains...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Account < sorted[j].Account })
	parts := make([]string, 0, len(sorted))
	for _, r := range sorted {
		parts = append(parts, fmt.Sprintf("%s=%s", r.Account, r.Value))
	}
	return strings.Join(parts, "; ")
}
