// Package memory holds forecasts in process memory, mainly for tests and
// local runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"budget/internal/budget"
	"budget/internal/export"
)

type Store struct {
	mu        sync.Mutex
	forecasts map[budget.BudgetID][][]any
	writes    int
}

var _ export.ForecastWriter = (*Store)(nil)

func New() *Store {
	return &Store{forecasts: make(map[budget.BudgetID][][]any)}
}

// WriteForecast replaces the stored rows of the budget and returns a
// synthetic reference.
func (s *Store) WriteForecast(_ context.Context, budgetID budget.BudgetID, result []budget.BudgetBalance) (string, error) {
	rows, err := export.Rows(result)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forecasts[budgetID] = rows
	s.writes++
	return fmt.Sprintf("mem:%s:%d", budgetID, s.writes), nil
}

// Forecast returns the last written rows of a budget, or nil.
func (s *Store) Forecast(budgetID budget.BudgetID) [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.forecasts[budgetID]
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = append([]any(nil), row...)
	}
	return out
}
