package memory

import (
	"context"
	"testing"

	"budget/internal/budget"
	"budget/internal/core"
)

func TestStoreWriteAndRead(t *testing.T) {
	s := New()

	result := []budget.BudgetBalance{
		{From: core.NewDate(2020, 3, 1), To: core.NewDate(2020, 3, 7)},
		{From: core.NewDate(2020, 3, 8), To: core.NewDate(2020, 3, 14)},
	}

	ref, err := s.WriteForecast(context.Background(), "budget-1", result)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if ref != "mem:budget-1:1" {
		t.Errorf("ref = %q, want mem:budget-1:1", ref)
	}

	rows := s.Forecast("budget-1")
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0][0] != "2020-03-01" || rows[1][1] != "2020-03-14" {
		t.Errorf("unexpected rows: %v", rows)
	}

	// A second write replaces, not appends.
	if _, err := s.WriteForecast(context.Background(), "budget-1", result[:1]); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	if got := len(s.Forecast("budget-1")); got != 1 {
		t.Errorf("after rewrite: %d rows, want 1", got)
	}

	if rows := s.Forecast("unknown"); len(rows) != 0 {
		t.Errorf("unknown budget returned %v", rows)
	}
}
