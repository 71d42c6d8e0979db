package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"budget/internal/amqp"
	"budget/internal/budget"
	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/export/memory"
	"budget/internal/services"
)

type fakeStore struct {
	budgets map[budget.BudgetID]*budget.Budget
	listErr error
}

func (f *fakeStore) GetBudget(_ context.Context, id budget.BudgetID) (*budget.Budget, error) {
	b, ok := f.budgets[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (f *fakeStore) ListRemains(_ context.Context, _ core.Date) ([]budget.Remain, error) {
	return nil, nil
}

func (f *fakeStore) ListOperations(_ context.Context, _, _ core.Date) ([]core.Operation, error) {
	return nil, nil
}

func (f *fakeStore) LoadCalendar(_ context.Context, from, to core.Date) (*calendar.WorkCalendar, error) {
	return calendar.NewWorkCalendar(from, to)
}

func (f *fakeStore) ListBudgetIDs(_ context.Context) ([]budget.BudgetID, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var ids []budget.BudgetID
	for id := range f.budgets {
		ids = append(ids, id)
	}
	return ids, nil
}

func newTestBudget(t *testing.T, id budget.BudgetID) *budget.Budget {
	t.Helper()
	rec := calendar.NewRecurrence(calendar.Weekly, core.NewDate(2020, 1, 1), core.Date{}, 1, 1)
	rule, err := budget.NewRule("groceries", budget.Expense, "Groceries", "", "", rec,
		core.Money{Cents: 150000, Currency: "RUB"})
	if err != nil {
		t.Fatalf("rule: %v", err)
	}
	b, err := budget.NewBudget(id, "test", []budget.Rule{rule}, "RUB", "en")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	return b
}

func TestHandleForecastRequest(t *testing.T) {
	store := &fakeStore{budgets: map[budget.BudgetID]*budget.Budget{
		"budget-1": newTestBudget(t, "budget-1"),
	}}
	sink := memory.New()
	svc := services.NewForecastService(store, sink, nil, "acc-default")
	w := NewForecastWorker(svc, store, 12, time.Minute)

	msg := amqp.NewForecastRequestMessage("budget-1", "2020-03-01", "2020-03-31")
	if err := w.HandleForecastRequest(context.Background(), msg); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if rows := sink.Forecast("budget-1"); len(rows) != 5 {
		t.Errorf("sink holds %d rows, want 5", len(rows))
	}
}

func TestHandleForecastRequestBadDates(t *testing.T) {
	store := &fakeStore{budgets: map[budget.BudgetID]*budget.Budget{}}
	svc := services.NewForecastService(store, memory.New(), nil, "acc-default")
	w := NewForecastWorker(svc, store, 12, time.Minute)

	bad := []*amqp.ForecastRequestMessage{
		{BudgetID: "budget-1", From: "March 1st", To: "2020-03-31"},
		{BudgetID: "budget-1", From: "2020-03-01", To: ""},
	}
	for _, msg := range bad {
		if err := w.HandleForecastRequest(context.Background(), msg); err == nil {
			t.Errorf("message %+v: expected an error", msg)
		}
	}
}

func TestRecalculateAll(t *testing.T) {
	store := &fakeStore{budgets: map[budget.BudgetID]*budget.Budget{
		"budget-1": newTestBudget(t, "budget-1"),
		"budget-2": newTestBudget(t, "budget-2"),
	}}
	sink := memory.New()
	svc := services.NewForecastService(store, sink, nil, "acc-default")
	w := NewForecastWorker(svc, store, 4, time.Minute)

	if err := w.RecalculateAll(context.Background()); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	for _, id := range []budget.BudgetID{"budget-1", "budget-2"} {
		if rows := sink.Forecast(id); len(rows) == 0 {
			t.Errorf("budget %s: no forecast written", id)
		}
	}
}

func TestRecalculateAllContinuesOnError(t *testing.T) {
	// One budget resolves, the other does not exist in the store: the pass
	// continues past the failure and still reports it.
	store := &fakeStore{budgets: map[budget.BudgetID]*budget.Budget{
		"budget-1": newTestBudget(t, "budget-1"),
	}}
	lister := &staticLister{ids: []budget.BudgetID{"missing", "budget-1"}}
	sink := memory.New()
	svc := services.NewForecastService(store, sink, nil, "acc-default")
	w := NewForecastWorker(svc, lister, 4, time.Minute)

	if err := w.RecalculateAll(context.Background()); err == nil {
		t.Fatal("expected the missing budget to surface as an error")
	}
	if rows := sink.Forecast("budget-1"); len(rows) == 0 {
		t.Error("existing budget should still be recalculated")
	}
}

type staticLister struct {
	ids []budget.BudgetID
}

func (l *staticLister) ListBudgetIDs(_ context.Context) ([]budget.BudgetID, error) {
	return l.ids, nil
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{budgets: map[budget.BudgetID]*budget.Budget{}}
	svc := services.NewForecastService(store, memory.New(), nil, "acc-default")
	w := NewForecastWorker(svc, store, 4, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, nil) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
