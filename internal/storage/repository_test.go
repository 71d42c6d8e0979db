package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"budget/internal/budget"
	"budget/internal/calendar"
	"budget/internal/core"
	"budget/internal/eval"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "budget.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testRule(t *testing.T, id string, rt budget.RuleType, name string) budget.Rule {
	t.Helper()
	rec := calendar.NewRecurrence(calendar.Monthly, core.NewDate(2020, 1, 1), core.Date{}, 1, 22)
	r, err := budget.NewRule(budget.RuleID(id), rt, name,
		"", core.AccountNumber("40817810108290012345"),
		rec, core.NewMoney(1800000, "RUB"))
	if err != nil {
		t.Fatalf("rule %s: %v", id, err)
	}
	return r
}

func TestSaveAndGetBudget(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	salary := testRule(t, "salary", budget.Income, "salary")
	rent := testRule(t, "rent", budget.Expense, "rent").
		WithCategory("housing").
		WithFormula(eval.New("value.amount() * 2"))
	disabled := testRule(t, "gym", budget.Expense, "gym")
	disabled.Enabled = false

	b, err := budget.NewBudget("budget-1", "family", []budget.Rule{salary, rent, disabled}, "RUB", "ru")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}

	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("SaveBudget: %v", err)
	}

	got, err := repo.GetBudget(ctx, "budget-1")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	if got.Name != "family" || got.Currency != "RUB" || got.Locale != "ru" {
		t.Errorf("budget header = %q/%q/%q, want family/RUB/ru", got.Name, got.Currency, got.Locale)
	}

	rules := got.Rules()
	if len(rules) != 3 {
		t.Fatalf("got %d rules, want 3", len(rules))
	}
	byID := make(map[budget.RuleID]budget.Rule, len(rules))
	for _, r := range rules {
		byID[r.ID] = r
	}

	gotSalary := byID["salary"]
	if gotSalary.Type != budget.Income || gotSalary.Value.Cents != 1800000 {
		t.Errorf("salary = %v/%d, want income/1800000", gotSalary.Type, gotSalary.Value.Cents)
	}
	if gotSalary.Recurrence.(calendar.Recurrence).String() != salary.Recurrence.(calendar.Recurrence).String() {
		t.Errorf("salary recurrence = %s, want %s", gotSalary.Recurrence, salary.Recurrence)
	}

	gotRent := byID["rent"]
	if gotRent.Category != "housing" {
		t.Errorf("rent category = %q, want housing", gotRent.Category)
	}
	if gotRent.Formula.IsZero() || gotRent.Formula.String() != "value.amount() * 2" {
		t.Errorf("rent formula = %q, want value.amount() * 2", gotRent.Formula)
	}

	if byID["gym"].Enabled {
		t.Error("gym should stay disabled after the round trip")
	}
}

func TestSaveBudgetReplacesRules(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b, err := budget.NewBudget("budget-1", "family",
		[]budget.Rule{testRule(t, "salary", budget.Income, "salary")}, "RUB", "en")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if err := repo.SaveBudget(ctx, b); err != nil {
		t.Fatalf("first SaveBudget: %v", err)
	}

	b2, err := budget.NewBudget("budget-1", "family",
		[]budget.Rule{testRule(t, "rent", budget.Expense, "rent")}, "RUB", "en")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if err := repo.SaveBudget(ctx, b2); err != nil {
		t.Fatalf("second SaveBudget: %v", err)
	}

	got, err := repo.GetBudget(ctx, "budget-1")
	if err != nil {
		t.Fatalf("GetBudget: %v", err)
	}
	rules := got.Rules()
	if len(rules) != 1 || rules[0].ID != "rent" {
		t.Errorf("rules after replace = %v, want only rent", rules)
	}
}

func TestGetBudgetNotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetBudget(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetBudget(missing) = %v, want ErrNotFound", err)
	}
}

func TestListAndDeleteBudgets(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"b-2", "b-1"} {
		b, err := budget.NewBudget(budget.BudgetID(id), "family",
			[]budget.Rule{testRule(t, "salary", budget.Income, "salary")}, "RUB", "en")
		if err != nil {
			t.Fatalf("budget %s: %v", id, err)
		}
		if err := repo.SaveBudget(ctx, b); err != nil {
			t.Fatalf("SaveBudget %s: %v", id, err)
		}
	}

	ids, err := repo.ListBudgetIDs(ctx)
	if err != nil {
		t.Fatalf("ListBudgetIDs: %v", err)
	}
	if len(ids) != 2 || ids[0] != "b-1" || ids[1] != "b-2" {
		t.Errorf("ListBudgetIDs = %v, want [b-1 b-2]", ids)
	}

	if err := repo.DeleteBudget(ctx, "b-1"); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := repo.DeleteBudget(ctx, "b-1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteBudget = %v, want ErrNotFound", err)
	}

	ids, err = repo.ListBudgetIDs(ctx)
	if err != nil {
		t.Fatalf("ListBudgetIDs: %v", err)
	}
	if len(ids) != 1 || ids[0] != "b-2" {
		t.Errorf("ListBudgetIDs after delete = %v, want [b-2]", ids)
	}
}

func TestSaveRemainUpserts(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := core.AccountNumber("40817810108290012345")
	day := core.NewDate(2020, 3, 15)

	first, err := budget.NewRemain(account, day, core.NewMoney(500000, "RUB"))
	if err != nil {
		t.Fatalf("remain: %v", err)
	}
	if err := repo.SaveRemain(ctx, first); err != nil {
		t.Fatalf("SaveRemain: %v", err)
	}

	second, err := budget.NewRemain(account, day, core.NewMoney(510000, "RUB"))
	if err != nil {
		t.Fatalf("remain: %v", err)
	}
	if err := repo.SaveRemain(ctx, second); err != nil {
		t.Fatalf("SaveRemain again: %v", err)
	}

	remains, err := repo.ListRemains(ctx, core.NewDate(2020, 3, 31))
	if err != nil {
		t.Fatalf("ListRemains: %v", err)
	}
	if len(remains) != 1 {
		t.Fatalf("got %d remains, want 1", len(remains))
	}
	if remains[0].Value.Cents != 510000 {
		t.Errorf("remain = %d cents, want 510000", remains[0].Value.Cents)
	}

	// Snapshots after the cutoff stay invisible.
	remains, err = repo.ListRemains(ctx, core.NewDate(2020, 3, 14))
	if err != nil {
		t.Fatalf("ListRemains: %v", err)
	}
	if len(remains) != 0 {
		t.Errorf("got %d remains before the snapshot date, want 0", len(remains))
	}
}

func TestSaveAndListOperations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	account := core.AccountNumber("40817810108290012345")

	ops := []core.Operation{
		{ID: "op-1", Recorded: core.NewDate(2020, 3, 2), Amount: core.NewMoney(1000, "RUB"), Type: core.Withdraw, Account: account, Comment: "groceries"},
		{ID: "op-2", Recorded: core.NewDate(2020, 3, 10), Amount: core.NewMoney(5000, "RUB"), Type: core.Deposit, Account: account},
		{ID: "op-3", Recorded: core.NewDate(2020, 4, 1), Amount: core.NewMoney(2000, "RUB"), Type: core.Withdraw, Account: account},
	}
	for _, op := range ops {
		if err := repo.SaveOperation(ctx, op); err != nil {
			t.Fatalf("SaveOperation %s: %v", op.ID, err)
		}
	}

	invalid := core.Operation{ID: "op-bad", Recorded: core.NewDate(2020, 3, 2), Amount: core.NewMoney(1, "RUB"), Type: "transfer", Account: account}
	if err := repo.SaveOperation(ctx, invalid); !errors.Is(err, core.ErrUnknownOperationType) {
		t.Errorf("SaveOperation(transfer) = %v, want ErrUnknownOperationType", err)
	}

	got, err := repo.ListOperations(ctx, core.NewDate(2020, 3, 1), core.NewDate(2020, 3, 31))
	if err != nil {
		t.Fatalf("ListOperations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d operations in March, want 2", len(got))
	}
	if got[0].ID != "op-1" || got[1].ID != "op-2" {
		t.Errorf("operations = %s, %s, want op-1, op-2", got[0].ID, got[1].ID)
	}
	if got[0].Comment != "groceries" || got[0].Type != core.Withdraw || got[0].Amount.Cents != 1000 {
		t.Errorf("op-1 round trip mismatch: %+v", got[0])
	}
}

func TestLoadCalendarWithOverrides(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	// 2020-03-09 is a Monday, 2020-03-14 a Saturday.
	if err := repo.SaveHoliday(ctx, core.NewDate(2020, 3, 9)); err != nil {
		t.Fatalf("SaveHoliday: %v", err)
	}
	if err := repo.SaveWorkday(ctx, core.NewDate(2020, 3, 14)); err != nil {
		t.Fatalf("SaveWorkday: %v", err)
	}
	// Out-of-range override must not leak into the loaded window.
	if err := repo.SaveHoliday(ctx, core.NewDate(2020, 5, 1)); err != nil {
		t.Fatalf("SaveHoliday: %v", err)
	}

	cal, err := repo.LoadCalendar(ctx, core.NewDate(2020, 3, 1), core.NewDate(2020, 3, 31))
	if err != nil {
		t.Fatalf("LoadCalendar: %v", err)
	}

	if cal.IsWorkday(core.NewDate(2020, 3, 9)) {
		t.Error("2020-03-09 marked as holiday but still counts as workday")
	}
	if !cal.IsWorkday(core.NewDate(2020, 3, 14)) {
		t.Error("2020-03-14 marked as workday but still counts as day off")
	}
	if !cal.IsWorkday(core.NewDate(2020, 3, 10)) {
		t.Error("plain Tuesday should be a workday")
	}
}
