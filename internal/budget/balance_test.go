package budget

import (
	"errors"
	"testing"

	"budget/internal/core"
)

func rub(cents int64) core.Money {
	return core.NewMoney(cents, "RUB")
}

func mustRemain(t *testing.T, account string, date core.Date, value core.Money) Remain {
	t.Helper()
	r, err := NewRemain(core.AccountNumber(account), date, value)
	if err != nil {
		t.Fatalf("remain: %v", err)
	}
	return r
}

func TestRemainID(t *testing.T) {
	r := mustRemain(t, "40817810108290012345", core.NewDate(2018, 1, 1), rub(1000000))
	if r.ID() != "40817810108290012345_20180101" {
		t.Errorf("ID = %q", r.ID())
	}

	other := mustRemain(t, "40817810108290012345", core.NewDate(2018, 1, 1), rub(2000000))
	if !r.SameIdentityAs(other) {
		t.Error("remains for the same account and date should share identity")
	}
}

func TestBalanceReplayIdempotence(t *testing.T) {
	remain := mustRemain(t, "acc-1", core.NewDate(2020, 3, 1), rub(10000))
	b, err := NewBalance(remain, nil)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.Value != remain.Value {
		t.Errorf("empty replay: value %v, want %v", b.Value, remain.Value)
	}
}

func TestBalanceReplay(t *testing.T) {
	remain := mustRemain(t, "acc-1", core.NewDate(2020, 3, 10), rub(10000))
	ops := []core.Operation{
		// before the snapshot date: already reflected, skipped
		{ID: "op-0", Recorded: core.NewDate(2020, 3, 5), Amount: rub(99999), Type: core.Withdraw, Account: "acc-1"},
		{ID: "op-1", Recorded: core.NewDate(2020, 3, 10), Amount: rub(500), Type: core.Deposit, Account: "acc-1"},
		{ID: "op-2", Recorded: core.NewDate(2020, 3, 12), Amount: rub(300), Type: core.Withdraw, Account: "acc-1"},
	}

	b, err := NewBalance(remain, ops)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if b.Value.Cents != 10200 {
		t.Errorf("value = %d cents, want 10200", b.Value.Cents)
	}
	if len(b.Operations) != 3 {
		t.Errorf("operations kept: %d, want 3", len(b.Operations))
	}
}

func TestBalanceReplayCurrencyMismatch(t *testing.T) {
	remain := mustRemain(t, "acc-1", core.NewDate(2020, 3, 1), rub(10000))
	ops := []core.Operation{
		{ID: "op-1", Recorded: core.NewDate(2020, 3, 2), Amount: core.NewMoney(500, "EUR"), Type: core.Deposit, Account: "acc-1"},
	}
	if _, err := NewBalance(remain, ops); !errors.Is(err, core.ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestBalanceReplayUnknownOperationType(t *testing.T) {
	remain := mustRemain(t, "acc-1", core.NewDate(2020, 3, 1), rub(10000))
	ops := []core.Operation{
		{ID: "op-1", Recorded: core.NewDate(2020, 3, 2), Amount: rub(500), Type: core.OperationType("hold"), Account: "acc-1"},
	}
	if _, err := NewBalance(remain, ops); !errors.Is(err, core.ErrUnknownOperationType) {
		t.Errorf("expected ErrUnknownOperationType, got %v", err)
	}
}
