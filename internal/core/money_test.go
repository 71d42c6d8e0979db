package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", -100, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := NewMoney(1000, "RUB")
	b := NewMoney(250, "RUB")

	sum, err := a.Add(b)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if sum.Cents != 1250 {
		t.Errorf("expected 1250 cents, got %d", sum.Cents)
	}

	diff, err := a.Subtract(b)
	if err != nil {
		t.Fatalf("subtract: %v", err)
	}
	if diff.Cents != 750 {
		t.Errorf("expected 750 cents, got %d", diff.Cents)
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	a := NewMoney(1000, "RUB")
	b := NewMoney(1000, "EUR")

	if _, err := a.Add(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("add: expected ErrCurrencyMismatch, got %v", err)
	}
	if _, err := a.Subtract(b); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("subtract: expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		m    Money
		want string
	}{
		{NewMoney(1234, "RUB"), "12.34 RUB"},
		{NewMoney(-50, "EUR"), "-0.50 EUR"},
		{Zero("RUB"), "0.00 RUB"},
	}
	for _, tc := range cases {
		if got := tc.m.String(); got != tc.want {
			t.Errorf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestOperationApply(t *testing.T) {
	total := NewMoney(10000, "RUB")

	dep := Operation{Type: Deposit, Amount: NewMoney(500, "RUB")}
	total, err := dep.Apply(total)
	if err != nil {
		t.Fatalf("deposit: %v", err)
	}
	if total.Cents != 10500 {
		t.Errorf("expected 10500 after deposit, got %d", total.Cents)
	}

	wd := Operation{Type: Withdraw, Amount: NewMoney(1500, "RUB")}
	total, err = wd.Apply(total)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if total.Cents != 9000 {
		t.Errorf("expected 9000 after withdrawal, got %d", total.Cents)
	}

	bad := Operation{Type: OperationType("transfer"), Amount: NewMoney(1, "RUB")}
	if _, err := bad.Apply(total); !errors.Is(err, ErrUnknownOperationType) {
		t.Errorf("expected ErrUnknownOperationType, got %v", err)
	}
}

func TestDateHelpers(t *testing.T) {
	d := NewDate(2020, 3, 1)
	if d.AddDays(7).Day() != 8 {
		t.Errorf("AddDays(7): expected day 8, got %d", d.AddDays(7).Day())
	}
	if !d.Before(NewDate(2020, 3, 2)) {
		t.Error("expected 2020-03-01 before 2020-03-02")
	}
	if d.DaysUntil(NewDate(2020, 3, 31)) != 30 {
		t.Errorf("DaysUntil: expected 30, got %d", d.DaysUntil(NewDate(2020, 3, 31)))
	}
	if d.Compact() != "20200301" {
		t.Errorf("Compact: got %q", d.Compact())
	}

	parsed, err := ParseDate("2020-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !parsed.Equal(d) {
		t.Errorf("parsed %v, expected %v", parsed, d)
	}
}
