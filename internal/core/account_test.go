package core

import (
	"errors"
	"testing"
)

func TestAddPaymentAmountMismatchedAccountFails(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "100")
	other := testAccount(2, "100")

	p, err := NewPayment(now, now, dec("10"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := other.AddPaymentAmount(p); !errors.Is(err, ErrAccountMismatch) {
		t.Fatalf("expected ErrAccountMismatch, got %v", err)
	}
	if !other.CurrentBalance.Equal(dec("100")) {
		t.Fatalf("mismatched account balance moved: %s", other.CurrentBalance)
	}
}

func TestAddPaymentAmountUnclearedIsNoop(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "100")

	p, err := NewPayment(now, date(2024, 7, 1), dec("10"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := acc.AddPaymentAmount(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.CurrentBalance.Equal(dec("100")) {
		t.Fatalf("uncleared payment moved the balance: %s", acc.CurrentBalance)
	}
}

func TestExpenseRoundTripIdentity(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "80")

	p, err := NewPayment(now, now, dec("20"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.CurrentBalance.Equal(dec("60")) {
		t.Fatalf("balance after add = %s, want 60", acc.CurrentBalance)
	}
	if err := acc.RemovePaymentAmount(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.CurrentBalance.Equal(dec("80")) {
		t.Fatalf("balance after remove = %s, want 80", acc.CurrentBalance)
	}
}

func TestOverdrawnFlagFollowsBalance(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "10")

	if _, err := NewPayment(now, now, dec("25"), Expense, acc, nil, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.IsOverdrawn {
		t.Fatal("expected account overdrawn at -15")
	}

	if _, err := NewPayment(now, now, dec("100"), Income, acc, nil, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.IsOverdrawn {
		t.Fatal("expected overdrawn flag cleared at 85")
	}
}

func TestExcludedAccountNeverOverdrawn(t *testing.T) {
	acc := NewAccount("savings", dec("0"), "")
	acc.ID = 1
	acc.IsExcluded = true

	now := date(2024, 6, 1)
	if _, err := NewPayment(now, now, dec("5"), Expense, acc, nil, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.IsOverdrawn {
		t.Fatal("excluded accounts do not carry the overdrawn flag")
	}
}

func TestDeactivatePreservesBalance(t *testing.T) {
	acc := testAccount(1, "42")
	acc.Deactivate()
	if !acc.IsDeactivated {
		t.Fatal("expected account deactivated")
	}
	if !acc.CurrentBalance.Equal(dec("42")) {
		t.Fatalf("deactivation must not touch the balance: %s", acc.CurrentBalance)
	}
}
