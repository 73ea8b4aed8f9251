package core

import (
	"errors"
	"testing"
	"time"
)

func TestNewRecurringPaymentInvalidEndDate(t *testing.T) {
	acc := testAccount(1, "0")
	start := date(2024, 1, 1)
	end := date(2023, 12, 31)

	rp, err := NewRecurringPayment(start, dec("10"), Expense, Monthly, acc, nil, nil, "", &end)
	if !errors.Is(err, ErrInvalidEndDate) {
		t.Fatalf("expected ErrInvalidEndDate, got %v", err)
	}
	if rp != nil {
		t.Fatal("no template must be created on an invalid end date")
	}

	// End date equal to the start date is just as invalid.
	sameDay := start
	if _, err := NewRecurringPayment(start, dec("10"), Expense, Monthly, acc, nil, nil, "", &sameDay); !errors.Is(err, ErrInvalidEndDate) {
		t.Fatalf("expected ErrInvalidEndDate for end == start, got %v", err)
	}
}

func TestNewRecurringPaymentEndlessAndMarker(t *testing.T) {
	acc := testAccount(1, "0")
	start := date(2024, 1, 15)

	rp, err := NewRecurringPayment(start, dec("10"), Expense, Monthly, acc, nil, nil, "rent", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.EndDate != nil {
		t.Fatal("expected endless template")
	}
	if !rp.LastMaterialized.Equal(start) {
		t.Fatalf("marker = %s, want start date", rp.LastMaterialized)
	}
	if next := rp.NextOccurrence(); !next.Equal(date(2024, 2, 15)) {
		t.Fatalf("next occurrence = %s, want 2024-02-15", next)
	}
}

func TestNewRecurringPaymentValidation(t *testing.T) {
	acc := testAccount(1, "0")
	start := date(2024, 1, 1)

	if _, err := NewRecurringPayment(start, dec("10"), Expense, Monthly, nil, nil, nil, "", nil); !errors.Is(err, ErrMissingChargedAccount) {
		t.Fatalf("expected ErrMissingChargedAccount, got %v", err)
	}
	if _, err := NewRecurringPayment(start, dec("-1"), Expense, Monthly, acc, nil, nil, "", nil); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := NewRecurringPayment(start, dec("1"), Expense, Recurrence("hourly"), acc, nil, nil, "", nil); !errors.Is(err, ErrInvalidRecurrence) {
		t.Fatalf("expected ErrInvalidRecurrence, got %v", err)
	}
	if _, err := NewRecurringPayment(start, dec("1"), PaymentType("loan"), Monthly, acc, nil, nil, "", nil); !errors.Is(err, ErrInvalidPaymentType) {
		t.Fatalf("expected ErrInvalidPaymentType, got %v", err)
	}
}

func TestRecurringPaymentDropsTargetForNonTransfer(t *testing.T) {
	acc := testAccount(1, "0")
	stray := testAccount(2, "0")

	rp, err := NewRecurringPayment(date(2024, 1, 1), dec("10"), Expense, Monthly, acc, stray, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rp.TargetAccount != nil {
		t.Fatal("target account only applies to transfers")
	}
}

func TestOccurrenceDue(t *testing.T) {
	acc := testAccount(1, "0")
	end := date(2024, 3, 1)
	rp, err := NewRecurringPayment(date(2024, 1, 15), dec("10"), Expense, Monthly, acc, nil, nil, "", &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cases := []struct {
		name       string
		occurrence string
		now        string
		want       bool
	}{
		{"arrived", "2024-02-15", "2024-02-20", true},
		{"same day", "2024-02-15", "2024-02-15", true},
		{"not yet", "2024-02-15", "2024-02-14", false},
		{"beyond end date", "2024-03-15", "2024-06-01", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			occ := mustDate(t, tc.occurrence)
			now := mustDate(t, tc.now)
			if got := rp.OccurrenceDue(occ, now); got != tc.want {
				t.Fatalf("OccurrenceDue(%s, %s) = %v, want %v", tc.occurrence, tc.now, got, tc.want)
			}
		})
	}

	if rp.OccurrenceDue(Recurrence("bogus").Next(date(2024, 1, 1)), date(2024, 6, 1)) {
		t.Fatal("zero occurrence must never be due")
	}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse date %q: %v", s, err)
	}
	return parsed
}
