package core

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAccount(id int64, balance string) *Account {
	a := NewAccount("test", dec(balance), "")
	a.ID = id
	return a
}

func TestNewPaymentExpenseClearsAndCharges(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "80")

	p, err := NewPayment(now, date(2024, 6, 1), dec("20"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsCleared {
		t.Fatal("payment dated today must be cleared")
	}
	if got := acc.CurrentBalance; !got.Equal(dec("60")) {
		t.Fatalf("balance = %s, want 60", got)
	}
}

func TestNewPaymentFutureDateStaysUncleared(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "80")

	p, err := NewPayment(now, date(2024, 6, 2), dec("20"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsCleared {
		t.Fatal("payment dated in the future must not be cleared")
	}
	if got := acc.CurrentBalance; !got.Equal(dec("80")) {
		t.Fatalf("balance = %s, want 80 untouched", got)
	}
}

func TestNewPaymentIncomeCredits(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "10")

	if _, err := NewPayment(now, now, dec("15"), Income, acc, nil, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := acc.CurrentBalance; !got.Equal(dec("25")) {
		t.Fatalf("balance = %s, want 25", got)
	}
}

func TestNewPaymentTransferMovesBothSides(t *testing.T) {
	now := date(2024, 6, 1)
	from := testAccount(1, "100")
	to := testAccount(2, "5")

	if _, err := NewPayment(now, now, dec("40"), Transfer, from, to, nil, "", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.CurrentBalance.Equal(dec("60")) {
		t.Fatalf("charged balance = %s, want 60", from.CurrentBalance)
	}
	if !to.CurrentBalance.Equal(dec("45")) {
		t.Fatalf("target balance = %s, want 45", to.CurrentBalance)
	}
}

func TestTransferClearReverseSumInvariant(t *testing.T) {
	now := date(2024, 6, 1)
	from := testAccount(1, "100")
	to := testAccount(2, "5")
	sumBefore := from.CurrentBalance.Add(to.CurrentBalance)

	p, err := NewPayment(now, now, dec("40"), Transfer, from, to, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := from.CurrentBalance.Add(to.CurrentBalance); !got.Equal(sumBefore) {
		t.Fatalf("sum after clear = %s, want %s", got, sumBefore)
	}

	if err := from.RemovePaymentAmount(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := to.RemovePaymentAmount(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !from.CurrentBalance.Equal(dec("100")) || !to.CurrentBalance.Equal(dec("5")) {
		t.Fatalf("reverse did not restore balances: %s / %s", from.CurrentBalance, to.CurrentBalance)
	}
}

func TestNewPaymentTransferMissingTargetIsWarning(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "100")

	p, err := NewPayment(now, now, dec("40"), Transfer, acc, nil, nil, "", nil)
	if err == nil {
		t.Fatal("expected missing target warning")
	}
	if !errors.Is(err, ErrMissingTargetAccount) {
		t.Fatalf("expected ErrMissingTargetAccount, got %v", err)
	}
	if !IsIntegrityWarning(err) {
		t.Fatalf("expected integrity warning classification for %v", err)
	}
	if p == nil {
		t.Fatal("payment must still be created on a warning")
	}
	// Charged side still applied.
	if !acc.CurrentBalance.Equal(dec("60")) {
		t.Fatalf("charged balance = %s, want 60", acc.CurrentBalance)
	}
}

func TestNewPaymentValidation(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "0")

	if _, err := NewPayment(now, now, dec("10"), Expense, nil, nil, nil, "", nil); !errors.Is(err, ErrMissingChargedAccount) {
		t.Fatalf("expected ErrMissingChargedAccount, got %v", err)
	}
	if _, err := NewPayment(now, now, dec("-1"), Expense, acc, nil, nil, "", nil); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := NewPayment(now, now, dec("1"), PaymentType("loan"), acc, nil, nil, "", nil); !errors.Is(err, ErrInvalidPaymentType) {
		t.Fatalf("expected ErrInvalidPaymentType, got %v", err)
	}
}

func TestNewPaymentForcesTargetNilForNonTransfer(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "0")
	stray := testAccount(2, "0")

	p, err := NewPayment(now, now, dec("5"), Expense, acc, stray, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.TargetAccount != nil {
		t.Fatal("target account must be nil for non-transfer payments")
	}
	if !stray.CurrentBalance.Equal(dec("0")) {
		t.Fatalf("stray account touched: %s", stray.CurrentBalance)
	}
}

// Guards the reverse-then-reapply ordering: an amount edit must not
// double-count against the account.
func TestUpdatePaymentReversesBeforeReapplying(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "80")

	p, err := NewPayment(now, now, dec("20"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.CurrentBalance.Equal(dec("60")) {
		t.Fatalf("balance after create = %s, want 60", acc.CurrentBalance)
	}

	if err := p.UpdatePayment(now, now, dec("60"), Expense, acc, nil, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !acc.CurrentBalance.Equal(dec("20")) {
		t.Fatalf("balance after update = %s, want 20 (80 - 60)", acc.CurrentBalance)
	}
}

func TestUpdatePaymentMovesToAnotherAccount(t *testing.T) {
	now := date(2024, 6, 1)
	a := testAccount(1, "100")
	b := testAccount(2, "100")

	p, err := NewPayment(now, now, dec("30"), Expense, a, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.UpdatePayment(now, now, dec("30"), Expense, b, nil, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.CurrentBalance.Equal(dec("100")) {
		t.Fatalf("old account balance = %s, want 100 restored", a.CurrentBalance)
	}
	if !b.CurrentBalance.Equal(dec("70")) {
		t.Fatalf("new account balance = %s, want 70", b.CurrentBalance)
	}
}

func TestUpdatePaymentToFutureDateUnclears(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "80")

	p, err := NewPayment(now, now, dec("20"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.UpdatePayment(now, date(2024, 7, 1), dec("20"), Expense, acc, nil, nil, ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsCleared {
		t.Fatal("payment moved to the future must be uncleared")
	}
	if !acc.CurrentBalance.Equal(dec("80")) {
		t.Fatalf("balance = %s, want 80 (effect reversed)", acc.CurrentBalance)
	}
}

func TestAddRemoveRecurringPayment(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "100")

	p, err := NewPayment(now, now, dec("9.99"), Expense, acc, nil, nil, "subscription", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := p.AddRecurringPayment(Monthly, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsRecurring || p.RecurringPayment == nil {
		t.Fatal("expected recurring link to be set")
	}
	if !p.RecurringPayment.LastMaterialized.Equal(p.Date) {
		t.Fatalf("marker = %s, want payment date", p.RecurringPayment.LastMaterialized)
	}

	p.RemoveRecurringPayment()
	if p.IsRecurring || p.RecurringPayment != nil {
		t.Fatal("expected recurring link to be removed")
	}
}

func TestAddRecurringPaymentInvalidEndDate(t *testing.T) {
	now := date(2024, 6, 1)
	acc := testAccount(1, "100")

	p, err := NewPayment(now, now, dec("5"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	end := date(2024, 5, 1)
	if err := p.AddRecurringPayment(Monthly, &end); !errors.Is(err, ErrInvalidEndDate) {
		t.Fatalf("expected ErrInvalidEndDate, got %v", err)
	}
	if p.IsRecurring {
		t.Fatal("failed AddRecurringPayment must not flag the payment recurring")
	}
}

func TestClearPaymentSweepTransition(t *testing.T) {
	created := date(2024, 6, 1)
	acc := testAccount(1, "50")

	p, err := NewPayment(created, date(2024, 6, 3), dec("10"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.IsCleared {
		t.Fatal("not due yet")
	}

	// Two days later the sweep runs and the date has arrived.
	if err := p.ClearPayment(date(2024, 6, 3)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsCleared {
		t.Fatal("expected payment cleared once its date arrives")
	}
	if !acc.CurrentBalance.Equal(dec("40")) {
		t.Fatalf("balance = %s, want 40", acc.CurrentBalance)
	}
}

func TestDateOnlyComparisonIgnoresTimeOfDay(t *testing.T) {
	acc := testAccount(1, "10")
	now := time.Date(2024, 6, 1, 0, 30, 0, 0, time.UTC)
	paymentAt := time.Date(2024, 6, 1, 23, 0, 0, 0, time.UTC)

	p, err := NewPayment(now, paymentAt, dec("1"), Expense, acc, nil, nil, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.IsCleared {
		t.Fatal("payment dated today must be cleared regardless of time of day")
	}
}
