package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Account is a ledger account. CurrentBalance is maintained
// incrementally: it is always InitialBalance plus the algebraic sum of
// all cleared payments that charge or target the account. Only
// AddPaymentAmount and RemovePaymentAmount may move it.
type Account struct {
	ID             int64
	Name           string
	Note           string
	InitialBalance decimal.Decimal
	CurrentBalance decimal.Decimal
	IsDeactivated  bool
	IsExcluded     bool
	IsOverdrawn    bool
}

// NewAccount creates an active account with the given opening balance.
func NewAccount(name string, initialBalance decimal.Decimal, note string) *Account {
	a := &Account{
		Name:           name,
		Note:           note,
		InitialBalance: initialBalance,
		CurrentBalance: initialBalance,
	}
	a.refreshOverdrawn()
	return a
}

// AddPaymentAmount applies a cleared payment's effect to the balance:
// +amount for income or the target side of a transfer, -amount for an
// expense or the charged side of a transfer. Uncleared payments are a
// no-op. A payment that references neither side of this account is a
// programming error and fails with ErrAccountMismatch.
func (a *Account) AddPaymentAmount(p *Payment) error {
	return a.applyPayment(p, false)
}

// RemovePaymentAmount is the exact inverse of AddPaymentAmount, used to
// reverse a payment's effect before re-applying updated values.
func (a *Account) RemovePaymentAmount(p *Payment) error {
	return a.applyPayment(p, true)
}

func (a *Account) applyPayment(p *Payment, reverse bool) error {
	if !p.IsCleared {
		return nil
	}

	delta, err := a.paymentDelta(p)
	if err != nil {
		return err
	}
	if reverse {
		delta = delta.Neg()
	}

	a.CurrentBalance = a.CurrentBalance.Add(delta)
	a.refreshOverdrawn()
	return nil
}

// paymentDelta resolves which side of the payment this account is on
// and the signed balance change for it.
func (a *Account) paymentDelta(p *Payment) (decimal.Decimal, error) {
	charged := p.ChargedAccount != nil &&
		(p.ChargedAccount == a || (a.ID != 0 && p.ChargedAccount.ID == a.ID))
	target := p.TargetAccount != nil &&
		(p.TargetAccount == a || (a.ID != 0 && p.TargetAccount.ID == a.ID))

	switch {
	case charged && p.Type == Income:
		return p.Amount, nil
	case charged && (p.Type == Expense || p.Type == Transfer):
		return p.Amount.Neg(), nil
	case target && p.Type == Transfer:
		return p.Amount, nil
	}
	return decimal.Zero, fmt.Errorf("%w: payment %d, account %d (%s)",
		ErrAccountMismatch, p.ID, a.ID, a.Name)
}

// RecomputeBalance returns the balance implied by the full payment
// history: the initial balance plus the effect of every cleared payment
// that charges or targets this account. It is a corrective tool; normal
// operation maintains the balance incrementally.
func (a *Account) RecomputeBalance(payments []*Payment) decimal.Decimal {
	balance := a.InitialBalance
	for _, p := range payments {
		if !p.IsCleared {
			continue
		}
		delta, err := a.paymentDelta(p)
		if err != nil {
			continue
		}
		balance = balance.Add(delta)
	}
	return balance
}

// Reconcile overwrites the stored balance with the recomputed one and
// reports the drift that was corrected.
func (a *Account) Reconcile(payments []*Payment) decimal.Decimal {
	computed := a.RecomputeBalance(payments)
	drift := computed.Sub(a.CurrentBalance)
	a.CurrentBalance = computed
	a.refreshOverdrawn()
	return drift
}

// sameAccount reports whether both references denote one account,
// either as the same in-memory aggregate or by persistent identifier.
func sameAccount(x, y *Account) bool {
	if x == nil || y == nil {
		return false
	}
	return x == y || (x.ID != 0 && x.ID == y.ID)
}

// Deactivate marks the account deleted without removing it, so that
// payment history referencing it stays intact.
func (a *Account) Deactivate() {
	a.IsDeactivated = true
}

func (a *Account) refreshOverdrawn() {
	a.IsOverdrawn = !a.IsExcluded && a.CurrentBalance.IsNegative()
}
