package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is the aggregate root of the ledger. It owns the clearing
// state machine and, through it, the only code paths that move account
// balances.
//
// IsCleared is derived state: it is true iff Date <= today, and it is
// recomputed at every mutation point (construction and update). It is
// never toggled directly.
type Payment struct {
	ID               int64
	Date             time.Time
	Amount           decimal.Decimal
	Type             PaymentType
	IsCleared        bool
	Note             string
	Category         *Category
	ChargedAccount   *Account
	TargetAccount    *Account // transfers only, nil otherwise
	RecurringPayment *RecurringPayment
	IsRecurring      bool
	CreatedAt        time.Time
	ModifiedAt       time.Time
}

// NewPayment builds a payment and immediately runs clearing, so a
// payment dated today or earlier has already adjusted its accounts when
// the constructor returns.
//
// The returned error may be an integrity warning (IsIntegrityWarning):
// in that case the payment WAS created and the charged-side effect WAS
// applied; only the flagged side effect was skipped.
func NewPayment(
	now time.Time,
	date time.Time,
	amount decimal.Decimal,
	paymentType PaymentType,
	chargedAccount *Account,
	targetAccount *Account,
	category *Category,
	note string,
	recurringPayment *RecurringPayment,
) (*Payment, error) {
	p := &Payment{CreatedAt: now}
	if err := p.assignValues(now, date, amount, paymentType, chargedAccount, targetAccount, category, note); err != nil {
		return nil, err
	}
	if recurringPayment != nil {
		p.RecurringPayment = recurringPayment
		p.IsRecurring = true
	}
	if err := p.ClearPayment(now); err != nil {
		if !IsIntegrityWarning(err) {
			return nil, err
		}
		return p, err
	}
	return p, nil
}

// ClearPayment re-evaluates the clearing state and applies the
// payment's effect to its accounts. The charged side is always applied
// before the target side; a transfer whose target account is missing
// reports ErrMissingTargetAccount after the charged side went through,
// so callers can treat it as a logged skip rather than a failure.
func (p *Payment) ClearPayment(now time.Time) error {
	p.IsCleared = !dateOnly(p.Date).After(dateOnly(now))

	if p.ChargedAccount == nil {
		return fmt.Errorf("%w: payment %d", ErrMissingChargedAccount, p.ID)
	}
	if err := p.ChargedAccount.AddPaymentAmount(p); err != nil {
		return fmt.Errorf("apply charged side: %w", err)
	}

	if p.Type == Transfer {
		if p.TargetAccount == nil {
			return fmt.Errorf("%w: payment %d", ErrMissingTargetAccount, p.ID)
		}
		if err := p.TargetAccount.AddPaymentAmount(p); err != nil {
			return fmt.Errorf("apply target side: %w", err)
		}
	}
	return nil
}

// UpdatePayment changes the payment's values. The OLD effect is
// reversed on the OLD account references before anything is assigned,
// then clearing runs with the new values; skipping either step, or
// reordering them, double-counts the payment on its accounts.
//
// Integrity warnings raised while reversing or re-clearing are
// collected and joined; any other error aborts the update.
func (p *Payment) UpdatePayment(
	now time.Time,
	date time.Time,
	amount decimal.Decimal,
	paymentType PaymentType,
	chargedAccount *Account,
	targetAccount *Account,
	category *Category,
	note string,
) error {
	if p.ChargedAccount == nil {
		return fmt.Errorf("%w: payment %d", ErrMissingChargedAccount, p.ID)
	}

	var warns []error
	if err := p.ChargedAccount.RemovePaymentAmount(p); err != nil {
		if !IsIntegrityWarning(err) {
			return fmt.Errorf("reverse charged side: %w", err)
		}
		warns = append(warns, err)
	}
	if p.TargetAccount != nil {
		if err := p.TargetAccount.RemovePaymentAmount(p); err != nil {
			if !IsIntegrityWarning(err) {
				return fmt.Errorf("reverse target side: %w", err)
			}
			warns = append(warns, err)
		}
	}

	if err := p.assignValues(now, date, amount, paymentType, chargedAccount, targetAccount, category, note); err != nil {
		return err
	}

	if err := p.ClearPayment(now); err != nil {
		if !IsIntegrityWarning(err) {
			return err
		}
		warns = append(warns, err)
	}
	return errors.Join(warns...)
}

func (p *Payment) assignValues(
	now time.Time,
	date time.Time,
	amount decimal.Decimal,
	paymentType PaymentType,
	chargedAccount *Account,
	targetAccount *Account,
	category *Category,
	note string,
) error {
	if chargedAccount == nil {
		return ErrMissingChargedAccount
	}
	if amount.IsNegative() {
		return fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if err := paymentType.Validate(); err != nil {
		return err
	}
	if paymentType == Transfer && targetAccount != nil && sameAccount(chargedAccount, targetAccount) {
		return fmt.Errorf("%w: account %d", ErrSameAccountTransfer, chargedAccount.ID)
	}

	p.Date = date
	p.Amount = amount
	p.Type = paymentType
	p.Note = note
	p.ChargedAccount = chargedAccount
	p.Category = category
	if paymentType == Transfer {
		p.TargetAccount = targetAccount
	} else {
		p.TargetAccount = nil
	}
	p.ModifiedAt = now
	return nil
}

// AddRecurringPayment turns this payment into the first occurrence of a
// new recurring template built from its current values.
func (p *Payment) AddRecurringPayment(recurrence Recurrence, endDate *time.Time) error {
	rp, err := NewRecurringPayment(
		p.Date, p.Amount, p.Type, recurrence,
		p.ChargedAccount, p.TargetAccount, p.Category, p.Note, endDate)
	if err != nil {
		return err
	}
	p.RecurringPayment = rp
	p.IsRecurring = true
	return nil
}

// RemoveRecurringPayment drops the link to the template. The template
// itself and any payments it spawned earlier are left alone.
func (p *Payment) RemoveRecurringPayment() {
	p.RecurringPayment = nil
	p.IsRecurring = false
}

// RemoveCategory detaches the category reference, used when the
// category is being deleted.
func (p *Payment) RemoveCategory() {
	p.Category = nil
}
