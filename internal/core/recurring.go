package core

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// RecurringPayment is a template describing a repeating payment. It
// keeps a LastMaterialized marker so the materialization loop knows
// which occurrence to emit next; the payments it has spawned keep a
// back-reference to it but their lifecycle is their own.
type RecurringPayment struct {
	ID               int64
	StartDate        time.Time
	EndDate          *time.Time // nil = endless
	Amount           decimal.Decimal
	Type             PaymentType
	Recurrence       Recurrence
	ChargedAccount   *Account
	TargetAccount    *Account // transfers only
	Category         *Category
	Note             string
	LastMaterialized time.Time
}

// NewRecurringPayment validates and builds a template. The first
// occurrence is the start date itself, which is assumed to exist as the
// payment the template was created from, so LastMaterialized starts at
// StartDate.
func NewRecurringPayment(
	startDate time.Time,
	amount decimal.Decimal,
	paymentType PaymentType,
	recurrence Recurrence,
	chargedAccount *Account,
	targetAccount *Account,
	category *Category,
	note string,
	endDate *time.Time,
) (*RecurringPayment, error) {
	if chargedAccount == nil {
		return nil, ErrMissingChargedAccount
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("%w: %s", ErrNegativeAmount, amount)
	}
	if err := paymentType.Validate(); err != nil {
		return nil, err
	}
	if err := recurrence.Validate(); err != nil {
		return nil, err
	}
	if endDate != nil && !dateOnly(*endDate).After(dateOnly(startDate)) {
		return nil, fmt.Errorf("%w: start %s, end %s",
			ErrInvalidEndDate,
			startDate.Format("2006-01-02"),
			endDate.Format("2006-01-02"))
	}
	if paymentType == Transfer && targetAccount != nil && sameAccount(chargedAccount, targetAccount) {
		return nil, fmt.Errorf("%w: account %d", ErrSameAccountTransfer, chargedAccount.ID)
	}
	if paymentType != Transfer {
		targetAccount = nil
	}

	return &RecurringPayment{
		StartDate:        startDate,
		EndDate:          endDate,
		Amount:           amount,
		Type:             paymentType,
		Recurrence:       recurrence,
		ChargedAccount:   chargedAccount,
		TargetAccount:    targetAccount,
		Category:         category,
		Note:             note,
		LastMaterialized: startDate,
	}, nil
}

// NextOccurrence returns the occurrence date following the last one
// materialized.
func (rp *RecurringPayment) NextOccurrence() time.Time {
	return rp.Recurrence.Next(rp.LastMaterialized)
}

// OccurrenceDue reports whether occurrence should be materialized given
// the current time: it must have arrived and must not lie beyond the
// end date.
func (rp *RecurringPayment) OccurrenceDue(occurrence, now time.Time) bool {
	if occurrence.IsZero() || dateOnly(occurrence).After(dateOnly(now)) {
		return false
	}
	if rp.EndDate != nil && dateOnly(occurrence).After(dateOnly(*rp.EndDate)) {
		return false
	}
	return true
}

// MarkMaterialized advances the bookkeeping marker after an occurrence
// has been emitted and committed.
func (rp *RecurringPayment) MarkMaterialized(occurrence time.Time) {
	rp.LastMaterialized = occurrence
}
