package core

import (
	"fmt"
	"time"
)

type (
	// PaymentType is the economic direction of a payment.
	PaymentType string

	// Recurrence is the interval at which a recurring payment repeats.
	Recurrence string
)

const (
	Expense  PaymentType = "expense"
	Income   PaymentType = "income"
	Transfer PaymentType = "transfer"
)

const (
	Daily    Recurrence = "daily"
	Weekly   Recurrence = "weekly"
	Biweekly Recurrence = "biweekly"
	Monthly  Recurrence = "monthly"
	Yearly   Recurrence = "yearly"
)

// ParsePaymentType converts the wire/storage form of a payment type.
func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case Expense, Income, Transfer:
		return PaymentType(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPaymentType, s)
}

// ParseRecurrence converts the wire/storage form of a recurrence interval.
func ParseRecurrence(s string) (Recurrence, error) {
	switch Recurrence(s) {
	case Daily, Weekly, Biweekly, Monthly, Yearly:
		return Recurrence(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRecurrence, s)
}

func (t PaymentType) Validate() error {
	_, err := ParsePaymentType(string(t))
	return err
}

func (r Recurrence) Validate() error {
	_, err := ParseRecurrence(string(r))
	return err
}

// Next returns the occurrence following from. Month and year steps are
// calendar-accurate: the day of month is clamped to the target month
// (Jan 31 + 1 month = Feb 28/29), never approximated with fixed days.
// An unknown recurrence yields the zero time.
func (r Recurrence) Next(from time.Time) time.Time {
	switch r {
	case Daily:
		return from.AddDate(0, 0, 1)
	case Weekly:
		return from.AddDate(0, 0, 7)
	case Biweekly:
		return from.AddDate(0, 0, 14)
	case Monthly:
		return addMonthsClamped(from, 1)
	case Yearly:
		return addMonthsClamped(from, 12)
	}
	return time.Time{}
}

// addMonthsClamped shifts t by the given number of months, clamping the
// day to the last day of the target month. time.AddDate would normalize
// Jan 31 + 1 month into March instead.
func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	lastDay := first.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(first.Year(), first.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// dateOnly truncates a timestamp to its calendar day.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
