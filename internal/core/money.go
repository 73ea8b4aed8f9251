// Package core holds the ledger domain model: accounts, categories,
// payments and recurring payment templates, together with the
// balance-maintenance rules that tie them together.
//
// All monetary values are exact decimals. Account balances are signed,
// payment amounts are non-negative; the payment type decides the
// economic direction.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a payment amount from its string form. It accepts
// both dot (12.34) and comma (12,34) decimal separators and rejects
// negative values.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty amount", ErrNegativeAmount)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNegativeAmount, d)
	}
	return d, nil
}
