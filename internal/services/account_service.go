package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// AccountService manages accounts. Balances are never written here
// directly; they move only through payment operations, except for the
// explicit reconciliation tool.
type AccountService struct {
	repo   *storage.Repository
	events Events
}

func NewAccountService(repo *storage.Repository, events Events) *AccountService {
	return &AccountService{repo: repo, events: events}
}

func (s *AccountService) CreateAccount(ctx context.Context, name string, initialBalance decimal.Decimal, note string, excluded bool) (*core.Account, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: account name", core.ErrEmptyName)
	}
	a := core.NewAccount(name, initialBalance, note)
	a.IsExcluded = excluded
	if err := s.repo.CreateAccount(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AccountService) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *AccountService) ListAccounts(ctx context.Context, includeDeactivated bool) ([]*core.Account, error) {
	return s.repo.ListAccounts(ctx, includeDeactivated)
}

// UpdateAccount persists name, note and flag edits. Balance fields are
// written as loaded; callers must not move them.
func (s *AccountService) UpdateAccount(ctx context.Context, a *core.Account) error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("%w: account name", core.ErrEmptyName)
	}
	return s.repo.UpdateAccount(ctx, a)
}

// DeactivateAccount soft-deletes the account, preserving its payment
// history.
func (s *AccountService) DeactivateAccount(ctx context.Context, id int64) error {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return err
	}
	a.Deactivate()
	return s.repo.UpdateAccount(ctx, a)
}

// ReconcileResult reports what the reconciliation tool found and fixed.
type ReconcileResult struct {
	AccountID       int64           `json:"account_id"`
	PreviousBalance decimal.Decimal `json:"previous_balance"`
	ComputedBalance decimal.Decimal `json:"computed_balance"`
	Drift           decimal.Decimal `json:"drift"`
}

// ReconcileAccount recomputes the balance from the full payment history
// and overwrites the stored value. This is the corrective tool for
// mismatched add/remove pairs, not part of normal operation.
func (s *AccountService) ReconcileAccount(ctx context.Context, id int64) (*ReconcileResult, error) {
	a, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.ListPaymentsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load payment history: %w", err)
	}

	previous := a.CurrentBalance
	drift := a.Reconcile(payments)

	if err := s.repo.UpdateAccount(ctx, a); err != nil {
		return nil, fmt.Errorf("save reconciled balance: %w", err)
	}

	if !drift.IsZero() {
		slog.WarnContext(ctx, "Account balance drift corrected",
			"account_id", id,
			"previous", previous,
			"computed", a.CurrentBalance,
			"drift", drift)
		publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventAccountReconciled, id, "drift "+drift.String()))
	}

	return &ReconcileResult{
		AccountID:       id,
		PreviousBalance: previous,
		ComputedBalance: a.CurrentBalance,
		Drift:           drift,
	}, nil
}
