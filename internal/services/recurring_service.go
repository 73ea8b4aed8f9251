package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// RecurringService manages recurring payment templates directly,
// without going through an existing payment. Templates created here
// have no seed payment, so materialization starts from the first
// occurrence after the start date.
type RecurringService struct {
	repo   *storage.Repository
	events Events
}

func NewRecurringService(repo *storage.Repository, events Events) *RecurringService {
	return &RecurringService{repo: repo, events: events}
}

// RecurringInput carries the caller-supplied template fields.
type RecurringInput struct {
	StartDate        time.Time
	EndDate          *time.Time
	Amount           decimal.Decimal
	Type             core.PaymentType
	Recurrence       core.Recurrence
	ChargedAccountID int64
	TargetAccountID  *int64
	CategoryID       *int64
	Note             string
}

func (s *RecurringService) CreateTemplate(ctx context.Context, in RecurringInput) (*core.RecurringPayment, error) {
	charged, err := s.repo.GetAccount(ctx, in.ChargedAccountID)
	if err != nil {
		return nil, fmt.Errorf("load charged account: %w", err)
	}
	var target *core.Account
	if in.TargetAccountID != nil {
		if target, err = s.repo.GetAccount(ctx, *in.TargetAccountID); err != nil {
			return nil, fmt.Errorf("load target account: %w", err)
		}
	}
	var category *core.Category
	if in.CategoryID != nil {
		if category, err = s.repo.GetCategory(ctx, *in.CategoryID); err != nil {
			return nil, fmt.Errorf("load category: %w", err)
		}
	}

	rp, err := core.NewRecurringPayment(in.StartDate, in.Amount, in.Type, in.Recurrence,
		charged, target, category, in.Note, in.EndDate)
	if err != nil {
		return nil, err
	}
	if err := s.repo.CreateRecurringPayment(ctx, rp); err != nil {
		return nil, fmt.Errorf("save recurring payment: %w", err)
	}
	return rp, nil
}

func (s *RecurringService) GetTemplate(ctx context.Context, id int64) (*core.RecurringPayment, error) {
	return s.repo.GetRecurringPayment(ctx, id)
}

func (s *RecurringService) ListActiveTemplates(ctx context.Context) ([]*core.RecurringPayment, error) {
	return s.repo.ListActiveRecurringPayments(ctx)
}

// DeleteTemplate removes the template and unlinks the payments it
// spawned; the payments themselves survive.
func (s *RecurringService) DeleteTemplate(ctx context.Context, id int64) error {
	return s.repo.DeleteRecurringPayment(ctx, id)
}
