package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"moneta/internal/amqp"
	"moneta/internal/clock"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// PaymentService owns the payment lifecycle: create, update, delete,
// recurring linkage and the clearing sweep. Every operation mutates
// aggregates in memory first and commits payment plus touched account
// balances as one transaction.
type PaymentService struct {
	repo            *storage.Repository
	events          Events
	clock           clock.Clock
	strictTransfers bool
}

func NewPaymentService(repo *storage.Repository, events Events, clk clock.Clock, strictTransfers bool) *PaymentService {
	return &PaymentService{
		repo:            repo,
		events:          events,
		clock:           clk,
		strictTransfers: strictTransfers,
	}
}

// PaymentInput carries the caller-supplied payment fields. Target and
// category are optional; the target is only meaningful for transfers.
type PaymentInput struct {
	Date             time.Time
	Amount           decimal.Decimal
	Type             core.PaymentType
	ChargedAccountID int64
	TargetAccountID  *int64
	CategoryID       *int64
	Note             string
}

func (s *PaymentService) CreatePayment(ctx context.Context, in PaymentInput) (*core.Payment, error) {
	now := s.clock.Now()

	charged, err := s.repo.GetAccount(ctx, in.ChargedAccountID)
	if err != nil {
		return nil, fmt.Errorf("load charged account: %w", err)
	}
	target, err := s.resolveTarget(ctx, in.TargetAccountID, charged)
	if err != nil {
		return nil, err
	}
	category, err := s.resolveCategory(ctx, in.CategoryID, in.Note)
	if err != nil {
		return nil, err
	}

	p, err := core.NewPayment(now, in.Date, in.Amount, in.Type, charged, target, category, in.Note, nil)
	if err != nil {
		if p == nil {
			return nil, err
		}
		if err := allowIntegrityWarning(ctx, s.events, s.strictTransfers, "create payment", p.ID, err); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SavePayment(ctx, p, charged, target); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventPaymentCreated, p.ID, string(p.Type)))
	slog.InfoContext(ctx, "Payment created",
		"id", p.ID,
		"type", p.Type,
		"amount", p.Amount,
		"cleared", p.IsCleared)
	return p, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*core.Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

func (s *PaymentService) ListPaymentsByAccount(ctx context.Context, accountID int64) ([]*core.Payment, error) {
	return s.repo.ListPaymentsByAccount(ctx, accountID)
}

// UpdatePayment applies new field values to an existing payment. The
// domain reverses the old effect on the old account references before
// the new values take hold; this service makes sure account identity
// is preserved across that boundary (an account referenced before and
// after the update must be one in-memory aggregate, or the reversal
// and the re-application would land on diverging copies).
func (s *PaymentService) UpdatePayment(ctx context.Context, id int64, in PaymentInput) (*core.Payment, error) {
	now := s.clock.Now()

	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCharged, oldTarget := p.ChargedAccount, p.TargetAccount

	charged, err := s.resolveAccount(ctx, in.ChargedAccountID, oldCharged, oldTarget)
	if err != nil {
		return nil, fmt.Errorf("load charged account: %w", err)
	}
	var target *core.Account
	if in.TargetAccountID != nil {
		target, err = s.resolveAccount(ctx, *in.TargetAccountID, oldCharged, oldTarget, charged)
		if err != nil {
			return nil, fmt.Errorf("load target account: %w", err)
		}
	}
	category, err := s.resolveCategory(ctx, in.CategoryID, in.Note)
	if err != nil {
		return nil, err
	}

	if err := p.UpdatePayment(now, in.Date, in.Amount, in.Type, charged, target, category, in.Note); err != nil {
		if err := allowIntegrityWarning(ctx, s.events, s.strictTransfers, "update payment", p.ID, err); err != nil {
			return nil, err
		}
	}

	if err := s.repo.SavePayment(ctx, p, oldCharged, oldTarget, charged, target); err != nil {
		return nil, fmt.Errorf("save payment: %w", err)
	}

	publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventPaymentUpdated, p.ID, string(p.Type)))
	return p, nil
}

// DeletePayment reverses the payment's effect on its accounts and
// removes it, atomically.
func (s *PaymentService) DeletePayment(ctx context.Context, id int64) error {
	p, err := s.repo.GetPayment(ctx, id)
	if err != nil {
		return err
	}

	if err := p.ChargedAccount.RemovePaymentAmount(p); err != nil {
		if err := allowIntegrityWarning(ctx, s.events, s.strictTransfers, "delete payment", p.ID, err); err != nil {
			return err
		}
	}
	if p.TargetAccount != nil {
		if err := p.TargetAccount.RemovePaymentAmount(p); err != nil {
			if err := allowIntegrityWarning(ctx, s.events, s.strictTransfers, "delete payment", p.ID, err); err != nil {
				return err
			}
		}
	}

	if err := s.repo.DeletePayment(ctx, p, p.ChargedAccount, p.TargetAccount); err != nil {
		return fmt.Errorf("delete payment: %w", err)
	}

	publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventPaymentDeleted, p.ID, string(p.Type)))
	return nil
}

// MakeRecurring turns an existing payment into the first occurrence of
// a new recurring template.
func (s *PaymentService) MakeRecurring(ctx context.Context, paymentID int64, recurrence core.Recurrence, endDate *time.Time) (*core.RecurringPayment, error) {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := p.AddRecurringPayment(recurrence, endDate); err != nil {
		return nil, err
	}
	if err := s.repo.CreateRecurringPayment(ctx, p.RecurringPayment); err != nil {
		return nil, fmt.Errorf("save recurring payment: %w", err)
	}
	if err := s.repo.SavePayment(ctx, p); err != nil {
		return nil, fmt.Errorf("link payment to recurring payment: %w", err)
	}
	publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventPaymentUpdated, p.ID, "recurring:"+string(recurrence)))
	return p.RecurringPayment, nil
}

// StopRecurring drops a payment's link to its template. The template
// and payments spawned earlier are untouched.
func (s *PaymentService) StopRecurring(ctx context.Context, paymentID int64) error {
	p, err := s.repo.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}
	p.RemoveRecurringPayment()
	if err := s.repo.SavePayment(ctx, p); err != nil {
		return fmt.Errorf("unlink payment from recurring payment: %w", err)
	}
	return nil
}

// ClearDuePayments clears every uncleared payment whose date has
// arrived, committing payment plus balances per payment. A storage
// failure aborts the sweep; the next run picks up where it stopped.
func (s *PaymentService) ClearDuePayments(ctx context.Context) (int, error) {
	now := s.clock.Now()

	due, err := s.repo.ListUnclearedDue(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list due payments: %w", err)
	}

	cleared := 0
	for _, p := range due {
		if err := p.ClearPayment(now); err != nil {
			if err := allowIntegrityWarning(ctx, s.events, s.strictTransfers, "clear payment", p.ID, err); err != nil {
				slog.ErrorContext(ctx, "Failed to clear payment", "id", p.ID, "error", err)
				continue
			}
		}
		if err := s.repo.SavePayment(ctx, p, p.ChargedAccount, p.TargetAccount); err != nil {
			return cleared, fmt.Errorf("save cleared payment %d: %w", p.ID, err)
		}
		publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventPaymentCleared, p.ID, string(p.Type)))
		cleared++
	}

	if cleared > 0 {
		slog.InfoContext(ctx, "Clearing sweep complete", "cleared", cleared, "due", len(due))
	}
	return cleared, nil
}

// resolveAccount returns a known in-memory aggregate when the id
// matches one, loading from storage otherwise.
func (s *PaymentService) resolveAccount(ctx context.Context, id int64, known ...*core.Account) (*core.Account, error) {
	for _, a := range known {
		if a != nil && a.ID == id {
			return a, nil
		}
	}
	return s.repo.GetAccount(ctx, id)
}

func (s *PaymentService) resolveTarget(ctx context.Context, targetID *int64, charged *core.Account) (*core.Account, error) {
	if targetID == nil {
		return nil, nil
	}
	target, err := s.resolveAccount(ctx, *targetID, charged)
	if err != nil {
		return nil, fmt.Errorf("load target account: %w", err)
	}
	return target, nil
}

func (s *PaymentService) resolveCategory(ctx context.Context, categoryID *int64, note string) (*core.Category, error) {
	if categoryID == nil {
		return nil, nil
	}
	category, err := s.repo.GetCategory(ctx, *categoryID)
	if err != nil {
		return nil, fmt.Errorf("load category: %w", err)
	}
	if category.RequireNote && note == "" {
		return nil, fmt.Errorf("%w: %s", core.ErrNoteRequired, category.Name)
	}
	return category, nil
}
