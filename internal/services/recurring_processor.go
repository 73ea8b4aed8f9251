package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"moneta/internal/amqp"
	"moneta/internal/clock"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// RecurringProcessor materializes due occurrences of recurring payment
// templates into concrete payments. Each occurrence is one commit unit:
// spawned payment, moved balances and advanced marker land together, so
// an interrupted catch-up resumes exactly where it stopped, without
// gaps and without duplicates.
type RecurringProcessor struct {
	repo            *storage.Repository
	events          Events
	clock           clock.Clock
	strictTransfers bool
}

func NewRecurringProcessor(repo *storage.Repository, events Events, clk clock.Clock, strictTransfers bool) *RecurringProcessor {
	return &RecurringProcessor{
		repo:            repo,
		events:          events,
		clock:           clk,
		strictTransfers: strictTransfers,
	}
}

// ProcessDue walks every active template and emits all overdue
// occurrences in chronological order. A failing template is logged and
// skipped; the others still run.
func (p *RecurringProcessor) ProcessDue(ctx context.Context) (int, error) {
	now := p.clock.Now()

	templates, err := p.repo.ListActiveRecurringPayments(ctx)
	if err != nil {
		return 0, fmt.Errorf("list active recurring payments: %w", err)
	}

	slog.InfoContext(ctx, "Processing recurring payments",
		"active_templates", len(templates),
		"processing_date", now.Format("2006-01-02"))

	created := 0
	for _, rp := range templates {
		n, err := p.materializeTemplate(ctx, rp, now)
		created += n
		if err != nil {
			slog.ErrorContext(ctx, "Failed to materialize recurring payment",
				"id", rp.ID,
				"emitted", n,
				"error", err)
		}
	}

	slog.InfoContext(ctx, "Recurring payment processing complete",
		"payments_created", created,
		"templates_checked", len(templates))
	return created, nil
}

// materializeTemplate catches one template up to now: one payment per
// missed occurrence, oldest first, never past the end date.
func (p *RecurringProcessor) materializeTemplate(ctx context.Context, rp *core.RecurringPayment, now time.Time) (int, error) {
	count := 0
	for {
		next := rp.NextOccurrence()
		if !rp.OccurrenceDue(next, now) {
			return count, nil
		}

		payment, err := core.NewPayment(now, next, rp.Amount, rp.Type,
			rp.ChargedAccount, rp.TargetAccount, rp.Category, rp.Note, rp)
		if err != nil {
			if payment == nil {
				return count, err
			}
			if err := allowIntegrityWarning(ctx, p.events, p.strictTransfers, "materialize", rp.ID, err); err != nil {
				return count, err
			}
		}

		rp.MarkMaterialized(next)
		if err := p.repo.CommitOccurrence(ctx, payment, rp, payment.ChargedAccount, payment.TargetAccount); err != nil {
			return count, fmt.Errorf("commit occurrence %s: %w", next.Format("2006-01-02"), err)
		}

		publishEvent(ctx, p.events, amqp.NewLedgerEvent(amqp.EventPaymentMaterialized, payment.ID, next.Format("2006-01-02")))
		slog.InfoContext(ctx, "Materialized recurring payment",
			"template_id", rp.ID,
			"payment_id", payment.ID,
			"occurrence", next.Format("2006-01-02"),
			"amount", rp.Amount)
		count++
	}
}
