// Package services orchestrates the ledger domain: it loads aggregates
// from storage, runs domain mutations in memory, and commits the
// resulting state through the repository's transactional operations.
package services

import (
	"context"
	"errors"
	"log/slog"

	"moneta/internal/amqp"
	"moneta/internal/core"
)

// Events is the ledger event channel. A nil Events means events are
// disabled; publishing is always best-effort and never fails the
// ledger write.
type Events interface {
	Publish(ctx context.Context, event amqp.LedgerEvent) error
}

func publishEvent(ctx context.Context, events Events, event amqp.LedgerEvent) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"type", event.Type,
			"entity_id", event.EntityID,
			"error", err)
	}
}

// allowIntegrityWarning decides what happens to a referential-integrity
// hazard raised by the domain. By default the hazard is logged and
// surfaced on the diagnostic channel and the operation goes on; with
// strictTransfers a missing transfer target becomes a hard failure.
// Anything that is not an integrity warning passes through unchanged.
func allowIntegrityWarning(ctx context.Context, events Events, strictTransfers bool, op string, entityID int64, err error) error {
	if err == nil {
		return nil
	}
	if !core.IsIntegrityWarning(err) {
		return err
	}
	if strictTransfers && errors.Is(err, core.ErrMissingTargetAccount) {
		return err
	}
	slog.WarnContext(ctx, "Integrity warning, side effect skipped",
		"operation", op,
		"entity_id", entityID,
		"warning", err)
	publishEvent(ctx, events, amqp.NewLedgerEvent(amqp.EventIntegrityWarning, entityID, op+": "+err.Error()))
	return nil
}
