package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
)

const recurringColumns = `id, start_date, end_date, amount, type, recurrence,
	charged_account_id, target_account_id, category_id, note, last_materialized`

func (r *Repository) CreateRecurringPayment(ctx context.Context, rp *core.RecurringPayment) error {
	var targetID, categoryID sql.NullInt64
	if rp.TargetAccount != nil {
		targetID = sql.NullInt64{Int64: rp.TargetAccount.ID, Valid: true}
	}
	if rp.Category != nil {
		categoryID = sql.NullInt64{Int64: rp.Category.ID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO recurring_payments (start_date, end_date, amount, type, recurrence,
			charged_account_id, target_account_id, category_id, note, last_materialized)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		encodeTime(rp.StartDate), encodeNullTime(rp.EndDate), rp.Amount.String(),
		string(rp.Type), string(rp.Recurrence),
		rp.ChargedAccount.ID, targetID, categoryID, rp.Note,
		encodeTime(rp.LastMaterialized))
	if err != nil {
		return fmt.Errorf("insert recurring payment: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("recurring payment insert id: %w", err)
	}
	rp.ID = id
	return nil
}

func (r *Repository) GetRecurringPayment(ctx context.Context, id int64) (*core.RecurringPayment, error) {
	return r.getRecurringPaymentCached(ctx, accountCache{}, id)
}

func (r *Repository) getRecurringPaymentCached(ctx context.Context, accounts accountCache, id int64) (*core.RecurringPayment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_payments WHERE id = ?", id)
	rp, err := r.scanRecurringPayment(ctx, accounts, row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("recurring payment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get recurring payment %d: %w", id, err)
	}
	return rp, nil
}

// ListActiveRecurringPayments returns templates that may still have
// occurrences to materialize: endless ones, and bounded ones whose end
// date lies beyond the last materialized occurrence.
func (r *Repository) ListActiveRecurringPayments(ctx context.Context) ([]*core.RecurringPayment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+recurringColumns+" FROM recurring_payments WHERE end_date IS NULL OR end_date > last_materialized ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("list active recurring payments: %w", err)
	}
	defer rows.Close()

	accounts := accountCache{}
	var templates []*core.RecurringPayment
	for rows.Next() {
		rp, err := r.scanRecurringPayment(ctx, accounts, rows)
		if err != nil {
			return nil, fmt.Errorf("scan recurring payment: %w", err)
		}
		templates = append(templates, rp)
	}
	return templates, rows.Err()
}

// UpdateRecurringPayment persists template field edits.
func (r *Repository) UpdateRecurringPayment(ctx context.Context, rp *core.RecurringPayment) error {
	var targetID, categoryID sql.NullInt64
	if rp.TargetAccount != nil {
		targetID = sql.NullInt64{Int64: rp.TargetAccount.ID, Valid: true}
	}
	if rp.Category != nil {
		categoryID = sql.NullInt64{Int64: rp.Category.ID, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE recurring_payments
		SET start_date = ?, end_date = ?, amount = ?, type = ?, recurrence = ?,
		    charged_account_id = ?, target_account_id = ?, category_id = ?,
		    note = ?, last_materialized = ?
		WHERE id = ?`,
		encodeTime(rp.StartDate), encodeNullTime(rp.EndDate), rp.Amount.String(),
		string(rp.Type), string(rp.Recurrence),
		rp.ChargedAccount.ID, targetID, categoryID, rp.Note,
		encodeTime(rp.LastMaterialized), rp.ID)
	if err != nil {
		return fmt.Errorf("update recurring payment %d: %w", rp.ID, err)
	}
	return requireAffected(res, "recurring payment", rp.ID)
}

// DeleteRecurringPayment unlinks spawned payments from the template and
// removes it, in one transaction. The payments themselves stay.
func (r *Repository) DeleteRecurringPayment(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(
			"UPDATE payments SET recurring_payment_id = NULL, is_recurring = 0 WHERE recurring_payment_id = ?", id); err != nil {
			return fmt.Errorf("unlink payments from recurring payment %d: %w", id, err)
		}
		res, err := tx.Exec("DELETE FROM recurring_payments WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete recurring payment %d: %w", id, err)
		}
		return requireAffected(res, "recurring payment", id)
	})
}

// CommitOccurrence is the per-occurrence commit unit of the
// materialization loop: the spawned payment, the balances it moved and
// the advanced marker land in one transaction, so a crash mid-catch-up
// never leaves a marker ahead of (or behind) the payments actually
// emitted.
func (r *Repository) CommitOccurrence(ctx context.Context, p *core.Payment, rp *core.RecurringPayment, touched ...*core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := savePaymentTx(tx, p); err != nil {
			return err
		}
		if err := saveTouchedTx(tx, touched); err != nil {
			return err
		}
		res, err := tx.Exec(
			"UPDATE recurring_payments SET last_materialized = ? WHERE id = ?",
			encodeTime(rp.LastMaterialized), rp.ID)
		if err != nil {
			return fmt.Errorf("advance marker for recurring payment %d: %w", rp.ID, err)
		}
		return requireAffected(res, "recurring payment", rp.ID)
	})
}

func (r *Repository) scanRecurringPayment(ctx context.Context, accounts accountCache, row rowScanner) (*core.RecurringPayment, error) {
	var (
		rp         core.RecurringPayment
		startStr   string
		endStr     sql.NullString
		amountStr  string
		typeStr    string
		recurStr   string
		chargedID  int64
		targetID   sql.NullInt64
		categoryID sql.NullInt64
		lastStr    string
	)
	if err := row.Scan(&rp.ID, &startStr, &endStr, &amountStr, &typeStr, &recurStr,
		&chargedID, &targetID, &categoryID, &rp.Note, &lastStr); err != nil {
		return nil, err
	}

	var err error
	if rp.StartDate, err = decodeTime(startStr); err != nil {
		return nil, err
	}
	if rp.EndDate, err = decodeNullTime(endStr); err != nil {
		return nil, err
	}
	if rp.Amount, err = decodeDecimal(amountStr); err != nil {
		return nil, err
	}
	if rp.Type, err = core.ParsePaymentType(typeStr); err != nil {
		return nil, err
	}
	if rp.Recurrence, err = core.ParseRecurrence(recurStr); err != nil {
		return nil, err
	}
	if rp.LastMaterialized, err = decodeTime(lastStr); err != nil {
		return nil, err
	}

	if rp.ChargedAccount, err = r.cachedAccount(ctx, accounts, chargedID); err != nil {
		return nil, err
	}
	if targetID.Valid {
		if rp.TargetAccount, err = r.cachedAccount(ctx, accounts, targetID.Int64); err != nil {
			return nil, err
		}
	}
	if categoryID.Valid {
		if rp.Category, err = r.GetCategory(ctx, categoryID.Int64); err != nil {
			return nil, err
		}
	}
	return &rp, nil
}
