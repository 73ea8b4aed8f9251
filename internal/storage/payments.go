package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"moneta/internal/core"
)

const paymentColumns = `id, date, amount, type, is_cleared, note,
	category_id, charged_account_id, target_account_id,
	recurring_payment_id, is_recurring, created_at, modified_at`

// paymentRow is a payment as stored, before its references are
// hydrated into aggregates.
type paymentRow struct {
	payment     core.Payment
	categoryID  sql.NullInt64
	chargedID   int64
	targetID    sql.NullInt64
	recurringID sql.NullInt64
}

// accountCache deduplicates account loads within one repository call,
// so that two payments touching the same account share one *Account
// and in-memory balance mutations compose instead of diverging.
type accountCache map[int64]*core.Account

func (r *Repository) cachedAccount(ctx context.Context, cache accountCache, id int64) (*core.Account, error) {
	if a, ok := cache[id]; ok {
		return a, nil
	}
	a, err := r.GetAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = a
	return a, nil
}

// SavePayment inserts or updates the payment and persists the balances
// of every touched account in the same transaction. Callers pass every
// account whose in-memory balance the operation moved, including old
// account references a payment update reversed against.
func (r *Repository) SavePayment(ctx context.Context, p *core.Payment, touched ...*core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if err := savePaymentTx(tx, p); err != nil {
			return err
		}
		return saveTouchedTx(tx, touched)
	})
}

// DeletePayment removes the payment row and persists the balances the
// caller already reversed in memory, atomically.
func (r *Repository) DeletePayment(ctx context.Context, p *core.Payment, touched ...*core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec("DELETE FROM payments WHERE id = ?", p.ID)
		if err != nil {
			return fmt.Errorf("delete payment %d: %w", p.ID, err)
		}
		if err := requireAffected(res, "payment", p.ID); err != nil {
			return err
		}
		return saveTouchedTx(tx, touched)
	})
}

func savePaymentTx(tx *sql.Tx, p *core.Payment) error {
	var categoryID, targetID, recurringID sql.NullInt64
	if p.Category != nil {
		categoryID = sql.NullInt64{Int64: p.Category.ID, Valid: true}
	}
	if p.TargetAccount != nil {
		targetID = sql.NullInt64{Int64: p.TargetAccount.ID, Valid: true}
	}
	if p.RecurringPayment != nil {
		recurringID = sql.NullInt64{Int64: p.RecurringPayment.ID, Valid: true}
	}

	if p.ID == 0 {
		res, err := tx.Exec(`
			INSERT INTO payments (date, amount, type, is_cleared, note,
				category_id, charged_account_id, target_account_id,
				recurring_payment_id, is_recurring, created_at, modified_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			encodeTime(p.Date), p.Amount.String(), string(p.Type), p.IsCleared, p.Note,
			categoryID, p.ChargedAccount.ID, targetID,
			recurringID, p.IsRecurring, encodeTime(p.CreatedAt), encodeTime(p.ModifiedAt))
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("payment insert id: %w", err)
		}
		p.ID = id
		return nil
	}

	res, err := tx.Exec(`
		UPDATE payments
		SET date = ?, amount = ?, type = ?, is_cleared = ?, note = ?,
		    category_id = ?, charged_account_id = ?, target_account_id = ?,
		    recurring_payment_id = ?, is_recurring = ?, modified_at = ?
		WHERE id = ?`,
		encodeTime(p.Date), p.Amount.String(), string(p.Type), p.IsCleared, p.Note,
		categoryID, p.ChargedAccount.ID, targetID,
		recurringID, p.IsRecurring, encodeTime(p.ModifiedAt), p.ID)
	if err != nil {
		return fmt.Errorf("update payment %d: %w", p.ID, err)
	}
	return requireAffected(res, "payment", p.ID)
}

func saveTouchedTx(tx *sql.Tx, touched []*core.Account) error {
	seen := make(map[int64]bool, len(touched))
	for _, a := range touched {
		if a == nil || seen[a.ID] {
			continue
		}
		seen[a.ID] = true
		if err := saveAccountBalanceTx(tx, a); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) GetPayment(ctx context.Context, id int64) (*core.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE id = ?", id)
	pr, err := scanPaymentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("payment %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get payment %d: %w", id, err)
	}
	payments, err := r.hydratePayments(ctx, []*paymentRow{pr})
	if err != nil {
		return nil, err
	}
	return payments[0], nil
}

// ListUnclearedDue returns uncleared payments whose date has arrived,
// hydrated so that payments sharing an account share the *Account.
func (r *Repository) ListUnclearedDue(ctx context.Context, now time.Time) ([]*core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE is_cleared = 0 AND substr(date, 1, 10) <= ? ORDER BY date, id",
		now.UTC().Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("list uncleared due payments: %w", err)
	}
	defer rows.Close()
	return r.collectAndHydrate(ctx, rows)
}

// ListPaymentsByAccount returns every payment charging or targeting the
// account, oldest first.
func (r *Repository) ListPaymentsByAccount(ctx context.Context, accountID int64) ([]*core.Payment, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+paymentColumns+" FROM payments WHERE charged_account_id = ? OR target_account_id = ? ORDER BY date, id",
		accountID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list payments for account %d: %w", accountID, err)
	}
	defer rows.Close()
	return r.collectAndHydrate(ctx, rows)
}

func (r *Repository) collectAndHydrate(ctx context.Context, rows *sql.Rows) ([]*core.Payment, error) {
	var prs []*paymentRow
	for rows.Next() {
		pr, err := scanPaymentRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return r.hydratePayments(ctx, prs)
}

func (r *Repository) hydratePayments(ctx context.Context, prs []*paymentRow) ([]*core.Payment, error) {
	accounts := accountCache{}
	payments := make([]*core.Payment, 0, len(prs))
	for _, pr := range prs {
		p := &pr.payment

		charged, err := r.cachedAccount(ctx, accounts, pr.chargedID)
		if err != nil {
			return nil, fmt.Errorf("hydrate payment %d: %w", p.ID, err)
		}
		p.ChargedAccount = charged

		if pr.targetID.Valid {
			target, err := r.cachedAccount(ctx, accounts, pr.targetID.Int64)
			if err != nil {
				return nil, fmt.Errorf("hydrate payment %d: %w", p.ID, err)
			}
			p.TargetAccount = target
		}

		if pr.categoryID.Valid {
			category, err := r.GetCategory(ctx, pr.categoryID.Int64)
			if err != nil {
				return nil, fmt.Errorf("hydrate payment %d: %w", p.ID, err)
			}
			p.Category = category
		}

		if pr.recurringID.Valid {
			rp, err := r.getRecurringPaymentCached(ctx, accounts, pr.recurringID.Int64)
			if err != nil {
				return nil, fmt.Errorf("hydrate payment %d: %w", p.ID, err)
			}
			p.RecurringPayment = rp
		}

		payments = append(payments, p)
	}
	return payments, nil
}

func scanPaymentRow(row rowScanner) (*paymentRow, error) {
	var (
		pr         paymentRow
		dateStr    string
		amountStr  string
		typeStr    string
		createdStr string
		modStr     string
	)
	if err := row.Scan(&pr.payment.ID, &dateStr, &amountStr, &typeStr,
		&pr.payment.IsCleared, &pr.payment.Note,
		&pr.categoryID, &pr.chargedID, &pr.targetID,
		&pr.recurringID, &pr.payment.IsRecurring, &createdStr, &modStr); err != nil {
		return nil, err
	}

	var err error
	if pr.payment.Date, err = decodeTime(dateStr); err != nil {
		return nil, err
	}
	if pr.payment.Amount, err = decodeDecimal(amountStr); err != nil {
		return nil, err
	}
	if pr.payment.Type, err = core.ParsePaymentType(typeStr); err != nil {
		return nil, err
	}
	if pr.payment.CreatedAt, err = decodeTime(createdStr); err != nil {
		return nil, err
	}
	if pr.payment.ModifiedAt, err = decodeTime(modStr); err != nil {
		return nil, err
	}
	return &pr, nil
}
