package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"moneta/internal/core"
)

const accountColumns = "id, name, note, initial_balance, current_balance, is_deactivated, is_excluded, is_overdrawn"

func (r *Repository) CreateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (name, note, initial_balance, current_balance, is_deactivated, is_excluded, is_overdrawn)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.Name, a.Note, a.InitialBalance.String(), a.CurrentBalance.String(),
		a.IsDeactivated, a.IsExcluded, a.IsOverdrawn)
	if err != nil {
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("account insert id: %w", err)
	}
	a.ID = id
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
	a, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("account %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get account %d: %w", id, err)
	}
	return a, nil
}

// ListAccounts returns all accounts, skipping deactivated ones unless
// asked for.
func (r *Repository) ListAccounts(ctx context.Context, includeDeactivated bool) ([]*core.Account, error) {
	query := "SELECT " + accountColumns + " FROM accounts"
	if !includeDeactivated {
		query += " WHERE is_deactivated = 0"
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UpdateAccount persists the full account row, balance included.
func (r *Repository) UpdateAccount(ctx context.Context, a *core.Account) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, note = ?, initial_balance = ?, current_balance = ?,
		    is_deactivated = ?, is_excluded = ?, is_overdrawn = ?
		WHERE id = ?`,
		a.Name, a.Note, a.InitialBalance.String(), a.CurrentBalance.String(),
		a.IsDeactivated, a.IsExcluded, a.IsOverdrawn, a.ID)
	if err != nil {
		return fmt.Errorf("update account %d: %w", a.ID, err)
	}
	return requireAffected(res, "account", a.ID)
}

// saveAccountBalanceTx writes only the balance-derived columns, used by
// the payment commit paths.
func saveAccountBalanceTx(tx *sql.Tx, a *core.Account) error {
	res, err := tx.Exec(
		"UPDATE accounts SET current_balance = ?, is_overdrawn = ? WHERE id = ?",
		a.CurrentBalance.String(), a.IsOverdrawn, a.ID)
	if err != nil {
		return fmt.Errorf("save balance for account %d: %w", a.ID, err)
	}
	return requireAffected(res, "account", a.ID)
}

func requireAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %d rows affected: %w", entity, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*core.Account, error) {
	var (
		a       core.Account
		initial string
		current string
	)
	if err := row.Scan(&a.ID, &a.Name, &a.Note, &initial, &current,
		&a.IsDeactivated, &a.IsExcluded, &a.IsOverdrawn); err != nil {
		return nil, err
	}
	var err error
	if a.InitialBalance, err = decodeDecimal(initial); err != nil {
		return nil, err
	}
	if a.CurrentBalance, err = decodeDecimal(current); err != nil {
		return nil, err
	}
	return &a, nil
}
