package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"moneta/internal/core"
)

func (r *Repository) CreateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO categories (name, note, require_note) VALUES (?, ?, ?)",
		c.Name, c.Note, c.RequireNote)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, note, require_note FROM categories WHERE id = ?", id)
	var c core.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Note, &c.RequireNote); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("category %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get category %d: %w", id, err)
	}
	return &c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]*core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, note, require_note FROM categories ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []*core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Note, &c.RequireNote); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c *core.Category) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE categories SET name = ?, note = ?, require_note = ? WHERE id = ?",
		c.Name, c.Note, c.RequireNote, c.ID)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	return requireAffected(res, "category", c.ID)
}

// DeleteCategory detaches the category from every payment referencing
// it and removes the category row, in one transaction. Payments are
// never deleted with their category.
func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.Exec(
			"UPDATE payments SET category_id = NULL WHERE category_id = ?", id)
		if err != nil {
			return fmt.Errorf("detach category %d from payments: %w", id, err)
		}
		detached, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("detach rows affected: %w", err)
		}

		if _, err := tx.Exec(
			"UPDATE recurring_payments SET category_id = NULL WHERE category_id = ?", id); err != nil {
			return fmt.Errorf("detach category %d from recurring payments: %w", id, err)
		}

		res, err = tx.Exec("DELETE FROM categories WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete category %d: %w", id, err)
		}
		if err := requireAffected(res, "category", id); err != nil {
			return err
		}

		slog.InfoContext(ctx, "Category deleted",
			"id", id,
			"payments_detached", detached)
		return nil
	})
}
