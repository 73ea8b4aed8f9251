package services

import (
	"context"
	"fmt"
	"strings"

	"moneta/internal/amqp"
	"moneta/internal/core"
	"moneta/internal/storage"
)

// CategoryService manages the category catalogue. Deletion detaches the
// category from every referencing payment before removing it;
// surrounding application code is expected to confirm the operation
// with the user first, the service itself asks nothing.
type CategoryService struct {
	repo   *storage.Repository
	events Events
}

func NewCategoryService(repo *storage.Repository, events Events) *CategoryService {
	return &CategoryService{repo: repo, events: events}
}

func (s *CategoryService) CreateCategory(ctx context.Context, name, note string, requireNote bool) (*core.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: category name", core.ErrEmptyName)
	}
	c := core.NewCategory(name, note, requireNote)
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) GetCategory(ctx context.Context, id int64) (*core.Category, error) {
	return s.repo.GetCategory(ctx, id)
}

func (s *CategoryService) ListCategories(ctx context.Context) ([]*core.Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, c *core.Category) error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: category name", core.ErrEmptyName)
	}
	return s.repo.UpdateCategory(ctx, c)
}

// DeleteCategory removes a category. Payments referencing it are
// detached, never deleted; both effects commit in one transaction.
func (s *CategoryService) DeleteCategory(ctx context.Context, id int64) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, s.events, amqp.NewLedgerEvent(amqp.EventCategoryDeleted, id, ""))
	return nil
}
