package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"moneta/internal/amqp"
	"moneta/internal/core"
)

func TestCreateCategoryRejectsBlankName(t *testing.T) {
	repo := newTestRepo(t)
	svc := NewCategoryService(repo, &recordingEvents{})

	_, err := svc.CreateCategory(context.Background(), "  ", "", false)
	assert.ErrorIs(t, err, core.ErrEmptyName)
}

func TestDeleteCategoryDetachesPayments(t *testing.T) {
	repo := newTestRepo(t)
	a := seedAccount(t, repo, "Checking", "200")
	events := &recordingEvents{}
	categories := NewCategoryService(repo, events)
	payments := NewPaymentService(repo, &recordingEvents{}, at("2024-03-10"), false)
	ctx := context.Background()

	cat, err := categories.CreateCategory(ctx, "Groceries", "", false)
	require.NoError(t, err)

	var ids []int64
	for _, d := range []string{"2024-03-01", "2024-03-05"} {
		p, err := payments.CreatePayment(ctx, PaymentInput{
			Date:             day(d),
			Amount:           dec("10"),
			Type:             core.Expense,
			ChargedAccountID: a.ID,
			CategoryID:       &cat.ID,
		})
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}

	require.NoError(t, categories.DeleteCategory(ctx, cat.ID))

	for _, id := range ids {
		p, err := payments.GetPayment(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, p.Category, "payment %d must survive without its category", id)
	}

	_, err = categories.GetCategory(ctx, cat.ID)
	assert.Error(t, err)
	assert.Len(t, events.ofType(amqp.EventCategoryDeleted), 1)

	// Balances are untouched: detaching is not deleting.
	stored, err := repo.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, stored.CurrentBalance.Equal(dec("180")))
}

func TestDeleteCategoryDetachesRecurringTemplates(t *testing.T) {
	repo := newTestRepo(t)
	a := seedAccount(t, repo, "Checking", "200")
	categories := NewCategoryService(repo, &recordingEvents{})
	templates := NewRecurringService(repo, &recordingEvents{})
	ctx := context.Background()

	cat, err := categories.CreateCategory(ctx, "Subscriptions", "", false)
	require.NoError(t, err)

	rp := seedTemplate(t, templates, RecurringInput{
		StartDate:        day("2024-01-01"),
		Amount:           dec("9.99"),
		Type:             core.Expense,
		Recurrence:       core.Monthly,
		ChargedAccountID: a.ID,
		CategoryID:       &cat.ID,
	})

	require.NoError(t, categories.DeleteCategory(ctx, cat.ID))

	reloaded, err := templates.GetTemplate(ctx, rp.ID)
	require.NoError(t, err)
	assert.Nil(t, reloaded.Category)
}

func TestUpdateCategoryTogglesRequireNote(t *testing.T) {
	repo := newTestRepo(t)
	categories := NewCategoryService(repo, &recordingEvents{})
	ctx := context.Background()

	cat, err := categories.CreateCategory(ctx, "Reimbursable", "", false)
	require.NoError(t, err)

	cat.RequireNote = true
	require.NoError(t, categories.UpdateCategory(ctx, cat))

	reloaded, err := categories.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.RequireNote)
}
