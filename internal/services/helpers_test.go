package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"moneta/internal/amqp"
	"moneta/internal/clock"
	"moneta/internal/core"
	"moneta/internal/storage"
)

func newTestRepo(t *testing.T) *storage.Repository {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedAccount(t *testing.T, repo *storage.Repository, name string, balance string) *core.Account {
	t.Helper()
	a := core.NewAccount(name, dec(balance), "")
	require.NoError(t, repo.CreateAccount(context.Background(), a))
	return a
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) clock.Fixed {
	return clock.Fixed{T: day(s)}
}

// recordingEvents captures published ledger events for assertions.
type recordingEvents struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
}

func (r *recordingEvents) Publish(_ context.Context, event amqp.LedgerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingEvents) ofType(eventType string) []amqp.LedgerEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []amqp.LedgerEvent
	for _, e := range r.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
