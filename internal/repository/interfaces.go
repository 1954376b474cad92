package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
)

// Balances stores the current balance per user.
type Balances interface {
	// Get returns the stored balance, or a zero balance for an unknown user.
	Get(ctx context.Context, userID string) (models.Balance, error)
	// Upsert overwrites the balance unconditionally.
	Upsert(ctx context.Context, userID string, amount int64) (models.Balance, error)
}

// Histories is the append-only charge/use log.
type Histories interface {
	Append(ctx context.Context, userID string, amount int64, t models.TransactionType, at time.Time) (models.HistoryEntry, error)
	// ListByUser returns entries in insertion order.
	ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error)
}

type Repositories struct {
	Balances  Balances
	Histories Histories
	Close     func()
}
