// Package memory keeps balances and histories in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

type balancesRepo struct {
	mu   sync.RWMutex
	rows map[string]models.Balance
	now  func() time.Time
}

func (r *balancesRepo) Get(_ context.Context, userID string) (models.Balance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if b, ok := r.rows[userID]; ok {
		return b, nil
	}
	return models.Balance{UserID: userID}, nil
}

func (r *balancesRepo) Upsert(_ context.Context, userID string, amount int64) (models.Balance, error) {
	b := models.Balance{UserID: userID, Amount: amount, LastUpdatedAt: r.now()}
	r.mu.Lock()
	r.rows[userID] = b
	r.mu.Unlock()
	return b, nil
}

type historiesRepo struct {
	mu     sync.RWMutex
	nextID int64
	byUser map[string][]models.HistoryEntry
}

func (r *historiesRepo) Append(_ context.Context, userID string, amount int64, t models.TransactionType, at time.Time) (models.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	e := models.HistoryEntry{ID: r.nextID, UserID: userID, Type: t, Amount: amount, CreatedAt: at}
	r.byUser[userID] = append(r.byUser[userID], e)
	return e, nil
}

func (r *historiesRepo) ListByUser(_ context.Context, userID string) ([]models.HistoryEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.HistoryEntry, len(r.byUser[userID]))
	copy(out, r.byUser[userID])
	return out, nil
}

func NewRepositories() repo.Repositories {
	return repo.Repositories{
		Balances:  &balancesRepo{rows: make(map[string]models.Balance), now: time.Now},
		Histories: &historiesRepo{byUser: make(map[string][]models.HistoryEntry)},
		Close:     func() {},
	}
}
