package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/baharkarakas/point-ledger/internal/keylock"
	"github.com/baharkarakas/point-ledger/internal/metrics"
	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

// LedgerService applies charge/use requests. Mutations for one user run one at
// a time under that user's slot; reads go straight to the stores.
type LedgerService struct {
	bal   repo.Balances
	hist  repo.Histories
	locks *keylock.Registry[string]
	log   *slog.Logger
	now   func() time.Time
}

func NewLedgerService(b repo.Balances, h repo.Histories, locks *keylock.Registry[string], log *slog.Logger) *LedgerService {
	if log == nil {
		log = slog.Default()
	}
	return &LedgerService{bal: b, hist: h, locks: locks, log: log, now: time.Now}
}

// ----------------- Queries -----------------

// GetBalance is not synchronized with in-flight mutations and may return a
// value that is about to change.
func (s *LedgerService) GetBalance(ctx context.Context, userID string) (models.Balance, error) {
	if userID == "" {
		return models.Balance{}, models.ErrInvalidUser
	}
	return s.bal.Get(ctx, userID)
}

func (s *LedgerService) GetHistory(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	if userID == "" {
		return nil, models.ErrInvalidUser
	}
	return s.hist.ListByUser(ctx, userID)
}

// ----------------- Mutations -----------------

func (s *LedgerService) Charge(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	return s.apply(ctx, userID, amount, models.TxnCharge)
}

func (s *LedgerService) Use(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	return s.apply(ctx, userID, amount, models.TxnUse)
}

func (s *LedgerService) apply(ctx context.Context, userID string, amount int64, t models.TransactionType) (models.Balance, error) {
	if userID == "" {
		return models.Balance{}, models.ErrInvalidUser
	}
	if err := models.ValidateAmount(amount); err != nil {
		s.observe(userID, t, amount, err)
		return models.Balance{}, err
	}

	b, err := keylock.RunExclusive(s.locks, userID, func() (models.Balance, error) {
		return s.applyLocked(ctx, userID, amount, t)
	})
	metrics.LockSlots.Set(float64(s.locks.Len()))
	s.observe(userID, t, amount, err)
	if err != nil {
		return models.Balance{}, err
	}
	return b, nil
}

// applyLocked must only run while the user's slot is held.
func (s *LedgerService) applyLocked(ctx context.Context, userID string, amount int64, t models.TransactionType) (models.Balance, error) {
	cur, err := s.bal.Get(ctx, userID)
	if err != nil {
		return models.Balance{}, fmt.Errorf("read balance: %w", err)
	}

	now := s.now()
	entry, err := models.NewHistoryEntry(userID, t, amount, now)
	if err != nil {
		return models.Balance{}, err
	}

	var next models.Balance
	switch t {
	case models.TxnCharge:
		next, err = cur.Charge(amount, now)
	case models.TxnUse:
		next, err = cur.Use(amount, now)
	}
	if err != nil {
		return models.Balance{}, err
	}

	// history is written only for mutations that pass the balance bounds
	if _, err := s.hist.Append(ctx, entry.UserID, entry.Amount, entry.Type, entry.CreatedAt); err != nil {
		return models.Balance{}, fmt.Errorf("append history: %w", err)
	}
	saved, err := s.bal.Upsert(ctx, userID, next.Amount)
	if err != nil {
		return models.Balance{}, fmt.Errorf("write balance: %w", err)
	}
	return saved, nil
}

func (s *LedgerService) observe(userID string, t models.TransactionType, amount int64, err error) {
	result := resultLabel(err)
	metrics.LedgerOperations.WithLabelValues(string(t), result).Inc()

	switch result {
	case "ok":
		s.log.Debug("points applied", "user_id", userID, "type", t, "amount", amount)
	case "error":
		s.log.Error("points store failure", "user_id", userID, "type", t, "amount", amount, "err", err)
	default:
		s.log.Info("points rejected", "user_id", userID, "type", t, "amount", amount, "reason", result)
	}
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, models.ErrBalanceLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, models.ErrInsufficientBalance):
		return "insufficient"
	default:
		return "error"
	}
}
