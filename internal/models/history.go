package models

import (
	"fmt"
	"time"
)

type TransactionType string

const (
	TxnCharge TransactionType = "CHARGE"
	TxnUse    TransactionType = "USE"
)

func (t TransactionType) Valid() bool { return t == TxnCharge || t == TxnUse }

const (
	MinTxAmount int64 = 1
	MaxTxAmount int64 = 2_000_000
)

// HistoryEntry records one applied charge or use. Entries are append-only.
type HistoryEntry struct {
	ID        int64           `json:"id"`
	UserID    string          `json:"user_id"`
	Type      TransactionType `json:"type"`
	Amount    int64           `json:"amount"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewHistoryEntry builds an unsaved entry. The ID is assigned by the store on append.
func NewHistoryEntry(userID string, t TransactionType, amount int64, at time.Time) (HistoryEntry, error) {
	if err := ValidateAmount(amount); err != nil {
		return HistoryEntry{}, err
	}
	if !t.Valid() {
		return HistoryEntry{}, fmt.Errorf("unknown transaction type %q", t)
	}
	return HistoryEntry{UserID: userID, Type: t, Amount: amount, CreatedAt: at}, nil
}

func ValidateAmount(amount int64) error {
	if amount < MinTxAmount || amount > MaxTxAmount {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidAmount, amount, MinTxAmount, MaxTxAmount)
	}
	return nil
}
