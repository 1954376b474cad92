package models

import "time"

const (
	MinBalance int64 = 0
	MaxBalance int64 = 10_000_000
)

type Balance struct {
	UserID        string    `json:"user_id"`
	Amount        int64     `json:"amount"`
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// Charge returns the balance after adding delta, or ErrBalanceLimitExceeded
// when the result would pass MaxBalance. The receiver is never modified.
func (b Balance) Charge(delta int64, at time.Time) (Balance, error) {
	if b.Amount+delta > MaxBalance {
		return b, ErrBalanceLimitExceeded
	}
	return Balance{UserID: b.UserID, Amount: b.Amount + delta, LastUpdatedAt: at}, nil
}

// Use returns the balance after subtracting delta, or ErrInsufficientBalance
// when the result would drop below MinBalance.
func (b Balance) Use(delta int64, at time.Time) (Balance, error) {
	if b.Amount-delta < MinBalance {
		return b, ErrInsufficientBalance
	}
	return Balance{UserID: b.UserID, Amount: b.Amount - delta, LastUpdatedAt: at}, nil
}
