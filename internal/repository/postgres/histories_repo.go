package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
)

type historiesRepo struct{ pool *pgxpool.Pool }

func (r *historiesRepo) Append(ctx context.Context, userID string, amount int64, t models.TransactionType, at time.Time) (models.HistoryEntry, error) {
	e := models.HistoryEntry{UserID: userID, Type: t, Amount: amount, CreatedAt: at}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO point_histories(user_id, type, amount, created_at)
		 VALUES($1, $2, $3, $4)
		 RETURNING id`,
		userID, string(t), amount, at,
	).Scan(&e.ID)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
	return e, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, type, amount, created_at
		   FROM point_histories
		  WHERE user_id=$1
		  ORDER BY id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select histories: %w", err)
	}
	defer rows.Close()

	out := []models.HistoryEntry{}
	for rows.Next() {
		var (
			e  models.HistoryEntry
			tp string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &tp, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		e.Type = models.TransactionType(tp)
		out = append(out, e)
	}
	return out, rows.Err()
}
