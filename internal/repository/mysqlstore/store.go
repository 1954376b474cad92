// Package mysqlstore implements the point stores on MySQL through database/sql.
// The DSN must set parseTime=true.
package mysqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
)

// user_id compares byte for byte so the row key matches the lock key.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS point_balances (
		user_id         VARCHAR(128) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL PRIMARY KEY,
		amount          BIGINT NOT NULL DEFAULT 0,
		last_updated_at DATETIME(6) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS point_histories (
		id         BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		user_id    VARCHAR(128) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin NOT NULL,
		type       VARCHAR(16) NOT NULL,
		amount     BIGINT NOT NULL,
		created_at DATETIME(6) NOT NULL,
		KEY point_histories_user_id_idx (user_id, id)
	)`,
}

// Open connects to MySQL and makes sure the tables exist.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	if err := EnsureSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

type balancesRepo struct {
	db  *sql.DB
	now func() time.Time
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (models.Balance, error) {
	var b models.Balance
	err := r.db.QueryRowContext(ctx, `
		SELECT user_id, amount, last_updated_at
		FROM point_balances WHERE user_id = ?`, userID,
	).Scan(&b.UserID, &b.Amount, &b.LastUpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return models.Balance{UserID: userID}, nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("query balance: %w", err)
	}
	return b, nil
}

func (r *balancesRepo) Upsert(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	b := models.Balance{UserID: userID, Amount: amount, LastUpdatedAt: r.now().UTC().Truncate(time.Microsecond)}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO point_balances (user_id, amount, last_updated_at)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE amount = VALUES(amount), last_updated_at = VALUES(last_updated_at)`,
		b.UserID, b.Amount, b.LastUpdatedAt,
	)
	if err != nil {
		return models.Balance{}, fmt.Errorf("upsert balance: %w", err)
	}
	return b, nil
}

type historiesRepo struct {
	db *sql.DB
}

func (r *historiesRepo) Append(ctx context.Context, userID string, amount int64, t models.TransactionType, at time.Time) (models.HistoryEntry, error) {
	e := models.HistoryEntry{UserID: userID, Type: t, Amount: amount, CreatedAt: at.UTC().Truncate(time.Microsecond)}
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO point_histories (user_id, type, amount, created_at)
		VALUES (?, ?, ?, ?)`,
		e.UserID, string(e.Type), e.Amount, e.CreatedAt,
	)
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("insert history: %w", err)
	}
	if e.ID, err = result.LastInsertId(); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("history id: %w", err)
	}
	return e, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, type, amount, created_at
		FROM point_histories WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query histories: %w", err)
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

func NewRepositories(db *sql.DB) repo.Repositories {
	return repo.Repositories{
		Balances:  &balancesRepo{db: db, now: time.Now},
		Histories: &historiesRepo{db: db},
		Close:     func() { _ = db.Close() },
	}
}
