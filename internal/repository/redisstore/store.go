// Package redisstore stores balances as hashes and histories as lists.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/baharkarakas/point-ledger/internal/models"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/redis/go-redis/v9"
)

// User ids are wrapped in braces so no id can produce another key, the
// history sequence included.
const historySeqKey = "point:seq:history"

func balanceKey(userID string) string { return "point:balance:{" + userID + "}" }

func historyKey(userID string) string { return "point:history:{" + userID + "}" }

type balancesRepo struct {
	client *redis.Client
	now    func() time.Time
}

func (r *balancesRepo) Get(ctx context.Context, userID string) (models.Balance, error) {
	fields, err := r.client.HGetAll(ctx, balanceKey(userID)).Result()
	if err != nil {
		return models.Balance{}, fmt.Errorf("hgetall balance: %w", err)
	}
	b := models.Balance{UserID: userID}
	if len(fields) == 0 {
		return b, nil
	}
	if b.Amount, err = strconv.ParseInt(fields["amount"], 10, 64); err != nil {
		return models.Balance{}, fmt.Errorf("parse amount: %w", err)
	}
	ns, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return models.Balance{}, fmt.Errorf("parse updated_at: %w", err)
	}
	b.LastUpdatedAt = time.Unix(0, ns).UTC()
	return b, nil
}

func (r *balancesRepo) Upsert(ctx context.Context, userID string, amount int64) (models.Balance, error) {
	b := models.Balance{UserID: userID, Amount: amount, LastUpdatedAt: r.now().UTC()}
	err := r.client.HSet(ctx, balanceKey(userID),
		"amount", amount,
		"updated_at", b.LastUpdatedAt.UnixNano(),
	).Err()
	if err != nil {
		return models.Balance{}, fmt.Errorf("hset balance: %w", err)
	}
	return b, nil
}

type historiesRepo struct {
	client *redis.Client
}

func (r *historiesRepo) Append(ctx context.Context, userID string, amount int64, t models.TransactionType, at time.Time) (models.HistoryEntry, error) {
	id, err := r.client.Incr(ctx, historySeqKey).Result()
	if err != nil {
		return models.HistoryEntry{}, fmt.Errorf("incr history seq: %w", err)
	}
	e := models.HistoryEntry{ID: id, UserID: userID, Type: t, Amount: amount, CreatedAt: at.UTC()}
	raw, err := json.Marshal(e)
	if err != nil {
		return models.HistoryEntry{}, err
	}
	if err := r.client.RPush(ctx, historyKey(userID), raw).Err(); err != nil {
		return models.HistoryEntry{}, fmt.Errorf("rpush history: %w", err)
	}
	return e, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID string) ([]models.HistoryEntry, error) {
	items, err := r.client.LRange(ctx, historyKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange history: %w", err)
	}
	out := make([]models.HistoryEntry, 0, len(items))
	for _, it := range items {
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(it), &e); err != nil {
			return nil, fmt.Errorf("decode history: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

func NewRepositories(client *redis.Client) repo.Repositories {
	return repo.Repositories{
		Balances:  &balancesRepo{client: client, now: time.Now},
		Histories: &historiesRepo{client: client},
		Close:     func() { _ = client.Close() },
	}
}
