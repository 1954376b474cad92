// Package factory opens the store selected by config.
package factory

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/baharkarakas/point-ledger/internal/config"
	"github.com/baharkarakas/point-ledger/internal/db"
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/baharkarakas/point-ledger/internal/repository/memory"
	"github.com/baharkarakas/point-ledger/internal/repository/mysqlstore"
	"github.com/baharkarakas/point-ledger/internal/repository/postgres"
	"github.com/baharkarakas/point-ledger/internal/repository/redisstore"
)

func Open(ctx context.Context, cfg config.Config) (repo.Repositories, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return memory.NewRepositories(), nil

	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return repo.Repositories{}, fmt.Errorf("postgres connect: %w", err)
		}
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				pool.Close()
				return repo.Repositories{}, fmt.Errorf("migrations: %w", err)
			}
		}
		return postgres.NewRepositories(pool), nil

	case config.DriverMySQL:
		sqlDB, err := mysqlstore.Open(ctx, cfg.MySQLDSN)
		if err != nil {
			return repo.Repositories{}, err
		}
		return mysqlstore.NewRepositories(sqlDB), nil

	case config.DriverRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return repo.Repositories{}, fmt.Errorf("redis connect: %w", err)
		}
		return redisstore.NewRepositories(client), nil
	}
	return repo.Repositories{}, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
