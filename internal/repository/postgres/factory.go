package postgres

import (
	repo "github.com/baharkarakas/point-ledger/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

func NewRepositories(pool *pgxpool.Pool) repo.Repositories {
	return repo.Repositories{
		Balances:  &balancesRepo{pool},
		Histories: &historiesRepo{pool},
		Close:     pool.Close,
	}
}
