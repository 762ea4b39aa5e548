package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
)

// NewRepositoryProvider constructs all pgsql-backed repositories over one pool.
func NewRepositoryProvider(pool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		Balance:     newPgxBalanceRepository(pool),
		Transaction: newPgxTransactionRepository(pool),
	}
}
