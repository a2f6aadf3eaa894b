package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"

	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

// NewRepositoryProvider wires every Postgres repository to the shared pool.
// sep is the account path separator used for subtree matching.
func NewRepositoryProvider(dbPool *pgxpool.Pool, sep string) portsrepo.RepositoryProvider {
	if sep == "" {
		sep = accounting.DefaultPathSeparator
	}
	return portsrepo.RepositoryProvider{
		AccountRepo:      newPgxAccountRepository(dbPool, sep),
		JournalRepo:      newPgxJournalRepository(dbPool, sep),
		ExchangeRateRepo: newPgxExchangeRateRepository(dbPool),
		BudgetRepo:       newPgxBudgetRepository(dbPool),
	}
}
