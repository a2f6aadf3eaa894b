// Package memory is an in-process implementation of the repository ports. It enforces the
// same uniqueness and tenant rules as the Postgres schema and is used by scenario tests.
package memory

import (
	"sync"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

// Store holds every table. All repositories of one provider share a Store so that
// posting queries can join lines with accounts.
type Store struct {
	mu        sync.RWMutex
	separator string

	accounts map[string]domain.Account
	entries  map[string]domain.JournalEntry
	rates    []domain.ExchangeRate
	budgets  map[string]domain.Budget
	alerts   map[string]domain.BudgetAlert
}

// NewStore creates an empty store using sep as the account path separator.
func NewStore(sep string) *Store {
	if sep == "" {
		sep = accounting.DefaultPathSeparator
	}
	return &Store{
		separator: sep,
		accounts:  make(map[string]domain.Account),
		entries:   make(map[string]domain.JournalEntry),
		budgets:   make(map[string]domain.Budget),
		alerts:    make(map[string]domain.BudgetAlert),
	}
}

// NewRepositoryProvider wires every repository port to a single store.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		AccountRepo:      &AccountRepository{store: store},
		JournalRepo:      &JournalRepository{store: store},
		ExchangeRateRepo: &ExchangeRateRepository{store: store},
		BudgetRepo:       &BudgetRepository{store: store},
	}
}

func cloneEntry(e domain.JournalEntry) domain.JournalEntry {
	lines := make([]domain.JournalLine, len(e.Lines))
	copy(lines, e.Lines)
	e.Lines = lines
	return e
}
