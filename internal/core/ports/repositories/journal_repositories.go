package repositories

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// JournalReader defines read operations for journal entries.
type JournalReader interface {
	// FindEntryByID retrieves an entry together with its lines, ordered by line order.
	FindEntryByID(ctx context.Context, tenantID, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries (without lines), newest first.
	// It returns the entries, a token for the next page, and an error.
	ListEntries(ctx context.Context, tenantID string, limit int, nextToken *string) ([]domain.JournalEntry, *string, error)
}

// JournalWriter defines write operations for journal entries.
type JournalWriter interface {
	// SaveEntry persists an entry and all of its lines as one atomic unit.
	// Entry-number and reversal uniqueness are enforced by the store and reported as apperrors.DuplicateError.
	SaveEntry(ctx context.Context, entry domain.JournalEntry) error

	// UpdateEntryStatus moves an entry from one status to another. The update only applies when the
	// stored status still equals from; otherwise apperrors.ErrConflict is returned.
	UpdateEntryStatus(ctx context.Context, tenantID, entryID string, from, to domain.EntryStatus, userID string, now time.Time) error
}

// PostingReader defines the aggregate queries used by balance and budget computations.
type PostingReader interface {
	// SumByCurrency sums signed line amounts matching the filter, grouped by currency.
	SumByCurrency(ctx context.Context, filter domain.PostingFilter) (domain.BalanceVector, error)

	// SumByAccount sums signed line amounts matching the filter, grouped by account and currency.
	SumByAccount(ctx context.Context, filter domain.PostingFilter) (map[string]domain.BalanceVector, error)

	// ListPostings returns individual postings matching the filter ordered by entry date.
	ListPostings(ctx context.Context, filter domain.PostingFilter) ([]domain.Posting, error)
}

// JournalRepositoryFacade combines all journal-related repository interfaces
type JournalRepositoryFacade interface {
	JournalReader
	JournalWriter
	PostingReader
}
