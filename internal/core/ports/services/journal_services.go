package services

import (
	"context"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

// JournalReaderSvc defines read operations for journal data
type JournalReaderSvc interface {
	// GetEntryByID retrieves a specific entry with its lines.
	GetEntryByID(ctx context.Context, tenantID string, entryID string) (*domain.JournalEntry, error)

	// ListEntries retrieves a page of entries in a tenant.
	ListEntries(ctx context.Context, tenantID string, params dto.ListEntriesParams) (*dto.ListEntriesResponse, error)
}

// JournalWriterSvc defines write operations for journal data
type JournalWriterSvc interface {
	// CreateEntry validates and persists a new entry with its lines as one unit.
	CreateEntry(ctx context.Context, tenantID string, req dto.CreateEntryRequest, userID string) (*domain.JournalEntry, error)

	// PostEntry moves a pending entry to posted.
	PostEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error)

	// ReverseEntry creates a posted entry that negates every line of a posted entry.
	ReverseEntry(ctx context.Context, tenantID string, entryID string, userID string) (*domain.JournalEntry, error)
}

// JournalCalculatorSvc defines calculation operations related to journals
type JournalCalculatorSvc interface {
	// AutoBalance fills the single empty amount of a draft entry and adds counter-lines for other currencies.
	AutoBalance(ctx context.Context, lines []dto.EntryLineRequest) ([]dto.EntryLineRequest, error)
}

// JournalSvcFacade combines all journal-related service interfaces
// This is a facade for clients that need access to all operations
type JournalSvcFacade interface {
	JournalReaderSvc
	JournalWriterSvc
	JournalCalculatorSvc
}
