package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// EntryLineRequest is one line of a journal entry request.
// Amount is signed: debits positive, credits negative. A nil Amount is only
// meaningful for auto-balancing.
type EntryLineRequest struct {
	AccountID    string           `json:"accountID" validate:"required"`
	Amount       *decimal.Decimal `json:"amount"`
	CurrencyCode string           `json:"currencyCode" validate:"required,len=3"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"`
	Notes        string           `json:"notes" validate:"max=1024"`
	Tags         []string         `json:"tags,omitempty" validate:"dive,max=64"`
	Synthesized  bool             `json:"synthesized"`
}

// CreateEntryRequest defines the data needed to create a journal entry with its lines.
type CreateEntryRequest struct {
	Date        time.Time          `json:"date" validate:"required"`
	Description string             `json:"description" validate:"max=1024"`
	Lines       []EntryLineRequest `json:"lines" validate:"dive"`
	// Post stores the entry directly as posted.
	Post bool `json:"post"`
}

// ListEntriesParams defines query parameters for listing entries.
type ListEntriesParams struct {
	Limit     int     `form:"limit"`
	NextToken *string `form:"nextToken"`
}

// ListEntriesResponse wraps a page of entries.
type ListEntriesResponse struct {
	Entries   []domain.JournalEntry `json:"entries"`
	NextToken *string               `json:"nextToken,omitempty"`
}
