package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus indicates the state of a journal entry.
type EntryStatus string

const (
	Pending EntryStatus = "pending"
	Posted  EntryStatus = "posted"
)

// JournalEntry is a balanced financial event composed of two or more lines.
type JournalEntry struct {
	EntryID           string        `json:"entryID"`
	TenantID          string        `json:"tenantID"`
	EntryNumber       string        `json:"entryNumber"` // unique per tenant
	EntryDate         time.Time     `json:"entryDate"`
	Description       string        `json:"description"`
	Status            EntryStatus   `json:"status"`
	ReversalOfEntryID *string       `json:"reversalOfEntryID,omitempty"`
	PostedAt          *time.Time    `json:"postedAt,omitempty"`
	Lines             []JournalLine `json:"lines,omitempty"`
	AuditFields
}

// JournalLine is a single signed posting against one account.
// Debits are positive and credits negative.
type JournalLine struct {
	LineID       string           `json:"lineID"`
	EntryID      string           `json:"entryID"`
	TenantID     string           `json:"tenantID"`
	AccountID    string           `json:"accountID"`
	Amount       decimal.Decimal  `json:"amount"`
	CurrencyCode string           `json:"currencyCode"`
	ExchangeRate *decimal.Decimal `json:"exchangeRate,omitempty"` // fixed at posting time
	Notes        string           `json:"notes"`
	Tags         []string         `json:"tags,omitempty"`
	Synthesized  bool             `json:"synthesized"` // produced by auto-balance
	LineOrder    int              `json:"lineOrder"`
}

// Posting is a journal line joined with the entry and account data needed for aggregation.
type Posting struct {
	EntryID      string
	EntryDate    time.Time
	AccountID    string
	AccountPath  string
	AccountType  AccountType
	Amount       decimal.Decimal
	CurrencyCode string
}

// PostingFilter narrows a posting query. TenantID is mandatory.
type PostingFilter struct {
	TenantID   string
	AccountIDs []string
	PathPrefix string // account path; matches the account itself and all descendants
	From       *time.Time
	To         *time.Time // inclusive
	// IncludePending also returns lines of entries that are not yet posted.
	IncludePending bool
}

// EntryListParams holds cursor pagination for listing entries.
type EntryListParams struct {
	Limit     int
	NextToken *string
}
