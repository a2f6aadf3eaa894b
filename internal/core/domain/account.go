package domain

// AccountType defines the fundamental accounting type of an account.
type AccountType string

const (
	Asset     AccountType = "assets"
	Liability AccountType = "liabilities"
	Equity    AccountType = "equity"
	Revenue   AccountType = "revenue"
	Expense   AccountType = "expense"
)

// AccountTypes lists every valid account type in chart-of-accounts order.
var AccountTypes = []AccountType{Asset, Liability, Equity, Revenue, Expense}

// IsValid reports whether t is one of the known account types.
func (t AccountType) IsValid() bool {
	switch t {
	case Asset, Liability, Equity, Revenue, Expense:
		return true
	}
	return false
}

// IsDebitNormal reports whether the account type grows with debits (positive amounts).
func (t AccountType) IsDebitNormal() bool {
	return t == Asset || t == Expense
}

// Account represents a node of a tenant's chart of accounts.
//
// Path is the materialized ancestor chain (e.g. "assets:bank:checking") and is unique
// within a tenant. Depth is 0 for root accounts and parent.Depth+1 otherwise.
// Balances are never stored on the account; they are derived from journal lines.
type Account struct {
	AccountID       string      `json:"accountID"`
	TenantID        string      `json:"tenantID"`
	Name            string      `json:"name"`
	AccountType     AccountType `json:"accountType"`
	CurrencyCode    string      `json:"currencyCode"`
	ParentAccountID *string     `json:"parentAccountID,omitempty"`
	Path            string      `json:"path"`
	Depth           int         `json:"depth"`
	Description     string      `json:"description"`
	IsActive        bool        `json:"isActive"`
	AuditFields
}

// IsRoot reports whether the account has no parent.
func (a Account) IsRoot() bool {
	return a.ParentAccountID == nil || *a.ParentAccountID == ""
}

// SubtreeMove describes a reparent. Stores rewrite the account at OldPath and every
// descendant present at write time, and reject the move with apperrors.ErrConflict when
// the account or the new parent no longer has the path the caller read.
type SubtreeMove struct {
	AccountID       string
	ParentAccountID *string // nil moves the account to the root
	ParentPath      string  // path of the new parent as read by the caller
	OldPath         string
	NewPath         string
	DepthDelta      int
}
