package domain

import (
	"github.com/shopspring/decimal"
)

// TrialBalanceRow represents a single row in a trial balance report.
// One row is produced per account and currency.
type TrialBalanceRow struct {
	AccountID    string          `json:"accountID"`
	AccountName  string          `json:"accountName"`
	AccountPath  string          `json:"accountPath"`
	AccountType  AccountType     `json:"accountType"`
	CurrencyCode string          `json:"currencyCode"`
	Debit        decimal.Decimal `json:"debit"`
	Credit       decimal.Decimal `json:"credit"`
}

// BalanceSheetReport holds per-currency totals expressed in each type's natural sign.
type BalanceSheetReport struct {
	Assets          BalanceVector `json:"assets"`
	Liabilities     BalanceVector `json:"liabilities"`
	Equity          BalanceVector `json:"equity"`
	CurrentEarnings BalanceVector `json:"currentEarnings"` // revenue minus expenses not yet closed to equity
}

// IsBalanced checks assets = liabilities + equity + current earnings in every currency.
func (r BalanceSheetReport) IsBalanced(tolerance decimal.Decimal) bool {
	rhs := r.Liabilities.Clone()
	rhs.Merge(r.Equity)
	rhs.Merge(r.CurrentEarnings)
	return r.Assets.EqualWithin(rhs, tolerance)
}

// IncomeStatementReport holds per-currency revenue, expenses and net income for a period.
type IncomeStatementReport struct {
	Revenue   BalanceVector `json:"revenue"`
	Expenses  BalanceVector `json:"expenses"`
	NetIncome BalanceVector `json:"netIncome"`
}
