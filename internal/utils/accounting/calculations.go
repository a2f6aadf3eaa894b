package accounting

import (
	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// EntryTolerance is the largest per-currency residual a persisted journal entry may carry.
var EntryTolerance = decimal.New(1, -6)

// AutoBalanceTolerance is the postcondition tolerance of the auto-balance calculator,
// looser than EntryTolerance because it runs on raw user input.
var AutoBalanceTolerance = decimal.New(1, -4)

// CurrencyGroup is the sum of the lines of one currency, in first-appearance order.
type CurrencyGroup struct {
	CurrencyCode string
	Sum          decimal.Decimal
	LineIndexes  []int
}

// GroupByCurrency partitions signed amounts by currency, preserving the order in which
// currencies first appear.
func GroupByCurrency(lines []domain.JournalLine) []CurrencyGroup {
	index := make(map[string]int)
	groups := make([]CurrencyGroup, 0, 2)
	for i, line := range lines {
		pos, ok := index[line.CurrencyCode]
		if !ok {
			pos = len(groups)
			index[line.CurrencyCode] = pos
			groups = append(groups, CurrencyGroup{CurrencyCode: line.CurrencyCode, Sum: decimal.Zero})
		}
		groups[pos].Sum = groups[pos].Sum.Add(line.Amount)
		groups[pos].LineIndexes = append(groups[pos].LineIndexes, i)
	}
	return groups
}

// ValidateEntryBalance enforces double-entry: at least two lines, and every
// currency group nets to zero within EntryTolerance. The first offending currency is reported
// with its exact residual.
func ValidateEntryBalance(lines []domain.JournalLine) error {
	if len(lines) < 2 {
		return &apperrors.InsufficientLinesError{Count: len(lines)}
	}
	for _, group := range GroupByCurrency(lines) {
		if group.Sum.Abs().GreaterThan(EntryTolerance) {
			return &apperrors.UnbalancedEntryError{Currency: group.CurrencyCode, Residual: group.Sum}
		}
	}
	return nil
}

// SumByCurrency folds lines into a balance vector.
func SumByCurrency(lines []domain.JournalLine) domain.BalanceVector {
	v := domain.NewBalanceVector()
	for _, line := range lines {
		v.Add(line.CurrencyCode, line.Amount)
	}
	return v
}

// NaturalAmount converts a raw signed amount (debit positive) into the account type's natural
// sign: debit-normal types (assets, expense) keep the sign, credit-normal types flip it.
func NaturalAmount(amount decimal.Decimal, accountType domain.AccountType) decimal.Decimal {
	if accountType.IsDebitNormal() {
		return amount
	}
	return amount.Neg()
}

// NaturalVector applies NaturalAmount to every bucket.
func NaturalVector(v domain.BalanceVector, accountType domain.AccountType) domain.BalanceVector {
	if accountType.IsDebitNormal() {
		return v.Clone()
	}
	return v.Neg()
}

// SplitDebitCredit returns the debit and credit columns for a raw signed balance.
func SplitDebitCredit(amount decimal.Decimal) (debit, credit decimal.Decimal) {
	if amount.IsNegative() {
		return decimal.Zero, amount.Neg()
	}
	return amount, decimal.Zero
}

// ReverseLines returns copies of lines with negated amounts, used for reversing entries.
func ReverseLines(lines []domain.JournalLine) []domain.JournalLine {
	out := make([]domain.JournalLine, len(lines))
	for i, line := range lines {
		line.Amount = line.Amount.Neg()
		out[i] = line
	}
	return out
}
