package accounting

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
)

// LineAmount is either a specified decimal or a request to compute the amount.
// A specified zero is treated as empty, matching how users leave a field blank;
// negative amounts are never empty because they are deliberate credits.
type LineAmount struct {
	value     decimal.Decimal
	specified bool
}

// Specified wraps a user-entered amount.
func Specified(d decimal.Decimal) LineAmount {
	return LineAmount{value: d, specified: true}
}

// ToBeComputed marks an amount for the calculator to fill in.
func ToBeComputed() LineAmount {
	return LineAmount{}
}

// AmountFromPtr maps an optional request amount onto a LineAmount.
func AmountFromPtr(d *decimal.Decimal) LineAmount {
	if d == nil {
		return ToBeComputed()
	}
	return Specified(*d)
}

// IsEmpty reports whether the amount is absent or exactly zero.
func (a LineAmount) IsEmpty() bool {
	return !a.specified || a.value.IsZero()
}

// Value returns the amount, zero when not specified.
func (a LineAmount) Value() decimal.Decimal {
	if !a.specified {
		return decimal.Zero
	}
	return a.value
}

// CandidateLine is an in-memory, not yet persisted line.
type CandidateLine struct {
	AccountID    string
	Amount       LineAmount
	CurrencyCode string
	Notes        string
	Tags         []string
	Synthesized  bool
}

// AutoBalance completes a partially specified multi-currency transaction.
//
// Exactly one line must be empty. That line receives the negated sum of the other lines of
// its currency. Every other currency group that does not already net to zero gets one new
// synthesized line, attributed to the empty line's account, carrying the negated group sum.
// Input lines are not modified; the result holds the input lines in order followed by the
// synthesized lines in currency first-appearance order.
func AutoBalance(lines []CandidateLine) ([]CandidateLine, error) {
	if len(lines) < 2 {
		return nil, &apperrors.InsufficientLinesError{Count: len(lines)}
	}

	emptyIdx := -1
	emptyCount := 0
	for i, line := range lines {
		if line.Amount.IsEmpty() {
			emptyCount++
			emptyIdx = i
		}
	}
	if emptyCount != 1 {
		return nil, &apperrors.AmbiguousEmptyLineError{EmptyCount: emptyCount}
	}

	order := make([]string, 0, 2)
	sums := make(map[string]decimal.Decimal)
	for i, line := range lines {
		if _, seen := sums[line.CurrencyCode]; !seen {
			order = append(order, line.CurrencyCode)
			sums[line.CurrencyCode] = decimal.Zero
		}
		if i == emptyIdx {
			continue
		}
		sums[line.CurrencyCode] = sums[line.CurrencyCode].Add(line.Amount.Value())
	}

	out := make([]CandidateLine, len(lines), len(lines)+len(order)-1)
	copy(out, lines)

	empty := lines[emptyIdx]
	out[emptyIdx].Amount = Specified(sums[empty.CurrencyCode].Neg())

	for _, cur := range order {
		if cur == empty.CurrencyCode || sums[cur].IsZero() {
			continue
		}
		out = append(out, CandidateLine{
			AccountID:    empty.AccountID,
			Amount:       Specified(sums[cur].Neg()),
			CurrencyCode: cur,
			Synthesized:  true,
		})
	}

	if err := checkBalanced(out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkBalanced(lines []CandidateLine) error {
	totals := make(map[string]decimal.Decimal)
	for _, line := range lines {
		totals[line.CurrencyCode] = totals[line.CurrencyCode].Add(line.Amount.Value())
	}
	for cur, total := range totals {
		if total.Abs().GreaterThan(AutoBalanceTolerance) {
			return fmt.Errorf("%w: auto-balance left %s unbalanced by %s", apperrors.ErrInternal, cur, total.String())
		}
	}
	return nil
}
