package accounting_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

func line(account string, amount string, currency string) domain.JournalLine {
	return domain.JournalLine{AccountID: account, Amount: decimal.RequireFromString(amount), CurrencyCode: currency}
}

func TestValidateEntryBalance(t *testing.T) {
	tests := []struct {
		name         string
		lines        []domain.JournalLine
		wantKind     apperrors.Kind
		wantCurrency string
		wantResidual string
	}{
		{
			name:  "balanced single currency",
			lines: []domain.JournalLine{line("a", "100", "USD"), line("b", "-100", "USD")},
		},
		{
			name: "balanced per currency",
			lines: []domain.JournalLine{
				line("a", "100", "USD"), line("b", "-100", "USD"),
				line("c", "-600", "CNY"), line("b", "600", "CNY"),
			},
		},
		{
			name:         "residual within tolerance is accepted",
			lines:        []domain.JournalLine{line("a", "100.0000005", "USD"), line("b", "-100", "USD")},
			wantCurrency: "",
		},
		{
			name:     "one line",
			lines:    []domain.JournalLine{line("a", "100", "USD")},
			wantKind: apperrors.KindInsufficientLines,
		},
		{
			name: "first unbalanced currency reported",
			lines: []domain.JournalLine{
				line("a", "100", "USD"), line("b", "-100", "USD"),
				line("c", "-600", "CNY"), line("b", "590", "CNY"),
				line("d", "1", "EUR"), line("e", "1", "EUR"),
			},
			wantKind:     apperrors.KindUnbalancedEntry,
			wantCurrency: "CNY",
			wantResidual: "-10",
		},
		{
			name: "cross-currency totals do not offset",
			lines: []domain.JournalLine{
				line("a", "100", "USD"), line("b", "-100", "EUR"),
			},
			wantKind:     apperrors.KindUnbalancedEntry,
			wantCurrency: "USD",
			wantResidual: "100",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := accounting.ValidateEntryBalance(tt.lines)
			if tt.wantKind == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			if tt.wantCurrency != "" {
				var unbalanced *apperrors.UnbalancedEntryError
				require.ErrorAs(t, err, &unbalanced)
				assert.Equal(t, tt.wantCurrency, unbalanced.Currency)
				assert.Equal(t, tt.wantResidual, unbalanced.Residual.String())
			}
		})
	}
}

func TestNaturalAmount(t *testing.T) {
	hundred := decimal.NewFromInt(100)
	assert.True(t, accounting.NaturalAmount(hundred, domain.Asset).Equal(hundred))
	assert.True(t, accounting.NaturalAmount(hundred, domain.Expense).Equal(hundred))
	assert.True(t, accounting.NaturalAmount(hundred, domain.Liability).Equal(hundred.Neg()))
	assert.True(t, accounting.NaturalAmount(hundred, domain.Equity).Equal(hundred.Neg()))
	assert.True(t, accounting.NaturalAmount(hundred, domain.Revenue).Equal(hundred.Neg()))
}

func TestSplitDebitCredit(t *testing.T) {
	d, c := accounting.SplitDebitCredit(decimal.NewFromInt(-40))
	assert.True(t, d.IsZero())
	assert.True(t, c.Equal(decimal.NewFromInt(40)))

	d, c = accounting.SplitDebitCredit(decimal.NewFromInt(15))
	assert.True(t, d.Equal(decimal.NewFromInt(15)))
	assert.True(t, c.IsZero())
}

func TestReverseLinesKeepsBalance(t *testing.T) {
	lines := []domain.JournalLine{line("a", "12.5", "USD"), line("b", "-12.5", "USD")}
	reversed := accounting.ReverseLines(lines)

	assert.Equal(t, "-12.5", reversed[0].Amount.String())
	assert.Equal(t, "12.5", lines[0].Amount.String())
	assert.NoError(t, accounting.ValidateEntryBalance(reversed))
}
