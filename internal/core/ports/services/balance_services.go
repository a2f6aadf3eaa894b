package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// BalanceSvcFacade defines balance aggregation and conversion.
type BalanceSvcFacade interface {
	// AccountBalance sums posted lines of an account (optionally its subtree) per currency.
	AccountBalance(ctx context.Context, tenantID string, accountID string, query domain.BalanceQuery) (domain.BalanceVector, error)

	// BalanceTree returns own and rolled-up balances for every account of the tenant, ordered by path.
	BalanceTree(ctx context.Context, tenantID string, asOf *time.Time) ([]domain.AccountBalanceNode, error)

	// Convert converts an amount using the latest rate known at asOf.
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string, asOf time.Time) (decimal.Decimal, error)

	// ConvertedTotal converts every bucket of a balance vector to targetCurrency and sums them.
	ConvertedTotal(ctx context.Context, balance domain.BalanceVector, targetCurrency string, asOf time.Time) (decimal.Decimal, error)
}
