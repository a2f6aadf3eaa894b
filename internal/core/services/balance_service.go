package services

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
)

// balanceService derives balances from posted journal lines. Balances are never stored.
type balanceService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	postingRepo portsrepo.PostingReader
	rates       portssvc.RateProvider
}

// NewBalanceService creates a new balance service.
func NewBalanceService(accountRepo portsrepo.AccountReader, postingRepo portsrepo.PostingReader, rates portssvc.RateProvider) portssvc.BalanceSvcFacade {
	return &balanceService{
		accountRepo: accountRepo,
		postingRepo: postingRepo,
		rates:       rates,
	}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// AccountBalance sums the account's posted lines per currency. With IncludeSubtree the
// sum covers every account whose path lies under the account's path, in one query.
func (s *balanceService) AccountBalance(ctx context.Context, tenantID string, accountID string, query domain.BalanceQuery) (domain.BalanceVector, error) {
	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, accountID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find account for balance", slog.String("account_id", accountID))
		}
		return nil, err
	}
	if account.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}

	filter := domain.PostingFilter{TenantID: tenantID, To: query.AsOf}
	if query.IncludeSubtree {
		filter.PathPrefix = account.Path
	} else {
		filter.AccountIDs = []string{account.AccountID}
	}

	balance, err := s.postingRepo.SumByCurrency(ctx, filter)
	if err != nil {
		s.LogError(ctx, err, "Failed to sum postings",
			slog.String("account_id", accountID),
			slog.Bool("include_subtree", query.IncludeSubtree))
		return nil, err
	}
	return balance.Compact(), nil
}

// BalanceTree returns own and subtree balances for every account, ordered by path.
// Subtree vectors are rolled up from the deepest accounts towards the roots.
func (s *balanceService) BalanceTree(ctx context.Context, tenantID string, asOf *time.Time) ([]domain.AccountBalanceNode, error) {
	accounts, err := s.accountRepo.ListAccountsByPath(ctx, tenantID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list accounts for balance tree", slog.String("tenant_id", tenantID))
		return nil, err
	}
	own, err := s.postingRepo.SumByAccount(ctx, domain.PostingFilter{TenantID: tenantID, To: asOf})
	if err != nil {
		s.LogError(ctx, err, "Failed to sum postings by account", slog.String("tenant_id", tenantID))
		return nil, err
	}

	nodes := make([]domain.AccountBalanceNode, len(accounts))
	index := make(map[string]int, len(accounts))
	for i, account := range accounts {
		ownVec := domain.NewBalanceVector()
		if v, ok := own[account.AccountID]; ok {
			ownVec = v.Compact()
		}
		nodes[i] = domain.AccountBalanceNode{Account: account, Own: ownVec, Subtree: ownVec.Clone()}
		index[account.AccountID] = i
	}

	order := make([]int, len(nodes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return nodes[order[a]].Account.Depth > nodes[order[b]].Account.Depth
	})
	for _, i := range order {
		parentID := nodes[i].Account.ParentAccountID
		if parentID == nil {
			continue
		}
		if p, ok := index[*parentID]; ok {
			nodes[p].Subtree.Merge(nodes[i].Subtree)
		}
	}
	return nodes, nil
}

// Convert multiplies amount by the latest from->to rate known at asOf. There is no
// fallback: a missing rate fails the conversion.
func (s *balanceService) Convert(ctx context.Context, amount decimal.Decimal, fromCurrency, toCurrency string, asOf time.Time) (decimal.Decimal, error) {
	from := domain.NormalizeCurrencyCode(fromCurrency)
	to := domain.NormalizeCurrencyCode(toCurrency)
	if from == to {
		return amount, nil
	}

	rate, err := s.rates.GetRate(ctx, from, to, asOf)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return decimal.Zero, &apperrors.NoRateAvailableError{From: from, To: to, AsOf: asOf}
		}
		return decimal.Zero, err
	}
	return amount.Mul(rate.Rate), nil
}

// ConvertedTotal converts each non-zero bucket to targetCurrency and sums them, in currency order.
func (s *balanceService) ConvertedTotal(ctx context.Context, balance domain.BalanceVector, targetCurrency string, asOf time.Time) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, cur := range balance.Currencies() {
		if balance[cur].IsZero() {
			continue
		}
		converted, err := s.Convert(ctx, balance[cur], cur, targetCurrency, asOf)
		if err != nil {
			s.LogWarn(ctx, err, "Conversion failed",
				slog.String("from", cur),
				slog.String("to", targetCurrency))
			return decimal.Zero, err
		}
		total = total.Add(converted)
	}
	return total, nil
}
