package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

// reportingService implements the ReportingService interface
type reportingService struct {
	BaseService
	accountRepo portsrepo.AccountReader
	postingRepo portsrepo.PostingReader
}

// NewReportingService creates a new reporting service
func NewReportingService(accountRepo portsrepo.AccountReader, postingRepo portsrepo.PostingReader) portssvc.ReportingService {
	return &reportingService{
		accountRepo: accountRepo,
		postingRepo: postingRepo,
	}
}

// Ensure reportingService implements the ReportingService interface
var _ portssvc.ReportingService = (*reportingService)(nil)

// balancesByAccount loads the chart of accounts and per-account posted sums for a period.
func (s *reportingService) balancesByAccount(ctx context.Context, tenantID string, from, to *time.Time) ([]domain.Account, map[string]domain.BalanceVector, error) {
	accounts, err := s.accountRepo.ListAccountsByPath(ctx, tenantID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	sums, err := s.postingRepo.SumByAccount(ctx, domain.PostingFilter{TenantID: tenantID, From: from, To: to})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to sum postings: %w", err)
	}
	return accounts, sums, nil
}

// TrialBalance generates a trial balance report as of a specific date
func (s *reportingService) TrialBalance(ctx context.Context, tenantID string, asOf time.Time) ([]domain.TrialBalanceRow, error) {
	ctx = s.StartOperation(ctx, tenantID)
	accounts, sums, err := s.balancesByAccount(ctx, tenantID, nil, &asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to build trial balance",
			slog.String("tenant_id", tenantID),
			slog.Time("as_of", asOf))
		return nil, err
	}

	rows := make([]domain.TrialBalanceRow, 0, len(accounts))
	for _, account := range accounts {
		balance := sums[account.AccountID]
		for _, cur := range balance.Currencies() {
			amount := balance[cur]
			if amount.IsZero() {
				continue
			}
			debit, credit := accounting.SplitDebitCredit(amount)
			rows = append(rows, domain.TrialBalanceRow{
				AccountID:    account.AccountID,
				AccountName:  account.Name,
				AccountPath:  account.Path,
				AccountType:  account.AccountType,
				CurrencyCode: cur,
				Debit:        debit,
				Credit:       credit,
			})
		}
	}

	s.LogDebug(ctx, "Trial balance generated",
		slog.String("tenant_id", tenantID),
		slog.Int("rows", len(rows)))
	return rows, nil
}

// BalanceSheet generates a balance sheet report as of a specific date. Revenue and expense
// not yet closed to equity are reported as current earnings.
func (s *reportingService) BalanceSheet(ctx context.Context, tenantID string, asOf time.Time) (*domain.BalanceSheetReport, error) {
	ctx = s.StartOperation(ctx, tenantID)
	accounts, sums, err := s.balancesByAccount(ctx, tenantID, nil, &asOf)
	if err != nil {
		s.LogError(ctx, err, "Failed to build balance sheet",
			slog.String("tenant_id", tenantID),
			slog.Time("as_of", asOf))
		return nil, err
	}

	totals := totalsByType(accounts, sums)
	earnings := totals[domain.Revenue].Clone()
	earnings.Merge(totals[domain.Expense].Neg())

	return &domain.BalanceSheetReport{
		Assets:          totals[domain.Asset].Compact(),
		Liabilities:     totals[domain.Liability].Compact(),
		Equity:          totals[domain.Equity].Compact(),
		CurrentEarnings: earnings.Compact(),
	}, nil
}

// IncomeStatement generates a per-currency income statement for a specific period
func (s *reportingService) IncomeStatement(ctx context.Context, tenantID string, from, to time.Time) (*domain.IncomeStatementReport, error) {
	ctx = s.StartOperation(ctx, tenantID)
	accounts, sums, err := s.balancesByAccount(ctx, tenantID, &from, &to)
	if err != nil {
		s.LogError(ctx, err, "Failed to build income statement",
			slog.String("tenant_id", tenantID),
			slog.Time("from", from),
			slog.Time("to", to))
		return nil, err
	}

	totals := totalsByType(accounts, sums)
	net := totals[domain.Revenue].Clone()
	net.Merge(totals[domain.Expense].Neg())

	return &domain.IncomeStatementReport{
		Revenue:   totals[domain.Revenue].Compact(),
		Expenses:  totals[domain.Expense].Compact(),
		NetIncome: net.Compact(),
	}, nil
}

// totalsByType sums account balances per account type in each type's natural sign.
func totalsByType(accounts []domain.Account, sums map[string]domain.BalanceVector) map[domain.AccountType]domain.BalanceVector {
	totals := make(map[domain.AccountType]domain.BalanceVector, len(domain.AccountTypes))
	for _, t := range domain.AccountTypes {
		totals[t] = domain.NewBalanceVector()
	}
	for _, account := range accounts {
		balance, ok := sums[account.AccountID]
		if !ok {
			continue
		}
		totals[account.AccountType].Merge(accounting.NaturalVector(balance, account.AccountType))
	}
	return totals
}
