package services

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// ReportingService defines operations for generating financial reports
type ReportingService interface {
	// TrialBalance generates a trial balance report as of a specific date
	TrialBalance(ctx context.Context, tenantID string, asOf time.Time) ([]domain.TrialBalanceRow, error)

	// IncomeStatement generates a per-currency income statement for a specific period
	IncomeStatement(ctx context.Context, tenantID string, from, to time.Time) (*domain.IncomeStatementReport, error)

	// BalanceSheet generates a balance sheet report as of a specific date
	BalanceSheet(ctx context.Context, tenantID string, asOf time.Time) (*domain.BalanceSheetReport, error)
}
