package services

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

// BudgetReaderSvc defines read operations for budgets
type BudgetReaderSvc interface {
	GetBudget(ctx context.Context, tenantID string, budgetID string) (*domain.Budget, error)
	ListBudgets(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Budget, error)
}

// BudgetWriterSvc defines write operations for budgets
type BudgetWriterSvc interface {
	CreateBudget(ctx context.Context, tenantID string, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error)
}

// BudgetTrackerSvc computes derived budget state from ledger postings.
type BudgetTrackerSvc interface {
	// Progress computes spent amount, percentage used, status and burn rate at asOf.
	Progress(ctx context.Context, tenantID string, budgetID string, asOf time.Time) (*domain.BudgetProgress, error)

	// Variance compares budget and actual spend and builds trend buckets of the given granularity.
	Variance(ctx context.Context, tenantID string, budgetID string, asOf time.Time, granularity domain.Granularity) (*domain.BudgetVariance, error)
}

// BudgetAlertSvc manages alerts raised by budget tracking.
type BudgetAlertSvc interface {
	// EvaluateAlerts emits pending alerts for thresholds crossed at asOf. Alerts already raised for the
	// current period are not raised again.
	EvaluateAlerts(ctx context.Context, tenantID string, budgetID string, asOf time.Time, userID string) ([]domain.BudgetAlert, error)
	ListAlerts(ctx context.Context, tenantID string, budgetID string) ([]domain.BudgetAlert, error)
	MarkAlertSent(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error)
	AcknowledgeAlert(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error)
	DismissAlert(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error)
}

// BudgetSvcFacade combines all budget-related service interfaces
type BudgetSvcFacade interface {
	BudgetReaderSvc
	BudgetWriterSvc
	BudgetTrackerSvc
	BudgetAlertSvc
}
