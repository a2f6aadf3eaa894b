package repositories

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// BudgetReader defines read operations for budgets.
type BudgetReader interface {
	FindBudgetByID(ctx context.Context, tenantID, budgetID string) (*domain.Budget, error)
	ListBudgets(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Budget, error)
}

// BudgetWriter defines write operations for budgets.
type BudgetWriter interface {
	SaveBudget(ctx context.Context, budget domain.Budget) error
}

// BudgetAlertRepository defines persistence of budget alerts.
type BudgetAlertRepository interface {
	SaveAlert(ctx context.Context, alert domain.BudgetAlert) error
	FindAlertByID(ctx context.Context, tenantID, alertID string) (*domain.BudgetAlert, error)
	ListAlerts(ctx context.Context, tenantID, budgetID string) ([]domain.BudgetAlert, error)

	// UpdateAlertStatus applies a status change only when the stored status equals from;
	// otherwise apperrors.ErrConflict is returned.
	UpdateAlertStatus(ctx context.Context, tenantID, alertID string, from, to domain.AlertStatus, userID string, now time.Time) error
}

// BudgetRepositoryFacade combines all budget-related repository interfaces
type BudgetRepositoryFacade interface {
	BudgetReader
	BudgetWriter
	BudgetAlertRepository
}
