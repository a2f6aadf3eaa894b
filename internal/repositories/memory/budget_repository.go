package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
)

// BudgetRepository implements portsrepo.BudgetRepositoryFacade on a Store.
type BudgetRepository struct {
	store *Store
}

var _ portsrepo.BudgetRepositoryFacade = (*BudgetRepository)(nil)

func (r *BudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.budgets[budget.BudgetID]; exists {
		return &apperrors.DuplicateError{Resource: "budget", Key: budget.BudgetID}
	}
	r.store.budgets[budget.BudgetID] = budget
	return nil
}

func (r *BudgetRepository) FindBudgetByID(ctx context.Context, tenantID, budgetID string) (*domain.Budget, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	b, ok := r.store.budgets[budgetID]
	if !ok || b.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &b, nil
}

func (r *BudgetRepository) ListBudgets(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Budget, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.Budget, 0)
	for _, b := range r.store.budgets {
		if b.TenantID == tenantID && (!activeOnly || b.IsActive) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SaveAlert enforces one alert per (budget, type, period start).
func (r *BudgetRepository) SaveAlert(ctx context.Context, alert domain.BudgetAlert) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, a := range r.store.alerts {
		if a.TenantID == alert.TenantID && a.BudgetID == alert.BudgetID &&
			a.AlertType == alert.AlertType && a.PeriodStart.Equal(alert.PeriodStart) {
			return &apperrors.DuplicateError{Resource: "budget_alert", Key: string(alert.AlertType)}
		}
	}
	r.store.alerts[alert.AlertID] = alert
	return nil
}

func (r *BudgetRepository) FindAlertByID(ctx context.Context, tenantID, alertID string) (*domain.BudgetAlert, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.alerts[alertID]
	if !ok || a.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return &a, nil
}

func (r *BudgetRepository) ListAlerts(ctx context.Context, tenantID, budgetID string) ([]domain.BudgetAlert, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]domain.BudgetAlert, 0)
	for _, a := range r.store.alerts {
		if a.TenantID == tenantID && a.BudgetID == budgetID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *BudgetRepository) UpdateAlertStatus(ctx context.Context, tenantID, alertID string, from, to domain.AlertStatus, userID string, now time.Time) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	a, ok := r.store.alerts[alertID]
	if !ok || a.TenantID != tenantID {
		return apperrors.ErrNotFound
	}
	if a.Status != from {
		return fmt.Errorf("%w: alert %s is %s", apperrors.ErrConflict, alertID, a.Status)
	}
	a.Status = to
	a.Touch(userID, now)
	r.store.alerts[alertID] = a
	return nil
}
