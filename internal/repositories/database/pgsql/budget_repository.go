package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
)

type PgxBudgetRepository struct {
	BaseRepository
}

func newPgxBudgetRepository(pool *pgxpool.Pool) *PgxBudgetRepository {
	return &PgxBudgetRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.BudgetRepositoryFacade = (*PgxBudgetRepository)(nil)

const selectBudgetFields = `
	budget_id, tenant_id, name, budget_type, recurrence, amount, currency_code,
	start_date, end_date, alert_threshold, account_id, include_subtree, is_active,
	created_at, created_by, last_updated_at, last_updated_by`

func scanBudget(row pgx.Row) (domain.Budget, error) {
	var b domain.Budget
	err := row.Scan(
		&b.BudgetID, &b.TenantID, &b.Name, &b.BudgetType, &b.Recurrence, &b.Amount, &b.CurrencyCode,
		&b.StartDate, &b.EndDate, &b.AlertThreshold, &b.AccountID, &b.IncludeSubtree, &b.IsActive,
		&b.CreatedAt, &b.CreatedBy, &b.LastUpdatedAt, &b.LastUpdatedBy,
	)
	return b, err
}

func (r *PgxBudgetRepository) SaveBudget(ctx context.Context, budget domain.Budget) error {
	query := `
		INSERT INTO budgets (` + selectBudgetFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17);
	`
	_, err := r.Pool.Exec(ctx, query,
		budget.BudgetID, budget.TenantID, budget.Name, budget.BudgetType, budget.Recurrence, budget.Amount, budget.CurrencyCode,
		budget.StartDate, budget.EndDate, budget.AlertThreshold, budget.AccountID, budget.IncludeSubtree, budget.IsActive,
		budget.CreatedAt, budget.CreatedBy, budget.LastUpdatedAt, budget.LastUpdatedBy,
	)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to save budget %s: %w", budget.BudgetID, err)
	}
	return nil
}

func (r *PgxBudgetRepository) FindBudgetByID(ctx context.Context, tenantID, budgetID string) (*domain.Budget, error) {
	query := `SELECT ` + selectBudgetFields + ` FROM budgets WHERE tenant_id = $1 AND budget_id = $2;`
	b, err := scanBudget(r.Pool.QueryRow(ctx, query, tenantID, budgetID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find budget %s: %w", budgetID, err)
	}
	return &b, nil
}

func (r *PgxBudgetRepository) ListBudgets(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Budget, error) {
	query := `
		SELECT ` + selectBudgetFields + `
		FROM budgets
		WHERE tenant_id = $1 AND (NOT $2 OR is_active)
		ORDER BY name;
	`
	rows, err := r.Pool.Query(ctx, query, tenantID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := make([]domain.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget rows: %w", err)
	}
	return budgets, nil
}

const selectAlertFields = `
	alert_id, budget_id, tenant_id, alert_type, status, threshold_percent,
	spent_amount, budget_amount, currency_code, period_start,
	created_at, created_by, last_updated_at, last_updated_by`

func scanAlert(row pgx.Row) (domain.BudgetAlert, error) {
	var a domain.BudgetAlert
	err := row.Scan(
		&a.AlertID, &a.BudgetID, &a.TenantID, &a.AlertType, &a.Status, &a.ThresholdPercent,
		&a.SpentAmount, &a.BudgetAmount, &a.CurrencyCode, &a.PeriodStart,
		&a.CreatedAt, &a.CreatedBy, &a.LastUpdatedAt, &a.LastUpdatedBy,
	)
	return a, err
}

// SaveAlert inserts an alert. The (budget, type, period start) constraint rejects repeats with DuplicateError.
func (r *PgxBudgetRepository) SaveAlert(ctx context.Context, alert domain.BudgetAlert) error {
	query := `
		INSERT INTO budget_alerts (` + selectAlertFields + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14);
	`
	_, err := r.Pool.Exec(ctx, query,
		alert.AlertID, alert.BudgetID, alert.TenantID, alert.AlertType, alert.Status, alert.ThresholdPercent,
		alert.SpentAmount, alert.BudgetAmount, alert.CurrencyCode, alert.PeriodStart,
		alert.CreatedAt, alert.CreatedBy, alert.LastUpdatedAt, alert.LastUpdatedBy,
	)
	if err != nil {
		if dup := asDuplicate(err); dup != nil {
			return dup
		}
		return fmt.Errorf("failed to save budget alert: %w", err)
	}
	return nil
}

func (r *PgxBudgetRepository) FindAlertByID(ctx context.Context, tenantID, alertID string) (*domain.BudgetAlert, error) {
	query := `SELECT ` + selectAlertFields + ` FROM budget_alerts WHERE tenant_id = $1 AND alert_id = $2;`
	a, err := scanAlert(r.Pool.QueryRow(ctx, query, tenantID, alertID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find budget alert %s: %w", alertID, err)
	}
	return &a, nil
}

func (r *PgxBudgetRepository) ListAlerts(ctx context.Context, tenantID, budgetID string) ([]domain.BudgetAlert, error) {
	query := `SELECT ` + selectAlertFields + ` FROM budget_alerts WHERE tenant_id = $1 AND budget_id = $2 ORDER BY created_at;`
	rows, err := r.Pool.Query(ctx, query, tenantID, budgetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget alerts: %w", err)
	}
	defer rows.Close()

	alerts := make([]domain.BudgetAlert, 0)
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget alert: %w", err)
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budget alerts: %w", err)
	}
	return alerts, nil
}

func (r *PgxBudgetRepository) UpdateAlertStatus(ctx context.Context, tenantID, alertID string, from, to domain.AlertStatus, userID string, now time.Time) error {
	query := `
		UPDATE budget_alerts
		SET status = $1, last_updated_at = $2, last_updated_by = $3
		WHERE tenant_id = $4 AND alert_id = $5 AND status = $6;
	`
	cmdTag, err := r.Pool.Exec(ctx, query, string(to), now, userID, tenantID, alertID, string(from))
	if err != nil {
		return fmt.Errorf("failed to update status of alert %s: %w", alertID, err)
	}
	if cmdTag.RowsAffected() == 0 {
		current, findErr := r.FindAlertByID(ctx, tenantID, alertID)
		if findErr != nil {
			return findErr
		}
		return fmt.Errorf("%w: alert %s is %s", apperrors.ErrConflict, alertID, current.Status)
	}
	return nil
}
