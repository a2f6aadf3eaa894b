package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
	"github.com/cupkappu/mbooking-sub001/internal/utils/accounting"
)

var (
	hundred               = decimal.NewFromInt(100)
	defaultAlertThreshold = decimal.RequireFromString("0.8")
)

// budgetService tracks spending against budgets. It reads ledger postings but never writes them.
type budgetService struct {
	BaseService
	budgetRepo  portsrepo.BudgetRepositoryFacade
	accountRepo portsrepo.AccountReader
	postingRepo portsrepo.PostingReader
	balances    portssvc.BalanceSvcFacade
}

// BudgetServiceOption is a functional option for configuring the budget service
type BudgetServiceOption func(*budgetService)

// WithBudgetClock overrides the clock used for audit fields.
func WithBudgetClock(clock func() time.Time) BudgetServiceOption {
	return func(s *budgetService) {
		s.Clock = clock
	}
}

// NewBudgetService creates a new budget service.
func NewBudgetService(
	budgetRepo portsrepo.BudgetRepositoryFacade,
	accountRepo portsrepo.AccountReader,
	postingRepo portsrepo.PostingReader,
	balances portssvc.BalanceSvcFacade,
	options ...BudgetServiceOption,
) portssvc.BudgetSvcFacade {
	svc := &budgetService{
		budgetRepo:  budgetRepo,
		accountRepo: accountRepo,
		postingRepo: postingRepo,
		balances:    balances,
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BudgetSvcFacade = (*budgetService)(nil)

func (s *budgetService) CreateBudget(ctx context.Context, tenantID string, req dto.CreateBudgetRequest, userID string) (*domain.Budget, error) {
	ctx = s.StartOperation(ctx, tenantID)
	if err := dto.Validate(req); err != nil {
		s.LogWarn(ctx, err, "Invalid create budget request", slog.String("tenant_id", tenantID))
		return nil, err
	}
	if err := domain.ValidateCurrencyCode(req.CurrencyCode); err != nil {
		return nil, err
	}
	if req.Amount.IsNegative() {
		return nil, apperrors.NewValidationError("budget amount cannot be negative")
	}
	start, end := domain.Day(req.StartDate), domain.Day(req.EndDate)
	if end.Before(start) {
		return nil, apperrors.NewValidationError("budget end date is before start date")
	}
	threshold := defaultAlertThreshold
	if req.AlertThreshold != nil {
		threshold = *req.AlertThreshold
	}
	if !threshold.IsPositive() || threshold.GreaterThan(decimal.NewFromInt(1)) {
		return nil, apperrors.NewValidationError("alert threshold must be in (0, 1]")
	}

	account, err := s.accountRepo.FindAccountByID(ctx, tenantID, req.AccountID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewValidationError(fmt.Sprintf("account %s not found", req.AccountID))
		}
		return nil, err
	}

	budget := domain.Budget{
		BudgetID:       uuid.NewString(),
		TenantID:       tenantID,
		Name:           req.Name,
		BudgetType:     req.BudgetType,
		Amount:         req.Amount,
		CurrencyCode:   domain.NormalizeCurrencyCode(req.CurrencyCode),
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: threshold,
		AccountID:      account.AccountID,
		IncludeSubtree: req.IncludeSubtree,
		IsActive:       true,
		AuditFields:    domain.NewAuditFields(userID, s.Now()),
	}
	if req.BudgetType == domain.BudgetPeriodic {
		budget.Recurrence = req.Recurrence
	}

	if err := s.budgetRepo.SaveBudget(ctx, budget); err != nil {
		s.LogError(ctx, err, "Failed to save budget", slog.String("tenant_id", tenantID))
		return nil, err
	}

	s.LogInfo(ctx, "Budget created successfully",
		slog.String("budget_id", budget.BudgetID),
		slog.String("account_id", budget.AccountID),
		slog.String("tenant_id", tenantID))
	return &budget, nil
}

func (s *budgetService) GetBudget(ctx context.Context, tenantID string, budgetID string) (*domain.Budget, error) {
	budget, err := s.budgetRepo.FindBudgetByID(ctx, tenantID, budgetID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find budget", slog.String("budget_id", budgetID))
		}
		return nil, err
	}
	if budget.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	return budget, nil
}

func (s *budgetService) ListBudgets(ctx context.Context, tenantID string, activeOnly bool) ([]domain.Budget, error) {
	budgets, err := s.budgetRepo.ListBudgets(ctx, tenantID, activeOnly)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budgets", slog.String("tenant_id", tenantID))
		return nil, err
	}
	if budgets == nil {
		return []domain.Budget{}, nil
	}
	return budgets, nil
}

// spendWindow is the slice of a budget period that has elapsed at asOf.
type spendWindow struct {
	periodStart time.Time
	periodEnd   time.Time
	until       time.Time // last elapsed day, inclusive; before periodStart when nothing elapsed
}

func windowAt(budget domain.Budget, asOf time.Time) spendWindow {
	start, end := budget.PeriodContaining(asOf)
	until := domain.Day(asOf)
	if until.After(end) {
		until = end
	}
	return spendWindow{periodStart: start, periodEnd: end, until: until}
}

func (w spendWindow) started() bool {
	return !w.until.Before(w.periodStart)
}

// spentPostings returns the scope's posted lines inside the window with amounts in the
// natural sign of their account type, so expense spend is positive.
func (s *budgetService) spentPostings(ctx context.Context, budget domain.Budget, w spendWindow) ([]domain.Posting, error) {
	if !w.started() {
		return nil, nil
	}
	account, err := s.accountRepo.FindAccountByID(ctx, budget.TenantID, budget.AccountID)
	if err != nil {
		return nil, err
	}

	from := w.periodStart
	to := endOfDay(w.until)
	filter := domain.PostingFilter{TenantID: budget.TenantID, From: &from, To: &to}
	if budget.IncludeSubtree {
		filter.PathPrefix = account.Path
	} else {
		filter.AccountIDs = []string{account.AccountID}
	}

	postings, err := s.postingRepo.ListPostings(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range postings {
		postings[i].Amount = accounting.NaturalAmount(postings[i].Amount, postings[i].AccountType)
	}
	return postings, nil
}

func (s *budgetService) toBudgetCurrency(ctx context.Context, budget domain.Budget, spent domain.BalanceVector, asOf time.Time) (decimal.Decimal, error) {
	return s.balances.ConvertedTotal(ctx, spent, budget.CurrencyCode, asOf)
}

func (s *budgetService) Progress(ctx context.Context, tenantID string, budgetID string, asOf time.Time) (*domain.BudgetProgress, error) {
	budget, err := s.GetBudget(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	progress, _, err := s.progress(ctx, *budget, asOf)
	return progress, err
}

func (s *budgetService) progress(ctx context.Context, budget domain.Budget, asOf time.Time) (*domain.BudgetProgress, []domain.Posting, error) {
	w := windowAt(budget, asOf)
	postings, err := s.spentPostings(ctx, budget, w)
	if err != nil {
		s.LogError(ctx, err, "Failed to load budget postings", slog.String("budget_id", budget.BudgetID))
		return nil, nil, err
	}

	spentVec := domain.NewBalanceVector()
	for _, p := range postings {
		spentVec.Add(p.CurrencyCode, p.Amount)
	}
	spent, err := s.toBudgetCurrency(ctx, budget, spentVec, asOf)
	if err != nil {
		return nil, nil, err
	}

	totalDays := domain.DaysInclusive(w.periodStart, w.periodEnd)
	elapsed := 0
	if w.started() {
		elapsed = domain.DaysInclusive(w.periodStart, w.until)
	}

	p := &domain.BudgetProgress{
		BudgetID:            budget.BudgetID,
		CurrencyCode:        budget.CurrencyCode,
		PeriodStart:         w.periodStart,
		PeriodEnd:           w.periodEnd,
		BudgetAmount:        budget.Amount,
		SpentAmount:         spent,
		RemainingAmount:     budget.Amount.Sub(spent),
		PercentageUsed:      percentageUsed(spent, budget.Amount),
		TotalPeriodDays:     totalDays,
		DaysElapsed:         elapsed,
		DaysRemaining:       totalDays - elapsed,
		DailySpendingRate:   decimal.Zero,
		ProjectedEndBalance: decimal.Zero,
	}
	p.Status = budgetStatus(p.PercentageUsed, budget.AlertThreshold)
	if elapsed > 0 {
		p.DailySpendingRate = spent.Div(decimal.NewFromInt(int64(elapsed)))
		p.ProjectedEndBalance = p.DailySpendingRate.Mul(decimal.NewFromInt(int64(totalDays)))
	}
	return p, postings, nil
}

func percentageUsed(spent, amount decimal.Decimal) decimal.Decimal {
	if amount.IsZero() {
		return decimal.Zero
	}
	return spent.Div(amount).Mul(hundred)
}

func budgetStatus(percentage, threshold decimal.Decimal) domain.BudgetStatus {
	switch {
	case percentage.GreaterThanOrEqual(hundred):
		return domain.BudgetExceeded
	case percentage.GreaterThanOrEqual(threshold.Mul(hundred)):
		return domain.BudgetWarning
	default:
		return domain.BudgetNormal
	}
}

// Variance compares budget and spend. FavorableVariance and UnfavorableVariance are the
// non-negative parts of Variance, so their difference equals it.
func (s *budgetService) Variance(ctx context.Context, tenantID string, budgetID string, asOf time.Time, granularity domain.Granularity) (*domain.BudgetVariance, error) {
	budget, err := s.GetBudget(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	progress, postings, err := s.progress(ctx, *budget, asOf)
	if err != nil {
		return nil, err
	}

	variance := budget.Amount.Sub(progress.SpentAmount)
	v := &domain.BudgetVariance{
		BudgetID:            budget.BudgetID,
		CurrencyCode:        budget.CurrencyCode,
		BudgetAmount:        budget.Amount,
		SpentAmount:         progress.SpentAmount,
		Variance:            variance,
		Favorable:           !variance.IsNegative(),
		FavorableVariance:   decimal.Max(variance, decimal.Zero),
		UnfavorableVariance: decimal.Max(variance.Neg(), decimal.Zero),
	}

	v.Trend, err = s.trend(ctx, *budget, windowAt(*budget, asOf), postings, granularity, asOf, progress.TotalPeriodDays)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// trend buckets the elapsed window. Each bucket carries cumulative values up to its end:
// the budget prorated by elapsed days, the actual spend, and their difference.
func (s *budgetService) trend(ctx context.Context, budget domain.Budget, w spendWindow, postings []domain.Posting, granularity domain.Granularity, asOf time.Time, totalDays int) ([]domain.TrendBucket, error) {
	if !w.started() || totalDays == 0 {
		return []domain.TrendBucket{}, nil
	}

	var buckets []domain.TrendBucket
	cumulative := domain.NewBalanceVector()
	next := 0
	for n, start := 0, w.periodStart; !start.After(w.until); n++ {
		end := bucketStart(w.periodStart, n+1, granularity).AddDate(0, 0, -1)
		if end.After(w.until) {
			end = w.until
		}
		limit := endOfDay(end)
		for next < len(postings) && !postings[next].EntryDate.After(limit) {
			cumulative.Add(postings[next].CurrencyCode, postings[next].Amount)
			next++
		}

		actual, err := s.toBudgetCurrency(ctx, budget, cumulative, asOf)
		if err != nil {
			return nil, err
		}
		elapsed := decimal.NewFromInt(int64(domain.DaysInclusive(w.periodStart, end)))
		budgetToDate := budget.Amount.Mul(elapsed).Div(decimal.NewFromInt(int64(totalDays)))

		buckets = append(buckets, domain.TrendBucket{
			PeriodStart:  start,
			PeriodEnd:    end,
			BudgetToDate: budgetToDate,
			Actual:       actual,
			Variance:     budgetToDate.Sub(actual),
		})
		start = end.AddDate(0, 0, 1)
	}
	return buckets, nil
}

// bucketStart returns the start of the n-th trend bucket counted from origin.
func bucketStart(origin time.Time, n int, granularity domain.Granularity) time.Time {
	switch granularity {
	case domain.GranularityDaily:
		return origin.AddDate(0, 0, n)
	case domain.GranularityWeekly:
		return origin.AddDate(0, 0, 7*n)
	default:
		return domain.AddMonths(origin, n)
	}
}

// EvaluateAlerts raises pending alerts for every threshold reached at asOf that has not
// already been raised in the current budget period.
func (s *budgetService) EvaluateAlerts(ctx context.Context, tenantID string, budgetID string, asOf time.Time, userID string) ([]domain.BudgetAlert, error) {
	ctx = s.StartOperation(ctx, tenantID)
	budget, err := s.GetBudget(ctx, tenantID, budgetID)
	if err != nil {
		return nil, err
	}
	if !budget.IsActive {
		return []domain.BudgetAlert{}, nil
	}
	progress, _, err := s.progress(ctx, *budget, asOf)
	if err != nil {
		return nil, err
	}

	existing, err := s.budgetRepo.ListAlerts(ctx, tenantID, budgetID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budget alerts", slog.String("budget_id", budgetID))
		return nil, err
	}
	raised := make(map[domain.AlertType]bool)
	for _, a := range existing {
		if a.PeriodStart.Equal(progress.PeriodStart) {
			raised[a.AlertType] = true
		}
	}

	var due []domain.AlertType
	pct := progress.PercentageUsed
	if !budget.Amount.IsZero() {
		if pct.GreaterThanOrEqual(budget.AlertThreshold.Mul(hundred)) {
			due = append(due, domain.AlertBudgetWarning)
		}
		if pct.GreaterThanOrEqual(hundred) {
			due = append(due, domain.AlertBudgetDepleted)
		}
		if pct.GreaterThan(hundred) {
			due = append(due, domain.AlertBudgetExceeded)
		}
	}
	if !domain.Day(asOf).Before(progress.PeriodEnd) {
		due = append(due, domain.AlertBudgetPeriodEnd)
	}

	now := s.Now()
	created := make([]domain.BudgetAlert, 0, len(due))
	for _, alertType := range due {
		if raised[alertType] {
			continue
		}
		alert := domain.BudgetAlert{
			AlertID:          uuid.NewString(),
			BudgetID:         budget.BudgetID,
			TenantID:         tenantID,
			AlertType:        alertType,
			Status:           domain.AlertPending,
			ThresholdPercent: pct,
			SpentAmount:      progress.SpentAmount,
			BudgetAmount:     budget.Amount,
			CurrencyCode:     budget.CurrencyCode,
			PeriodStart:      progress.PeriodStart,
			AuditFields:      domain.NewAuditFields(userID, now),
		}
		if err := s.budgetRepo.SaveAlert(ctx, alert); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				// raised concurrently for the same period
				continue
			}
			s.LogError(ctx, err, "Failed to save budget alert",
				slog.String("budget_id", budgetID),
				slog.String("alert_type", string(alertType)))
			return nil, err
		}
		created = append(created, alert)
		s.LogInfo(ctx, "Budget alert raised",
			slog.String("budget_id", budgetID),
			slog.String("alert_type", string(alertType)),
			slog.String("percentage_used", pct.StringFixed(2)),
			slog.String("spent", domain.RoundToMinorUnit(progress.SpentAmount, budget.CurrencyCode).String()),
			slog.String("tenant_id", tenantID))
	}
	return created, nil
}

func (s *budgetService) ListAlerts(ctx context.Context, tenantID string, budgetID string) ([]domain.BudgetAlert, error) {
	if _, err := s.GetBudget(ctx, tenantID, budgetID); err != nil {
		return nil, err
	}
	alerts, err := s.budgetRepo.ListAlerts(ctx, tenantID, budgetID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list budget alerts", slog.String("budget_id", budgetID))
		return nil, err
	}
	if alerts == nil {
		return []domain.BudgetAlert{}, nil
	}
	return alerts, nil
}

func (s *budgetService) MarkAlertSent(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error) {
	ctx = s.StartOperation(ctx, tenantID)
	return s.transitionAlert(ctx, tenantID, alertID, domain.AlertSent, userID)
}

func (s *budgetService) AcknowledgeAlert(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error) {
	ctx = s.StartOperation(ctx, tenantID)
	return s.transitionAlert(ctx, tenantID, alertID, domain.AlertAcknowledged, userID)
}

func (s *budgetService) DismissAlert(ctx context.Context, tenantID string, alertID string, userID string) (*domain.BudgetAlert, error) {
	ctx = s.StartOperation(ctx, tenantID)
	return s.transitionAlert(ctx, tenantID, alertID, domain.AlertDismissed, userID)
}

func (s *budgetService) transitionAlert(ctx context.Context, tenantID, alertID string, to domain.AlertStatus, userID string) (*domain.BudgetAlert, error) {
	alert, err := s.budgetRepo.FindAlertByID(ctx, tenantID, alertID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to find budget alert", slog.String("alert_id", alertID))
		}
		return nil, err
	}
	if alert.TenantID != tenantID {
		return nil, apperrors.ErrNotFound
	}
	if !alert.Status.CanTransitionTo(to) {
		return nil, &apperrors.InvalidTransitionError{Resource: "budget_alert", From: string(alert.Status), To: string(to)}
	}

	now := s.Now()
	if err := s.budgetRepo.UpdateAlertStatus(ctx, tenantID, alertID, alert.Status, to, userID, now); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, &apperrors.InvalidTransitionError{Resource: "budget_alert", From: string(alert.Status), To: string(to)}
		}
		s.LogError(ctx, err, "Failed to update budget alert", slog.String("alert_id", alertID))
		return nil, err
	}

	alert.Status = to
	alert.Touch(userID, now)
	s.LogInfo(ctx, "Budget alert updated",
		slog.String("alert_id", alertID),
		slog.String("status", string(to)),
		slog.String("tenant_id", tenantID))
	return alert, nil
}
