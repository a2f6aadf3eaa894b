package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetType distinguishes recurring budgets from one-off ones.
type BudgetType string

const (
	BudgetPeriodic    BudgetType = "periodic"
	BudgetNonPeriodic BudgetType = "non_periodic"
)

// Recurrence is the period length of a periodic budget.
type Recurrence string

const (
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
	RecurrenceYearly  Recurrence = "yearly"
)

// BudgetStatus is derived from percentage used.
type BudgetStatus string

const (
	BudgetNormal   BudgetStatus = "normal"
	BudgetWarning  BudgetStatus = "warning"
	BudgetExceeded BudgetStatus = "exceeded"
)

// Budget caps spending on an account (or account subtree) over a date range.
type Budget struct {
	BudgetID       string          `json:"budgetID"`
	TenantID       string          `json:"tenantID"`
	Name           string          `json:"name"`
	BudgetType     BudgetType      `json:"budgetType"`
	Recurrence     Recurrence      `json:"recurrence,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	CurrencyCode   string          `json:"currencyCode"`
	StartDate      time.Time       `json:"startDate"`
	EndDate        time.Time       `json:"endDate"`        // inclusive
	AlertThreshold decimal.Decimal `json:"alertThreshold"` // fraction, e.g. 0.8
	AccountID      string          `json:"accountID"`
	IncludeSubtree bool            `json:"includeSubtree"`
	IsActive       bool            `json:"isActive"`
	AuditFields
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts calendar days in [from, to]; 0 when to is before from.
func DaysInclusive(from, to time.Time) int {
	f, t := Day(from), Day(to)
	if t.Before(f) {
		return 0
	}
	return int(t.Sub(f).Hours()/24) + 1
}

// PeriodContaining returns the budget window that applies at asOf.
// Non-periodic budgets have a single window; periodic budgets are split by Recurrence
// and every window is clipped to [StartDate, EndDate].
func (b Budget) PeriodContaining(asOf time.Time) (time.Time, time.Time) {
	start, end := Day(b.StartDate), Day(b.EndDate)
	if b.BudgetType != BudgetPeriodic || b.Recurrence == "" {
		return start, end
	}
	at := Day(asOf)
	if at.After(end) {
		at = end
	}
	n := 0
	for {
		next := b.periodStart(start, n+1)
		if next.After(at) || next.After(end) {
			break
		}
		n++
	}
	periodStart := b.periodStart(start, n)
	periodEnd := b.periodStart(start, n+1).AddDate(0, 0, -1)
	if periodEnd.After(end) {
		periodEnd = end
	}
	return periodStart, periodEnd
}

// periodStart returns the start of the n-th period counted from origin. Months are stepped
// from origin, not from the previous period, so a budget starting on the 31st stays on
// month ends.
func (b Budget) periodStart(origin time.Time, n int) time.Time {
	switch b.Recurrence {
	case RecurrenceWeekly:
		return origin.AddDate(0, 0, 7*n)
	case RecurrenceYearly:
		return AddMonths(origin, 12*n)
	default:
		return AddMonths(origin, n)
	}
}

// AddMonths moves t by n calendar months, clamping the day to the end of the target month.
func AddMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, 0, 0, 0, 0, t.Location())
	last := first.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// BudgetProgress is the derived, never stored, state of a budget at a point in time.
type BudgetProgress struct {
	BudgetID            string          `json:"budgetID"`
	CurrencyCode        string          `json:"currencyCode"`
	PeriodStart         time.Time       `json:"periodStart"`
	PeriodEnd           time.Time       `json:"periodEnd"`
	BudgetAmount        decimal.Decimal `json:"budgetAmount"`
	SpentAmount         decimal.Decimal `json:"spentAmount"`
	RemainingAmount     decimal.Decimal `json:"remainingAmount"`
	PercentageUsed      decimal.Decimal `json:"percentageUsed"`
	Status              BudgetStatus    `json:"status"`
	TotalPeriodDays     int             `json:"totalPeriodDays"`
	DaysElapsed         int             `json:"daysElapsed"`
	DaysRemaining       int             `json:"daysRemaining"`
	DailySpendingRate   decimal.Decimal `json:"dailySpendingRate"`
	ProjectedEndBalance decimal.Decimal `json:"projectedEndBalance"`
}

// Granularity is the bucket size of a variance trend.
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// TrendBucket is one point of a budget-vs-actual chart. Values are cumulative to PeriodEnd.
type TrendBucket struct {
	PeriodStart  time.Time       `json:"periodStart"`
	PeriodEnd    time.Time       `json:"periodEnd"`
	BudgetToDate decimal.Decimal `json:"budgetToDate"`
	Actual       decimal.Decimal `json:"actual"`
	Variance     decimal.Decimal `json:"variance"`
}

// BudgetVariance compares budgeted and actual spend.
// FavorableVariance - UnfavorableVariance == Variance.
type BudgetVariance struct {
	BudgetID            string          `json:"budgetID"`
	CurrencyCode        string          `json:"currencyCode"`
	BudgetAmount        decimal.Decimal `json:"budgetAmount"`
	SpentAmount         decimal.Decimal `json:"spentAmount"`
	Variance            decimal.Decimal `json:"variance"`
	Favorable           bool            `json:"favorable"`
	FavorableVariance   decimal.Decimal `json:"favorableVariance"`
	UnfavorableVariance decimal.Decimal `json:"unfavorableVariance"`
	Trend               []TrendBucket   `json:"trend"`
}

// AlertType classifies a budget alert.
type AlertType string

const (
	AlertBudgetWarning   AlertType = "budget_warning"
	AlertBudgetExceeded  AlertType = "budget_exceeded"
	AlertBudgetDepleted  AlertType = "budget_depleted"
	AlertBudgetPeriodEnd AlertType = "budget_period_end"
)

// AlertStatus is the lifecycle state of an alert.
type AlertStatus string

const (
	AlertPending      AlertStatus = "pending"
	AlertSent         AlertStatus = "sent"
	AlertAcknowledged AlertStatus = "acknowledged"
	AlertDismissed    AlertStatus = "dismissed"
)

var alertTransitions = map[AlertStatus][]AlertStatus{
	AlertPending: {AlertSent, AlertAcknowledged, AlertDismissed},
	AlertSent:    {AlertAcknowledged, AlertDismissed},
}

// CanTransitionTo reports whether an alert may move from s to next. Alerts never return to pending.
func (s AlertStatus) CanTransitionTo(next AlertStatus) bool {
	for _, allowed := range alertTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// BudgetAlert is emitted when a budget crosses a threshold.
type BudgetAlert struct {
	AlertID          string          `json:"alertID"`
	BudgetID         string          `json:"budgetID"`
	TenantID         string          `json:"tenantID"`
	AlertType        AlertType       `json:"alertType"`
	Status           AlertStatus     `json:"status"`
	ThresholdPercent decimal.Decimal `json:"thresholdPercent"`
	SpentAmount      decimal.Decimal `json:"spentAmount"`
	BudgetAmount     decimal.Decimal `json:"budgetAmount"`
	CurrencyCode     string          `json:"currencyCode"`
	PeriodStart      time.Time       `json:"periodStart"`
	AuditFields
}
