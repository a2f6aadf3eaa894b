package services_test

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

func (suite *LedgerScenarioTestSuite) foodBudget(amount string) *domain.Budget {
	budget, err := suite.ledger.Budget.CreateBudget(suite.ctx, tenantA, dto.CreateBudgetRequest{
		Name:           "Food",
		BudgetType:     domain.BudgetPeriodic,
		Recurrence:     domain.RecurrenceMonthly,
		Amount:         dec(amount),
		CurrencyCode:   "USD",
		StartDate:      day(2025, 1, 1),
		EndDate:        day(2025, 12, 31),
		AccountID:      suite.ids["expense:food"],
		IncludeSubtree: true,
	}, "user-1")
	suite.Require().NoError(err)
	return budget
}

func (suite *LedgerScenarioTestSuite) spend(date time.Time, path, amount, currency string) {
	suite.post(date, leg{path, amount, currency}, leg{"liabilities:card", "-" + amount, currency})
}

func alertTypes(alerts []domain.BudgetAlert) []domain.AlertType {
	out := make([]domain.AlertType, len(alerts))
	for i, a := range alerts {
		out[i] = a.AlertType
	}
	return out
}

func (suite *LedgerScenarioTestSuite) TestBudgetDefaults() {
	budget := suite.foodBudget("1000")
	suite.True(budget.AlertThreshold.Equal(dec("0.8")))
	suite.True(budget.IsActive)

	budgets, err := suite.ledger.Budget.ListBudgets(suite.ctx, tenantA, true)
	suite.Require().NoError(err)
	suite.Len(budgets, 1)

	_, err = suite.ledger.Budget.GetBudget(suite.ctx, "tenant-b", budget.BudgetID)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerScenarioTestSuite) TestBudgetProgress() {
	budget := suite.foodBudget("1000")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "300", "USD")
	suite.spend(day(2025, 1, 20), "expense:food:dining", "550", "USD")
	// outside the budget scope
	suite.post(day(2025, 1, 7), leg{"expense", "999", "USD"}, leg{"liabilities:card", "-999", "USD"})

	p, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 10))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.Equal(dec("300")), p.SpentAmount.String())
	suite.True(p.RemainingAmount.Equal(dec("700")))
	suite.True(p.PercentageUsed.Equal(dec("30")))
	suite.Equal(domain.BudgetNormal, p.Status)
	suite.Equal(31, p.TotalPeriodDays)
	suite.Equal(10, p.DaysElapsed)
	suite.Equal(21, p.DaysRemaining)
	suite.True(p.DailySpendingRate.Equal(dec("30")))
	suite.True(p.ProjectedEndBalance.Equal(dec("930")))

	p, err = suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.Equal(dec("850")))
	suite.Equal(domain.BudgetWarning, p.Status)
	suite.Equal(day(2025, 1, 1), p.PeriodStart)
	suite.Equal(day(2025, 1, 31), p.PeriodEnd)

	// a new month starts from zero
	p, err = suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 2, 10))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.IsZero())
	suite.Equal(28, p.TotalPeriodDays)
}

func (suite *LedgerScenarioTestSuite) TestBudgetRefundReducesSpend() {
	budget := suite.foodBudget("1000")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "300", "USD")
	suite.post(day(2025, 1, 6), leg{"liabilities:card", "50", "USD"}, leg{"expense:food:groceries", "-50", "USD"})

	p, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.Equal(dec("250")))
}

func (suite *LedgerScenarioTestSuite) TestBudgetVariance() {
	budget := suite.foodBudget("1000")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "300", "USD")
	suite.spend(day(2025, 1, 20), "expense:food:dining", "550", "USD")

	v, err := suite.ledger.Budget.Variance(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), domain.GranularityMonthly)
	suite.Require().NoError(err)
	suite.True(v.Variance.Equal(dec("150")))
	suite.True(v.Favorable)
	suite.True(v.FavorableVariance.Sub(v.UnfavorableVariance).Equal(v.Variance))
	suite.Require().Len(v.Trend, 1)
	suite.True(v.Trend[0].BudgetToDate.Equal(dec("1000")))
	suite.True(v.Trend[0].Actual.Equal(dec("850")))

	suite.spend(day(2025, 1, 25), "expense:food:dining", "400", "USD")
	v, err = suite.ledger.Budget.Variance(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), domain.GranularityWeekly)
	suite.Require().NoError(err)
	suite.False(v.Favorable)
	suite.True(v.UnfavorableVariance.Equal(dec("250")))
	suite.True(v.FavorableVariance.IsZero())
	suite.True(v.FavorableVariance.Sub(v.UnfavorableVariance).Equal(v.Variance))
	suite.Len(v.Trend, 5)
	suite.Equal(day(2025, 1, 29), v.Trend[4].PeriodStart)
	suite.Equal(day(2025, 1, 31), v.Trend[4].PeriodEnd)
}

func (suite *LedgerScenarioTestSuite) TestBudgetDailyTrendIsCumulative() {
	budget := suite.foodBudget("1000")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "300", "USD")

	v, err := suite.ledger.Budget.Variance(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 10), domain.GranularityDaily)
	suite.Require().NoError(err)
	suite.Require().Len(v.Trend, 10)
	suite.True(v.Trend[3].Actual.IsZero())
	suite.True(v.Trend[4].Actual.Equal(dec("300")))
	last := v.Trend[9]
	suite.True(last.Actual.Equal(dec("300")))
	suite.True(last.Variance.Equal(last.BudgetToDate.Sub(dec("300"))))
	expected := dec("1000").Mul(decimal.NewFromInt(10)).Div(decimal.NewFromInt(31))
	suite.True(last.BudgetToDate.Equal(expected))
}

func (suite *LedgerScenarioTestSuite) TestBudgetMonthlyTrendKeepsMonthEnds() {
	budget, err := suite.ledger.Budget.CreateBudget(suite.ctx, tenantA, dto.CreateBudgetRequest{
		Name:         "Spring",
		BudgetType:   domain.BudgetNonPeriodic,
		Amount:       dec("1000"),
		CurrencyCode: "USD",
		StartDate:    day(2025, 1, 31),
		EndDate:      day(2025, 5, 31),
		AccountID:    suite.ids["expense:food"],
	}, "user-1")
	suite.Require().NoError(err)

	v, err := suite.ledger.Budget.Variance(suite.ctx, tenantA, budget.BudgetID, day(2025, 5, 31), domain.GranularityMonthly)
	suite.Require().NoError(err)
	suite.Require().Len(v.Trend, 5)
	starts := make([]time.Time, 0, len(v.Trend))
	for _, bucket := range v.Trend {
		starts = append(starts, bucket.PeriodStart)
	}
	suite.Equal([]time.Time{day(2025, 1, 31), day(2025, 2, 28), day(2025, 3, 31), day(2025, 4, 30), day(2025, 5, 31)}, starts)
	suite.Equal(day(2025, 3, 30), v.Trend[1].PeriodEnd)
	suite.Equal(day(2025, 5, 31), v.Trend[4].PeriodEnd)
	suite.True(v.Trend[4].BudgetToDate.Equal(dec("1000")))
}

func (suite *LedgerScenarioTestSuite) TestBudgetNotStarted() {
	budget, err := suite.ledger.Budget.CreateBudget(suite.ctx, tenantA, dto.CreateBudgetRequest{
		Name:         "Trip",
		BudgetType:   domain.BudgetNonPeriodic,
		Amount:       dec("500"),
		CurrencyCode: "USD",
		StartDate:    day(2025, 2, 1),
		EndDate:      day(2025, 2, 28),
		AccountID:    suite.ids["expense:food:dining"],
	}, "user-1")
	suite.Require().NoError(err)
	suite.spend(day(2025, 1, 20), "expense:food:dining", "80", "USD")

	p, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 15))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.IsZero())
	suite.Equal(0, p.DaysElapsed)
	suite.Equal(28, p.DaysRemaining)

	v, err := suite.ledger.Budget.Variance(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 15), domain.GranularityDaily)
	suite.Require().NoError(err)
	suite.Empty(v.Trend)
}

func (suite *LedgerScenarioTestSuite) TestBudgetForeignSpendIsConverted() {
	budget := suite.foodBudget("100")
	suite.spend(day(2025, 1, 3), "expense:food:dining", "50", "EUR")

	_, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31))
	suite.Equal(apperrors.KindNoRateAvailable, apperrors.KindOf(err))

	_, err = suite.ledger.ExchangeRate.RecordRate(suite.ctx, dto.RecordRateRequest{
		FromCurrencyCode: "EUR", ToCurrencyCode: "USD", Rate: dec("1.2"), FetchedAt: day(2025, 1, 1),
	}, "user-1")
	suite.Require().NoError(err)

	p, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31))
	suite.Require().NoError(err)
	suite.True(p.SpentAmount.Equal(dec("60")))
	suite.True(p.PercentageUsed.Equal(dec("60")))
}

func (suite *LedgerScenarioTestSuite) TestBudgetAlertsAreRaisedOncePerPeriod() {
	budget := suite.foodBudget("1000")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "300", "USD")
	suite.spend(day(2025, 1, 20), "expense:food:dining", "550", "USD")

	alerts, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), "system")
	suite.Require().NoError(err)
	suite.Equal([]domain.AlertType{domain.AlertBudgetWarning, domain.AlertBudgetPeriodEnd}, alertTypes(alerts))
	for _, a := range alerts {
		suite.Equal(domain.AlertPending, a.Status)
		suite.Equal(day(2025, 1, 1), a.PeriodStart)
	}

	again, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), "system")
	suite.Require().NoError(err)
	suite.Empty(again)

	suite.spend(day(2025, 1, 25), "expense:food:dining", "200", "USD")
	more, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), "system")
	suite.Require().NoError(err)
	suite.Equal([]domain.AlertType{domain.AlertBudgetDepleted, domain.AlertBudgetExceeded}, alertTypes(more))

	feb, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 2, 10), "system")
	suite.Require().NoError(err)
	suite.Empty(feb)

	all, err := suite.ledger.Budget.ListAlerts(suite.ctx, tenantA, budget.BudgetID)
	suite.Require().NoError(err)
	suite.Len(all, 4)
}

func (suite *LedgerScenarioTestSuite) TestZeroBudgetOnlyRaisesPeriodEnd() {
	budget := suite.foodBudget("0")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "10", "USD")

	p, err := suite.ledger.Budget.Progress(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31))
	suite.Require().NoError(err)
	suite.True(p.PercentageUsed.IsZero())

	alerts, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 31), "system")
	suite.Require().NoError(err)
	suite.Equal([]domain.AlertType{domain.AlertBudgetPeriodEnd}, alertTypes(alerts))
}

func (suite *LedgerScenarioTestSuite) TestAlertLifecycle() {
	budget := suite.foodBudget("100")
	suite.spend(day(2025, 1, 5), "expense:food:groceries", "90", "USD")
	alerts, err := suite.ledger.Budget.EvaluateAlerts(suite.ctx, tenantA, budget.BudgetID, day(2025, 1, 15), "system")
	suite.Require().NoError(err)
	suite.Require().Len(alerts, 1)
	id := alerts[0].AlertID

	sent, err := suite.ledger.Budget.MarkAlertSent(suite.ctx, tenantA, id, "system")
	suite.Require().NoError(err)
	suite.Equal(domain.AlertSent, sent.Status)

	acked, err := suite.ledger.Budget.AcknowledgeAlert(suite.ctx, tenantA, id, "user-1")
	suite.Require().NoError(err)
	suite.Equal(domain.AlertAcknowledged, acked.Status)

	_, err = suite.ledger.Budget.DismissAlert(suite.ctx, tenantA, id, "user-1")
	suite.Equal(apperrors.KindInvalidTransition, apperrors.KindOf(err))
	_, err = suite.ledger.Budget.MarkAlertSent(suite.ctx, tenantA, id, "system")
	suite.Equal(apperrors.KindInvalidTransition, apperrors.KindOf(err))

	_, err = suite.ledger.Budget.AcknowledgeAlert(suite.ctx, "tenant-b", id, "user-2")
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *LedgerScenarioTestSuite) TestCreateBudgetValidation() {
	base := dto.CreateBudgetRequest{
		Name:         "Food",
		BudgetType:   domain.BudgetPeriodic,
		Recurrence:   domain.RecurrenceMonthly,
		Amount:       dec("100"),
		CurrencyCode: "USD",
		StartDate:    day(2025, 1, 1),
		EndDate:      day(2025, 12, 31),
		AccountID:    suite.ids["expense:food"],
	}
	tooHigh := dec("1.5")
	zero := decimal.Zero

	cases := map[string]func(r *dto.CreateBudgetRequest){
		"threshold above one":    func(r *dto.CreateBudgetRequest) { r.AlertThreshold = &tooHigh },
		"threshold zero":         func(r *dto.CreateBudgetRequest) { r.AlertThreshold = &zero },
		"end before start":       func(r *dto.CreateBudgetRequest) { r.EndDate = day(2024, 12, 31) },
		"periodic no recurrence": func(r *dto.CreateBudgetRequest) { r.Recurrence = "" },
		"negative amount":        func(r *dto.CreateBudgetRequest) { r.Amount = dec("-1") },
		"unknown account":        func(r *dto.CreateBudgetRequest) { r.AccountID = "missing" },
		"unknown currency":       func(r *dto.CreateBudgetRequest) { r.CurrencyCode = "ZZZ" },
	}
	for name, mutate := range cases {
		req := base
		mutate(&req)
		_, err := suite.ledger.Budget.CreateBudget(suite.ctx, tenantA, req, "user-1")
		suite.ErrorIs(err, apperrors.ErrValidation, name)
	}
}
