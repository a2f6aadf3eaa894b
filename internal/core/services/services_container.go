package services

import (
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(
		repos.AccountRepo,
		WithPathSeparator(cfg.AccountPathSeparator),
	)

	// The rate provider is shared so every conversion goes through the same cache.
	container.ExchangeRate = NewExchangeRateService(
		repos.ExchangeRateRepo,
		WithRateCache(cfg.RateCacheTTL, cfg.RateCacheCleanup),
	)

	container.Journal = NewJournalService(
		repos.JournalRepo,
		repos.AccountRepo,
		WithDefaultPageSize(cfg.DefaultPageSize),
	)
	container.Balance = NewBalanceService(repos.AccountRepo, repos.JournalRepo, container.ExchangeRate)
	container.Budget = NewBudgetService(repos.BudgetRepo, repos.AccountRepo, repos.JournalRepo, container.Balance)
	container.Reporting = NewReportingService(repos.AccountRepo, repos.JournalRepo)

	return container
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.AccountSvcFacade      = (*accountService)(nil)
	_ portssvc.JournalSvcFacade      = (*journalService)(nil)
	_ portssvc.BalanceSvcFacade      = (*balanceService)(nil)
	_ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)
	_ portssvc.BudgetSvcFacade       = (*budgetService)(nil)
	_ portssvc.ReportingService      = (*reportingService)(nil)
)
