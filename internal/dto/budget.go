package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
)

// CreateBudgetRequest defines the data needed to create a budget.
type CreateBudgetRequest struct {
	Name           string            `json:"name" validate:"required,max=255"`
	BudgetType     domain.BudgetType `json:"budgetType" validate:"required,oneof=periodic non_periodic"`
	Recurrence     domain.Recurrence `json:"recurrence" validate:"required_if=BudgetType periodic,omitempty,oneof=weekly monthly yearly"`
	Amount         decimal.Decimal   `json:"amount"` // must be >= 0, checked by the service
	CurrencyCode   string            `json:"currencyCode" validate:"required,len=3"`
	StartDate      time.Time         `json:"startDate" validate:"required"`
	EndDate        time.Time         `json:"endDate" validate:"required"`
	AlertThreshold *decimal.Decimal  `json:"alertThreshold"` // fraction, defaults to 0.8
	AccountID      string            `json:"accountID" validate:"required"`
	IncludeSubtree bool              `json:"includeSubtree"`
}
