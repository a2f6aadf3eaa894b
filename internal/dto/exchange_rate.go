package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordRateRequest defines the structure for recording a fetched exchange rate.
type RecordRateRequest struct {
	FromCurrencyCode string          `json:"fromCurrencyCode" validate:"required,len=3"`
	ToCurrencyCode   string          `json:"toCurrencyCode" validate:"required,len=3,nefield=FromCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"` // must be > 0, checked by the service
	FetchedAt        time.Time       `json:"fetchedAt" validate:"required"`
}
