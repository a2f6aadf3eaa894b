package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExchangeRate is a fetched conversion factor: 1 unit of From = Rate units of To.
type ExchangeRate struct {
	ExchangeRateID   string          `json:"exchangeRateID"`
	FromCurrencyCode string          `json:"fromCurrencyCode"`
	ToCurrencyCode   string          `json:"toCurrencyCode"`
	Rate             decimal.Decimal `json:"rate"`
	FetchedAt        time.Time       `json:"fetchedAt"`
	AuditFields
}
