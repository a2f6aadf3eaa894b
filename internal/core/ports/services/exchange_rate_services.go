package services

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

// RateProvider looks up exchange rates for conversions.
type RateProvider interface {
	// GetRate returns the rate with the most recent fetch time not after asOf, or apperrors.ErrNotFound.
	GetRate(ctx context.Context, fromCurrency, toCurrency string, asOf time.Time) (*domain.ExchangeRate, error)
}

// ExchangeRateWriterSvc records fetched rates.
type ExchangeRateWriterSvc interface {
	RecordRate(ctx context.Context, req dto.RecordRateRequest, userID string) (*domain.ExchangeRate, error)
}

// ExchangeRateSvcFacade combines exchange rate service interfaces
type ExchangeRateSvcFacade interface {
	RateProvider
	ExchangeRateWriterSvc
}
