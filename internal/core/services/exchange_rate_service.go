package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
	portssvc "github.com/cupkappu/mbooking-sub001/internal/core/ports/services"
	"github.com/cupkappu/mbooking-sub001/internal/dto"
)

// exchangeRateService serves rate lookups for conversions and records fetched rates.
// Found rates are cached per (pair, asOf); misses always go to the store.
type exchangeRateService struct {
	BaseService
	rateRepo portsrepo.ExchangeRateRepositoryFacade
	cache    *cache.Cache

	// generations counts invalidations per pair. A lookup only caches its result when
	// no rate was recorded for the pair while it was reading.
	mu          sync.Mutex
	generations map[string]uint64
}

// ExchangeRateServiceOption is a functional option for configuring the exchange rate service
type ExchangeRateServiceOption func(*exchangeRateService)

// WithRateCache sets the expiry and cleanup interval of the rate cache.
func WithRateCache(ttl, cleanup time.Duration) ExchangeRateServiceOption {
	return func(s *exchangeRateService) {
		s.cache = cache.New(ttl, cleanup)
	}
}

// WithExchangeRateClock overrides the clock used for audit fields.
func WithExchangeRateClock(clock func() time.Time) ExchangeRateServiceOption {
	return func(s *exchangeRateService) {
		s.Clock = clock
	}
}

// NewExchangeRateService creates a new exchange rate service.
func NewExchangeRateService(rateRepo portsrepo.ExchangeRateRepositoryFacade, options ...ExchangeRateServiceOption) portssvc.ExchangeRateSvcFacade {
	svc := &exchangeRateService{
		rateRepo:    rateRepo,
		cache:       cache.New(10*time.Minute, 30*time.Minute),
		generations: make(map[string]uint64),
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.ExchangeRateSvcFacade = (*exchangeRateService)(nil)

func pairPrefix(from, to string) string {
	return from + "|" + to + "|"
}

func rateCacheKey(from, to string, asOf time.Time) string {
	return pairPrefix(from, to) + asOf.UTC().Format(time.RFC3339Nano)
}

// GetRate returns the rate with the most recent fetch time not after asOf.
func (s *exchangeRateService) GetRate(ctx context.Context, fromCurrency, toCurrency string, asOf time.Time) (*domain.ExchangeRate, error) {
	from := domain.NormalizeCurrencyCode(fromCurrency)
	to := domain.NormalizeCurrencyCode(toCurrency)
	key := rateCacheKey(from, to, asOf)

	if cached, ok := s.cache.Get(key); ok {
		rate := cached.(domain.ExchangeRate)
		return &rate, nil
	}

	pair := pairPrefix(from, to)
	gen := s.generation(pair)

	rate, err := s.rateRepo.FindLatestRate(ctx, from, to, asOf)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.LogError(ctx, err, "Failed to look up exchange rate",
				slog.String("from", from),
				slog.String("to", to))
		}
		return nil, err
	}

	s.mu.Lock()
	if s.generations[pair] == gen {
		s.cache.SetDefault(key, *rate)
	}
	s.mu.Unlock()
	return rate, nil
}

func (s *exchangeRateService) generation(pair string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[pair]
}

// RecordRate stores a fetched rate and drops cached lookups for the pair.
func (s *exchangeRateService) RecordRate(ctx context.Context, req dto.RecordRateRequest, userID string) (*domain.ExchangeRate, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrencyCode(req.FromCurrencyCode); err != nil {
		return nil, err
	}
	if err := domain.ValidateCurrencyCode(req.ToCurrencyCode); err != nil {
		return nil, err
	}
	from := domain.NormalizeCurrencyCode(req.FromCurrencyCode)
	to := domain.NormalizeCurrencyCode(req.ToCurrencyCode)
	if from == to {
		return nil, fmt.Errorf("%w: from and to currency codes cannot be the same", apperrors.ErrValidation)
	}
	if !req.Rate.IsPositive() {
		return nil, fmt.Errorf("%w: exchange rate must be positive", apperrors.ErrValidation)
	}

	rate := domain.ExchangeRate{
		ExchangeRateID:   uuid.NewString(),
		FromCurrencyCode: from,
		ToCurrencyCode:   to,
		Rate:             req.Rate,
		FetchedAt:        req.FetchedAt.UTC(),
		AuditFields:      domain.NewAuditFields(userID, s.Now()),
	}

	if err := s.rateRepo.SaveExchangeRate(ctx, rate); err != nil {
		s.LogError(ctx, err, "Failed to save exchange rate",
			slog.String("from", from),
			slog.String("to", to))
		return nil, err
	}
	s.invalidatePair(from, to)

	s.LogInfo(ctx, "Exchange rate recorded",
		slog.String("exchange_rate_id", rate.ExchangeRateID),
		slog.String("from", from),
		slog.String("to", to),
		slog.String("rate", rate.Rate.String()))
	return &rate, nil
}

// invalidatePair removes every cached lookup of a pair; a newly recorded rate may
// change the answer for any asOf after its fetch time.
func (s *exchangeRateService) invalidatePair(from, to string) {
	prefix := pairPrefix(from, to)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[prefix]++
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
}
