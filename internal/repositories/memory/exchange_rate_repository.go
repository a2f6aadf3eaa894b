package memory

import (
	"context"
	"time"

	"github.com/cupkappu/mbooking-sub001/internal/apperrors"
	"github.com/cupkappu/mbooking-sub001/internal/core/domain"
	portsrepo "github.com/cupkappu/mbooking-sub001/internal/core/ports/repositories"
)

// ExchangeRateRepository implements portsrepo.ExchangeRateRepositoryFacade on a Store.
type ExchangeRateRepository struct {
	store *Store
}

var _ portsrepo.ExchangeRateRepositoryFacade = (*ExchangeRateRepository)(nil)

func (r *ExchangeRateRepository) SaveExchangeRate(ctx context.Context, rate domain.ExchangeRate) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.rates = append(r.store.rates, rate)
	return nil
}

func (r *ExchangeRateRepository) FindLatestRate(ctx context.Context, fromCurrencyCode, toCurrencyCode string, asOf time.Time) (*domain.ExchangeRate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var best *domain.ExchangeRate
	for i := range r.store.rates {
		rate := r.store.rates[i]
		if rate.FromCurrencyCode != fromCurrencyCode || rate.ToCurrencyCode != toCurrencyCode {
			continue
		}
		if rate.FetchedAt.After(asOf) {
			continue
		}
		if best == nil || rate.FetchedAt.After(best.FetchedAt) {
			found := rate
			best = &found
		}
	}
	if best == nil {
		return nil, apperrors.ErrNotFound
	}
	return best, nil
}
