package rates

import (
	"context"
	"log/slog"
	"time"

	"github.com/ariefcatur/go-geoprice/internal/apperr"
	"github.com/ariefcatur/go-geoprice/internal/currency"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	provider Provider
	store    Store
	log      *slog.Logger
	ttl      time.Duration
	now      func() time.Time
	group    singleflight.Group
}

type Option func(*Service)

func WithTTL(d time.Duration) Option { return func(s *Service) { s.ttl = d } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(log *slog.Logger, p Provider, st Store, opts ...Option) *Service {
	s := &Service{
		provider: p,
		store:    st,
		log:      log,
		ttl:      CacheTTL,
		now:      time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GetRates returns the full rate table for base. targets only feed logging:
// the provider is always asked for every rate.
func (s *Service) GetRates(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	base = currency.Normalize(base)

	if e, ok := s.lookup(ctx, base); ok && e.Fresh(s.now(), s.ttl) {
		s.log.Debug("exchange rates cache hit", "base", base, "targets", targets)
		return e.Rates, nil
	}

	s.log.Info("exchange rates cache miss", "base", base, "targets", targets)
	// shared by every waiter, so one caller going away must not cancel it;
	// the provider bounds the fetch with FetchTimeout
	fetchCtx := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(base, func() (any, error) {
		return s.refresh(fetchCtx, base, targets)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]float64), nil
}

func (s *Service) refresh(ctx context.Context, base string, targets []string) (map[string]float64, error) {
	prev, havePrev := s.lookup(ctx, base)
	if havePrev && prev.Fresh(s.now(), s.ttl) {
		return prev.Rates, nil
	}

	fetched, err := s.provider.Latest(ctx, base)
	if err != nil {
		s.log.Error("exchange rate fetch failed", "base", base, "err", err)
		if havePrev {
			s.log.Warn("serving expired exchange rates",
				"base", base, "age", s.now().Sub(prev.FetchedAt).String())
			return prev.Rates, nil
		}
		return nil, apperr.ExternalService("Exchange Rate Service", err)
	}

	var missing []string
	for _, t := range targets {
		if _, ok := fetched[currency.Normalize(t)]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		s.log.Warn("currencies missing from rate response", "base", base, "missing", missing)
	}

	entry := Entry{Base: base, Rates: fetched, FetchedAt: s.now()}
	if err := s.store.Set(ctx, entry); err != nil {
		s.log.Warn("exchange rate cache write failed", "base", base, "err", err)
	}
	s.log.Info("exchange rates refreshed", "base", base, "count", len(fetched))
	return fetched, nil
}

func (s *Service) lookup(ctx context.Context, base string) (Entry, bool) {
	e, ok, err := s.store.Get(ctx, base)
	if err != nil {
		s.log.Warn("exchange rate cache read failed", "base", base, "err", err)
		return Entry{}, false
	}
	return e, ok
}

// Invalidate drops the cached table for base so the next call refetches.
func (s *Service) Invalidate(ctx context.Context, base string) error {
	return s.store.Expire(ctx, currency.Normalize(base))
}

// ConvertPrice converts amount and rounds to two decimal places.
func (s *Service) ConvertPrice(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	from, to = currency.Normalize(from), currency.Normalize(to)
	if from == to {
		return amount, nil
	}

	table, err := s.GetRates(ctx, from, []string{to})
	if err != nil {
		return decimal.Decimal{}, err
	}
	rate, ok := table[to]
	if !ok || rate <= 0 {
		s.log.Error("exchange rate not found", "from", from, "to", to, "available", len(table))
		return decimal.Decimal{}, apperr.Validation(
			"Exchange rate not available for %s. Please check your input and try again.", to)
	}
	return amount.Mul(decimal.NewFromFloat(rate)).Round(2), nil
}
