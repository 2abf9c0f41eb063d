// Package rates converts prices between currencies using exchange rates
// fetched from an external provider and cached per base currency.
package rates

import (
	"context"
	"time"
)

const (
	// CacheTTL is how long a fetched rate table is served without refetching.
	CacheTTL = 15 * time.Minute
	// FetchTimeout bounds a single call to the rate provider.
	FetchTimeout = 5 * time.Second
)

// Entry is one cached rate table. Rates are relative to Base.
type Entry struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	FetchedAt time.Time          `json:"fetched_at"`
}

func (e Entry) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// Store keeps the last fetched table per base. Entries must outlive the
// freshness window so an expired table can still serve as a fallback.
type Store interface {
	Get(ctx context.Context, base string) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
	Expire(ctx context.Context, base string) error
}

type Provider interface {
	// Latest returns every conversion rate the provider knows for base.
	Latest(ctx context.Context, base string) (map[string]float64, error)
}
