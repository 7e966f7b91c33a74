package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/folioapp/folio/backend/pkg/redis"
)

// CachedOracle fronts another Oracle with the shared Redis cache. Close
// histories change at most daily, so short TTLs keep quote traffic off
// the upstream provider without serving stale valuations.
type CachedOracle struct {
	next  Oracle
	cache *redis.Cache
	ttl   time.Duration
}

func NewCachedOracle(next Oracle, cache *redis.Cache, ttl time.Duration) *CachedOracle {
	return &CachedOracle{next: next, cache: cache, ttl: ttl}
}

func (c *CachedOracle) Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error) {
	// Per-ticker cache entries so overlapping portfolios share hits
	series := make(Series, len(tickers))
	var missing []string
	for _, ticker := range tickers {
		var prices []Price
		found, err := c.cache.Get(ctx, c.key(ticker, from, to, granularity), &prices)
		if err == nil && found {
			if len(prices) > 0 {
				series[ticker] = prices
			}
			continue
		}
		missing = append(missing, ticker)
	}

	if len(missing) == 0 {
		return series, nil
	}

	fetched, err := c.next.Fetch(ctx, missing, from, to, granularity)
	if err != nil {
		return nil, err
	}
	for _, ticker := range missing {
		prices := fetched[ticker]
		// Negative results are cached too, so unknown tickers do not
		// hammer the provider. A failed cache write never fails the fetch.
		_ = c.cache.Set(ctx, c.key(ticker, from, to, granularity), prices, c.ttl)
		if len(prices) > 0 {
			series[ticker] = prices
		}
	}
	return series, nil
}

func (c *CachedOracle) key(ticker string, from, to time.Time, granularity Granularity) string {
	return fmt.Sprintf("prices:%s:%s:%s:%s", ticker, granularity, from.Format("2006-01-02"), to.Format("2006-01-02"))
}
