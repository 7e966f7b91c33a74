package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/redis"
)

type countingOracle struct {
	inner *Static
	calls int
}

func (c *countingOracle) Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error) {
	c.calls++
	return c.inner.Fetch(ctx, tickers, from, to, granularity)
}

func TestCachedOraclePassesThroughWhenCacheDisabled(t *testing.T) {
	client, err := redis.New(&config.Config{})
	require.NoError(t, err)
	cache := redis.NewCache(client, "folio")

	upstream := &countingOracle{inner: NewStatic(Series{
		"AAPL": {{Date: d(2024, time.June, 3), Close: 100}},
	})}
	oracle := NewCachedOracle(upstream, cache, time.Minute)

	from, to := d(2024, time.June, 1), d(2024, time.June, 30)
	first, err := oracle.Fetch(context.Background(), []string{"AAPL"}, from, to, Daily)
	require.NoError(t, err)
	second, err := oracle.Fetch(context.Background(), []string{"AAPL"}, from, to, Daily)
	require.NoError(t, err)

	// Disabled cache means every fetch reaches the upstream
	assert.Equal(t, 2, upstream.calls)
	assert.Equal(t, first, second)
	assert.Len(t, first["AAPL"], 1)
}

func TestCachedOracleKeyVariesWithWindowAndGranularity(t *testing.T) {
	c := &CachedOracle{}
	daily := c.key("AAPL", d(2024, time.June, 1), d(2024, time.June, 30), Daily)
	monthly := c.key("AAPL", d(2024, time.June, 1), d(2024, time.June, 30), Monthly)
	shifted := c.key("AAPL", d(2024, time.June, 2), d(2024, time.June, 30), Daily)

	assert.NotEqual(t, daily, monthly)
	assert.NotEqual(t, daily, shifted)
}
