package marketdata

import (
	"context"
	"time"
)

// Static is a fixture-backed Oracle serving prices from an in-memory
// series. It backs deterministic tests and offline development.
type Static struct {
	Series Series
	Err    error // returned verbatim when set
}

// NewStatic creates a Static oracle over the given series
func NewStatic(series Series) *Static {
	return &Static{Series: series}
}

// Fetch returns the stored observations restricted to the requested
// tickers and date range. Granularity is ignored; the fixture decides its
// own sampling.
func (s *Static) Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error) {
	if s.Err != nil {
		return nil, s.Err
	}

	out := make(Series, len(tickers))
	for _, ticker := range tickers {
		for _, p := range s.Series[ticker] {
			if p.Date.Before(from) || p.Date.After(to) {
				continue
			}
			out[ticker] = append(out[ticker], p)
		}
	}
	return out, nil
}
