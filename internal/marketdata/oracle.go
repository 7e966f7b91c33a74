package marketdata

import (
	"context"
	"sort"
	"time"
)

// Granularity selects the sampling interval of a price fetch.
type Granularity int

const (
	Daily Granularity = iota
	Monthly
)

// String returns the provider interval token for the granularity
func (g Granularity) String() string {
	if g == Monthly {
		return "1mo"
	}
	return "1d"
}

// Price is a single closing price observation.
type Price struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series maps ticker to its closing prices sorted ascending by date.
// The shape is identical for single-ticker and multi-ticker fetches.
type Series map[string][]Price

// Oracle fetches historical close prices for a set of tickers.
//
// Implementations return whatever data they could resolve; a ticker the
// provider knows nothing about is simply absent from the series. Callers
// must treat a missing price as "exclude from the computation", never as
// zero, and must treat a fetch error as an empty series.
type Oracle interface {
	Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error)
}

// At resolves the price of ticker at date: the last close on or before
// date, falling back to the first close after it when the series only
// starts later. This is a point query with forward-fill then
// backward-fill semantics. ok is false when the ticker has no data at all
// or the resolved close is not positive.
func (s Series) At(ticker string, date time.Time) (float64, bool) {
	prices := s[ticker]
	if len(prices) == 0 {
		return 0, false
	}

	// First index strictly after date
	idx := sort.Search(len(prices), func(i int) bool {
		return prices[i].Date.After(date)
	})

	var close float64
	if idx > 0 {
		close = prices[idx-1].Close // forward fill
	} else {
		close = prices[0].Close // leading gap, backward fill
	}

	if close <= 0 {
		return 0, false
	}
	return close, true
}

// Latest returns the most recent close of ticker.
func (s Series) Latest(ticker string) (float64, bool) {
	prices := s[ticker]
	if len(prices) == 0 {
		return 0, false
	}
	close := prices[len(prices)-1].Close
	if close <= 0 {
		return 0, false
	}
	return close, true
}

// CloseInMonth returns the last close recorded within the given calendar
// month. Unlike At, it never borrows a price from a neighboring month:
// a month without data stays unresolved.
func (s Series) CloseInMonth(ticker string, year int, month time.Month) (float64, bool) {
	prices := s[ticker]
	var close float64
	var found bool
	for _, p := range prices {
		y, m, _ := p.Date.Date()
		if y == year && m == month {
			close = p.Close
			found = true
		}
		if y > year || (y == year && m > month) {
			break
		}
	}
	if !found || close <= 0 {
		return 0, false
	}
	return close, true
}

// Align builds a date-aligned close matrix for the requested tickers.
// Rows follow the union of all observation dates sorted ascending;
// columns follow the order of the tickers that actually have data (cols).
// Gaps are forward-filled then backward-filled per column, so the matrix
// has no holes. Tickers without any observation are dropped from cols;
// callers compare len(cols) with the request to detect missing coverage.
func (s Series) Align(tickers []string) (dates []time.Time, cols []string, matrix [][]float64) {
	// Union of observation dates
	dateSet := make(map[time.Time]struct{})
	for _, ticker := range tickers {
		for _, p := range s[ticker] {
			dateSet[p.Date] = struct{}{}
		}
	}
	if len(dateSet) == 0 {
		return nil, nil, nil
	}

	dates = make([]time.Time, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	for _, ticker := range tickers {
		if len(s[ticker]) > 0 {
			cols = append(cols, ticker)
		}
	}

	matrix = make([][]float64, len(dates))
	for i := range matrix {
		matrix[i] = make([]float64, len(cols))
	}

	for j, ticker := range cols {
		prices := s[ticker]
		byDate := make(map[time.Time]float64, len(prices))
		for _, p := range prices {
			byDate[p.Date] = p.Close
		}

		// Forward fill
		last := 0.0
		for i, d := range dates {
			if close, ok := byDate[d]; ok && close > 0 {
				last = close
			}
			matrix[i][j] = last
		}

		// Backward fill the leading gap
		first := 0.0
		for i := len(dates) - 1; i >= 0; i-- {
			if matrix[i][j] > 0 {
				first = matrix[i][j]
			} else {
				matrix[i][j] = first
			}
		}
	}

	return dates, cols, matrix
}
