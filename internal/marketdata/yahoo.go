package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/folioapp/folio/backend/pkg/config"
	"github.com/folioapp/folio/backend/pkg/httputil"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// Yahoo fetches close histories from the Yahoo Finance chart API.
type Yahoo struct {
	http    *httputil.Client
	baseURL string
	logger  *logger.Logger
}

// NewYahoo creates a chart API client rate-limited per the market config.
func NewYahoo(cfg *config.Config, log *logger.Logger) *Yahoo {
	return &Yahoo{
		http:    httputil.New(log).WithRateLimit(cfg.Market.RatePerSec, cfg.Market.Burst),
		baseURL: cfg.Market.YahooBaseURL,
		logger:  log.WithField("module", "marketdata"),
	}
}

// chartResponse mirrors the subset of the chart API payload we consume.
// Closes are pointers because the API reports halted days as null.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Fetch resolves close histories ticker by ticker. A ticker the provider
// rejects is logged and left out of the result; only context cancellation
// aborts the whole fetch.
func (y *Yahoo) Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error) {
	series := make(Series, len(tickers))
	for _, ticker := range tickers {
		prices, err := y.fetchOne(ctx, ticker, from, to, granularity)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			y.logger.WithError(err).WithField("ticker", ticker).Warn("Price history fetch failed")
			continue
		}
		if len(prices) > 0 {
			series[ticker] = prices
		}
	}
	return series, nil
}

func (y *Yahoo) fetchOne(ctx context.Context, ticker string, from, to time.Time, granularity Granularity) ([]Price, error) {
	query := url.Values{}
	query.Set("period1", strconv.FormatInt(from.Unix(), 10))
	query.Set("period2", strconv.FormatInt(to.Unix(), 10))
	query.Set("interval", granularity.String())
	query.Set("events", "history")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.baseURL, url.PathEscape(ticker), query.Encode())

	var payload chartResponse
	if err := y.http.GetJSON(ctx, endpoint, &payload); err != nil {
		return nil, err
	}
	if apiErr := payload.Chart.Error; apiErr != nil {
		return nil, fmt.Errorf("chart api: %s: %s", apiErr.Code, apiErr.Description)
	}
	if len(payload.Chart.Result) == 0 || len(payload.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, nil
	}

	result := payload.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close

	prices := make([]Price, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		date := time.Unix(ts, 0).UTC()
		if granularity == Monthly {
			// Monthly bars are stamped at month start; valuation wants
			// the month they close in
			date = monthEnd(date)
		} else {
			date = time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
		}
		prices = append(prices, Price{Date: date, Close: *closes[i]})
	}
	return prices, nil
}

func monthEnd(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month()+1, 0, 0, 0, 0, 0, time.UTC)
}
