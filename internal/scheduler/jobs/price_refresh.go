package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/folioapp/folio/backend/internal/marketdata"
	"github.com/folioapp/folio/backend/internal/store"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// PriceRefreshJob keeps the stored close history current for every
// ticker any portfolio references. Tickers already up to date are
// fetched with a short tail window; new tickers get a full backfill so
// the optimizer's trailing window is covered.
type PriceRefreshJob struct {
	transactions *store.TransactionRepository
	prices       *marketdata.PriceRepository
	source       marketdata.Oracle
	logger       *logger.Logger
}

func NewPriceRefreshJob(
	transactions *store.TransactionRepository,
	prices *marketdata.PriceRepository,
	source marketdata.Oracle,
	log *logger.Logger,
) *PriceRefreshJob {
	return &PriceRefreshJob{
		transactions: transactions,
		prices:       prices,
		source:       source,
		logger:       log,
	}
}

// Name returns the job name
func (j *PriceRefreshJob) Name() string {
	return "price_refresh"
}

// Schedule returns the cron schedule (10 PM on weekdays, after US close)
func (j *PriceRefreshJob) Schedule() string {
	return "0 0 22 * * 1-5"
}

// Run refreshes stored closes for all referenced tickers.
func (j *PriceRefreshJob) Run(ctx context.Context) error {
	tickers, err := j.transactions.DistinctTickers(ctx)
	if err != nil {
		return fmt.Errorf("list tickers: %w", err)
	}
	if len(tickers) == 0 {
		j.logger.Info("No tickers to refresh")
		return nil
	}

	now := time.Now().UTC()
	var refreshed int
	for _, ticker := range tickers {
		from := now.AddDate(-3, 0, -7)
		if latest, ok, err := j.prices.LatestDate(ctx, ticker); err != nil {
			return fmt.Errorf("latest date for %s: %w", ticker, err)
		} else if ok {
			// Re-fetch a few days back to pick up corrections
			from = latest.AddDate(0, 0, -5)
		}

		series, err := j.source.Fetch(ctx, []string{ticker}, from, now, marketdata.Daily)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			j.logger.WithError(err).WithField("ticker", ticker).Warn("Price refresh fetch failed")
			continue
		}

		written, err := j.prices.SaveCloses(ctx, series)
		if err != nil {
			return fmt.Errorf("save closes for %s: %w", ticker, err)
		}
		if written > 0 {
			refreshed++
		}
	}

	j.logger.WithFields(map[string]interface{}{
		"tickers":   len(tickers),
		"refreshed": refreshed,
	}).Info("Price refresh completed")

	return nil
}
