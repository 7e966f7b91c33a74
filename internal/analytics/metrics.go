package analytics

import (
	"context"

	"github.com/folioapp/folio/backend/internal/marketdata"
)

// Metrics is the aggregate performance summary of a ledger.
//
// MaxDrawdown and SharpeRatio are computed over the cumulative invested
// capital series (cash flow), not mark-to-market value. That understates
// true portfolio risk but downstream consumers depend on the reported
// numbers staying as they are.
type Metrics struct {
	TotalInvested float64            `json:"total_invested"`
	CurrentValue  float64            `json:"current_value"`
	Profit        float64            `json:"profit"`
	NetShares     map[string]float64 `json:"net_shares"`
	CAGR          float64            `json:"cagr"`
	MaxDrawdown   float64            `json:"max_drawdown"`
	SharpeRatio   float64            `json:"sharpe_ratio"`
}

// Metrics computes invested capital, current value, profit and the
// risk/return figures for a ledger. An empty ledger yields an all-zero
// result; a price fetch failure degrades to zero current value for the
// unpriced tickers rather than failing the call.
func (e *Engine) Metrics(ctx context.Context, ledger Ledger) Metrics {
	if len(ledger) == 0 {
		return Metrics{NetShares: map[string]float64{}}
	}

	totalInvested := ledger.TotalInvested()
	holdings := ledger.Holdings()

	// Fully exited portfolio: invested capital is known, value is gone
	if len(holdings) == 0 {
		return Metrics{
			TotalInvested: round2(totalInvested),
			CurrentValue:  0,
			Profit:        -round2(totalInvested),
			NetShares:     map[string]float64{},
		}
	}

	first, latest, _ := ledger.DateRange()

	// A 6-day window ending one day past the latest transaction covers
	// weekends and holidays around the valuation date.
	tickers := make([]string, 0, len(holdings))
	for ticker := range holdings {
		tickers = append(tickers, ticker)
	}
	series, err := e.oracle.Fetch(ctx, tickers, latest.AddDate(0, 0, -5), latest.AddDate(0, 0, 1), marketdata.Daily)
	if err != nil {
		e.logger.WithError(err).Warn("Price fetch failed, valuing portfolio without prices")
		series = marketdata.Series{}
	}

	var currentValue float64
	for ticker, shares := range holdings {
		price, ok := series.At(ticker, latest)
		if !ok {
			// No resolvable price: the ticker is excluded from the
			// value sum, not priced at zero
			continue
		}
		currentValue += shares * price
	}

	profit := currentValue - totalInvested
	cagr := growthCAGR(totalInvested, currentValue, yearsSpan(first, latest))

	// Cumulative invested capital over the date-ordered ledger
	sorted := ledger.Sorted()
	cumInvested := make([]float64, len(sorted))
	var running float64
	for i, t := range sorted {
		running += t.Amount
		cumInvested[i] = running
	}

	netShares := make(map[string]float64, len(holdings))
	for ticker, shares := range holdings {
		netShares[ticker] = round2(shares)
	}

	return Metrics{
		TotalInvested: round2(totalInvested),
		CurrentValue:  round2(currentValue),
		Profit:        round2(profit),
		NetShares:     netShares,
		CAGR:          round2(cagr),
		MaxDrawdown:   round2(maxDrawdownPct(cumInvested)),
		SharpeRatio:   round2(annualizedSharpe(pctChange(cumInvested))),
	}
}
