package analytics

import (
	"context"
	"sort"

	"github.com/folioapp/folio/backend/internal/marketdata"
)

// ReturnRange reports the achievable annualized return range when a
// target is infeasible. Min carries the equal-weight portfolio return as
// the "reachable without tilting" reference figure; Max is the best
// single asset.
type ReturnRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Optimization is the result of a successful minimum-variance solve,
// including the historical P&L narrative replayed under the optimized
// weights so it compares like-for-like with the ledger metrics.
type Optimization struct {
	Allocation         map[string]float64 `json:"optimized_allocation"`
	ExpectedReturn     float64            `json:"expected_return"`
	ExpectedVolatility float64            `json:"expected_volatility"`
	SharpeRatio        float64            `json:"sharpe_ratio"`
	TotalInvested      float64            `json:"total_invested"`
	CurrentValue       float64            `json:"current_value"`
	Profit             float64            `json:"profit"`
	NetShares          map[string]float64 `json:"net_shares"`
	CAGR               float64            `json:"cagr"`
	MaxDrawdown        float64            `json:"max_drawdown"`
	SharpeRatioFull    float64            `json:"sharpe_ratio_full"`
}

// OptimizeOutcome carries either an Optimization or an explanatory
// message. Message is set whenever the solve could not run or converge;
// the embedded result is nil in that case and its fields are absent from
// the serialized form.
type OptimizeOutcome struct {
	*Optimization
	Message       string       `json:"message,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	FeasibleRange *ReturnRange `json:"feasible_return_range,omitempty"`
}

// Optimize computes the long-only minimum-variance allocation across the
// ledger's positive holdings that achieves the target annualized return,
// using three years of trailing daily closes ending now.
func (e *Engine) Optimize(ctx context.Context, ledger Ledger, targetReturn float64) OptimizeOutcome {
	if len(ledger) == 0 {
		return OptimizeOutcome{Message: "No transactions to optimize."}
	}

	holdings := ledger.PositiveHoldings()
	if len(holdings) == 0 {
		return OptimizeOutcome{Message: "No net holdings to optimize."}
	}

	tickers := make([]string, 0, len(holdings))
	for ticker := range holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	// Three years of trailing daily data ending at the wall clock, not
	// the last transaction date: the optimization is about the market
	// as it stands today
	now := e.now()
	series, err := e.oracle.Fetch(ctx, tickers, now.AddDate(-3, 0, 0), now, marketdata.Daily)
	if err != nil {
		e.logger.WithError(err).Warn("Price fetch failed for optimization window")
		series = marketdata.Series{}
	}

	_, cols, closes := series.Align(tickers)
	if len(closes) < 2 || len(cols) != len(tickers) {
		return OptimizeOutcome{Message: "Insufficient price data for optimization."}
	}

	// Daily percentage returns per asset, then annualized moments
	n := len(cols)
	returns := make([][]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		row := make([]float64, n)
		for j := 0; j < n; j++ {
			prev := closes[i-1][j]
			if prev != 0 {
				row[j] = closes[i][j]/prev - 1
			}
		}
		returns[i-1] = row
	}

	meanReturns := make([]float64, n)
	for j := 0; j < n; j++ {
		var sum float64
		for i := range returns {
			sum += returns[i][j]
		}
		meanReturns[j] = sum / float64(len(returns)) * tradingDays
	}

	cov := annualizedCovariance(returns, meanReturns)

	// Feasibility: a long-only fully-invested portfolio can only reach
	// returns between the worst and best single asset
	minReturn, maxReturn := meanReturns[0], meanReturns[0]
	var equalWeight float64
	for _, r := range meanReturns {
		if r < minReturn {
			minReturn = r
		}
		if r > maxReturn {
			maxReturn = r
		}
		equalWeight += r / float64(n)
	}
	if targetReturn > maxReturn || targetReturn < minReturn {
		return OptimizeOutcome{
			Message:       "Target return not feasible with current assets.",
			FeasibleRange: &ReturnRange{Min: round4(equalWeight), Max: round4(maxReturn)},
		}
	}

	weights, diagnostic, solved := minVariance(cov, meanReturns, targetReturn)
	if !solved {
		return OptimizeOutcome{Message: "Optimization failed", Reason: diagnostic}
	}

	var portfolioReturn, portfolioVar float64
	for i := 0; i < n; i++ {
		portfolioReturn += weights[i] * meanReturns[i]
		for j := 0; j < n; j++ {
			portfolioVar += weights[i] * cov[i][j] * weights[j]
		}
	}
	portfolioVol := sqrtNonNeg(portfolioVar)

	sharpe := 0.0
	if portfolioVol != 0 {
		sharpe = (portfolioReturn - riskFreeAnnual) / portfolioVol
	}

	allocation := make(map[string]float64, n)
	for i, ticker := range cols {
		allocation[ticker] = round4(weights[i])
	}

	result := &Optimization{
		Allocation:         allocation,
		ExpectedReturn:     round4(portfolioReturn),
		ExpectedVolatility: round4(portfolioVol),
		SharpeRatio:        round4(sharpe),
	}
	e.replayHistory(result, ledger, cols, weights, returns, closes)

	return OptimizeOutcome{Optimization: result}
}

// replayHistory replays the ledger's invested capital through the
// optimized weights over the trailing window, producing a synthetic P&L
// comparable to the ledger metrics rather than a live market value.
func (e *Engine) replayHistory(result *Optimization, ledger Ledger, cols []string, weights []float64, returns [][]float64, closes [][]float64) {
	invested := ledger.TotalInvested()
	result.TotalInvested = round2(invested)

	// Weighted daily return path compounded onto the invested capital
	multiplier := 1.0
	path := make([]float64, 0, len(returns)+1)
	path = append(path, invested)
	for _, row := range returns {
		var dayReturn float64
		for j, w := range weights {
			dayReturn += w * row[j]
		}
		multiplier *= 1 + dayReturn
		path = append(path, invested*multiplier)
	}

	value := invested * multiplier
	result.CurrentValue = round2(value)
	result.Profit = round2(value - invested)

	latest := closes[len(closes)-1]
	shares := make(map[string]float64, len(cols))
	for j, ticker := range cols {
		if latest[j] > 0 {
			shares[ticker] = round2(weights[j] * invested / latest[j])
		} else {
			shares[ticker] = 0
		}
	}
	result.NetShares = shares

	first, _, _ := ledger.DateRange()
	result.CAGR = round2(growthCAGR(invested, value, yearsSpan(first, e.now())))
	result.MaxDrawdown = round2(maxDrawdownPct(path))
	result.SharpeRatioFull = round2(annualizedSharpe(pctChange(path)))
}

func annualizedCovariance(returns [][]float64, annualMeans []float64) [][]float64 {
	n := len(annualMeans)
	rows := float64(len(returns))
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	if rows < 2 {
		return cov
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			var sum float64
			mi := annualMeans[i] / tradingDays
			mj := annualMeans[j] / tradingDays
			for _, row := range returns {
				sum += (row[i] - mi) * (row[j] - mj)
			}
			c := sum / (rows - 1) * tradingDays
			cov[i][j] = c
			cov[j][i] = c
		}
	}
	return cov
}
