package analytics

import (
	"math"
	"time"
)

// Annualization and risk-free constants shared by every metric in this
// package. The risk-free rate is annual and gets scaled to a daily figure
// where needed.
const (
	tradingDays    = 252.0
	riskFreeAnnual = 0.02
	yearDays       = 365.25
)

// mean returns the arithmetic mean of values
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the sample standard deviation of values
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// pctChange returns period-over-period percentage changes of a value
// series. Entries whose base value is zero are skipped rather than
// producing infinities.
func pctChange(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		prev := values[i-1]
		if prev == 0 {
			continue
		}
		out = append(out, values[i]/prev-1)
	}
	return out
}

// maxDrawdownPct returns the largest peak-to-trough decline of a value
// series as a percentage (most negative value of value/peak - 1).
func maxDrawdownPct(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		dd := v/peak - 1
		if dd < worst {
			worst = dd
		}
	}
	return worst * 100
}

// annualizedSharpe computes the Sharpe ratio of a period-return series
// annualized over trading days. Zero when the series is empty or has no
// variance.
func annualizedSharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	sd := stdDev(returns)
	if sd == 0 {
		return 0
	}
	return sanitize((mean(returns) - riskFreeAnnual/tradingDays) / sd * math.Sqrt(tradingDays))
}

// growthCAGR computes the compound annual growth rate in percent from an
// invested amount to a current value over yearsHeld years. Defined only
// for positive invested, value and duration; anything else is 0.
func growthCAGR(invested, value, yearsHeld float64) float64 {
	if invested <= 0 || value <= 0 || yearsHeld <= 0 {
		return 0
	}
	cagr := (math.Pow(value/invested, 1/yearsHeld) - 1) * 100
	return sanitize(cagr)
}

// yearsSpan converts the whole-day span between two instants to years;
// same-day spans collapse to a single day so downstream divisions stay
// finite.
func yearsSpan(from, to time.Time) float64 {
	days := math.Floor(to.Sub(from).Hours() / 24)
	if days <= 0 {
		return 1 / yearDays
	}
	return days / yearDays
}

// sanitize collapses NaN and infinities to 0
func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// round2 rounds to 2 decimal places
func round2(v float64) float64 {
	return math.Round(sanitize(v)*100) / 100
}

// round4 rounds to 4 decimal places
// monthlyRateFromAnnual converts an annual percentage growth rate into
// its geometric monthly equivalent.
func monthlyRateFromAnnual(annualPct float64) float64 {
	base := 1 + annualPct/100
	if base <= 0 {
		return -1
	}
	return math.Pow(base, 1.0/12) - 1
}

func sqrtNonNeg(v float64) float64 {
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func round4(v float64) float64 {
	return math.Round(sanitize(v)*10000) / 10000
}
