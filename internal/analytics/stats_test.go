package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMaxDrawdownPct(t *testing.T) {
	// Peak 120, trough 90
	values := []float64{100, 120, 90, 110}
	assert.InDelta(t, -25.0, maxDrawdownPct(values), 1e-9)

	assert.Equal(t, 0.0, maxDrawdownPct([]float64{100, 110, 120}))
	assert.Equal(t, 0.0, maxDrawdownPct(nil))
}

func TestPctChangeSkipsZeroBase(t *testing.T) {
	changes := pctChange([]float64{0, 100, 110})
	assert.Equal(t, []float64{0.1}, changes)
}

func TestAnnualizedSharpe(t *testing.T) {
	assert.Equal(t, 0.0, annualizedSharpe(nil))
	// Constant returns have zero variance
	assert.Equal(t, 0.0, annualizedSharpe([]float64{0.01, 0.01, 0.01}))
	assert.Greater(t, annualizedSharpe([]float64{0.02, 0.01, 0.03}), 0.0)
}

func TestGrowthCAGRGuards(t *testing.T) {
	assert.Equal(t, 0.0, growthCAGR(0, 100, 1))
	assert.Equal(t, 0.0, growthCAGR(-50, 100, 1))
	assert.Equal(t, 0.0, growthCAGR(100, 0, 1))
	assert.Equal(t, 0.0, growthCAGR(100, -10, 1))

	// Doubling over two years
	assert.InDelta(t, 41.42, growthCAGR(100, 200, 2), 0.01)
}

func TestYearsSpanHasFloor(t *testing.T) {
	d := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)

	// Same-day and inverted ranges floor to a single day
	assert.InDelta(t, 1.0/365.25, yearsSpan(d, d), 1e-12)
	assert.InDelta(t, 1.0/365.25, yearsSpan(d, d.AddDate(0, 0, -10)), 1e-12)

	assert.InDelta(t, 365.0/365.25, yearsSpan(d, d.AddDate(1, 0, 0)), 1e-9)
}

func TestMonthlyRateFromAnnual(t *testing.T) {
	rate := monthlyRateFromAnnual(12)
	assert.InDelta(t, math.Pow(1.12, 1.0/12)-1, rate, 1e-12)

	assert.Equal(t, 0.0, monthlyRateFromAnnual(0))
	assert.Equal(t, -1.0, monthlyRateFromAnnual(-150))
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, 0.0, sanitize(math.NaN()))
	assert.Equal(t, 0.0, sanitize(math.Inf(1)))
	assert.Equal(t, 1.5, sanitize(1.5))
}
