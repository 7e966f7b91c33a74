package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio/backend/internal/marketdata"
)

func TestProjectIdenticalRatesMatchPointForPoint(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.August, 15))

	p := engine.Project(10000, 500, 1, 12, 12)
	require.Len(t, p.Dates, 12)
	require.Len(t, p.ActualValues, 12)
	require.Len(t, p.OptimizedValues, 12)
	assert.Equal(t, p.ActualValues, p.OptimizedValues)

	rate := math.Pow(1.12, 1.0/12) - 1
	value := 10000.0
	for i := range p.ActualValues {
		value = (value + 500) * (1 + rate)
		assert.InDelta(t, value, p.ActualValues[i], 0.01, "month %d", i)
	}

	assert.Equal(t, "2026-09", p.Dates[0])
	assert.Equal(t, "2027-08", p.Dates[11])
	assert.Equal(t, 12.0, p.ActualCAGR)
	assert.Equal(t, 12.0, p.OptimizedCAGR)
}

func TestProjectHigherOptimizedRateDominates(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.January, 1))

	p := engine.Project(10000, 500, 2, 8, 15)
	require.Len(t, p.Dates, 24)
	for i := range p.ActualValues {
		assert.Greater(t, p.OptimizedValues[i], p.ActualValues[i], "month %d", i)
	}
}

func TestProjectZeroRateIsPlainAccumulation(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.January, 1))

	p := engine.Project(1000, 100, 1, 0, 0)
	require.Len(t, p.ActualValues, 12)
	assert.Equal(t, 1100.0, p.ActualValues[0])
	assert.Equal(t, 1200.0, p.ActualValues[1])
	assert.Equal(t, 1300.0, p.ActualValues[2])
}

func TestProjectNoYears(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.January, 1))

	assert.Empty(t, engine.Project(1000, 100, 0, 12, 12).Dates)
	assert.Empty(t, engine.Project(1000, 100, -1, 12, 12).Dates)
}

func TestProjectNegativeRateDecays(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.January, 1))

	p := engine.Project(1000, 0, 1, -50, -50)
	require.Len(t, p.ActualValues, 12)
	assert.InDelta(t, 500, p.ActualValues[11], 0.5)
	assert.Less(t, p.ActualValues[0], 1000.0)
}

func TestProjectStartsAtCurrentMonthWhenOnBoundary(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2026, time.March, 1))

	p := engine.Project(1000, 0, 1, 5, 5)
	require.NotEmpty(t, p.Dates)
	assert.Equal(t, "2026-03", p.Dates[0])
}
