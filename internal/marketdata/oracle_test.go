package marketdata

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestGranularityString(t *testing.T) {
	assert.Equal(t, "1d", Daily.String())
	assert.Equal(t, "1mo", Monthly.String())
}

func TestSeriesAtForwardFills(t *testing.T) {
	s := Series{
		"AAPL": {
			{Date: d(2024, time.June, 3), Close: 100},
			{Date: d(2024, time.June, 7), Close: 110},
		},
	}

	close, ok := s.At("AAPL", d(2024, time.June, 5))
	require.True(t, ok)
	assert.Equal(t, 100.0, close)

	close, ok = s.At("AAPL", d(2024, time.June, 7))
	require.True(t, ok)
	assert.Equal(t, 110.0, close)

	// Querying past the series keeps the last close
	close, ok = s.At("AAPL", d(2024, time.June, 30))
	require.True(t, ok)
	assert.Equal(t, 110.0, close)
}

func TestSeriesAtBackwardFillsLeadingGap(t *testing.T) {
	s := Series{
		"AAPL": {{Date: d(2024, time.June, 7), Close: 110}},
	}
	close, ok := s.At("AAPL", d(2024, time.June, 1))
	require.True(t, ok)
	assert.Equal(t, 110.0, close)
}

func TestSeriesAtRejectsMissingOrNonPositive(t *testing.T) {
	s := Series{
		"BAD": {{Date: d(2024, time.June, 3), Close: 0}},
	}
	_, ok := s.At("AAPL", d(2024, time.June, 3))
	assert.False(t, ok)

	_, ok = s.At("BAD", d(2024, time.June, 3))
	assert.False(t, ok)
}

func TestSeriesLatest(t *testing.T) {
	s := Series{
		"AAPL": {
			{Date: d(2024, time.June, 3), Close: 100},
			{Date: d(2024, time.June, 7), Close: 110},
		},
	}
	close, ok := s.Latest("AAPL")
	require.True(t, ok)
	assert.Equal(t, 110.0, close)

	_, ok = s.Latest("MSFT")
	assert.False(t, ok)
}

func TestCloseInMonthDoesNotBorrowAcrossMonths(t *testing.T) {
	s := Series{
		"AAPL": {
			{Date: d(2024, time.January, 15), Close: 95},
			{Date: d(2024, time.January, 31), Close: 100},
			{Date: d(2024, time.March, 29), Close: 120},
		},
	}

	close, ok := s.CloseInMonth("AAPL", 2024, time.January)
	require.True(t, ok)
	assert.Equal(t, 100.0, close)

	// February has no observation and stays unresolved even though both
	// neighbors do
	_, ok = s.CloseInMonth("AAPL", 2024, time.February)
	assert.False(t, ok)

	close, ok = s.CloseInMonth("AAPL", 2024, time.March)
	require.True(t, ok)
	assert.Equal(t, 120.0, close)
}

func TestAlignFillsGapsOverUnionDates(t *testing.T) {
	s := Series{
		"A": {
			{Date: d(2024, time.June, 3), Close: 10},
			{Date: d(2024, time.June, 5), Close: 12},
		},
		"B": {
			{Date: d(2024, time.June, 4), Close: 20},
			{Date: d(2024, time.June, 5), Close: 22},
		},
	}

	dates, cols, matrix := s.Align([]string{"A", "B"})
	require.Equal(t, []string{"A", "B"}, cols)
	require.Len(t, dates, 3)
	require.Len(t, matrix, 3)

	// A forward-fills June 4; B backward-fills June 3
	assert.Equal(t, []float64{10, 20}, matrix[0])
	assert.Equal(t, []float64{10, 20}, matrix[1])
	assert.Equal(t, []float64{12, 22}, matrix[2])
}

func TestAlignDropsTickersWithoutData(t *testing.T) {
	s := Series{
		"A": {{Date: d(2024, time.June, 3), Close: 10}},
	}
	_, cols, _ := s.Align([]string{"A", "B"})
	assert.Equal(t, []string{"A"}, cols)

	dates, cols, matrix := Series{}.Align([]string{"A"})
	assert.Nil(t, dates)
	assert.Nil(t, cols)
	assert.Nil(t, matrix)
}

func TestStaticFetchRestrictsRangeAndTickers(t *testing.T) {
	oracle := NewStatic(Series{
		"A": {
			{Date: d(2024, time.June, 1), Close: 10},
			{Date: d(2024, time.June, 15), Close: 11},
			{Date: d(2024, time.July, 1), Close: 12},
		},
		"B": {{Date: d(2024, time.June, 10), Close: 20}},
	})

	series, err := oracle.Fetch(context.Background(), []string{"A"}, d(2024, time.June, 1), d(2024, time.June, 30), Daily)
	require.NoError(t, err)
	require.Len(t, series["A"], 2)
	assert.NotContains(t, series, "B")
}
