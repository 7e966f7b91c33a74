package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/folioapp/folio/backend/internal/marketdata"
)

func TestValueOverTimeEmptyLedger(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2024, time.March, 15))
	report := engine.ValueOverTime(context.Background(), Ledger{})
	assert.Equal(t, "No transactions provided", report.Error)
	assert.Nil(t, report.ValueSeries)
}

func TestValueOverTimeNothingSurvivesCleaning(t *testing.T) {
	engine := newTestEngine(marketdata.NewStatic(nil), day(2024, time.March, 15))
	ledger := Ledger{
		{Ticker: "AAPL", Action: ActionBuy, Shares: 1, Price: 100, Amount: 100}, // zero date
		{Date: day(2024, time.January, 5), Action: ActionBuy, Shares: 1, Price: 100, Amount: 100}, // no ticker
	}

	report := engine.ValueOverTime(context.Background(), ledger)
	assert.Equal(t, "No valid transactions after cleaning.", report.Error)
}

func TestValueOverTimeContiguousMonths(t *testing.T) {
	oracle := marketdata.NewStatic(marketdata.Series{
		"AAPL": {
			{Date: day(2024, time.January, 31), Close: 110},
			{Date: day(2024, time.February, 29), Close: 120},
			// No March close
		},
	})
	engine := newTestEngine(oracle, day(2024, time.April, 15))
	ledger := Ledger{
		{Date: day(2024, time.January, 10), Ticker: "AAPL", Action: ActionBuy, Shares: 2, Price: 100, Amount: 200},
		{Date: day(2024, time.March, 20), Ticker: "GOOG", Action: ActionBuy, Shares: 1, Price: 50, Amount: 50},
	}

	report := engine.ValueOverTime(context.Background(), ledger)
	require.Empty(t, report.Error)
	require.NotNil(t, report.ValueSeries)

	assert.Equal(t, "2024-01-10", report.StartDate)
	assert.Equal(t, "2024-03-20", report.EndDate)

	require.Len(t, report.Monthly, 3)
	assert.Equal(t, MonthValue{Month: "2024-01", Value: 220}, report.Monthly[0])
	assert.Equal(t, MonthValue{Month: "2024-02", Value: 240}, report.Monthly[1])
	// A month with no usable close values to zero rather than breaking
	// the sequence
	assert.Equal(t, MonthValue{Month: "2024-03", Value: 0}, report.Monthly[2])
}

func TestValueOverTimeAppliesTradesInTheirMonth(t *testing.T) {
	oracle := marketdata.NewStatic(marketdata.Series{
		"AAPL": {
			{Date: day(2024, time.January, 31), Close: 100},
			{Date: day(2024, time.February, 29), Close: 100},
			{Date: day(2024, time.March, 29), Close: 100},
		},
	})
	engine := newTestEngine(oracle, day(2024, time.March, 30))
	ledger := Ledger{
		{Date: day(2024, time.January, 5), Ticker: "AAPL", Action: ActionBuy, Shares: 3, Price: 95, Amount: 285},
		{Date: day(2024, time.March, 5), Ticker: "AAPL", Action: ActionSell, Shares: 1, Price: 101, Amount: 101},
	}

	report := engine.ValueOverTime(context.Background(), ledger)
	require.Empty(t, report.Error)
	require.Len(t, report.Monthly, 3)
	assert.Equal(t, 300.0, report.Monthly[0].Value)
	assert.Equal(t, 300.0, report.Monthly[1].Value)
	assert.Equal(t, 200.0, report.Monthly[2].Value)
}

func TestValueOverTimeSkipsShortPositions(t *testing.T) {
	oracle := marketdata.NewStatic(marketdata.Series{
		"AAPL": {{Date: day(2024, time.January, 31), Close: 100}},
	})
	engine := newTestEngine(oracle, day(2024, time.January, 20))
	ledger := Ledger{
		{Date: day(2024, time.January, 5), Ticker: "AAPL", Action: ActionSell, Shares: 2, Price: 100, Amount: 200},
	}

	report := engine.ValueOverTime(context.Background(), ledger)
	require.Empty(t, report.Error)
	require.Len(t, report.Monthly, 1)
	assert.Equal(t, 0.0, report.Monthly[0].Value)
}

func TestValueOverTimeFetchFailureValuesZero(t *testing.T) {
	oracle := &marketdata.Static{Err: errors.New("upstream unavailable")}
	engine := newTestEngine(oracle, day(2024, time.March, 15))
	ledger := Ledger{
		{Date: day(2024, time.January, 10), Ticker: "AAPL", Action: ActionBuy, Shares: 1, Price: 100, Amount: 100},
		{Date: day(2024, time.February, 10), Ticker: "AAPL", Action: ActionBuy, Shares: 1, Price: 100, Amount: 100},
	}

	report := engine.ValueOverTime(context.Background(), ledger)
	require.Empty(t, report.Error)
	require.Len(t, report.Monthly, 2)
	assert.Equal(t, 0.0, report.Monthly[0].Value)
	assert.Equal(t, 0.0, report.Monthly[1].Value)
}

func TestMonthlySeriesMarshalPreservesOrder(t *testing.T) {
	series := MonthlySeries{
		{Month: "2024-01", Value: 220},
		{Month: "2024-02", Value: 240.5},
		{Month: "2024-03", Value: 0},
	}
	raw, err := json.Marshal(series)
	require.NoError(t, err)
	assert.Equal(t, `{"2024-01":220,"2024-02":240.5,"2024-03":0}`, string(raw))
}
