package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleLedger() Ledger {
	return Ledger{
		{Date: day(2024, time.January, 2), Ticker: "AAPL", Action: ActionBuy, Shares: 10, Price: 150, Amount: 1500},
		{Date: day(2024, time.January, 2), Ticker: "GOOGL", Action: ActionBuy, Shares: 5, Price: 100, Amount: 500},
		{Date: day(2024, time.June, 3), Ticker: "AAPL", Action: ActionSell, Shares: 2, Price: 160, Amount: 320},
	}
}

func TestTotalInvestedCountsBuysOnly(t *testing.T) {
	ledger := sampleLedger()
	assert.Equal(t, 2000.0, ledger.TotalInvested())
}

func TestNetSharesAfterPartialSell(t *testing.T) {
	holdings := sampleLedger().Holdings()
	require.Len(t, holdings, 2)
	assert.Equal(t, 8.0, holdings["AAPL"])
	assert.Equal(t, 5.0, holdings["GOOGL"])
}

func TestHoldingsDropClosedPositions(t *testing.T) {
	ledger := Ledger{
		{Date: day(2024, time.January, 2), Ticker: "MSFT", Action: ActionBuy, Shares: 4, Price: 400, Amount: 1600},
		{Date: day(2024, time.February, 2), Ticker: "MSFT", Action: ActionSell, Shares: 4, Price: 410, Amount: 1640},
	}
	assert.Empty(t, ledger.Holdings())
}

func TestPositiveHoldingsDropShortPositions(t *testing.T) {
	ledger := Ledger{
		{Date: day(2024, time.January, 2), Ticker: "AAPL", Action: ActionBuy, Shares: 3, Price: 150, Amount: 450},
		{Date: day(2024, time.February, 2), Ticker: "TSLA", Action: ActionSell, Shares: 2, Price: 200, Amount: 400},
	}
	holdings := ledger.PositiveHoldings()
	require.Len(t, holdings, 1)
	assert.Equal(t, 3.0, holdings["AAPL"])
}

func TestSortedIsStableByDate(t *testing.T) {
	ledger := Ledger{
		{Date: day(2024, time.March, 1), Ticker: "B"},
		{Date: day(2024, time.January, 1), Ticker: "A1"},
		{Date: day(2024, time.January, 1), Ticker: "A2"},
	}
	sorted := ledger.Sorted()
	assert.Equal(t, "A1", sorted[0].Ticker)
	assert.Equal(t, "A2", sorted[1].Ticker)
	assert.Equal(t, "B", sorted[2].Ticker)

	// The receiver is untouched
	assert.Equal(t, "B", ledger[0].Ticker)
}

func TestCleanDropsMalformedRows(t *testing.T) {
	ledger := Ledger{
		{Date: day(2024, time.January, 2), Ticker: "AAPL", Action: ActionBuy, Shares: 1, Price: 100, Amount: 100},
		{Ticker: "NODATE", Action: ActionBuy, Shares: 1, Price: 100, Amount: 100},
		{Date: day(2024, time.January, 3), Action: ActionBuy, Shares: 1, Price: 100, Amount: 100},
		{Date: day(2024, time.January, 4), Ticker: "NANSH", Action: ActionBuy, Shares: math.NaN(), Price: 100, Amount: 100},
	}
	clean := ledger.Clean()
	require.Len(t, clean, 1)
	assert.Equal(t, "AAPL", clean[0].Ticker)
}

func TestParseActionTreatsUnknownAsSell(t *testing.T) {
	assert.Equal(t, ActionBuy, ParseAction("buy"))
	assert.Equal(t, ActionBuy, ParseAction("BUY"))
	assert.Equal(t, ActionSell, ParseAction("sell"))
	assert.Equal(t, ActionSell, ParseAction("transfer"))
}

func TestDateRange(t *testing.T) {
	first, last, ok := sampleLedger().DateRange()
	require.True(t, ok)
	assert.Equal(t, day(2024, time.January, 2), first)
	assert.Equal(t, day(2024, time.June, 3), last)

	_, _, ok = Ledger{}.DateRange()
	assert.False(t, ok)
}
