package analytics

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/folioapp/folio/backend/internal/marketdata"
)

const monthKeyLayout = "2006-01"

// MonthValue is one point of the month-end portfolio value series.
type MonthValue struct {
	Month string
	Value float64
}

// MonthlySeries is an ordered month-keyed value series. It serializes as
// a single JSON object whose keys preserve chronological order.
type MonthlySeries []MonthValue

func (ms MonthlySeries) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, mv := range ms {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:", mv.Month)
		buf.Write(strconv.AppendFloat(nil, mv.Value, 'f', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// ValueSeries is the replayed portfolio value for every calendar month
// between the first and last transaction.
type ValueSeries struct {
	StartDate string        `json:"start_date"`
	EndDate   string        `json:"end_date"`
	Monthly   MonthlySeries `json:"monthly_portfolio_value"`
}

// ValueReport carries either the monthly series or the reason it could
// not be computed.
type ValueReport struct {
	*ValueSeries
	Error string `json:"error,omitempty"`
}

// ValueOverTime replays the ledger month by month and values the running
// holdings at each month's last available close. Every calendar month
// from the first through the last transaction gets an entry, including
// months with no trades. A price fetch failure degrades to zero values
// rather than failing the computation.
func (e *Engine) ValueOverTime(ctx context.Context, ledger Ledger) ValueReport {
	if len(ledger) == 0 {
		return ValueReport{Error: "No transactions provided"}
	}

	clean := ledger.Clean().Sorted()
	if len(clean) == 0 {
		return ValueReport{Error: "No valid transactions after cleaning."}
	}

	first, last, _ := clean.DateRange()

	// Fetch through the end of the final month so its close is usable
	// even when the last trade lands mid-month.
	fetchTo := time.Date(last.Year(), last.Month()+1, 0, 0, 0, 0, 0, time.UTC)
	series, err := e.oracle.Fetch(ctx, clean.Tickers(), first, fetchTo, marketdata.Monthly)
	if err != nil {
		e.logger.WithError(err).Warn("Monthly price fetch failed, valuing holdings at zero")
		series = marketdata.Series{}
	}

	// Bucket transactions by calendar month so each month applies its
	// trades before valuation
	byMonth := make(map[string][]Transaction)
	for _, tx := range clean {
		key := tx.Date.Format(monthKeyLayout)
		byMonth[key] = append(byMonth[key], tx)
	}

	holdings := make(map[string]float64)
	monthly := make(MonthlySeries, 0, monthsBetween(first, last)+1)

	cursor := time.Date(first.Year(), first.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last.Year(), last.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		key := cursor.Format(monthKeyLayout)
		for _, tx := range byMonth[key] {
			holdings[tx.Ticker] += tx.SignedShares()
		}

		var value float64
		for ticker, shares := range holdings {
			if shares <= 0 {
				continue
			}
			close, ok := series.CloseInMonth(ticker, cursor.Year(), cursor.Month())
			if !ok || close <= 0 {
				continue
			}
			value += shares * close
		}
		monthly = append(monthly, MonthValue{Month: key, Value: round2(value)})

		cursor = cursor.AddDate(0, 1, 0)
	}

	return ValueReport{ValueSeries: &ValueSeries{
		StartDate: first.Format("2006-01-02"),
		EndDate:   last.Format("2006-01-02"),
		Monthly:   monthly,
	}}
}

func monthsBetween(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()-from.Month())
}
