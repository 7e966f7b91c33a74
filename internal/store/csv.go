package store

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

var csvDateLayouts = []string{"2006-01-02", "2006/01/02", "01/02/2006"}

// ParseCSV reads a transaction export into store rows. The first record
// must be a header naming at least date, ticker, action, shares, price
// and amount, in any order and case.
func ParseCSV(r io.Reader) (Transactions, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "ticker", "action", "shares", "price", "amount"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	var ts Transactions
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := index[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		date, err := parseCSVDate(field("date"))
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}

		shares, err := strconv.ParseFloat(field("shares"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad shares %q", line, field("shares"))
		}
		price, err := strconv.ParseFloat(field("price"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad price %q", line, field("price"))
		}
		amount, err := strconv.ParseFloat(field("amount"), 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: bad amount %q", line, field("amount"))
		}

		ticker := strings.ToUpper(field("ticker"))
		if ticker == "" {
			return nil, fmt.Errorf("csv line %d: missing ticker", line)
		}

		ts = append(ts, Transaction{
			Date:   date,
			Ticker: ticker,
			Action: strings.ToLower(field("action")),
			Shares: shares,
			Price:  price,
			Amount: amount,
			Notes:  field("notes"),
		})
	}
	return ts, nil
}

func parseCSVDate(raw string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", raw)
}
