package analytics

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Action is the side of a trade.
type Action string

const (
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// ParseAction normalizes a raw action string. Anything that is not a buy
// is treated as a sell, matching how imported ledgers are interpreted.
func ParseAction(raw string) Action {
	if strings.EqualFold(strings.TrimSpace(raw), string(ActionBuy)) {
		return ActionBuy
	}
	return ActionSell
}

// Transaction is a single dated buy or sell record in a ledger.
//
// Amount is the ledger-reported notional for the trade. It is tracked
// independently of Shares*Price because imported data may carry rounding
// or fee adjustments; invested-capital figures use Amount, position
// figures use Shares and Price.
type Transaction struct {
	Date   time.Time `json:"date"`
	Ticker string    `json:"ticker"`
	Action Action    `json:"action"`
	Shares float64   `json:"shares"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	Notes  string    `json:"notes"`
}

// SignedShares returns the share delta of the transaction: positive for
// buys, negative for sells.
func (t Transaction) SignedShares() float64 {
	if t.Action == ActionBuy {
		return t.Shares
	}
	return -t.Shares
}

// Ledger is the ordered-by-date transaction history of one portfolio.
// Engines never mutate a ledger they are given.
type Ledger []Transaction

// Sorted returns a copy of the ledger ordered by date. The sort is stable
// so same-day transactions keep their original order.
func (l Ledger) Sorted() Ledger {
	out := make(Ledger, len(l))
	copy(out, l)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// NetShares returns the cumulative signed share count per ticker,
// including tickers that net to zero.
func (l Ledger) NetShares() map[string]float64 {
	net := make(map[string]float64)
	for _, t := range l {
		net[t.Ticker] += t.SignedShares()
	}
	return net
}

// Holdings returns per-ticker net shares with flat positions removed.
// A ticker that nets to exactly zero is not a current holding even
// though its buys still count toward invested capital.
func (l Ledger) Holdings() map[string]float64 {
	net := l.NetShares()
	for ticker, shares := range net {
		if shares == 0 {
			delete(net, ticker)
		}
	}
	return net
}

// PositiveHoldings returns per-ticker net shares restricted to strictly
// positive positions. Short and flat positions are excluded.
func (l Ledger) PositiveHoldings() map[string]float64 {
	net := l.NetShares()
	for ticker, shares := range net {
		if shares <= 0 {
			delete(net, ticker)
		}
	}
	return net
}

// TotalInvested sums the reported Amount of every transaction whose
// signed share delta is positive.
func (l Ledger) TotalInvested() float64 {
	var total float64
	for _, t := range l {
		if t.SignedShares() > 0 {
			total += t.Amount
		}
	}
	return total
}

// DateRange returns the first and last transaction dates. ok is false for
// an empty ledger.
func (l Ledger) DateRange() (first, last time.Time, ok bool) {
	if len(l) == 0 {
		return time.Time{}, time.Time{}, false
	}
	first, last = l[0].Date, l[0].Date
	for _, t := range l[1:] {
		if t.Date.Before(first) {
			first = t.Date
		}
		if t.Date.After(last) {
			last = t.Date
		}
	}
	return first, last, true
}

// Tickers returns the distinct tickers in the ledger, sorted.
func (l Ledger) Tickers() []string {
	seen := make(map[string]struct{})
	for _, t := range l {
		seen[t.Ticker] = struct{}{}
	}
	tickers := make([]string, 0, len(seen))
	for ticker := range seen {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

// Clean drops rows whose date, ticker, shares or price are unusable.
// Rows are kept as-is otherwise; sells unmatched by prior buys are not
// corrected here so that data-quality issues stay visible downstream.
func (l Ledger) Clean() Ledger {
	out := make(Ledger, 0, len(l))
	for _, t := range l {
		if t.Date.IsZero() || t.Ticker == "" {
			continue
		}
		if math.IsNaN(t.Shares) || math.IsNaN(t.Price) {
			continue
		}
		out = append(out, t)
	}
	return out
}
