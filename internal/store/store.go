package store

import (
	"errors"
	"time"

	"github.com/folioapp/folio/backend/internal/analytics"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different user.
var ErrNotFound = errors.New("record not found")

// Portfolio is one named transaction ledger owned by a user.
type Portfolio struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Transaction is a stored ledger row.
type Transaction struct {
	ID          int64     `json:"id"`
	PortfolioID int64     `json:"portfolio_id"`
	Date        time.Time `json:"date"`
	Ticker      string    `json:"ticker"`
	Action      string    `json:"action"`
	Shares      float64   `json:"shares"`
	Price       float64   `json:"price"`
	Amount      float64   `json:"amount"`
	Notes       string    `json:"notes,omitempty"`
}

// Transactions is a portfolio's stored history.
type Transactions []Transaction

// Ledger converts stored rows into the analytics ledger shape.
func (ts Transactions) Ledger() analytics.Ledger {
	ledger := make(analytics.Ledger, 0, len(ts))
	for _, t := range ts {
		ledger = append(ledger, analytics.Transaction{
			Date:   t.Date,
			Ticker: t.Ticker,
			Action: analytics.ParseAction(t.Action),
			Shares: t.Shares,
			Price:  t.Price,
			Amount: t.Amount,
			Notes:  t.Notes,
		})
	}
	return ledger
}
