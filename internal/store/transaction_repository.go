package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// TransactionRepository owns all transaction table access.
type TransactionRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewTransactionRepository(db *database.DB, log *logger.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:     db,
		logger: log.WithField("module", "store"),
	}
}

// Add inserts one transaction and returns the stored record.
func (r *TransactionRepository) Add(ctx context.Context, t Transaction) (*Transaction, error) {
	query := `
		INSERT INTO transactions (portfolio_id, date, ticker, action, shares, price, amount, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		t.PortfolioID, t.Date, t.Ticker, t.Action, t.Shares, t.Price, t.Amount, t.Notes,
	).Scan(&t.ID)
	if err != nil {
		return nil, fmt.Errorf("add transaction: %w", err)
	}
	return &t, nil
}

// BulkInsert loads many transactions in one round trip. Used by the CSV
// import endpoint.
func (r *TransactionRepository) BulkInsert(ctx context.Context, portfolioID int64, ts Transactions) (int64, error) {
	if len(ts) == 0 {
		return 0, nil
	}

	rows := make([][]interface{}, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, []interface{}{
			portfolioID, t.Date, t.Ticker, t.Action, t.Shares, t.Price, t.Amount, t.Notes,
		})
	}

	copied, err := r.db.Pool.CopyFrom(ctx,
		pgx.Identifier{"transactions"},
		[]string{"portfolio_id", "date", "ticker", "action", "shares", "price", "amount", "notes"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("bulk insert transactions: %w", err)
	}
	return copied, nil
}

// Update replaces one transaction's fields and returns the stored
// record.
func (r *TransactionRepository) Update(ctx context.Context, t Transaction) (*Transaction, error) {
	query := `
		UPDATE transactions
		SET date = $1, ticker = $2, action = $3, shares = $4, price = $5, amount = $6, notes = $7
		WHERE id = $8 AND portfolio_id = $9
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		t.Date, t.Ticker, t.Action, t.Shares, t.Price, t.Amount, t.Notes, t.ID, t.PortfolioID)
	if err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return &t, nil
}

// List returns a portfolio's transactions ordered by date.
func (r *TransactionRepository) List(ctx context.Context, portfolioID int64) (Transactions, error) {
	query := `
		SELECT id, portfolio_id, date, ticker, action, shares, price, amount, notes
		FROM transactions
		WHERE portfolio_id = $1
		ORDER BY date ASC, id ASC
	`

	rows, err := r.db.Pool.Query(ctx, query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	ts := make(Transactions, 0)
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.PortfolioID, &t.Date, &t.Ticker, &t.Action,
			&t.Shares, &t.Price, &t.Amount, &t.Notes); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		ts = append(ts, t)
	}
	return ts, rows.Err()
}

// Delete removes one transaction from a portfolio.
func (r *TransactionRepository) Delete(ctx context.Context, portfolioID, id int64) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND portfolio_id = $2`, id, portfolioID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DistinctTickers returns every ticker referenced by any portfolio. The
// scheduler uses it to decide which price histories to refresh.
func (r *TransactionRepository) DistinctTickers(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT DISTINCT ticker FROM transactions ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("distinct tickers: %w", err)
	}
	defer rows.Close()

	tickers := make([]string, 0)
	for rows.Next() {
		var ticker string
		if err := rows.Scan(&ticker); err != nil {
			return nil, fmt.Errorf("scan ticker: %w", err)
		}
		tickers = append(tickers, ticker)
	}
	return tickers, rows.Err()
}
