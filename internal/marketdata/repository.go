package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// PriceRepository persists daily closes and serves them back as an
// Oracle. Monthly granularity is derived in SQL as the last stored close
// of each calendar month, so the scheduler only ever writes daily rows.
type PriceRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewPriceRepository(db *database.DB, log *logger.Logger) *PriceRepository {
	return &PriceRepository{
		db:     db,
		logger: log.WithField("module", "marketdata"),
	}
}

// SaveCloses upserts all observations in the series and reports how many
// rows were written.
func (r *PriceRepository) SaveCloses(ctx context.Context, series Series) (int64, error) {
	batch := &pgx.Batch{}
	for ticker, prices := range series {
		for _, p := range prices {
			if p.Close <= 0 {
				continue
			}
			batch.Queue(`
				INSERT INTO prices (ticker, date, close)
				VALUES ($1, $2, $3)
				ON CONFLICT (ticker, date) DO UPDATE SET close = EXCLUDED.close`,
				ticker, p.Date, p.Close)
		}
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	var written int64
	for i := 0; i < batch.Len(); i++ {
		tag, err := results.Exec()
		if err != nil {
			return written, fmt.Errorf("save closes: %w", err)
		}
		written += tag.RowsAffected()
	}
	return written, nil
}

// Fetch implements Oracle over the stored closes.
func (r *PriceRepository) Fetch(ctx context.Context, tickers []string, from, to time.Time, granularity Granularity) (Series, error) {
	if len(tickers) == 0 {
		return Series{}, nil
	}

	query := `
		SELECT ticker, date, close
		FROM prices
		WHERE ticker = ANY($1) AND date >= $2 AND date <= $3
		ORDER BY ticker, date`
	if granularity == Monthly {
		query = `
			SELECT DISTINCT ON (ticker, date_trunc('month', date))
				ticker, date, close
			FROM prices
			WHERE ticker = ANY($1) AND date >= $2 AND date <= $3
			ORDER BY ticker, date_trunc('month', date), date DESC`
	}

	rows, err := r.db.Pool.Query(ctx, query, tickers, from, to)
	if err != nil {
		return nil, fmt.Errorf("query closes: %w", err)
	}
	defer rows.Close()

	series := make(Series, len(tickers))
	for rows.Next() {
		var ticker string
		var p Price
		if err := rows.Scan(&ticker, &p.Date, &p.Close); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		series[ticker] = append(series[ticker], p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read closes: %w", err)
	}
	return series, nil
}

// LatestDate returns the most recent stored close date for a ticker; ok
// is false when the ticker has no rows. The scheduler uses it to fetch
// only the missing tail.
func (r *PriceRepository) LatestDate(ctx context.Context, ticker string) (time.Time, bool, error) {
	var date time.Time
	err := r.db.Pool.QueryRow(ctx,
		`SELECT date FROM prices WHERE ticker = $1 ORDER BY date DESC LIMIT 1`, ticker).Scan(&date)
	if errors.Is(err, pgx.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("latest close date: %w", err)
	}
	return date, true, nil
}
