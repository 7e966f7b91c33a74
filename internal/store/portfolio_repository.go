package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/folioapp/folio/backend/pkg/database"
	"github.com/folioapp/folio/backend/pkg/logger"
)

// PortfolioRepository owns all portfolio table access. Every query is
// scoped by user id so one user can never read another's portfolio.
type PortfolioRepository struct {
	db     *database.DB
	logger *logger.Logger
}

func NewPortfolioRepository(db *database.DB, log *logger.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:     db,
		logger: log.WithField("module", "store"),
	}
}

// Create inserts a portfolio for the user and returns the stored record.
func (r *PortfolioRepository) Create(ctx context.Context, userID, name string) (*Portfolio, error) {
	query := `
		INSERT INTO portfolios (user_id, name)
		VALUES ($1, $2)
		RETURNING id, user_id, name, created_at, updated_at
	`

	var p Portfolio
	err := r.db.Pool.QueryRow(ctx, query, userID, name).Scan(
		&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create portfolio: %w", err)
	}
	return &p, nil
}

// GetByID retrieves one portfolio owned by the user.
func (r *PortfolioRepository) GetByID(ctx context.Context, id int64, userID string) (*Portfolio, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM portfolios
		WHERE id = $1 AND user_id = $2
	`

	var p Portfolio
	err := r.db.Pool.QueryRow(ctx, query, id, userID).Scan(
		&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get portfolio: %w", err)
	}
	return &p, nil
}

// List returns the user's portfolios, newest first.
func (r *PortfolioRepository) List(ctx context.Context, userID string) ([]Portfolio, error) {
	query := `
		SELECT id, user_id, name, created_at, updated_at
		FROM portfolios
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list portfolios: %w", err)
	}
	defer rows.Close()

	portfolios := make([]Portfolio, 0)
	for rows.Next() {
		var p Portfolio
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan portfolio: %w", err)
		}
		portfolios = append(portfolios, p)
	}
	return portfolios, rows.Err()
}

// Rename updates the portfolio name.
func (r *PortfolioRepository) Rename(ctx context.Context, id int64, userID, name string) (*Portfolio, error) {
	query := `
		UPDATE portfolios
		SET name = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2
		RETURNING id, user_id, name, created_at, updated_at
	`

	var p Portfolio
	err := r.db.Pool.QueryRow(ctx, query, id, userID, name).Scan(
		&p.ID, &p.UserID, &p.Name, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("rename portfolio: %w", err)
	}
	return &p, nil
}

// Delete removes a portfolio and, via cascade, its transactions.
func (r *PortfolioRepository) Delete(ctx context.Context, id int64, userID string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`DELETE FROM portfolios WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete portfolio: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
