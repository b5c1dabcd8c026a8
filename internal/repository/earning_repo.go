package repository

import (
	"context"
	"time"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EarningRepository struct {
	db *pgxpool.Pool
}

func NewEarningRepository(db *pgxpool.Pool) *EarningRepository {
	return &EarningRepository{db: db}
}

func (r *EarningRepository) Create(ctx context.Context, e *domain.Earning) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO earnings (account_id, amount, source, ref_account_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.AccountID, e.Amount, e.Source, e.RefAccountID).Scan(&e.ID, &e.CreatedAt)
}

// GetByAccount returns recent earnings for an account, newest first
func (r *EarningRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]domain.Earning, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, amount, source, ref_account_id, created_at
		FROM earnings
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEarnings(rows)
}

// SumSince returns the total credited to an account since a point in time
func (r *EarningRepository) SumSince(ctx context.Context, accountID int64, since time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0) FROM earnings WHERE account_id = $1 AND created_at >= $2
	`, accountID, since).Scan(&total)
	return total, err
}

func scanEarnings(rows pgx.Rows) ([]domain.Earning, error) {
	var earnings []domain.Earning
	for rows.Next() {
		var e domain.Earning
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Source, &e.RefAccountID, &e.CreatedAt); err != nil {
			return nil, err
		}
		earnings = append(earnings, e)
	}
	return earnings, rows.Err()
}
