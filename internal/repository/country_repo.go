package repository

import (
	"context"
	"errors"
	"strings"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BlockedCountryRepository stores the country denylist
type BlockedCountryRepository struct {
	db *pgxpool.Pool
}

func NewBlockedCountryRepository(db *pgxpool.Pool) *BlockedCountryRepository {
	return &BlockedCountryRepository{db: db}
}

// IsBlocked checks whether a country code is on the denylist
func (r *BlockedCountryRepository) IsBlocked(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM blocked_countries WHERE code = $1)
	`, strings.ToUpper(code)).Scan(&exists)
	return exists, err
}

func (r *BlockedCountryRepository) List(ctx context.Context) ([]domain.BlockedCountry, error) {
	rows, err := r.db.Query(ctx, `
		SELECT code, COALESCE(name, ''), created_at FROM blocked_countries ORDER BY code ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []domain.BlockedCountry
	for rows.Next() {
		var c domain.BlockedCountry
		if err := rows.Scan(&c.Code, &c.Name, &c.CreatedAt); err != nil {
			return nil, err
		}
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

func (r *BlockedCountryRepository) Add(ctx context.Context, code, name string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO blocked_countries (code, name) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (code) DO NOTHING
	`, strings.ToUpper(code), name)
	return err
}

func (r *BlockedCountryRepository) Remove(ctx context.Context, code string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM blocked_countries WHERE code = $1`, strings.ToUpper(code))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
