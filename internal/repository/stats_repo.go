package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PlatformStats is the aggregate snapshot shown to administrators
type PlatformStats struct {
	TotalAccounts    int64
	ActiveToday      int64
	BannedAccounts   int64
	AdsWatchedTotal  int64
	AdsWatchedToday  int64
	TotalEarned      int64
	TotalBalance     int64
	PendingWithdraws int64
	PendingAmount    int64
	TotalPaidOut     int64
}

type StatsRepository struct {
	db *pgxpool.Pool
}

func NewStatsRepository(db *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{db: db}
}

func (r *StatsRepository) GetPlatformStats(ctx context.Context) (*PlatformStats, error) {
	var s PlatformStats

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE last_login_at >= CURRENT_DATE),
			COUNT(*) FILTER (WHERE is_banned),
			COALESCE(SUM(ads_watched_total), 0),
			COALESCE(SUM(ads_watched_today) FILTER (WHERE last_ad_at >= CURRENT_DATE), 0),
			COALESCE(SUM(total_earned), 0),
			COALESCE(SUM(balance), 0)
		FROM accounts`).Scan(
		&s.TotalAccounts, &s.ActiveToday, &s.BannedAccounts,
		&s.AdsWatchedTotal, &s.AdsWatchedToday, &s.TotalEarned, &s.TotalBalance,
	)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'pending'),
			COALESCE(SUM(amount) FILTER (WHERE status = 'pending'), 0),
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0)
		FROM withdrawals`).Scan(
		&s.PendingWithdraws, &s.PendingAmount, &s.TotalPaidOut,
	)
	if err != nil {
		return nil, err
	}

	return &s, nil
}
