package repository

import (
	"context"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BanLogRepository persists the append-only ban audit trail
type BanLogRepository struct {
	db *pgxpool.Pool
}

func NewBanLogRepository(db *pgxpool.Pool) *BanLogRepository {
	return &BanLogRepository{db: db}
}

// Create inserts one audit row. Rows are never updated or deleted.
func (r *BanLogRepository) Create(ctx context.Context, log *domain.BanLog) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO ban_logs (account_id, referral_code, ip, device_id, user_agent,
		                      fp_user_agent, fp_platform, fp_language, fp_screen_resolution, fp_timezone,
		                      reason, ban_type, actor_id, related_account_ids, unban)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id, created_at
	`, log.AccountID, log.ReferralCode, log.IP, log.DeviceID, log.UserAgent,
		log.Fingerprint.UserAgent, log.Fingerprint.Platform, log.Fingerprint.Language,
		log.Fingerprint.ScreenResolution, log.Fingerprint.Timezone,
		log.Reason, log.Type, log.ActorID, log.RelatedAccountIDs, log.Unban,
	).Scan(&log.ID, &log.CreatedAt)
}

// GetByAccountID returns the audit trail for one account, newest first
func (r *BanLogRepository) GetByAccountID(ctx context.Context, accountID int64, limit int) ([]domain.BanLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, COALESCE(referral_code, ''), COALESCE(ip, ''), COALESCE(device_id, ''),
		       COALESCE(user_agent, ''),
		       COALESCE(fp_user_agent, ''), COALESCE(fp_platform, ''), COALESCE(fp_language, ''),
		       COALESCE(fp_screen_resolution, ''), COALESCE(fp_timezone, ''),
		       reason, ban_type, actor_id, related_account_ids, unban, created_at
		FROM ban_logs
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanLogs(rows)
}

// GetRecent returns the most recent audit rows across all accounts
func (r *BanLogRepository) GetRecent(ctx context.Context, limit int) ([]domain.BanLog, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, account_id, COALESCE(referral_code, ''), COALESCE(ip, ''), COALESCE(device_id, ''),
		       COALESCE(user_agent, ''),
		       COALESCE(fp_user_agent, ''), COALESCE(fp_platform, ''), COALESCE(fp_language, ''),
		       COALESCE(fp_screen_resolution, ''), COALESCE(fp_timezone, ''),
		       reason, ban_type, actor_id, related_account_ids, unban, created_at
		FROM ban_logs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBanLogs(rows)
}

func scanBanLogs(rows pgx.Rows) ([]domain.BanLog, error) {
	var logs []domain.BanLog
	for rows.Next() {
		var l domain.BanLog
		if err := rows.Scan(
			&l.ID, &l.AccountID, &l.ReferralCode, &l.IP, &l.DeviceID, &l.UserAgent,
			&l.Fingerprint.UserAgent, &l.Fingerprint.Platform, &l.Fingerprint.Language,
			&l.Fingerprint.ScreenResolution, &l.Fingerprint.Timezone,
			&l.Reason, &l.Type, &l.ActorID, &l.RelatedAccountIDs, &l.Unban, &l.CreatedAt,
		); err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
