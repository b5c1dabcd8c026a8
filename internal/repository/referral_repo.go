package repository

import (
	"context"
	"crypto/rand"
	"encoding/hex"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ReferralStats is the profile-screen summary for a referrer
type ReferralStats struct {
	TotalReferrals  int   `json:"total_referrals"`
	ActiveReferrals int   `json:"active_referrals"`
	NewReferrals30  int   `json:"new_referrals_30"`
	TotalEarned     int64 `json:"total_earned"`
	Earned30        int64 `json:"earned_30"`
}

type ReferralRepository struct {
	db *pgxpool.Pool
}

func NewReferralRepository(db *pgxpool.Pool) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// GenerateReferralCode generates a random personal code
func GenerateReferralCode() string {
	bytes := make([]byte, 6)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// Create records a referrer -> referred relationship. The unique index on
// referred_id makes a second referral for the same account a no-op.
func (r *ReferralRepository) Create(ctx context.Context, referrerID, referredID int64) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO referrals (referrer_id, referred_id, status)
		VALUES ($1, $2, 'pending')
		ON CONFLICT (referred_id) DO NOTHING
	`, referrerID, referredID)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, `
		UPDATE accounts SET referred_by = $1 WHERE id = $2 AND referred_by IS NULL
	`, referrerID, referredID)
	return err
}

// GetByReferredID returns the referral row owning this referred account, or nil
func (r *ReferralRepository) GetByReferredID(ctx context.Context, referredID int64) (*domain.Referral, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, referrer_id, referred_id, reward_amount, status, created_at
		FROM referrals WHERE referred_id = $1
	`, referredID)

	var ref domain.Referral
	if err := row.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.RewardAmount, &ref.Status, &ref.CreatedAt); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &ref, nil
}

// MarkCompleted flips a pending referral to completed once the referred
// account has cleared the anti-fraud threshold
func (r *ReferralRepository) MarkCompleted(ctx context.Context, referralID int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE referrals SET status = 'completed' WHERE id = $1 AND status = 'pending'
	`, referralID)
	return err
}

// AddReward accumulates commission paid out through this referral
func (r *ReferralRepository) AddReward(ctx context.Context, referralID int64, amount int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE referrals SET reward_amount = reward_amount + $2 WHERE id = $1
	`, referralID, amount)
	return err
}

// GetByReferrer returns all referrals made by an account, newest first
func (r *ReferralRepository) GetByReferrer(ctx context.Context, referrerID int64) ([]domain.Referral, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, referrer_id, referred_id, reward_amount, status, created_at
		FROM referrals
		WHERE referrer_id = $1
		ORDER BY created_at DESC
	`, referrerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var referrals []domain.Referral
	for rows.Next() {
		var ref domain.Referral
		if err := rows.Scan(&ref.ID, &ref.ReferrerID, &ref.ReferredID, &ref.RewardAmount, &ref.Status, &ref.CreatedAt); err != nil {
			return nil, err
		}
		referrals = append(referrals, ref)
	}
	return referrals, rows.Err()
}

// GetStats aggregates the referrer's program numbers shown in the profile
func (r *ReferralRepository) GetStats(ctx context.Context, referrerID int64) (*ReferralStats, error) {
	stats := &ReferralStats{}

	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE a.ads_watched_total > 0),
		       COUNT(*) FILTER (WHERE r.created_at >= NOW() - INTERVAL '30 days')
		FROM referrals r
		JOIN accounts a ON a.id = r.referred_id
		WHERE r.referrer_id = $1
	`, referrerID).Scan(&stats.TotalReferrals, &stats.ActiveReferrals, &stats.NewReferrals30)
	if err != nil {
		return nil, err
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount), 0),
		       COALESCE(SUM(amount) FILTER (WHERE created_at >= NOW() - INTERVAL '30 days'), 0)
		FROM earnings
		WHERE account_id = $1 AND source = 'referral_commission'
	`, referrerID).Scan(&stats.TotalEarned, &stats.Earned30)
	if err != nil {
		return nil, err
	}

	return stats, nil
}
