package repository

import (
	"context"
	"errors"
	"time"

	"lightning_sats/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

const accountColumns = `id, tg_id, COALESCE(username, ''), COALESCE(first_name, ''), referral_code,
	balance, total_earned, ads_watched_total, ads_watched_today, last_ad_at,
	streak_count, last_streak_date,
	is_banned, COALESCE(ban_reason, ''), banned_at, is_primary, is_admin,
	COALESCE(device_id, ''),
	COALESCE(fp_user_agent, ''), COALESCE(fp_platform, ''), COALESCE(fp_language, ''),
	COALESCE(fp_screen_resolution, ''), COALESCE(fp_timezone, ''),
	COALESCE(last_login_ip, ''), COALESCE(last_login_device, ''), COALESCE(last_login_user_agent, ''),
	last_login_at, referred_by, created_at`

type AccountRepository struct {
	db *pgxpool.Pool
}

func NewAccountRepository(db *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{db: db}
}

// GetByID returns the account or nil when it does not exist
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// GetByTgID returns the account by telegram id or nil when it does not exist
func (r *AccountRepository) GetByTgID(ctx context.Context, tgID int64) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE tg_id = $1`, tgID)
	return scanAccount(row)
}

// GetByReferralCode returns the account owning a referral code or nil
func (r *AccountRepository) GetByReferralCode(ctx context.Context, code string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE referral_code = $1`, code)
	return scanAccount(row)
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) error {
	return r.db.QueryRow(ctx, `
		INSERT INTO accounts (tg_id, username, first_name, referral_code, device_id,
		                      fp_user_agent, fp_platform, fp_language, fp_screen_resolution, fp_timezone,
		                      last_login_ip, last_login_device, last_login_user_agent, last_login_at, referred_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), $14)
		RETURNING id, created_at
	`, a.TgID, a.Username, a.FirstName, a.ReferralCode, nullIfEmpty(a.DeviceID),
		nullIfEmpty(a.Fingerprint.UserAgent), nullIfEmpty(a.Fingerprint.Platform), nullIfEmpty(a.Fingerprint.Language),
		nullIfEmpty(a.Fingerprint.ScreenResolution), nullIfEmpty(a.Fingerprint.Timezone),
		nullIfEmpty(a.LastLoginIP), nullIfEmpty(a.LastLoginDevice), nullIfEmpty(a.LastLoginUserAgent),
		a.ReferredBy,
	).Scan(&a.ID, &a.CreatedAt)
}

// FindByDeviceID returns all accounts registered on the exact device id
func (r *AccountRepository) FindByDeviceID(ctx context.Context, deviceID string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE device_id = $1 ORDER BY created_at ASC`,
		deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// FindByLastLoginIP returns all accounts whose last login came from the exact IP
func (r *AccountRepository) FindByLastLoginIP(ctx context.Context, ip string) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE last_login_ip = $1 ORDER BY created_at ASC`,
		ip)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// UpdateLoginMeta refreshes device/fingerprint/IP metadata on a returning login
func (r *AccountRepository) UpdateLoginMeta(ctx context.Context, id int64, info domain.DeviceInfo) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			device_id = COALESCE(NULLIF($2, ''), device_id),
			fp_user_agent = COALESCE(NULLIF($3, ''), fp_user_agent),
			fp_platform = COALESCE(NULLIF($4, ''), fp_platform),
			fp_language = COALESCE(NULLIF($5, ''), fp_language),
			fp_screen_resolution = COALESCE(NULLIF($6, ''), fp_screen_resolution),
			fp_timezone = COALESCE(NULLIF($7, ''), fp_timezone),
			last_login_ip = COALESCE(NULLIF($8, ''), last_login_ip),
			last_login_device = COALESCE(NULLIF($2, ''), last_login_device),
			last_login_user_agent = COALESCE(NULLIF($9, ''), last_login_user_agent),
			last_login_at = NOW()
		WHERE id = $1
	`, id, info.DeviceID,
		info.Fingerprint.UserAgent, info.Fingerprint.Platform, info.Fingerprint.Language,
		info.Fingerprint.ScreenResolution, info.Fingerprint.Timezone,
		info.IP, info.UserAgent)
	return err
}

// SetBanned marks the account banned. banned_at is preserved when the account
// was already banned so the original ban time survives re-bans.
func (r *AccountRepository) SetBanned(ctx context.Context, id int64, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts
		SET is_banned = true, ban_reason = $2, banned_at = COALESCE(banned_at, NOW()), is_primary = false
		WHERE id = $1
	`, id, reason)
	return err
}

func (r *AccountRepository) SetUnbanned(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET is_banned = false, ban_reason = NULL, banned_at = NULL WHERE id = $1
	`, id)
	return err
}

func (r *AccountRepository) SetPrimary(ctx context.Context, id int64, primary bool) error {
	_, err := r.db.Exec(ctx, `UPDATE accounts SET is_primary = $2 WHERE id = $1`, id, primary)
	return err
}

// Credit adds an earning to balance and lifetime total
func (r *AccountRepository) Credit(ctx context.Context, id int64, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1, total_earned = total_earned + $1
		WHERE id = $2
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// Debit subtracts from balance, refusing to go negative
func (r *AccountRepository) Debit(ctx context.Context, id int64, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx, `
		UPDATE accounts SET balance = balance - $1
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`, amount, id).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return 0, ErrInsufficientFunds
	}
	return newBalance, err
}

// Refund returns a previously deducted amount to balance without touching
// the lifetime earned total
func (r *AccountRepository) Refund(ctx context.Context, id int64, amount int64) (int64, error) {
	var newBalance int64
	err := r.db.QueryRow(ctx, `
		UPDATE accounts SET balance = balance + $1 WHERE id = $2 RETURNING balance
	`, amount, id).Scan(&newBalance)
	return newBalance, err
}

// RecordAdWatch credits one ad reward and bumps the counters. resetDay starts
// a fresh daily counter when the previous ad was watched on an earlier day.
func (r *AccountRepository) RecordAdWatch(ctx context.Context, id int64, reward int64, resetDay bool) error {
	daily := "ads_watched_today + 1"
	if resetDay {
		daily = "1"
	}
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET
			balance = balance + $2,
			total_earned = total_earned + $2,
			ads_watched_total = ads_watched_total + 1,
			ads_watched_today = `+daily+`,
			last_ad_at = NOW()
		WHERE id = $1
	`, id, reward)
	return err
}

func (r *AccountRepository) UpdateStreak(ctx context.Context, id int64, count int, date time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE accounts SET streak_count = $2, last_streak_date = $3 WHERE id = $1
	`, id, count, date)
	return err
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a, err := scanAccountRow(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanAccountRow(row pgx.Row) (*domain.Account, error) {
	var a domain.Account
	if err := row.Scan(
		&a.ID, &a.TgID, &a.Username, &a.FirstName, &a.ReferralCode,
		&a.Balance, &a.TotalEarned, &a.AdsWatchedTotal, &a.AdsWatchedToday, &a.LastAdAt,
		&a.StreakCount, &a.LastStreakDate,
		&a.IsBanned, &a.BanReason, &a.BannedAt, &a.IsPrimary, &a.IsAdmin,
		&a.DeviceID,
		&a.Fingerprint.UserAgent, &a.Fingerprint.Platform, &a.Fingerprint.Language,
		&a.Fingerprint.ScreenResolution, &a.Fingerprint.Timezone,
		&a.LastLoginIP, &a.LastLoginDevice, &a.LastLoginUserAgent,
		&a.LastLoginAt, &a.ReferredBy, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAccounts(rows pgx.Rows) ([]domain.Account, error) {
	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccountRow(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
