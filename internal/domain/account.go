package domain

import "time"

type Account struct {
	ID           int64  `db:"id" json:"id"`
	TgID         int64  `db:"tg_id" json:"tg_id"`
	Username     string `db:"username" json:"username"`
	FirstName    string `db:"first_name" json:"first_name"`
	ReferralCode string `db:"referral_code" json:"referral_code"`

	// Balances are integer sats
	Balance     int64 `db:"balance" json:"balance"`
	TotalEarned int64 `db:"total_earned" json:"total_earned"`

	AdsWatchedTotal int64      `db:"ads_watched_total" json:"ads_watched_total"`
	AdsWatchedToday int        `db:"ads_watched_today" json:"ads_watched_today"`
	LastAdAt        *time.Time `db:"last_ad_at" json:"last_ad_at,omitempty"`

	StreakCount    int        `db:"streak_count" json:"streak_count"`
	LastStreakDate *time.Time `db:"last_streak_date" json:"last_streak_date,omitempty"`

	IsBanned  bool       `db:"is_banned" json:"is_banned"`
	BanReason string     `db:"ban_reason" json:"ban_reason,omitempty"`
	BannedAt  *time.Time `db:"banned_at" json:"banned_at,omitempty"`

	// IsPrimary marks the account kept when duplicates are banned
	IsPrimary bool `db:"is_primary" json:"is_primary"`
	IsAdmin   bool `db:"is_admin" json:"is_admin"`

	DeviceID    string            `db:"device_id" json:"device_id,omitempty"`
	Fingerprint DeviceFingerprint `json:"fingerprint,omitempty"`

	LastLoginIP        string     `db:"last_login_ip" json:"last_login_ip,omitempty"`
	LastLoginDevice    string     `db:"last_login_device" json:"last_login_device,omitempty"`
	LastLoginUserAgent string     `db:"last_login_user_agent" json:"last_login_user_agent,omitempty"`
	LastLoginAt        *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`

	ReferredBy *int64    `db:"referred_by" json:"referred_by,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// LoginInfo reconstructs the device metadata from the last stored login
func (a *Account) LoginInfo() DeviceInfo {
	return DeviceInfo{
		DeviceID:    a.DeviceID,
		Fingerprint: a.Fingerprint,
		IP:          a.LastLoginIP,
		UserAgent:   a.LastLoginUserAgent,
	}
}

// DeviceInfo is the device metadata carried by a login or action event.
type DeviceInfo struct {
	DeviceID    string            `json:"device_id"`
	Fingerprint DeviceFingerprint `json:"fingerprint,omitempty"`
	IP          string            `json:"ip,omitempty"`
	UserAgent   string            `json:"user_agent,omitempty"`
}
