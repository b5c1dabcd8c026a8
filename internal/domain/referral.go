package domain

import "time"

// ReferralStatus represents referral completion state
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusCompleted ReferralStatus = "completed"
)

// Referral is a directed referrer -> referred relationship.
// At most one row exists per referred account.
type Referral struct {
	ID           int64          `db:"id" json:"id"`
	ReferrerID   int64          `db:"referrer_id" json:"referrer_id"`
	ReferredID   int64          `db:"referred_id" json:"referred_id"`
	RewardAmount int64          `db:"reward_amount" json:"reward_amount"`
	Status       ReferralStatus `db:"status" json:"status"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
}
