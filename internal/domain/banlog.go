package domain

import "time"

// BanType distinguishes heuristic bans from admin-issued ones
type BanType string

const (
	BanTypeAutomatic BanType = "automatic"
	BanTypeManual    BanType = "manual"
)

// BanLog is an append-only audit record of a ban or unban action.
type BanLog struct {
	ID                int64             `db:"id" json:"id"`
	AccountID         int64             `db:"account_id" json:"account_id"`
	ReferralCode      string            `db:"referral_code" json:"referral_code,omitempty"`
	IP                string            `db:"ip" json:"ip,omitempty"`
	DeviceID          string            `db:"device_id" json:"device_id,omitempty"`
	UserAgent         string            `db:"user_agent" json:"user_agent,omitempty"`
	Fingerprint       DeviceFingerprint `json:"fingerprint,omitempty"`
	Reason            string            `db:"reason" json:"reason"`
	Type              BanType           `db:"ban_type" json:"ban_type"`
	ActorID           *int64            `db:"actor_id" json:"actor_id,omitempty"`
	RelatedAccountIDs []int64           `db:"related_account_ids" json:"related_account_ids,omitempty"`
	Unban             bool              `db:"unban" json:"unban"`
	CreatedAt         time.Time         `db:"created_at" json:"created_at"`
}
