package domain

import "time"

// EarningSource identifies what produced an earning row
type EarningSource string

const (
	EarningSourceAdWatch            EarningSource = "ad_watch"
	EarningSourceStreak             EarningSource = "streak"
	EarningSourceReferralCommission EarningSource = "referral_commission"
)

// Earning is one credit applied to an account's balance.
type Earning struct {
	ID        int64         `db:"id" json:"id"`
	AccountID int64         `db:"account_id" json:"account_id"`
	Amount    int64         `db:"amount" json:"amount"`
	Source    EarningSource `db:"source" json:"source"`
	// RefAccountID points at the referred account for commission rows
	RefAccountID *int64    `db:"ref_account_id" json:"ref_account_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
