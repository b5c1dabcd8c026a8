package domain

import "time"

// WithdrawalStatus represents withdrawal processing status
type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusRejected  WithdrawalStatus = "rejected"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s WithdrawalStatus) IsTerminal() bool {
	return s == WithdrawalStatusCompleted || s == WithdrawalStatusRejected || s == WithdrawalStatusFailed
}

// Withdrawal is a payout request reviewed by an admin.
type Withdrawal struct {
	ID          int64            `db:"id" json:"id"`
	AccountID   int64            `db:"account_id" json:"account_id"`
	Amount      int64            `db:"amount" json:"amount"`
	Method      string           `db:"method" json:"method"`
	Destination string           `db:"destination" json:"destination"`
	Status      WithdrawalStatus `db:"status" json:"status"`
	AdminNotes  string           `db:"admin_notes" json:"admin_notes,omitempty"`
	TxHash      string           `db:"tx_hash" json:"tx_hash,omitempty"`

	// Deducted/Refunded guard against double balance mutation
	Deducted bool `db:"deducted" json:"deducted"`
	Refunded bool `db:"refunded" json:"refunded"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
