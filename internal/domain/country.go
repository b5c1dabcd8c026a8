package domain

import "time"

// BlockedCountry is a denylist entry checked on page loads.
type BlockedCountry struct {
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
