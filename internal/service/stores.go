package service

import (
	"context"
	"time"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/geo"
)

// Store interfaces consumed by the services. The pgx repositories in
// internal/repository satisfy them; tests substitute in-memory fakes.

type AccountStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.Account, error)
	GetByReferralCode(ctx context.Context, code string) (*domain.Account, error)
	FindByDeviceID(ctx context.Context, deviceID string) ([]domain.Account, error)
	FindByLastLoginIP(ctx context.Context, ip string) ([]domain.Account, error)
	UpdateLoginMeta(ctx context.Context, id int64, info domain.DeviceInfo) error
	SetBanned(ctx context.Context, id int64, reason string) error
	SetUnbanned(ctx context.Context, id int64) error
	Credit(ctx context.Context, id int64, amount int64) (int64, error)
	Debit(ctx context.Context, id int64, amount int64) (int64, error)
	Refund(ctx context.Context, id int64, amount int64) (int64, error)
	RecordAdWatch(ctx context.Context, id int64, reward int64, resetDay bool) error
	UpdateStreak(ctx context.Context, id int64, count int, date time.Time) error
}

type BanLogStore interface {
	Create(ctx context.Context, log *domain.BanLog) error
}

type EarningStore interface {
	Create(ctx context.Context, e *domain.Earning) error
}

type ReferralStore interface {
	Create(ctx context.Context, referrerID, referredID int64) error
	GetByReferredID(ctx context.Context, referredID int64) (*domain.Referral, error)
	MarkCompleted(ctx context.Context, referralID int64) error
	AddReward(ctx context.Context, referralID int64, amount int64) error
}

type WithdrawalStore interface {
	GetByID(ctx context.Context, id int64) (*domain.Withdrawal, error)
	Create(ctx context.Context, w *domain.Withdrawal) error
	MarkCompleted(ctx context.Context, id int64, txHash string) (bool, error)
	MarkRejected(ctx context.Context, id int64, notes string) (bool, error)
	MarkFailed(ctx context.Context, id int64, notes string) (bool, error)
	MarkRefunded(ctx context.Context, id int64) (bool, error)
	HasPending(ctx context.Context, accountID int64) (bool, error)
}

type CountryList interface {
	IsBlocked(ctx context.Context, code string) (bool, error)
}

type GeoLookup interface {
	Lookup(ctx context.Context, ip string) (*geo.Info, error)
}

// Notifier is the fire-and-forget messaging collaborator
type Notifier interface {
	Send(chatID int64, text string)
	NotifyAdmins(text string)
}
