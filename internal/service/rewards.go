package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/logger"
)

var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountBanned     = errors.New("account is banned")
	ErrDailyLimitReached = errors.New("daily ad limit reached")
	ErrStreakClaimed     = errors.New("streak already claimed today")
)

// RewardConfig holds the product-tunable reward rates
type RewardConfig struct {
	PerAdReward       int64
	StreakBonus       int64
	DailyAdLimit      int
	CommissionPercent int
	ReferralMinAds    int
}

// WatchAdResult is returned to the client after a credited ad view
type WatchAdResult struct {
	Credited   int64 `json:"credited"`
	AdsToday   int   `json:"ads_today"`
	Balance    int64 `json:"balance"`
	DailyLimit int   `json:"daily_limit"`
}

// StreakResult is returned after a streak claim
type StreakResult struct {
	StreakCount int   `json:"streak_count"`
	Credited    int64 `json:"credited"`
}

// RewardService credits fixed-rate events: ad views, streak claims, and the
// referral commission that rides on both. Daily counters reset lazily on the
// first event of a new calendar day; there is no scheduled job.
type RewardService struct {
	accounts  AccountStore
	earnings  EarningStore
	referrals ReferralStore
	cfg       RewardConfig
	log       *slog.Logger

	now func() time.Time
}

func NewRewardService(accounts AccountStore, earnings EarningStore, referrals ReferralStore, cfg RewardConfig) *RewardService {
	return &RewardService{
		accounts:  accounts,
		earnings:  earnings,
		referrals: referrals,
		cfg:       cfg,
		log:       logger.With("component", "rewards"),
		now:       time.Now,
	}
}

// WatchAd credits one ad view, subject to the per-day ceiling
func (s *RewardService) WatchAd(ctx context.Context, accountID int64) (*WatchAdResult, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if acct.IsBanned {
		return nil, ErrAccountBanned
	}

	now := s.now()
	sameDay := acct.LastAdAt != nil && sameCalendarDay(*acct.LastAdAt, now)
	if sameDay && acct.AdsWatchedToday >= s.cfg.DailyAdLimit {
		return nil, ErrDailyLimitReached
	}

	if err := s.accounts.RecordAdWatch(ctx, accountID, s.cfg.PerAdReward, !sameDay); err != nil {
		return nil, err
	}

	if err := s.earnings.Create(ctx, &domain.Earning{
		AccountID: accountID,
		Amount:    s.cfg.PerAdReward,
		Source:    domain.EarningSourceAdWatch,
	}); err != nil {
		s.log.Error("earning insert failed", "account_id", accountID, "error", err)
	}

	s.payCommission(ctx, acct, s.cfg.PerAdReward)
	s.completeReferralIfEligible(ctx, acct)

	adsToday := 1
	if sameDay {
		adsToday = acct.AdsWatchedToday + 1
	}

	return &WatchAdResult{
		Credited:   s.cfg.PerAdReward,
		AdsToday:   adsToday,
		Balance:    acct.Balance + s.cfg.PerAdReward,
		DailyLimit: s.cfg.DailyAdLimit,
	}, nil
}

// ClaimStreak advances or resets the daily login streak.
// Same day: rejected. Next day: streak+1. A gap resets the streak to 1.
// Every successful claim credits the streak bonus.
func (s *RewardService) ClaimStreak(ctx context.Context, accountID int64) (*StreakResult, error) {
	acct, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, ErrAccountNotFound
	}
	if acct.IsBanned {
		return nil, ErrAccountBanned
	}

	now := s.now()
	count := 1
	if acct.LastStreakDate != nil {
		switch daysBetween(*acct.LastStreakDate, now) {
		case 0:
			return nil, ErrStreakClaimed
		case 1:
			count = acct.StreakCount + 1
		}
	}

	if err := s.accounts.UpdateStreak(ctx, accountID, count, now); err != nil {
		return nil, err
	}
	if _, err := s.accounts.Credit(ctx, accountID, s.cfg.StreakBonus); err != nil {
		return nil, err
	}

	if err := s.earnings.Create(ctx, &domain.Earning{
		AccountID: accountID,
		Amount:    s.cfg.StreakBonus,
		Source:    domain.EarningSourceStreak,
	}); err != nil {
		s.log.Error("earning insert failed", "account_id", accountID, "error", err)
	}

	s.payCommission(ctx, acct, s.cfg.StreakBonus)

	return &StreakResult{StreakCount: count, Credited: s.cfg.StreakBonus}, nil
}

// payCommission credits the referrer a percentage of a non-referral earning.
// Commission earnings themselves never produce further commission, which
// keeps the chain one level deep.
func (s *RewardService) payCommission(ctx context.Context, earner *domain.Account, amount int64) {
	if earner.ReferredBy == nil {
		return
	}

	commission := amount * int64(s.cfg.CommissionPercent) / 100
	if commission <= 0 {
		return
	}

	referrerID := *earner.ReferredBy
	if _, err := s.accounts.Credit(ctx, referrerID, commission); err != nil {
		s.log.Error("commission credit failed", "referrer_id", referrerID, "error", err)
		return
	}

	if err := s.earnings.Create(ctx, &domain.Earning{
		AccountID:    referrerID,
		Amount:       commission,
		Source:       domain.EarningSourceReferralCommission,
		RefAccountID: &earner.ID,
	}); err != nil {
		s.log.Error("commission earning insert failed", "referrer_id", referrerID, "error", err)
	}

	ref, err := s.referrals.GetByReferredID(ctx, earner.ID)
	if err != nil || ref == nil {
		return
	}
	if err := s.referrals.AddReward(ctx, ref.ID, commission); err != nil {
		s.log.Warn("referral reward update failed", "referral_id", ref.ID, "error", err)
	}
}

// completeReferralIfEligible flips a pending referral to completed once the
// referred account has watched enough ads to clear the anti-fraud threshold
func (s *RewardService) completeReferralIfEligible(ctx context.Context, earner *domain.Account) {
	if earner.ReferredBy == nil {
		return
	}
	if earner.AdsWatchedTotal+1 < int64(s.cfg.ReferralMinAds) {
		return
	}

	ref, err := s.referrals.GetByReferredID(ctx, earner.ID)
	if err != nil || ref == nil || ref.Status != domain.ReferralStatusPending {
		return
	}
	if err := s.referrals.MarkCompleted(ctx, ref.ID); err != nil {
		s.log.Warn("referral completion failed", "referral_id", ref.ID, "error", err)
	}
}

func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}

// daysBetween counts calendar days from a to b (0 = same day)
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	start := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	end := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start) / (24 * time.Hour))
}
