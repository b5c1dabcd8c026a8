package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"lightning_sats/internal/domain"
)

func rewardsForTest(accounts *memAccounts) (*RewardService, *memEarnings, *memReferrals) {
	earnings := &memEarnings{}
	referrals := newMemReferrals()
	svc := NewRewardService(accounts, earnings, referrals, RewardConfig{
		PerAdReward:       24,
		StreakBonus:       200,
		DailyAdLimit:      250,
		CommissionPercent: 10,
		ReferralMinAds:    1,
	})
	return svc, earnings, referrals
}

func TestWatchAd_CreditsReward(t *testing.T) {
	acct := testAccount(1, 100, "dev-1", time.Now())
	accounts := newMemAccounts(acct)
	svc, earnings, _ := rewardsForTest(accounts)

	res, err := svc.WatchAd(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.Credited != 24 {
		t.Fatalf("credited = %d, want 24", res.Credited)
	}
	if acct.Balance != 24 || acct.TotalEarned != 24 {
		t.Fatalf("balance/total = %d/%d, want 24/24", acct.Balance, acct.TotalEarned)
	}
	if acct.AdsWatchedToday != 1 || acct.AdsWatchedTotal != 1 {
		t.Fatalf("counters = %d/%d, want 1/1", acct.AdsWatchedToday, acct.AdsWatchedTotal)
	}
	rows := earnings.bySource(domain.EarningSourceAdWatch)
	if len(rows) != 1 || rows[0].Amount != 24 {
		t.Fatalf("unexpected earning rows: %+v", rows)
	}
}

func TestWatchAd_DailyLimit(t *testing.T) {
	now := time.Now()
	acct := testAccount(1, 100, "dev-1", now)
	acct.AdsWatchedToday = 250
	acct.LastAdAt = &now
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	if _, err := svc.WatchAd(context.Background(), 1); !errors.Is(err, ErrDailyLimitReached) {
		t.Fatalf("want ErrDailyLimitReached, got %v", err)
	}
}

func TestWatchAd_DailyCounterResetsNextDay(t *testing.T) {
	yesterday := time.Now().Add(-25 * time.Hour)
	acct := testAccount(1, 100, "dev-1", yesterday)
	acct.AdsWatchedToday = 250
	acct.LastAdAt = &yesterday
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	res, err := svc.WatchAd(context.Background(), 1)
	if err != nil {
		t.Fatalf("counter should reset on a new day: %v", err)
	}
	if res.AdsToday != 1 {
		t.Fatalf("ads today = %d, want 1", res.AdsToday)
	}
	if acct.AdsWatchedToday != 1 {
		t.Fatalf("stored daily counter = %d, want 1", acct.AdsWatchedToday)
	}
}

func TestWatchAd_BannedAccountRejected(t *testing.T) {
	acct := testAccount(1, 100, "dev-1", time.Now())
	acct.IsBanned = true
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	if _, err := svc.WatchAd(context.Background(), 1); !errors.Is(err, ErrAccountBanned) {
		t.Fatalf("want ErrAccountBanned, got %v", err)
	}
}

func TestWatchAd_PaysReferralCommission(t *testing.T) {
	referrer := testAccount(1, 100, "dev-a", time.Now())
	referee := testAccount(2, 200, "dev-b", time.Now())
	referrerID := int64(1)
	referee.ReferredBy = &referrerID
	accounts := newMemAccounts(referrer, referee)
	svc, earnings, referrals := rewardsForTest(accounts)
	_ = referrals.Create(context.Background(), 1, 2)

	if _, err := svc.WatchAd(context.Background(), 2); err != nil {
		t.Fatal(err)
	}

	// 10% of 24 sats, rounded down
	if referrer.Balance != 2 {
		t.Fatalf("referrer balance = %d, want 2", referrer.Balance)
	}
	rows := earnings.bySource(domain.EarningSourceReferralCommission)
	if len(rows) != 1 || rows[0].AccountID != 1 {
		t.Fatalf("unexpected commission rows: %+v", rows)
	}
	if rows[0].RefAccountID == nil || *rows[0].RefAccountID != 2 {
		t.Fatal("commission row missing ref account")
	}

	ref, _ := referrals.GetByReferredID(context.Background(), 2)
	if ref.RewardAmount != 2 {
		t.Fatalf("referral reward = %d, want 2", ref.RewardAmount)
	}
	if ref.Status != domain.ReferralStatusCompleted {
		t.Fatalf("referral should complete after the first ad, status = %s", ref.Status)
	}
}

func TestWatchAd_NoCommissionWithoutReferrer(t *testing.T) {
	acct := testAccount(1, 100, "dev-1", time.Now())
	svc, earnings, _ := rewardsForTest(newMemAccounts(acct))

	if _, err := svc.WatchAd(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if rows := earnings.bySource(domain.EarningSourceReferralCommission); len(rows) != 0 {
		t.Fatalf("unexpected commission: %+v", rows)
	}
}

func TestClaimStreak_FirstClaim(t *testing.T) {
	acct := testAccount(1, 100, "dev-1", time.Now())
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	res, err := svc.ClaimStreak(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StreakCount != 1 || res.Credited != 200 {
		t.Fatalf("got %+v, want count 1 credited 200", res)
	}
	if acct.Balance != 200 {
		t.Fatalf("balance = %d, want 200", acct.Balance)
	}
}

func TestClaimStreak_ConsecutiveDaysIncrement(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	acct := testAccount(1, 100, "dev-1", time.Now())
	acct.StreakCount = 6
	acct.LastStreakDate = &yesterday
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	res, err := svc.ClaimStreak(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StreakCount != 7 {
		t.Fatalf("streak = %d, want 7", res.StreakCount)
	}
}

func TestClaimStreak_SameDayRejected(t *testing.T) {
	today := time.Now()
	acct := testAccount(1, 100, "dev-1", today)
	acct.StreakCount = 3
	acct.LastStreakDate = &today
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	if _, err := svc.ClaimStreak(context.Background(), 1); !errors.Is(err, ErrStreakClaimed) {
		t.Fatalf("want ErrStreakClaimed, got %v", err)
	}
}

func TestClaimStreak_GapResetsToOne(t *testing.T) {
	threeDaysAgo := time.Now().UTC().AddDate(0, 0, -3)
	acct := testAccount(1, 100, "dev-1", time.Now())
	acct.StreakCount = 14
	acct.LastStreakDate = &threeDaysAgo
	svc, _, _ := rewardsForTest(newMemAccounts(acct))

	res, err := svc.ClaimStreak(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StreakCount != 1 {
		t.Fatalf("streak after gap = %d, want 1", res.StreakCount)
	}
}

func TestClaimStreak_MidnightBoundary(t *testing.T) {
	// 23:50 yesterday -> 00:10 today counts as consecutive days
	yesterday := time.Date(2026, 8, 25, 23, 50, 0, 0, time.UTC)
	today := time.Date(2026, 8, 26, 0, 10, 0, 0, time.UTC)

	acct := testAccount(1, 100, "dev-1", yesterday)
	acct.StreakCount = 2
	acct.LastStreakDate = &yesterday

	svc, _, _ := rewardsForTest(newMemAccounts(acct))
	svc.now = func() time.Time { return today }

	res, err := svc.ClaimStreak(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if res.StreakCount != 3 {
		t.Fatalf("streak across midnight = %d, want 3", res.StreakCount)
	}
}

func TestStreakCommissionPaid(t *testing.T) {
	referrer := testAccount(1, 100, "dev-a", time.Now())
	referee := testAccount(2, 200, "dev-b", time.Now())
	referrerID := int64(1)
	referee.ReferredBy = &referrerID
	svc, _, _ := rewardsForTest(newMemAccounts(referrer, referee))

	if _, err := svc.ClaimStreak(context.Background(), 2); err != nil {
		t.Fatal(err)
	}
	// 10% of the 200 sat bonus
	if referrer.Balance != 20 {
		t.Fatalf("referrer balance = %d, want 20", referrer.Balance)
	}
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b time.Time
		want int
	}{
		{time.Date(2026, 8, 25, 23, 59, 0, 0, time.UTC), time.Date(2026, 8, 26, 0, 1, 0, 0, time.UTC), 1},
		{time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), time.Date(2026, 8, 26, 23, 59, 0, 0, time.UTC), 0},
		{time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC), time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC), 6},
	}
	for _, c := range cases {
		if got := daysBetween(c.a, c.b); got != c.want {
			t.Errorf("daysBetween(%v, %v) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
