package handlers

import (
	"lightning_sats/internal/config"
	"lightning_sats/internal/geo"
	"lightning_sats/internal/notify"
	"lightning_sats/internal/price"
	"lightning_sats/internal/repository"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Handler struct {
	DB       *pgxpool.Pool
	BotToken string

	Accounts    *repository.AccountRepository
	Earnings    *repository.EarningRepository
	Referrals   *repository.ReferralRepository
	Withdrawals *repository.WithdrawalRepository
	Countries   *repository.BlockedCountryRepository
	BanLogs     *repository.BanLogRepository

	Admins        *service.AdminDirectory
	Abuse         *service.AbuseService
	Rewards       *service.RewardService
	WithdrawalSvc *service.WithdrawalService
	Gate          *service.CountryGate

	Notifier *notify.Notifier
	Price    *price.Poller

	BotUsername string
	Cfg         *config.Config
}

func NewHandler(db *pgxpool.Pool, cfg *config.Config, notifier *notify.Notifier, pricePoller *price.Poller) *Handler {
	accounts := repository.NewAccountRepository(db)
	banLogs := repository.NewBanLogRepository(db)
	admins := service.NewAdminDirectory(cfg.AdminTelegramIDs)

	h := &Handler{
		DB:       db,
		BotToken: cfg.BotToken,

		Accounts:    accounts,
		Earnings:    repository.NewEarningRepository(db),
		Referrals:   repository.NewReferralRepository(db),
		Withdrawals: repository.NewWithdrawalRepository(db),
		Countries:   repository.NewBlockedCountryRepository(db),
		BanLogs:     banLogs,

		Admins:   admins,
		Notifier: notifier,
		Price:    pricePoller,

		BotUsername: cfg.BotUsername,
		Cfg:         cfg,
	}

	h.Abuse = service.NewAbuseService(accounts, banLogs, admins, notifier, cfg.FPAbuseThreshold, cfg.FPSelfRefThreshold)
	h.Rewards = service.NewRewardService(accounts, h.Earnings, h.Referrals, service.RewardConfig{
		PerAdReward:       cfg.PerAdReward,
		StreakBonus:       cfg.StreakBonus,
		DailyAdLimit:      cfg.DailyAdLimit,
		CommissionPercent: cfg.ReferralCommissionPercent,
		ReferralMinAds:    cfg.ReferralMinAds,
	})
	h.WithdrawalSvc = service.NewWithdrawalService(h.Withdrawals, accounts, notifier, cfg.MinWithdrawal)
	h.Gate = service.NewCountryGate(geo.NewClient(cfg.GeoAPIURL), h.Countries)

	return h
}

// getAccountID извлекает account_id из контекста Gin
func getAccountID(c *gin.Context) (int64, bool) {
	val, ok := c.Get("account_id")
	if !ok {
		return 0, false
	}
	switch v := val.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
