package http

import (
	"os"
	"strconv"
	"time"

	"lightning_sats/internal/config"
	"lightning_sats/internal/http/handlers"
	"lightning_sats/internal/http/middleware"
	"lightning_sats/internal/notify"
	"lightning_sats/internal/price"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func RegisterRoutes(r *gin.Engine, db *pgxpool.Pool, cfg *config.Config, notifier *notify.Notifier, pricePoller *price.Poller) *handlers.Handler {
	h := handlers.NewHandler(db, cfg, notifier, pricePoller)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute

	adRateLimit := 10
	if v := os.Getenv("AD_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			adRateLimit = n
		}
	}
	adRateWindow := time.Minute

	// Health checks (no rate limiting)
	r.GET("/health", h.Health)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/readyz", h.Health)

	api := r.Group("/api/v1")
	api.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth
	api.POST("/auth", middleware.RedisRateLimit(authRateLimit, authRateWindow), h.Auth)

	// Profile
	api.GET("/me", middleware.JWT(), h.Me)
	api.GET("/me/earnings", middleware.JWT(), h.EarningHistory)

	// Earning actions
	adRL := middleware.RedisRateLimit(adRateLimit, adRateWindow)
	api.POST("/ads/watch", middleware.JWT(), adRL, h.WatchAd)
	api.POST("/streak/claim", middleware.JWT(), h.ClaimStreak)

	// Referral system
	referral := api.Group("/referral")
	referral.Use(middleware.JWT())
	{
		referral.GET("/info", h.ReferralInfo)
		referral.GET("/list", h.ReferralList)
		referral.POST("/apply", h.ApplyReferral)
	}

	// Withdrawals
	api.POST("/withdrawals", middleware.JWT(), h.CreateWithdrawal)
	api.GET("/withdrawals", middleware.JWT(), h.WithdrawalHistory)

	// Exchange rate (public)
	api.GET("/rate", h.Rate)

	// Admin
	admin := api.Group("/admin")
	admin.Use(middleware.JWT(), h.RequireAdmin())
	{
		admin.GET("/withdrawals", h.AdminPendingWithdrawals)
		admin.POST("/withdrawals/:id/complete", h.AdminCompleteWithdrawal)
		admin.POST("/withdrawals/:id/reject", h.AdminRejectWithdrawal)
		admin.POST("/withdrawals/:id/fail", h.AdminFailWithdrawal)

		admin.POST("/accounts/:id/ban", h.AdminBanAccount)
		admin.POST("/accounts/:id/unban", h.AdminUnbanAccount)
		admin.GET("/ban-logs", h.AdminBanLogs)

		admin.GET("/countries", h.AdminListCountries)
		admin.POST("/countries", h.AdminBlockCountry)
		admin.DELETE("/countries/:code", h.AdminUnblockCountry)
	}

	return h
}
