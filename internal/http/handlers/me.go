package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Me returns the authenticated account's profile and balances
func (h *Handler) Me(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	acct, err := h.Accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if acct == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	if acct.IsBanned {
		c.JSON(http.StatusForbidden, gin.H{"error": "account banned", "reason": acct.BanReason})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                acct.ID,
		"tg_id":             acct.TgID,
		"username":          acct.Username,
		"first_name":        acct.FirstName,
		"referral_code":     acct.ReferralCode,
		"balance":           acct.Balance,
		"total_earned":      acct.TotalEarned,
		"ads_watched_total": acct.AdsWatchedTotal,
		"ads_watched_today": acct.AdsWatchedToday,
		"daily_ad_limit":    h.Cfg.DailyAdLimit,
		"streak_count":      acct.StreakCount,
		"last_streak_date":  acct.LastStreakDate,
		"created_at":        acct.CreatedAt,
	})
}

// EarningHistory returns the account's recent earning history
func (h *Handler) EarningHistory(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	earnings, err := h.Earnings.GetByAccount(c.Request.Context(), accountID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"earnings": earnings})
}
