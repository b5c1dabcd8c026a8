package handlers

import (
	"net/http"

	"lightning_sats/internal/domain"

	"github.com/gin-gonic/gin"
)

// ReferralInfo returns the account's personal code, invite link and stats
func (h *Handler) ReferralInfo(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	ctx := c.Request.Context()
	acct, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil || acct == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	stats, err := h.Referrals.GetStats(ctx, accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "stats lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"referral_code": acct.ReferralCode,
		"invite_link":   "https://t.me/" + h.BotUsername + "?start=" + acct.ReferralCode,
		"stats":         stats,
	})
}

// ReferralList returns the accounts this user has referred
func (h *Handler) ReferralList(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	refs, err := h.Referrals.GetByReferrer(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"referrals": refs})
}

type ApplyReferralRequest struct {
	Code     string `json:"code"`
	DeviceID string `json:"device_id"`
}

// ApplyReferral binds an existing account to a referrer's code. Rejected once
// a referrer is already set; a self-referral flag bans both sides of the link.
func (h *Handler) ApplyReferral(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req ApplyReferralRequest
	if err := c.BindJSON(&req); err != nil || req.Code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	ctx := c.Request.Context()
	acct, err := h.Accounts.GetByID(ctx, accountID)
	if err != nil || acct == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if acct.ReferredBy != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "referrer already set"})
		return
	}
	if acct.ReferralCode == req.Code {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot use your own code"})
		return
	}

	info := domain.DeviceInfo{
		DeviceID:  req.DeviceID,
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	selfRef := h.Abuse.DetectSelfReferral(ctx, accountID, req.Code, info)
	if selfRef.IsSelfReferral {
		if selfRef.ShouldBan {
			_ = h.Abuse.BanForMultipleAccounts(ctx, accountID, selfRef.Reason, info, []int64{selfRef.ReferrerID})
		}
		c.JSON(http.StatusForbidden, gin.H{"error": selfRef.Reason})
		return
	}

	referrer, err := h.Accounts.GetByReferralCode(ctx, req.Code)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if referrer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown referral code"})
		return
	}

	if err := h.Referrals.Create(ctx, referrer.ID, accountID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply code"})
		return
	}

	h.Notifier.Send(referrer.TgID, "👥 A new referral just joined with your link!")
	c.JSON(http.StatusOK, gin.H{"status": "applied", "referrer_id": referrer.ID})
}
