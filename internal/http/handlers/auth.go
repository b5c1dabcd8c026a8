package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/repository"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	InitData     string                   `json:"init_data"`
	DeviceID     string                   `json:"device_id"`
	Fingerprint  domain.DeviceFingerprint `json:"fingerprint"`
	ReferralCode string                   `json:"referral_code"`
}

// Auth validates Telegram init data, upserts the account and runs the device
// heuristics. A banned or newly detected duplicate account gets a 403.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	if len(req.InitData) > 4096 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data too long"})
		return
	}

	values, ok := service.ValidateTelegramInitData(req.InitData, h.BotToken)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or stale telegram data"})
		return
	}

	userRaw := values.Get("user")
	if userRaw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user not found"})
		return
	}

	userValues, _ := url.ParseQuery("user=" + userRaw)
	userJSON := userValues.Get("user")

	var tgUser struct {
		ID        int64  `json:"id"`
		Username  string `json:"username"`
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal([]byte(userJSON), &tgUser); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user json"})
		return
	}

	info := domain.DeviceInfo{
		DeviceID:    req.DeviceID,
		Fingerprint: req.Fingerprint,
		IP:          c.ClientIP(),
		UserAgent:   c.Request.UserAgent(),
	}

	ctx := c.Request.Context()
	acct, err := h.Accounts.GetByTgID(ctx, tgUser.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	if acct != nil {
		if acct.IsBanned {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned", "reason": acct.BanReason})
			return
		}

		result := h.Abuse.ValidateDeviceAndDetectDuplicate(ctx, tgUser.ID, info, acct.ID)
		if !result.IsValid {
			if result.ShouldBan {
				_ = h.Abuse.BanForMultipleAccounts(ctx, acct.ID, result.Reason, info, result.DuplicateAccountIDs)
				c.JSON(http.StatusForbidden, gin.H{"error": result.Reason})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": result.Reason})
			return
		}

		h.respondWithToken(c, acct)
		return
	}

	// New identity: run the heuristics before the account exists
	result := h.Abuse.ValidateDeviceAndDetectDuplicate(ctx, tgUser.ID, info, 0)
	if !result.IsValid && !result.ShouldBan {
		c.JSON(http.StatusBadRequest, gin.H{"error": result.Reason})
		return
	}

	acct = &domain.Account{
		TgID:        tgUser.ID,
		Username:    tgUser.Username,
		FirstName:   tgUser.FirstName,
		DeviceID:    req.DeviceID,
		Fingerprint: req.Fingerprint,
		LastLoginIP: info.IP,

		LastLoginDevice:    req.DeviceID,
		LastLoginUserAgent: info.UserAgent,
	}
	if err := h.createWithCode(c, acct); err != nil {
		return
	}

	if !result.IsValid {
		// device/network already owned by another identity
		_ = h.Abuse.BanForMultipleAccounts(ctx, acct.ID, result.Reason, info, result.DuplicateAccountIDs)
		c.JSON(http.StatusForbidden, gin.H{"error": result.Reason})
		return
	}

	if req.ReferralCode != "" {
		h.applyReferralOnSignup(c, acct, req.ReferralCode, info)
		if c.IsAborted() {
			return
		}
	}

	h.respondWithToken(c, acct)
}

// createWithCode inserts the account, retrying the random personal code on a
// unique-index collision
func (h *Handler) createWithCode(c *gin.Context, acct *domain.Account) error {
	ctx := c.Request.Context()
	var err error
	for i := 0; i < 5; i++ {
		acct.ReferralCode = repository.GenerateReferralCode()
		if err = h.Accounts.Create(ctx, acct); err == nil {
			return nil
		}
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create account"})
	c.Abort()
	return err
}

func (h *Handler) applyReferralOnSignup(c *gin.Context, acct *domain.Account, code string, info domain.DeviceInfo) {
	ctx := c.Request.Context()

	selfRef := h.Abuse.DetectSelfReferral(ctx, acct.ID, code, info)
	if selfRef.IsSelfReferral {
		if selfRef.ShouldBan {
			_ = h.Abuse.BanForMultipleAccounts(ctx, acct.ID, selfRef.Reason, info, []int64{selfRef.ReferrerID})
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": selfRef.Reason})
		}
		return
	}

	referrer, err := h.Accounts.GetByReferralCode(ctx, code)
	if err != nil || referrer == nil || referrer.ID == acct.ID {
		return // unknown code is not an error at signup
	}

	if err := h.Referrals.Create(ctx, referrer.ID, acct.ID); err == nil {
		h.Notifier.Send(referrer.TgID, "👥 A new referral just joined with your link!")
	}
}

func (h *Handler) respondWithToken(c *gin.Context, acct *domain.Account) {
	token, err := service.GenerateJWT(acct.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"account": gin.H{
			"id":            acct.ID,
			"tg_id":         acct.TgID,
			"username":      acct.Username,
			"first_name":    acct.FirstName,
			"referral_code": acct.ReferralCode,
			"balance":       acct.Balance,
			"streak_count":  acct.StreakCount,
		},
	})
}
