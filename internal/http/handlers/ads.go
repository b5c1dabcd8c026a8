package handlers

import (
	"errors"
	"net/http"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

type WatchAdRequest struct {
	DeviceID string `json:"device_id"`
}

// WatchAd credits one rewarded ad view. Before crediting, the device is
// re-checked for multiple active earners; a detected pattern bans on the spot.
func (h *Handler) WatchAd(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req WatchAdRequest
	_ = c.BindJSON(&req) // device_id опционален, берём из аккаунта

	ctx := c.Request.Context()
	abuse := h.Abuse.DetectAdWatchingAbuse(ctx, accountID, req.DeviceID)
	if abuse.IsAbuse && abuse.ShouldBan {
		info := domain.DeviceInfo{
			DeviceID:  req.DeviceID,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		}
		_ = h.Abuse.BanForMultipleAccounts(ctx, accountID, abuse.Reason, info, abuse.RelatedAccountIDs)
		c.JSON(http.StatusForbidden, gin.H{"error": abuse.Reason})
		return
	}

	result, err := h.Rewards.WatchAd(ctx, accountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrDailyLimitReached):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "daily ad limit reached"})
		case errors.Is(err, service.ErrAccountBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to credit ad"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ClaimStreak claims the daily login streak bonus
func (h *Handler) ClaimStreak(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.Rewards.ClaimStreak(c.Request.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStreakClaimed):
			c.JSON(http.StatusConflict, gin.H{"error": "streak already claimed today"})
		case errors.Is(err, service.ErrAccountBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		case errors.Is(err, service.ErrAccountNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to claim streak"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
