package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lightning_sats/internal/domain"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

// RequireAdmin gates a route group to administrator accounts. Runs after JWT().
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, ok := getAccountID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		acct, err := h.Accounts.GetByID(c.Request.Context(), accountID)
		if err != nil || acct == nil || !h.Admins.IsAdminAccount(acct) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin only"})
			return
		}
		c.Set("admin_account", acct)
		c.Next()
	}
}

func adminActor(c *gin.Context) *domain.Account {
	if v, ok := c.Get("admin_account"); ok {
		if acct, ok := v.(*domain.Account); ok {
			return acct
		}
	}
	return nil
}

// AdminPendingWithdrawals lists the review queue
func (h *Handler) AdminPendingWithdrawals(c *gin.Context) {
	list, err := h.Withdrawals.GetPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}

type ResolveWithdrawalRequest struct {
	TxHash string `json:"tx_hash"`
	Notes  string `json:"notes"`
}

// AdminCompleteWithdrawal marks a withdrawal paid and debits the balance
func (h *Handler) AdminCompleteWithdrawal(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return
	}

	var req ResolveWithdrawalRequest
	_ = c.BindJSON(&req)

	if err := h.WithdrawalSvc.Complete(c.Request.Context(), id, req.TxHash); err != nil {
		writeWithdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "completed"})
}

// AdminRejectWithdrawal declines a withdrawal, refunding if needed
func (h *Handler) AdminRejectWithdrawal(c *gin.Context) {
	h.adminDecline(c, h.WithdrawalSvc.Reject, "rejected")
}

// AdminFailWithdrawal marks a payout attempt as failed
func (h *Handler) AdminFailWithdrawal(c *gin.Context) {
	h.adminDecline(c, h.WithdrawalSvc.Fail, "failed")
}

func (h *Handler) adminDecline(c *gin.Context, fn func(ctx context.Context, id int64, notes string) error, status string) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return
	}

	var req ResolveWithdrawalRequest
	_ = c.BindJSON(&req)

	if err := fn(c.Request.Context(), id, req.Notes); err != nil {
		writeWithdrawalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func writeWithdrawalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWithdrawalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "withdrawal not found"})
	case errors.Is(err, service.ErrWithdrawalProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "withdrawal already processed"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

type BanRequest struct {
	Reason string `json:"reason"`
}

// AdminBanAccount applies a manual ban
func (h *Handler) AdminBanAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return
	}

	var req BanRequest
	_ = c.BindJSON(&req)
	if req.Reason == "" {
		req.Reason = "banned by admin"
	}

	actor := adminActor(c)
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}

	err = h.Abuse.ManualBan(c.Request.Context(), id, req.Reason, actorID, domain.DeviceInfo{IP: c.ClientIP()})
	if err != nil {
		if errors.Is(err, service.ErrCannotBanAdmin) {
			c.JSON(http.StatusForbidden, gin.H{"error": "cannot ban an administrator"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "banned"})
}

// AdminUnbanAccount lifts a ban
func (h *Handler) AdminUnbanAccount(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad id"})
		return
	}

	actor := adminActor(c)
	var actorID int64
	if actor != nil {
		actorID = actor.ID
	}

	if err := h.Abuse.ManualUnban(c.Request.Context(), id, actorID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unbanned"})
}

// AdminBanLogs returns recent ban audit rows
func (h *Handler) AdminBanLogs(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	logs, err := h.BanLogs.GetRecent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ban_logs": logs})
}

// AdminListCountries returns the country denylist
func (h *Handler) AdminListCountries(c *gin.Context) {
	list, err := h.Countries.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": list})
}

type CountryRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// AdminBlockCountry adds a country to the denylist
func (h *Handler) AdminBlockCountry(c *gin.Context) {
	var req CountryRequest
	if err := c.BindJSON(&req); err != nil || len(req.Code) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "two-letter country code required"})
		return
	}
	req.Code = strings.ToUpper(req.Code)

	if err := h.Countries.Add(c.Request.Context(), req.Code, req.Name); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add country"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "blocked", "code": req.Code})
}

// AdminUnblockCountry removes a country from the denylist
func (h *Handler) AdminUnblockCountry(c *gin.Context) {
	code := strings.ToUpper(c.Param("code"))
	if len(code) != 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "two-letter country code required"})
		return
	}

	if err := h.Countries.Remove(c.Request.Context(), code); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove country"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unblocked", "code": code})
}
