package handlers

import (
	"errors"
	"net/http"

	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

type CreateWithdrawalRequest struct {
	Amount      int64  `json:"amount"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
}

// CreateWithdrawal submits a payout request into the review queue
func (h *Handler) CreateWithdrawal(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateWithdrawalRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}
	if req.Method == "" {
		req.Method = "lightning"
	}

	w, err := h.WithdrawalSvc.Create(c.Request.Context(), accountID, req.Amount, req.Method, req.Destination)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAmountTooSmall):
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount below minimum", "min": h.Cfg.MinWithdrawal})
		case errors.Is(err, service.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
		case errors.Is(err, service.ErrPendingExists):
			c.JSON(http.StatusConflict, gin.H{"error": "a pending withdrawal already exists"})
		case errors.Is(err, service.ErrAccountBanned):
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, w)
}

// WithdrawalHistory lists the account's withdrawals, newest first
func (h *Handler) WithdrawalHistory(c *gin.Context) {
	accountID, ok := getAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	list, err := h.Withdrawals.GetByAccount(c.Request.Context(), accountID, 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"withdrawals": list})
}
