package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus a database ping
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.DB.Ping(ctx); err != nil {
		dbStatus = "unavailable"
	}

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{"status": "ok", "db": dbStatus})
}

// Rate returns the cached BTC/USD exchange rate
func (h *Handler) Rate(c *gin.Context) {
	rate, updatedAt := h.Price.Rate()
	if rate == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate not available yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"btc_usd":      rate,
		"sats_per_usd": 1e8 / rate,
		"updated_at":   updatedAt,
	})
}
