package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"

	"lightning_sats/internal/logger"
	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

// countryChecker is satisfied by service.CountryGate
type countryChecker interface {
	CheckCountry(ctx context.Context, ip string) service.CountryDecision
}

// adminChecker is satisfied by service.AdminDirectory
type adminChecker interface {
	IsAdminTgID(tgID int64) bool
}

// CountryBlock denies top-level page loads from denylisted countries.
// API calls, metrics and static assets are never gated; administrators are
// never geo-blocked regardless of where they connect from. Any internal
// error fails open.
func CountryBlock(gate countryChecker, admins adminChecker, blockedPage string) gin.HandlerFunc {
	page, err := os.ReadFile(blockedPage)
	if err != nil {
		logger.Warn("blocked page not readable, using fallback", "path", blockedPage, "error", err)
		page = []byte("<html><body><h1>Service not available in your country</h1></body></html>")
	}

	return func(c *gin.Context) {
		if !isPageLoad(c.Request) {
			c.Next()
			return
		}

		if id, ok := adminIdentityFromRequest(c.Request); ok && admins.IsAdminTgID(id) {
			c.Next()
			return
		}

		ip := clientIP(c.Request)
		if ip == "" {
			c.Next()
			return
		}

		decision := gate.CheckCountry(c.Request.Context(), ip)
		if decision.VPNBypass {
			CountryVPNBypass.WithLabelValues(decision.Country).Inc()
		}
		if !decision.Blocked {
			c.Next()
			return
		}

		CountryBlocked.WithLabelValues(decision.Country).Inc()
		logger.Info("page load blocked by country gate", "ip", ip, "country", decision.Country)

		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusForbidden, "text/html; charset=utf-8", page)
		c.Abort()
	}
}

// isPageLoad filters to top-level document requests: not the API, not
// metrics or health probes, and not static assets with a file extension
func isPageLoad(r *http.Request) bool {
	p := r.URL.Path
	if r.Method != http.MethodGet {
		return false
	}
	if strings.HasPrefix(p, "/api/") || strings.HasPrefix(p, "/metrics") ||
		strings.HasPrefix(p, "/health") || p == "/healthz" || p == "/readyz" {
		return false
	}
	if ext := path.Ext(p); ext != "" && ext != ".html" {
		return false
	}
	return true
}

// adminIdentityFromRequest digs a Telegram user id out of the places a Mini
// App login can carry one: query-string init data, the referer hash fragment,
// or the custom headers the frontend sets after auth.
func adminIdentityFromRequest(r *http.Request) (int64, bool) {
	if raw := r.URL.Query().Get("tgWebAppData"); raw != "" {
		if id, ok := tgIDFromInitData(raw); ok {
			return id, true
		}
	}

	if ref := r.Header.Get("Referer"); ref != "" {
		if idx := strings.Index(ref, "tgWebAppData="); idx >= 0 {
			raw := ref[idx+len("tgWebAppData="):]
			if amp := strings.IndexAny(raw, "&#"); amp >= 0 {
				raw = raw[:amp]
			}
			if decoded, err := url.QueryUnescape(raw); err == nil {
				if id, ok := tgIDFromInitData(decoded); ok {
					return id, true
				}
			}
		}
	}

	if raw := r.Header.Get("X-Telegram-Init-Data"); raw != "" {
		if id, ok := tgIDFromInitData(raw); ok {
			return id, true
		}
	}

	if raw := r.Header.Get("X-Cached-User"); raw != "" {
		var u struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(raw), &u); err == nil && u.ID != 0 {
			return u.ID, true
		}
	}

	return 0, false
}

func tgIDFromInitData(initData string) (int64, bool) {
	values, err := url.ParseQuery(initData)
	if err != nil {
		return 0, false
	}
	userJSON := values.Get("user")
	if userJSON == "" {
		return 0, false
	}
	var u struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal([]byte(userJSON), &u); err != nil || u.ID == 0 {
		return 0, false
	}
	return u.ID, true
}

// clientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if rip := r.Header.Get("X-Real-IP"); rip != "" {
		return strings.TrimSpace(rip)
	}
	host := r.RemoteAddr
	if idx := strings.LastIndex(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return strings.Trim(host, "[]")
}
