package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"lightning_sats/internal/service"

	"github.com/gin-gonic/gin"
)

type stubGate struct {
	decision service.CountryDecision
	calls    int
}

func (s *stubGate) CheckCountry(_ context.Context, _ string) service.CountryDecision {
	s.calls++
	return s.decision
}

type stubAdmins struct {
	ids map[int64]bool
}

func (s *stubAdmins) IsAdminTgID(id int64) bool { return s.ids[id] }

func newGateRouter(gate *stubGate, admins *stubAdmins) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	if admins == nil {
		admins = &stubAdmins{}
	}
	r.Use(CountryBlock(gate, admins, "no-such-page.html"))
	r.GET("/", func(c *gin.Context) { c.String(200, "index") })
	r.GET("/api/v1/me", func(c *gin.Context) { c.String(200, "me") })
	r.GET("/app.js", func(c *gin.Context) { c.String(200, "js") })
	return r
}

func TestCountryBlock_BlockedPageLoad(t *testing.T) {
	gate := &stubGate{decision: service.CountryDecision{Blocked: true, Country: "RU"}}
	r := newGateRouter(gate, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	if !strings.Contains(w.Body.String(), "not available") {
		t.Fatalf("fallback page not served: %q", w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("Cache-Control = %q", cc)
	}
}

func TestCountryBlock_AllowedCountryPasses(t *testing.T) {
	gate := &stubGate{}
	r := newGateRouter(gate, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK || w.Body.String() != "index" {
		t.Fatalf("allowed request blocked: %d %q", w.Code, w.Body.String())
	}
}

func TestCountryBlock_APIAndAssetsNotGated(t *testing.T) {
	gate := &stubGate{decision: service.CountryDecision{Blocked: true, Country: "RU"}}
	r := newGateRouter(gate, nil)

	for _, path := range []string{"/api/v1/me", "/app.js"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", path, nil)
		req.Header.Set("X-Forwarded-For", "203.0.113.7")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s gated: %d", path, w.Code)
		}
	}
	if gate.calls != 0 {
		t.Fatalf("gate consulted for non-page requests: %d", gate.calls)
	}
}

func TestCountryBlock_AdminBypassesGeoBlock(t *testing.T) {
	gate := &stubGate{decision: service.CountryDecision{Blocked: true, Country: "RU"}}
	admins := &stubAdmins{ids: map[int64]bool{777: true}}
	r := newGateRouter(gate, admins)

	initData := url.Values{"user": {`{"id":777}`}}.Encode()
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/?tgWebAppData="+url.QueryEscape(initData), nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("admin was geo-blocked: %d", w.Code)
	}
}

func TestCountryBlock_AdminIdentityFromHeader(t *testing.T) {
	gate := &stubGate{decision: service.CountryDecision{Blocked: true, Country: "RU"}}
	admins := &stubAdmins{ids: map[int64]bool{777: true}}
	r := newGateRouter(gate, admins)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Cached-User", `{"id":777}`)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("admin header identity was geo-blocked: %d", w.Code)
	}
}

func TestCountryBlock_NonAdminIdentityStillBlocked(t *testing.T) {
	gate := &stubGate{decision: service.CountryDecision{Blocked: true, Country: "RU"}}
	admins := &stubAdmins{ids: map[int64]bool{777: true}}
	r := newGateRouter(gate, admins)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	req.Header.Set("X-Cached-User", `{"id":555}`)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("non-admin identity bypassed the gate: %d", w.Code)
	}
}

func TestClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.2")

	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("clientIP = %q", got)
	}

	req.Header.Del("X-Forwarded-For")
	req.Header.Set("X-Real-IP", "203.0.113.8")
	if got := clientIP(req); got != "203.0.113.8" {
		t.Fatalf("clientIP = %q", got)
	}

	req.Header.Del("X-Real-IP")
	if got := clientIP(req); got != "10.0.0.1" {
		t.Fatalf("clientIP = %q", got)
	}
}
