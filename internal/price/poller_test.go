package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchParsesRate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"bitcoin":{"usd":64250.5}}`))
	}))
	defer srv.Close()

	p := NewPoller()
	p.apiURL = srv.URL

	rate, err := p.fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if rate != 64250.5 {
		t.Fatalf("rate = %v, want 64250.5", rate)
	}
}

func TestFetchRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewPoller()
	p.apiURL = srv.URL

	if _, err := p.fetch(context.Background()); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestRateStartsUnset(t *testing.T) {
	rate, updatedAt := NewPoller().Rate()
	if rate != 0 || !updatedAt.IsZero() {
		t.Fatalf("fresh poller should report no rate, got %v at %v", rate, updatedAt)
	}
}
