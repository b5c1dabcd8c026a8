package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RLRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_requests_total",
			Help: "Total requests seen by the rate limiter",
		},
		[]string{"endpoint"},
	)
	RLBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limiter_blocked_total",
			Help: "Total requests blocked by the rate limiter",
		},
		[]string{"endpoint"},
	)
	CountryBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_gate_blocked_total",
			Help: "Total page loads blocked by the country gate",
		},
		[]string{"country"},
	)
	CountryVPNBypass = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "country_gate_vpn_bypass_total",
			Help: "Total page loads from blocked countries let through on a VPN signal",
		},
		[]string{"country"},
	)
)

func init() {
	prometheus.MustRegister(RLRequests)
	prometheus.MustRegister(RLBlocked)
	prometheus.MustRegister(CountryBlocked)
	prometheus.MustRegister(CountryVPNBypass)
}
