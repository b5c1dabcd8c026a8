package service

import (
	"context"
	"log/slog"
	"net/netip"

	"lightning_sats/internal/logger"
)

// CountryDecision is the gate's verdict for one request IP
type CountryDecision struct {
	Blocked   bool   `json:"blocked"`
	Country   string `json:"country,omitempty"`
	IsVPN     bool   `json:"is_vpn"`
	IsProxy   bool   `json:"is_proxy"`
	IsHosting bool   `json:"is_hosting"`
	VPNBypass bool   `json:"vpn_bypass"`
}

// CountryGate allows or denies page loads based on the requester's
// IP-derived country, the stored denylist, and a VPN bypass rule.
// A user in a blocked country who reaches us through a VPN/proxy/datacenter
// IP is let through: the block targets the country's ad inventory, not the
// user, and an anonymized IP no longer represents that inventory.
//
// Any geo or denylist lookup failure passes the request (fail open).
type CountryGate struct {
	geo       GeoLookup
	countries CountryList
	log       *slog.Logger
}

func NewCountryGate(geo GeoLookup, countries CountryList) *CountryGate {
	return &CountryGate{
		geo:       geo,
		countries: countries,
		log:       logger.With("component", "country_gate"),
	}
}

// CheckCountry resolves the IP and applies the denylist + VPN bypass rule
func (g *CountryGate) CheckCountry(ctx context.Context, ip string) CountryDecision {
	if isPrivateIP(ip) {
		return CountryDecision{}
	}

	info, err := g.geo.Lookup(ctx, ip)
	if err != nil {
		g.log.Warn("geo lookup failed, allowing", "ip", ip, "error", err)
		return CountryDecision{}
	}
	if info == nil || info.CountryCode == "" {
		return CountryDecision{}
	}

	blockedCountry, err := g.countries.IsBlocked(ctx, info.CountryCode)
	if err != nil {
		g.log.Warn("denylist lookup failed, allowing", "country", info.CountryCode, "error", err)
		return CountryDecision{Country: info.CountryCode}
	}

	usingVPN := info.UsingVPN()

	return CountryDecision{
		Blocked:   blockedCountry && !usingVPN,
		Country:   info.CountryCode,
		IsVPN:     info.IsVPN,
		IsProxy:   info.IsProxy,
		IsHosting: info.IsHosting,
		VPNBypass: blockedCountry && usingVPN,
	}
}

func isPrivateIP(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return true // unparseable, nothing to geolocate
	}
	return addr.IsLoopback() || addr.IsPrivate() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}
