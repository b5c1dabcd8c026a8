package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// ErrNotFound means the service answered but could not place the IP
var ErrNotFound = errors.New("geo: ip not found")

// Info is the geolocation result for one IP
type Info struct {
	CountryCode string `json:"country_code"`
	CountryName string `json:"country_name"`
	IsVPN       bool   `json:"is_vpn"`
	IsProxy     bool   `json:"is_proxy"`
	IsHosting   bool   `json:"is_hosting"`
}

// UsingVPN reports whether any anonymizer signal is set
func (i *Info) UsingVPN() bool {
	return i.IsVPN || i.IsProxy || i.IsHosting
}

// Client queries an ip-api style JSON endpoint. The service is treated as
// unreliable; callers decide what a failed lookup means.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 5 * time.Second},
	}
}

type apiResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
	Country     string `json:"country"`
	Proxy       bool   `json:"proxy"`
	Hosting     bool   `json:"hosting"`
	VPN         bool   `json:"vpn"`
}

// Lookup resolves country and anonymizer flags for an IP
func (c *Client) Lookup(ctx context.Context, ip string) (*Info, error) {
	u := fmt.Sprintf("%s/%s?fields=status,country,countryCode,proxy,hosting,vpn", c.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geo: unexpected status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	if body.Status != "success" || body.CountryCode == "" {
		return nil, ErrNotFound
	}

	return &Info{
		CountryCode: body.CountryCode,
		CountryName: body.Country,
		IsVPN:       body.VPN,
		IsProxy:     body.Proxy,
		IsHosting:   body.Hosting,
	}, nil
}
