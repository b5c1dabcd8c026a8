package price

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"lightning_sats/internal/logger"

	"github.com/robfig/cron/v3"
)

const defaultAPIURL = "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"

// Poller keeps a cached BTC/USD rate refreshed on a cron schedule.
// The rate is display-only; nothing in the reward path depends on it.
type Poller struct {
	apiURL string
	http   *http.Client
	cron   *cron.Cron

	mu        sync.RWMutex
	rate      float64
	updatedAt time.Time
}

func NewPoller() *Poller {
	return &Poller{
		apiURL: defaultAPIURL,
		http:   &http.Client{Timeout: 10 * time.Second},
		cron:   cron.New(),
	}
}

// Start schedules refreshes and fetches once immediately
func (p *Poller) Start(spec string) error {
	if _, err := p.cron.AddFunc(spec, p.refresh); err != nil {
		return err
	}
	go p.refresh()
	p.cron.Start()
	return nil
}

// Stop halts the schedule
func (p *Poller) Stop() {
	p.cron.Stop()
}

// Rate returns the cached BTC/USD rate and when it was fetched.
// Zero rate means no successful fetch yet.
func (p *Poller) Rate() (float64, time.Time) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.rate, p.updatedAt
}

func (p *Poller) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rate, err := p.fetch(ctx)
	if err != nil {
		logger.Warn("price refresh failed", "error", err)
		return
	}

	p.mu.Lock()
	p.rate = rate
	p.updatedAt = time.Now()
	p.mu.Unlock()

	logger.Debug("price refreshed", "btc_usd", rate)
}

func (p *Poller) fetch(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiURL, nil)
	if err != nil {
		return 0, err
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price: unexpected status %d", resp.StatusCode)
	}

	var body struct {
		Bitcoin struct {
			USD float64 `json:"usd"`
		} `json:"bitcoin"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, err
	}
	return body.Bitcoin.USD, nil
}
