// Package steam provides a read-only client for the public Steam Community
// Market endpoints: price lookups and inventory listings. The market
// aggressively rate-limits anonymous clients, so every call is paced and
// failures are reported as absence rather than errors.
package steam

import (
	"context"
	"net/http"
	"time"

	"github.com/raykavin/skinhunter/logger"
)

// Default endpoint and pacing values. Pacing is deliberately conservative;
// lowering it triggers the 429 blocking the backoff logic exists to avoid.
const (
	DefaultBaseURL      = "https://steamcommunity.com/market/priceoverview/"
	DefaultInventoryURL = "https://steamcommunity.com/inventory"

	DefaultAppID    = 730 // CS2
	DefaultCurrency = 1   // USD

	defaultRequestPacing  = 500 * time.Millisecond
	defaultPagePacing     = 1500 * time.Millisecond
	defaultRateLimitPause = 5 * time.Second

	defaultRetryBudget = 5
	defaultRetryBase   = 10 * time.Second
	defaultRetryStep   = 10 * time.Second
	defaultThrottleMin = 2500 * time.Millisecond
	defaultThrottleMax = 4 * time.Second
)

// Browser-like headers; the community endpoints refuse obviously
// non-browser traffic.
var defaultHeaders = map[string]string{
	"User-Agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":           "application/json, text/javascript, */*; q=0.01",
	"Accept-Language":  "en-US,en;q=0.9",
	"X-Requested-With": "XMLHttpRequest",
	"Referer":          "https://steamcommunity.com/market/",
}

// Config holds configuration parameters for the market client. Zero values
// fall back to the defaults above.
type Config struct {
	AppID    int
	Currency int

	BaseURL      string
	InventoryURL string

	// HTTPClient is the long-lived client reused across calls. Connection
	// pooling and timeouts are its responsibility.
	HTTPClient *http.Client

	// RequestPacing is the unconditional delay before every price call
	RequestPacing time.Duration
	// PagePacing is the delay between successful inventory pages
	PagePacing time.Duration
	// RateLimitPause is the delay before retrying an inventory page after a 429
	RateLimitPause time.Duration

	// RetryBudget is the number of attempts per item in PriceWithRetry
	RetryBudget int
	// RetryBase and RetryStep define the linear backoff between attempts:
	// base + attempt*step
	RetryBase time.Duration
	RetryStep time.Duration
	// ThrottleMin and ThrottleMax bound the randomized delay paid after a
	// successful retried fetch, to throttle the next call
	ThrottleMin time.Duration
	ThrottleMax time.Duration
}

// Client talks to the Steam Community Market. It holds no per-item state and
// never caches prices: the market moves between calls.
type Client struct {
	cfg  Config
	http *http.Client
	log  logger.Logger
}

// New creates a market client with the given configuration
func New(cfg Config, log logger.Logger) *Client {
	if cfg.AppID == 0 {
		cfg.AppID = DefaultAppID
	}
	if cfg.Currency == 0 {
		cfg.Currency = DefaultCurrency
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.InventoryURL == "" {
		cfg.InventoryURL = DefaultInventoryURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.RequestPacing == 0 {
		cfg.RequestPacing = defaultRequestPacing
	}
	if cfg.PagePacing == 0 {
		cfg.PagePacing = defaultPagePacing
	}
	if cfg.RateLimitPause == 0 {
		cfg.RateLimitPause = defaultRateLimitPause
	}
	if cfg.RetryBudget == 0 {
		cfg.RetryBudget = defaultRetryBudget
	}
	if cfg.RetryBase == 0 {
		cfg.RetryBase = defaultRetryBase
	}
	if cfg.RetryStep == 0 {
		cfg.RetryStep = defaultRetryStep
	}
	if cfg.ThrottleMin == 0 {
		cfg.ThrottleMin = defaultThrottleMin
	}
	if cfg.ThrottleMax == 0 {
		cfg.ThrottleMax = defaultThrottleMax
	}

	return &Client{
		cfg:  cfg,
		http: cfg.HTTPClient,
		log:  log,
	}
}

// newRequest builds a GET request with the browser-like header set
func (c *Client) newRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for key, value := range defaultHeaders {
		req.Header.Set(key, value)
	}

	return req, nil
}

// pause sleeps for the given duration, waking early on context cancellation
func (c *Client) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
