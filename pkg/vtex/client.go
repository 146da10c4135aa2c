// Package vtex is a minimal client for the VTEX catalog, pricing and
// logistics APIs, covering the read endpoints the export and visibility
// pipelines need. A Client is bound to one credential scope: build one for
// the marketplace account (shared catalog truth) and one for the seller
// account (that seller's price and stock).
package vtex

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/alamesa/catalog-cli/internal/resilience"
)

// Config tunes a Client. The zero value gets sensible defaults.
type Config struct {
	// Domain is the environment host suffix appended to the account name.
	Domain string `mapstructure:"domain"`

	// BaseURL overrides the account origin entirely. Meant for proxies and
	// tests; when empty the origin is https://{account}.{domain}.
	BaseURL string `mapstructure:"base_url"`

	// Timeout is the per-request timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// MaxRetries is the total attempts per request, including the first.
	MaxRetries int `mapstructure:"max_retries"`

	// RetryWait is the linear backoff unit: the sleep after failed attempt
	// N is RetryWait * N. Applies to 429 and transient failures alike.
	RetryWait time.Duration `mapstructure:"retry_wait"`

	// MaxConns bounds the connection pool. Size it to at least the phase
	// worker count or high parallelism stalls on pool starvation.
	MaxConns int `mapstructure:"max_conns"`

	// RequestsPerSecond throttles outbound calls; 0 disables throttling.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`

	// Burst is the limiter burst size when throttling is on.
	Burst int `mapstructure:"burst"`
}

func (c Config) withDefaults() Config {
	if c.Domain == "" {
		c.Domain = "vtexcommercestable.com.br"
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryWait <= 0 {
		c.RetryWait = 2 * time.Second
	}
	if c.MaxConns <= 0 {
		c.MaxConns = 100
	}
	if c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}

// Client issues authenticated GET requests against one account scope.
type Client struct {
	http    *http.Client
	baseURL string
	appKey  string
	appTok  string
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a Client for the given account using its API key pair.
func New(accountName, appKey, appToken string, cfg Config) *Client {
	cfg = cfg.withDefaults()

	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxConns,
		MaxConnsPerHost:     cfg.MaxConns + 10,
		IdleConnTimeout:     90 * time.Second,
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s.%s", accountName, cfg.Domain)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		baseURL: baseURL,
		appKey:  appKey,
		appTok:  appToken,
		limiter: limiter,
		retry: resilience.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   cfg.RetryWait,
			OnRetry:     resilience.RetryLogger("vtex", "get"),
		},
	}
}

// BaseURL returns the account's API origin.
func (c *Client) BaseURL() string { return c.baseURL }

// getJSON fetches path and decodes the response into out. When silent404
// is set, a 404 reports found=false with no error: legitimately absent is
// not a failure. Rate-limit (429) and transient errors are retried with
// linearly increasing backoff; exhausting retries returns the last error.
func (c *Client) getJSON(ctx context.Context, path string, out any, silent404 bool) (found bool, err error) {
	url := c.baseURL + path

	body, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]byte, error) {
		return c.getOnce(ctx, url)
	})
	if err != nil {
		if silent404 && resilience.IsNotFound(err) {
			return false, nil
		}
		return false, eris.Wrapf(err, "vtex: get %s", path)
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return false, eris.Wrapf(err, "vtex: decode %s", path)
		}
	}
	return true, nil
}

func (c *Client) getOnce(ctx context.Context, url string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "rate limiter wait")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-VTEX-API-AppKey", c.appKey)
	req.Header.Set("X-VTEX-API-AppToken", c.appTok)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusTooManyRequests {
		zap.L().Warn("rate limited (429), backing off", zap.String("url", url))
		return nil, resilience.NewStatusError(resp.StatusCode, url)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, resilience.NewStatusError(resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "read body")
	}
	return body, nil
}
