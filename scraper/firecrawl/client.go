// Package firecrawl is the typed boundary over the scraping and extraction
// provider. Operations that feed the automated pipeline (ScrapeWithJSON,
// ScrapeWithLinks, ScrapeListingURLs) degrade to neutral results on failure;
// the single-shot operations (Scrape, Map, Search, Extract) return errors.
package firecrawl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rotisserie/eris"

	"land-auction-scraper/utils"
)

// Per-operation timeouts.
const (
	ScrapeTimeout       = 20 * time.Second
	ScrapeJSONTimeout   = 30 * time.Second
	ScrapeLinksTimeout  = 30 * time.Second
	ListingURLsTimeout  = 45 * time.Second
	MapTimeout          = 30 * time.Second
	SearchTimeout       = 30 * time.Second
	ExtractTimeout      = 120 * time.Second
	mapLimit            = 100
	defaultSearchLimit  = 10
	maxLoggedBodyLength = 500
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("firecrawl: API key is required")

// APIError is a non-2xx or unsuccessful provider response.
type APIError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("firecrawl: %s: status %d: %s", e.Op, e.StatusCode, e.Message)
}

// Transient reports whether the error is worth retrying.
func (e *APIError) Transient() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Timeouts overrides the per-operation timeouts. Zero values use the defaults.
type Timeouts struct {
	Scrape      time.Duration
	ScrapeJSON  time.Duration
	ScrapeLinks time.Duration
	ListingURLs time.Duration
	Map         time.Duration
	Search      time.Duration
	Extract     time.Duration
}

func (t Timeouts) withDefaults() Timeouts {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}
	return Timeouts{
		Scrape:      pick(t.Scrape, ScrapeTimeout),
		ScrapeJSON:  pick(t.ScrapeJSON, ScrapeJSONTimeout),
		ScrapeLinks: pick(t.ScrapeLinks, ScrapeLinksTimeout),
		ListingURLs: pick(t.ListingURLs, ListingURLsTimeout),
		Map:         pick(t.Map, MapTimeout),
		Search:      pick(t.Search, SearchTimeout),
		Extract:     pick(t.Extract, ExtractTimeout),
	}
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	APIKey     string
	MaxRetries int
	RetryDelay time.Duration
	Timeouts   Timeouts
	Logger     *utils.Logger
}

// Client talks to the extraction provider.
type Client struct {
	http     *resty.Client
	logger   *utils.Logger
	retry    *utils.RetryConfig
	timeouts Timeouts
}

// New creates a Client. A missing API key is a configuration error.
func New(opts Options) (*Client, error) {
	if opts.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if opts.Logger == nil {
		opts.Logger = utils.NewNopLogger()
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}

	httpClient := resty.New().
		SetBaseURL(opts.BaseURL).
		SetAuthToken(opts.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Client{
		http:     httpClient,
		logger:   opts.Logger,
		timeouts: opts.Timeouts.withDefaults(),
		retry: &utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      opts.Logger,
			Retryable:   isTransient,
		},
	}, nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

// post sends body to path with a fresh timeout per attempt and decodes the
// response into out.
func (c *Client) post(ctx context.Context, op, path string, timeout time.Duration, body, out any) error {
	return c.retry.Do(ctx, "firecrawl "+op, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		resp, err := c.http.R().
			SetContext(attemptCtx).
			SetBody(body).
			Post(path)
		if err != nil {
			return eris.Wrapf(err, "firecrawl: %s", op)
		}

		if resp.IsError() {
			return &APIError{Op: op, StatusCode: resp.StatusCode(), Message: truncate(resp.String())}
		}

		var env envelope
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return eris.Wrapf(err, "firecrawl: %s: decode response", op)
		}
		if env.Success != nil && !*env.Success {
			return &APIError{Op: op, StatusCode: resp.StatusCode(), Message: env.Error}
		}

		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return eris.Wrapf(err, "firecrawl: %s: decode response", op)
		}
		return nil
	})
}

func truncate(s string) string {
	if len(s) <= maxLoggedBodyLength {
		return s
	}
	return s[:maxLoggedBodyLength] + "..."
}

func logURL(u string) string {
	return utils.TruncateURL(u, 80)
}
