package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/nerrad567/roomdash/internal/provider"
)

const (
	// DefaultTimeout applies when Options.Timeout is zero.
	DefaultTimeout = 10 * time.Second

	// maxBodySize caps how much of a successful response is read.
	maxBodySize = 8 << 20

	// maxErrorBodySize caps how much of an error response is kept for
	// passthrough.
	maxErrorBodySize = 64 << 10

	userAgent = "roomdash/1"
)

// Observer records outbound request outcomes. Implemented by the metrics
// package.
type Observer interface {
	ObserveUpstream(provider, endpoint, outcome string, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	Provider   string // Name used in failures, logs and metrics
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client // Optional; Timeout is ignored when set
	Observer   Observer     // Optional
	RateLimit  float64      // Requests per second; 0 disables limiting
}

// Client performs authenticated GET requests against one upstream.
type Client struct {
	provider string
	baseURL  string
	token    string
	http     *http.Client
	observer Observer
	limiter  *rate.Limiter
}

// New creates a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	c := &Client{
		provider: opts.Provider,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		token:    opts.Token,
		http:     hc,
		observer: opts.Observer,
	}
	if opts.RateLimit > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), max(1, int(opts.RateLimit)))
	}
	return c
}

// BaseURL returns the normalised base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// Get fetches path and returns the raw body of a 2xx response.
//
// endpoint is a low-cardinality label for metrics (for example "devices").
func (c *Client) Get(ctx context.Context, endpoint, path string) ([]byte, error) {
	start := time.Now()
	body, err := c.get(ctx, path)
	c.observe(endpoint, err, time.Since(start))
	return body, err
}

// GetJSON fetches path and decodes the 2xx body into out.
func (c *Client) GetJSON(ctx context.Context, endpoint, path string, out any) error {
	start := time.Now()
	body, err := c.get(ctx, path)
	if err == nil {
		if derr := json.Unmarshal(body, out); derr != nil {
			err = provider.Malformed(c.provider, fmt.Errorf("decoding %s: %w", endpoint, derr))
		}
	}
	c.observe(endpoint, err, time.Since(start))
	return err
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, provider.Unavailable(c.provider, fmt.Errorf("waiting for rate limiter: %w", err))
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, provider.Unavailable(c.provider, fmt.Errorf("building request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, provider.Unavailable(c.provider, redact(err, c.token))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, provider.UpstreamStatus(c.provider, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, provider.Unavailable(c.provider, fmt.Errorf("reading body: %w", err))
	}
	return body, nil
}

func (c *Client) observe(endpoint string, err error, elapsed time.Duration) {
	if c.observer == nil {
		return
	}
	outcome := "success"
	if f, ok := provider.AsFailure(err); ok {
		outcome = f.Kind.String()
	} else if err != nil {
		outcome = "error"
	}
	c.observer.ObserveUpstream(c.provider, endpoint, outcome, elapsed)
}

// redact strips the token from transport errors, which can echo the URL.
func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "***"))
}
