// Package fetch downloads module bytes over HTTP(S).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wasmforge-dev/wasmforge/domain/errors"
	"github.com/wasmforge-dev/wasmforge/domain/ports"
)

// fetcherConfig holds configuration for the Fetcher.
type fetcherConfig struct {
	client      *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

func defaultFetcherConfig() fetcherConfig {
	return fetcherConfig{
		userAgent:   "wasmforge/0.1.0",
		timeout:     30 * time.Second,
		maxBodySize: 64 * 1024 * 1024, // 64MB
	}
}

// FetcherOption configures a Fetcher instance.
type FetcherOption func(*fetcherConfig)

// WithTimeout sets the per-download timeout.
func WithTimeout(d time.Duration) FetcherOption {
	return func(c *fetcherConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxSize sets the maximum accepted body size.
func WithMaxSize(size int64) FetcherOption {
	return func(c *fetcherConfig) {
		if size > 0 {
			c.maxBodySize = size
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(c *fetcherConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(c *fetcherConfig) {
		c.client = client
	}
}

// Fetcher downloads module bytes with a size cap and timeout.
type Fetcher struct {
	config fetcherConfig
}

// NewFetcher creates a new Fetcher with the given options.
func NewFetcher(opts ...FetcherOption) ports.Fetcher {
	cfg := defaultFetcherConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.client == nil {
		cfg.client = &http.Client{
			Transport: &http.Transport{
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          10,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ExpectContinueTimeout: 1 * time.Second,
			},
		}
	}
	return &Fetcher{config: cfg}
}

// Fetch downloads the resource at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, &errors.FetchError{Err: err, URL: rawURL}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, &errors.FetchError{
			Err: fmt.Errorf("unsupported scheme %q", parsed.Scheme),
			URL: rawURL,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.config.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &errors.FetchError{Err: err, URL: rawURL}
	}
	req.Header.Set("User-Agent", f.config.userAgent)

	resp, err := f.config.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.TimeoutError{Operation: "fetch", Target: rawURL, Duration: f.config.timeout}
		}
		return nil, &errors.FetchError{Err: err, URL: rawURL}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &errors.FetchError{
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
			URL:        rawURL,
			StatusCode: resp.StatusCode,
		}
	}

	// Read one byte past the cap so oversize bodies are detected rather
	// than silently truncated.
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.maxBodySize+1))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, &errors.TimeoutError{Operation: "fetch", Target: rawURL, Duration: f.config.timeout}
		}
		return nil, &errors.FetchError{Err: err, URL: rawURL}
	}
	if int64(len(data)) > f.config.maxBodySize {
		return nil, &errors.FetchError{
			Err: fmt.Errorf("body exceeds %d byte limit", f.config.maxBodySize),
			URL: rawURL,
		}
	}
	return data, nil
}
