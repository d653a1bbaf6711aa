// Package fetcher retrieves the source index page over HTTP.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	infrahttp "github.com/jonesrussell/north-cloud/headlines/infrastructure/http"
)

const (
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBodyBytes = 10 << 20
	DefaultUserAgent    = "north-cloud-headlines/1.0 (+https://github.com/jonesrussell/north-cloud)"
)

// Config tunes the HTTP fetch.
type Config struct {
	SourceURL    string        `env:"FETCH_SOURCE_URL"    yaml:"source_url"`
	Timeout      time.Duration `env:"FETCH_TIMEOUT"       yaml:"timeout"`
	UserAgent    string        `env:"FETCH_USER_AGENT"    yaml:"user_agent"`
	MaxBodyBytes int64         `env:"FETCH_MAX_BODY_BYTES" yaml:"max_body_bytes"`
}

func (c *Config) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

// HTTPFetcher performs one GET per call. It never retries.
type HTTPFetcher struct {
	client       *http.Client
	timeout      time.Duration
	userAgent    string
	maxBodyBytes int64
}

// New builds a fetcher on the shared tuned client. cfg.Timeout bounds the
// whole request, body included.
func New(cfg Config) *HTTPFetcher {
	cfg.SetDefaults()
	return NewWithClient(infrahttp.NewClient(&infrahttp.ClientConfig{Timeout: cfg.Timeout}), cfg)
}

// NewWithClient uses client as-is and still applies cfg.Timeout per call.
func NewWithClient(client *http.Client, cfg Config) *HTTPFetcher {
	cfg.SetDefaults()
	return &HTTPFetcher{
		client:       client,
		timeout:      cfg.Timeout,
		userAgent:    cfg.UserAgent,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Fetch returns the body of a 2xx response. Any other outcome is a
// *FetchError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, &FetchError{Kind: KindUnexpected, URL: url, Cause: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, ClassifyTransport(err, url, isTimeout(ctx, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBodyBytes))
		return nil, ClassifyStatus(resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes+1))
	if err != nil {
		return nil, ClassifyTransport(fmt.Errorf("read body: %w", err), url, isTimeout(ctx, err))
	}
	if int64(len(body)) > f.maxBodyBytes {
		return nil, &FetchError{
			Kind:  KindTooLarge,
			URL:   url,
			Cause: fmt.Errorf("body exceeds %d bytes", f.maxBodyBytes),
		}
	}

	return body, nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
