package scraper

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/GeorgiosLymperis/quotes-scraper/internal/config"
)

// Client is a thin HTTP GET client for scraping listing pages.
type Client struct {
	http        *http.Client  // Underlying HTTP client.
	limiter     *rate.Limiter // Spaces out requests; rate.Inf when unlimited.
	userAgent   string        // Optional User-Agent header to send on requests.
	retries     int           // Number of retry attempts for GetWithRetry (not counting the first try).
	baseBackoff time.Duration // Initial backoff duration before applying jitter/exponential growth.
	maxBackoff  time.Duration // Upper bound for backoff duration between retries.
}

// Response is a successful (2xx) page fetch.
type Response struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// StatusError is returned for non-2xx responses. Its message is the
// HTTP status line (e.g., "404 Not Found").
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return e.Status
}

// NewClient constructs a Client with sane Transport defaults and
// timeouts suitable for scraping workloads.
//
// Settings taken from cfg:
//   - Timeout: per-request deadline enforced by the underlying http.Client.
//   - UserAgent: value for the "User-Agent" header (empty string disables it).
//   - Retries: retry attempts performed by GetWithRetry (in addition to the first try).
//   - BaseBackoff / MaxBackoff: initial backoff and its cap.
//   - RequestsPerSecond: upper bound on request rate; zero or negative means unlimited.
//
// The returned Client uses an http.Transport with connection pooling, TLS >= 1.2,
// and reasonable dial/handshake timeouts.
func NewClient(cfg config.HTTPConfig) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		Proxy:               http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &Client{
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		limiter:     rate.NewLimiter(limit, 1),
		userAgent:   cfg.UserAgent,
		retries:     max(cfg.Retries, 0),
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
	}
}

// GetWithRetry performs an HTTP GET with retries, jittered exponential
// backoff, and support for "Retry-After" when present.
//
// Behavior:
//   - Retries on transport errors, 5xx and 429 responses (see isRetryableStatus).
//   - Honors "Retry-After" header (seconds form) instead of the computed backoff.
//   - Adds jitter up to 50% of the current backoff.
//   - Caps backoff at maxBackoff.
//   - Aborts early if the provided context is canceled.
//
// With zero retries this is a single attempt. When retries are exhausted the
// error of the last attempt is returned.
func (c *Client) GetWithRetry(ctx context.Context, url string) (*Response, error) {
	backoff := c.baseBackoff
	attempts := c.retries + 1

	var lastErr error
	for i := 0; i < attempts; i++ {
		response, retryAfter, err := c.do(ctx, url)
		if err == nil {
			return response, nil
		}
		lastErr = err

		if !isRetryable(err) || ctx.Err() != nil || i == attempts-1 {
			break
		}

		sleep := retryAfter
		if sleep <= 0 {
			sleep = backoff
			if half := int64(backoff / 2); half > 0 {
				sleep += time.Duration(rand.Int63n(half))
			}
			sleep = min(sleep, c.maxBackoff)
		}
		if err := sleepCtx(ctx, sleep); err != nil {
			return nil, err
		}

		// exponential
		if backoff < c.maxBackoff {
			backoff *= 2
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}
	}
	return nil, lastErr
}

// do runs one rate-limited GET. For retryable statuses it also reports the
// server's Retry-After hint.
func (c *Client) do(ctx context.Context, url string) (*Response, time.Duration, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, err
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.userAgent != "" {
		request.Header.Set("User-Agent", c.userAgent)
	}

	response, err := c.http.Do(request)
	if err != nil {
		return nil, 0, err
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var retryAfter time.Duration
		if isRetryableStatus(response.StatusCode) {
			retryAfter = parseRetryAfter(response.Header.Get("Retry-After"))
		}
		return nil, retryAfter, &StatusError{Code: response.StatusCode, Status: response.Status}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return &Response{
		StatusCode:  response.StatusCode,
		ContentType: response.Header.Get("Content-Type"),
		Body:        body,
	}, 0, nil
}

// isRetryable reports whether a failed attempt may be retried: any transport
// error, or a status accepted by isRetryableStatus.
func isRetryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return isRetryableStatus(se.Code)
	}
	return true
}

// isRetryableStatus reports whether an HTTP status code should be retried.
// It returns true for 429 (Too Many Requests) and 5xx server errors.
func isRetryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code <= 599)
}

// parseRetryAfter parses a Retry-After header expressed in seconds.
// Returns 0 if parsing fails or if the value is non-positive.
func parseRetryAfter(ra string) time.Duration {
	if secs, err := strconv.Atoi(ra); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

// sleepCtx sleeps for the given duration or returns early if the context is canceled.
func sleepCtx(ctx context.Context, dur time.Duration) error {
	t := time.NewTimer(dur)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
