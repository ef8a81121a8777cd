// Package fetcher provides HTTP content fetching with bounded retries and
// goquery-based extraction of text, meta tags, structured data, prices and
// contact details from competitor pages.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/rivalscan/rivalscan/internal/config"
	"github.com/rivalscan/rivalscan/internal/logger"
)

// maxResponseBodyBytes limits the size of fetched page responses.
const maxResponseBodyBytes = 10 * 1024 * 1024 // 10 MB

// Default retry policy values, used when config leaves them zero.
const (
	defaultMaxRetries      = 3
	defaultRetryInitial    = 500 * time.Millisecond
	defaultRetryMaxElapsed = 15 * time.Second
	defaultRequestTimeout  = 30 * time.Second
)

// HTTPError is returned for non-2xx responses.
type HTTPError struct {
	URL        string
	StatusCode int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.URL, e.StatusCode)
}

// Fetcher fetches raw page content over HTTP. Each fetch is wrapped in a
// bounded exponential-backoff retry policy; client errors other than 429
// are not retried.
type Fetcher struct {
	httpClient  *http.Client
	log         logger.Interface
	userAgent   string
	maxRetries  uint64
	retryPolicy func() backoff.BackOff
}

// New creates a Fetcher from configuration.
func New(cfg config.CrawlerConfig, log logger.Interface) *Fetcher {
	timeout := cfg.RequestTimeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	initial := cfg.RetryInitial
	if initial == 0 {
		initial = defaultRetryInitial
	}

	maxElapsed := cfg.RetryMaxElapsed
	if maxElapsed == 0 {
		maxElapsed = defaultRetryMaxElapsed
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
		userAgent:  cfg.UserAgent,
		maxRetries: uint64(maxRetries),
		retryPolicy: func() backoff.BackOff {
			policy := backoff.NewExponentialBackOff()
			policy.InitialInterval = initial
			policy.MaxElapsedTime = maxElapsed
			return policy
		},
	}
}

// Fetch retrieves the raw body of the given URL, retrying transient
// failures with exponential backoff.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var body []byte

	operation := func() error {
		var fetchErr error
		body, fetchErr = f.doFetch(ctx, rawURL)
		if fetchErr == nil {
			return nil
		}

		if !isRetryable(fetchErr) {
			return backoff.Permanent(fetchErr)
		}

		f.log.Debug("Retrying fetch", "url", rawURL, "error", fetchErr)
		return fetchErr
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(f.retryPolicy(), f.maxRetries), ctx)

	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}

	return body, nil
}

// doFetch performs a single HTTP GET.
func (f *Fetcher) doFetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &HTTPError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	return body, nil
}

// isRetryable reports whether the fetch error is worth retrying: network
// errors, 429 and server errors are; other client errors are not.
func isRetryable(err error) bool {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return true
	}

	if httpErr.StatusCode == http.StatusTooManyRequests {
		return true
	}

	return httpErr.StatusCode >= http.StatusInternalServerError
}
