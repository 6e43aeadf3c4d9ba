package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Error reports a fetch that failed after all retries were exhausted.
// It wraps the final attempt's error.
type Error struct {
	URL      string
	Attempts int
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fetcher performs HTTP GETs with bounded retries and exponential backoff.
// Safe for concurrent use.
type Fetcher struct {
	client        *http.Client
	maxRetries    int
	backoffFactor float64
	headers       map[string]string
}

// New creates a Fetcher that attempts each URL up to maxRetries times,
// waiting backoffFactor^attempt seconds between attempts. Each individual
// request is bounded by timeout.
func New(maxRetries int, backoffFactor float64, timeout time.Duration) *Fetcher {
	if maxRetries < 1 {
		maxRetries = 1
	}
	if backoffFactor <= 0 {
		backoffFactor = 1.5
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &Fetcher{
		client:        &http.Client{Timeout: timeout, Transport: transport},
		maxRetries:    maxRetries,
		backoffFactor: backoffFactor,
		headers:       map[string]string{"User-Agent": defaultUserAgent},
	}
}

// WithHeaders returns a copy of the Fetcher that sends the given headers
// on every request, on top of the defaults. Used for sources that need
// auth tokens.
func (f *Fetcher) WithHeaders(headers map[string]string) *Fetcher {
	clone := *f
	clone.headers = make(map[string]string, len(f.headers)+len(headers))
	for k, v := range f.headers {
		clone.headers[k] = v
	}
	for k, v := range headers {
		clone.headers[k] = v
	}
	return &clone
}

// Fetch GETs the URL and returns the response body. Non-2xx/3xx statuses
// count as failures. After maxRetries attempts the final attempt's error
// is surfaced wrapped in *Error.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Duration(float64(time.Second) * f.backoffFactor)
	bo.Multiplier = f.backoffFactor
	bo.RandomizationFactor = 0
	bo.MaxInterval = 5 * time.Minute
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(f.maxRetries-1)), ctx)

	var body []byte
	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		data, err := f.attempt(ctx, url)
		if err != nil {
			log.WithFields(log.Fields{
				"url":     url,
				"attempt": attempt,
				"max":     f.maxRetries,
			}).WithError(err).Warn("Fetch attempt failed")
			return err
		}
		body = data
		return nil
	}, policy)

	if err != nil {
		log.WithFields(log.Fields{"url": url, "attempts": attempt}).WithError(err).Error("Fetch failed, retries exhausted")
		return nil, &Error{URL: url, Attempts: attempt, Err: err}
	}
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
