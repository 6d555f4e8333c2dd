// Package httpclient provides the shared retrying, circuit-broken HTTP
// session every ingestor uses, generalized from the teacher's single-
// provider resilience helper into one client with GET/HEAD retry,
// range-request support, and a default 30s timeout.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

// RetriableStatuses are the response codes eligible for retry.
var RetriableStatuses = map[int]bool{
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Backoff controls the exponential retry delay.
type Backoff struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultBackoff matches spec.md §4.2: base 0.3s, 3 attempts (the first
// try plus MaxRetries=2 retries).
var DefaultBackoff = Backoff{MaxRetries: 2, InitialInterval: 300 * time.Millisecond, MaxInterval: 10 * time.Second}

// ErrTransport wraps a non-retriable non-2xx response or exhausted retries.
var ErrTransport = errors.New("transport error")

// Session is the shared HTTP client used by every ingestor.
type Session struct {
	client    *http.Client
	userAgent string
	backoff   Backoff
	breaker   *gobreaker.CircuitBreaker
}

// New builds a Session with a default 30s timeout and the given user agent.
// All ingestors share one breaker instance, named after the upstream they
// collectively depend on, so a sustained run of upstream failures opens
// the circuit for every ingestor at once rather than per-source.
func New(userAgent string) *Session {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "weatherfusion-http",
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
	})
	return &Session{
		client:    &http.Client{Timeout: 30 * time.Second},
		userAgent: userAgent,
		backoff:   DefaultBackoff,
		breaker:   breaker,
	}
}

// WithTimeout returns a shallow copy of the session using a different
// per-call timeout, used by the GRIB ingestor for larger range downloads.
func (s *Session) WithTimeout(d time.Duration) *Session {
	clone := *s
	clone.client = &http.Client{Timeout: d}
	return &clone
}

type reqOpts struct {
	headers map[string]string
}

// Option configures a single request.
type Option func(*reqOpts)

// WithHeader adds a request header, used for Range slices.
func WithHeader(key, value string) Option {
	return func(o *reqOpts) {
		if o.headers == nil {
			o.headers = map[string]string{}
		}
		o.headers[key] = value
	}
}

func (s *Session) do(ctx context.Context, method, url string, opts []Option) (*http.Response, error) {
	var options reqOpts
	for _, opt := range opts {
		opt(&options)
	}

	var attempt int
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", s.userAgent)
		for k, v := range options.headers {
			req.Header.Set(k, v)
		}

		result, err := s.breaker.Execute(func() (interface{}, error) {
			resp, execErr := s.client.Do(req)
			if execErr != nil {
				return nil, execErr
			}
			if RetriableStatuses[resp.StatusCode] {
				resp.Body.Close()
				return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
			}
			return resp, nil
		})
		if err == nil {
			return result.(*http.Response), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open: %v", ErrTransport, err)
		}

		if attempt >= s.backoff.MaxRetries {
			return nil, err
		}

		delay := s.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if s.backoff.MaxInterval > 0 && delay > s.backoff.MaxInterval {
			delay = s.backoff.MaxInterval
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
		attempt++
	}
}

// Get issues a GET and returns the raw response for the caller to inspect
// (e.g. the alerts client treats 404 as "no alerts", not a failure).
func (s *Session) Get(ctx context.Context, url string, opts ...Option) (*http.Response, error) {
	return s.do(ctx, http.MethodGet, url, opts)
}

// Head issues a HEAD request, used for GRIB cycle probing.
func (s *Session) Head(ctx context.Context, url string, opts ...Option) (*http.Response, error) {
	return s.do(ctx, http.MethodHead, url, opts)
}

// GetBytes issues a GET and returns the body, erroring on any non-2xx
// status that isn't handled by the caller directly.
func (s *Session) GetBytes(ctx context.Context, url string, opts ...Option) ([]byte, error) {
	resp, err := s.Get(ctx, url, opts...)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d", ErrTransport, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// GetRange issues a ranged GET. end of -1 means an open-ended range
// (bytes=start-).
func (s *Session) GetRange(ctx context.Context, url string, start, end int64) ([]byte, error) {
	var rangeHeader string
	if end >= 0 {
		rangeHeader = fmt.Sprintf("bytes=%d-%d", start, end)
	} else {
		rangeHeader = fmt.Sprintf("bytes=%d-", start)
	}
	return s.GetBytes(ctx, url, WithHeader("Range", rangeHeader))
}
