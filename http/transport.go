package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
)

// maxPeek bounds how much of a 403 body is inspected for a rate limit reason.
const maxPeek = 64 << 10

// Transport is an http.RoundTripper that waits for the host's rate limiter,
// refuses requests while the host's circuit is open, and feeds responses back
// into both. Retrying is left to the caller.
type Transport struct {
	// Base performs the actual requests.
	Base http.RoundTripper
	// Limiter may be nil for no rate limiting.
	Limiter *RateLimiter
	// Breaker may be nil for no circuit breaking.
	Breaker *CircuitBreaker
	// UserAgent is set on requests that carry none.
	UserAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Hostname()
	ctx := req.Context()

	if err := t.Breaker.Allow(host); err != nil {
		return nil, err
	}
	if err := t.Limiter.WaitForBackoff(ctx, host); err != nil {
		return nil, err
	}
	if err := t.Limiter.Wait(ctx, host); err != nil {
		return nil, err
	}

	if t.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req = req.Clone(ctx)
		req.Header.Set("User-Agent", t.UserAgent)
	}

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	resp, err := base.RoundTrip(req)
	if err != nil {
		if IsTransient(err) {
			t.Breaker.RecordFailure(host)
		} else {
			t.Breaker.release(host)
		}
		return nil, err
	}

	switch {
	case throttled(resp):
		pause := t.Limiter.RecordRateLimitError(host, parseRetryAfter(resp.Header))
		t.Breaker.RecordFailure(host)
		slog.Debug("request throttled", "host", host, "status", resp.StatusCode, "backoff", pause)
	case resp.StatusCode >= 500:
		t.Breaker.RecordFailure(host)
	default:
		t.Limiter.RecordSuccess(host)
		t.Breaker.RecordSuccess(host)
	}
	return resp, nil
}

// throttled reports whether resp asks the client to slow down. Google APIs
// signal per-user rate limits with a 403 and a rateLimitExceeded reason, so
// 403 bodies are peeked at and restored for the caller.
func throttled(resp *http.Response) bool {
	switch resp.StatusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return true
	case http.StatusForbidden:
	default:
		return false
	}

	peek, err := io.ReadAll(io.LimitReader(resp.Body, maxPeek))
	resp.Body = readCloser{
		Reader: io.MultiReader(bytes.NewReader(peek), resp.Body),
		Closer: resp.Body,
	}
	if err != nil {
		return false
	}
	return bytes.Contains(peek, []byte("rateLimitExceeded")) ||
		bytes.Contains(peek, []byte("userRateLimitExceeded"))
}

type readCloser struct {
	io.Reader
	io.Closer
}
