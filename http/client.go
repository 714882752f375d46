// Package http provides the HTTP transport shared by the Google API clients:
// per-host rate limiting, backoff after throttling responses, and a circuit
// breaker that fails fast while a host keeps erroring.
package http

import (
	"net/http"
	"time"
)

// Config holds HTTP client configuration.
type Config struct {
	// Timeout for individual HTTP requests
	Timeout time.Duration

	// User agent for HTTP requests
	UserAgent string

	// Rate limiter configuration
	RateLimiter RateLimiterConfig

	// Circuit breaker configuration
	CircuitBreaker CircuitBreakerConfig

	// Connection pool configuration
	Transport TransportConfig
}

// TransportConfig configures the underlying connection pool.
type TransportConfig struct {
	// MaxIdleConns is the maximum number of idle connections across all hosts.
	MaxIdleConns int

	// MaxIdleConnsPerHost is the maximum idle connections per host.
	MaxIdleConnsPerHost int

	// IdleConnTimeout is the maximum amount of time an idle connection can remain open.
	IdleConnTimeout time.Duration
}

// DefaultConfig returns sensible defaults for HTTP client configuration.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        30 * time.Second,
		UserAgent:      "ytauto/1.0",
		RateLimiter:    DefaultRateLimiterConfig(),
		CircuitBreaker: DefaultCircuitBreakerConfig(),
		Transport:      DefaultTransportConfig(),
	}
}

// DefaultTransportConfig returns defaults sized for a handful of Google hosts.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 5,
		IdleConnTimeout:     90 * time.Second,
	}
}

// New creates an *http.Client whose transport applies rate limiting and
// circuit breaking to every request.
func New(cfg *Config) *http.Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	base := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Transport.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.Transport.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.Transport.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: NewTransport(cfg, base),
	}
}

// NewTransport wraps base with the limiter and breaker described by cfg.
// A nil base uses http.DefaultTransport.
func NewTransport(cfg *Config, base http.RoundTripper) *Transport {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{
		Base:      base,
		Limiter:   NewRateLimiter(cfg.RateLimiter),
		Breaker:   NewCircuitBreaker(cfg.CircuitBreaker),
		UserAgent: cfg.UserAgent,
	}
}
