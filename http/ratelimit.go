package http

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Backoff tuning for throttled hosts.
const (
	// InitialBackoff is the first pause after a throttling response.
	InitialBackoff = 1 * time.Second
	// MaxBackoff caps the pause between requests to a throttled host.
	MaxBackoff = 60 * time.Second
	// BackoffMultiplier grows the pause on consecutive throttling responses.
	BackoffMultiplier = 2.0
	// BackoffCooldownPeriod is how long after the last throttle the original
	// rate is restored.
	BackoffCooldownPeriod = 5 * time.Minute
	// MinRPSMultiplier is the lowest fraction of the configured rate a host
	// is reduced to.
	MinRPSMultiplier = 0.25
)

// RateLimiter manages per-host request rate limiting using a token bucket.
// Hosts that answer with throttling responses get a backoff pause and a
// temporarily reduced rate.
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	backoff  map[string]*BackoffState
	mu       sync.Mutex
	config   RateLimiterConfig
}

// BackoffState tracks throttling backoff for a host.
type BackoffState struct {
	// CurrentBackoff is the current pause
	CurrentBackoff time.Duration
	// LastError is when the last throttling response arrived
	LastError time.Time
	// ConsecutiveErrors counts throttling responses without recovery
	ConsecutiveErrors int
	// OriginalRPS is the configured rate to restore after cooldown
	OriginalRPS float64
	// ReducedRPS is the current reduced rate (0 means using original)
	ReducedRPS float64
}

// RateLimiterConfig defines rate limiting behavior.
type RateLimiterConfig struct {
	// APIRPS is requests per second for the *.googleapis.com API hosts.
	APIRPS float64
	// TokenRPS is requests per second for the OAuth token endpoint.
	TokenRPS float64
	// DefaultRPS applies to every other host (0 = unlimited).
	DefaultRPS float64
	// CustomRates maps exact host names to RPS values
	CustomRates map[string]float64
	// EnableDynamicBackoff enables automatic rate reduction on throttling
	EnableDynamicBackoff bool
}

// DefaultRateLimiterConfig returns defaults that stay well inside the Data
// API's per-user limits.
func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		APIRPS:               5.0,
		TokenRPS:             1.0,
		DefaultRPS:           0,
		CustomRates:          make(map[string]float64),
		EnableDynamicBackoff: true,
	}
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(cfg RateLimiterConfig) *RateLimiter {
	if cfg.CustomRates == nil {
		cfg.CustomRates = make(map[string]float64)
	}
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		backoff:  make(map[string]*BackoffState),
		config:   cfg,
	}
}

// Wait blocks until the host's bucket allows a request or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl == nil {
		return nil
	}
	limiter := rl.limiterFor(host)
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// limiterFor returns the host's limiter, creating it on first use. It
// returns nil for unlimited hosts.
func (rl *RateLimiter) limiterFor(host string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if limiter, ok := rl.limiters[host]; ok {
		return limiter
	}
	rps := rl.rps(host)
	if rps <= 0 {
		return nil
	}
	limiter := rate.NewLimiter(rate.Limit(rps), 1)
	rl.limiters[host] = limiter
	return limiter
}

// rps returns the configured rate for host. Must be called with mu held.
func (rl *RateLimiter) rps(host string) float64 {
	if rps, ok := rl.config.CustomRates[host]; ok {
		return rps
	}
	switch {
	case host == "oauth2.googleapis.com":
		return rl.config.TokenRPS
	case host == "googleapis.com" || strings.HasSuffix(host, ".googleapis.com"):
		return rl.config.APIRPS
	}
	return rl.config.DefaultRPS
}

// SetCustomRate sets a custom rate limit for a specific host.
func (rl *RateLimiter) SetCustomRate(host string, rps float64) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.config.CustomRates[host] = rps
	delete(rl.limiters, host)
}

// RecordRateLimitError records a throttling response for host and returns
// how long to pause before the next request. A longer server-provided
// retryAfter wins over the computed backoff.
func (rl *RateLimiter) RecordRateLimitError(host string, retryAfter time.Duration) time.Duration {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		if retryAfter > 0 {
			return retryAfter
		}
		return InitialBackoff
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		state = &BackoffState{CurrentBackoff: InitialBackoff, OriginalRPS: rl.rps(host)}
		rl.backoff[host] = state
	}
	state.LastError = time.Now()
	state.ConsecutiveErrors++

	if state.ConsecutiveErrors > 1 {
		state.CurrentBackoff = time.Duration(float64(state.CurrentBackoff) * BackoffMultiplier)
		if state.CurrentBackoff > MaxBackoff {
			state.CurrentBackoff = MaxBackoff
		}
	}
	if retryAfter > state.CurrentBackoff {
		state.CurrentBackoff = retryAfter
	}

	rl.reduceRate(host, state)
	return state.CurrentBackoff
}

// reduceRate lowers the host's rate: 75%, 50%, then 25% of the original.
// Must be called with mu held.
func (rl *RateLimiter) reduceRate(host string, state *BackoffState) {
	if state.OriginalRPS <= 0 {
		return
	}

	factor := MinRPSMultiplier
	switch state.ConsecutiveErrors {
	case 1:
		factor = 0.75
	case 2:
		factor = 0.5
	}
	state.ReducedRPS = state.OriginalRPS * factor

	if limiter, ok := rl.limiters[host]; ok {
		limiter.SetLimit(rate.Limit(state.ReducedRPS))
	}
}

// RecordSuccess records a successful request, easing any backoff for host.
func (rl *RateLimiter) RecordSuccess(host string) {
	if rl == nil || !rl.config.EnableDynamicBackoff {
		return
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		return
	}

	if time.Since(state.LastError) > BackoffCooldownPeriod {
		if limiter, ok := rl.limiters[host]; ok && state.ReducedRPS > 0 {
			limiter.SetLimit(rate.Limit(state.OriginalRPS))
		}
		delete(rl.backoff, host)
		return
	}

	if state.ConsecutiveErrors > 0 {
		state.ConsecutiveErrors--
		// Recover to half the original rate; full rate waits for the cooldown.
		if state.ConsecutiveErrors == 0 && state.ReducedRPS > 0 {
			if half := state.OriginalRPS * 0.5; half > state.ReducedRPS {
				state.ReducedRPS = half
				if limiter, ok := rl.limiters[host]; ok {
					limiter.SetLimit(rate.Limit(half))
				}
			}
		}
	}
}

// GetBackoffState returns a copy of the host's backoff state, or nil.
func (rl *RateLimiter) GetBackoffState(host string) *BackoffState {
	if rl == nil {
		return nil
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, ok := rl.backoff[host]
	if !ok {
		return nil
	}
	cp := *state
	return &cp
}

// WaitForBackoff waits out the remainder of the host's current pause.
func (rl *RateLimiter) WaitForBackoff(ctx context.Context, host string) error {
	state := rl.GetBackoffState(host)
	if state == nil {
		return nil
	}

	remaining := state.CurrentBackoff - time.Since(state.LastError)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
