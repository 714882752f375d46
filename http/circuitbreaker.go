package http

import (
	"sync"
	"time"
)

// CircuitState is the state of one host's circuit.
type CircuitState int

const (
	// CircuitClosed lets every request through.
	CircuitClosed CircuitState = iota
	// CircuitOpen refuses requests until the recovery timeout passes.
	CircuitOpen
	// CircuitHalfOpen lets a single trial request through.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreakerConfig tunes when a host's circuit opens and closes again.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit.
	FailureThreshold int
	// RecoveryTimeout is how long an open circuit waits before allowing a trial request.
	RecoveryTimeout time.Duration
}

// DefaultCircuitBreakerConfig returns the default breaker settings.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		RecoveryTimeout:  30 * time.Second,
	}
}

type circuit struct {
	state    CircuitState
	failures int
	openedAt time.Time
	probing  bool
}

// CircuitBreaker tracks consecutive failures per host.
// A nil *CircuitBreaker allows everything.
type CircuitBreaker struct {
	mu       sync.Mutex
	circuits map[string]*circuit
	config   CircuitBreakerConfig
}

// NewCircuitBreaker creates a circuit breaker, filling unset fields with defaults.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	def := DefaultCircuitBreakerConfig()
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	if cfg.RecoveryTimeout <= 0 {
		cfg.RecoveryTimeout = def.RecoveryTimeout
	}
	return &CircuitBreaker{
		circuits: make(map[string]*circuit),
		config:   cfg,
	}
}

// Allow returns a *CircuitOpenError if requests to host should not be sent.
func (cb *CircuitBreaker) Allow(host string) error {
	if cb == nil {
		return nil
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	switch c.state {
	case CircuitOpen:
		if time.Since(c.openedAt) < cb.config.RecoveryTimeout {
			return &CircuitOpenError{Host: host}
		}
		c.state = CircuitHalfOpen
		c.probing = true
		return nil
	case CircuitHalfOpen:
		if c.probing {
			return &CircuitOpenError{Host: host}
		}
		c.probing = true
	}
	return nil
}

// RecordSuccess closes the host's circuit.
func (cb *CircuitBreaker) RecordSuccess(host string) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	c.state = CircuitClosed
	c.failures = 0
	c.probing = false
}

// RecordFailure counts a failure against host. A failed trial request reopens the
// circuit immediately.
func (cb *CircuitBreaker) RecordFailure(host string) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c := cb.get(host)
	c.failures++
	if c.state == CircuitHalfOpen || c.failures >= cb.config.FailureThreshold {
		c.state = CircuitOpen
		c.openedAt = time.Now()
		c.probing = false
	}
}

// release gives up a half-open trial request without judging the host, so the next
// request may try instead.
func (cb *CircuitBreaker) release(host string) {
	if cb == nil {
		return
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.get(host).probing = false
}

// State returns the host's current circuit state.
func (cb *CircuitBreaker) State(host string) CircuitState {
	if cb == nil {
		return CircuitClosed
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()

	c, ok := cb.circuits[host]
	if !ok {
		return CircuitClosed
	}
	if c.state == CircuitOpen && time.Since(c.openedAt) >= cb.config.RecoveryTimeout {
		return CircuitHalfOpen
	}
	return c.state
}

func (cb *CircuitBreaker) get(host string) *circuit {
	c, ok := cb.circuits[host]
	if !ok {
		c = &circuit{}
		cb.circuits[host] = c
	}
	return c
}
