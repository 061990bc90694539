package resilience

import (
	"sync"
	"time"
)

// CircuitBreaker guards repeated invocations of an external tool.
// When an inspector keeps failing (missing from PATH, broken install),
// the breaker opens and the closure builder defaults the remaining
// binaries to "no dependencies" without spawning the tool again.
type CircuitBreaker interface {
	// Allow checks if an invocation of the named tool is allowed.
	Allow(tool string) bool

	// RecordSuccess records a successful invocation.
	RecordSuccess(tool string)

	// RecordFailure records a failed invocation.
	RecordFailure(tool string)

	// State returns the current state for a tool.
	State(tool string) CircuitState
}

// CircuitState represents the circuit breaker state.
type CircuitState int

const (
	// StateClosed allows invocations through.
	StateClosed CircuitState = iota
	// StateOpen blocks all invocations.
	StateOpen
	// StateHalfOpen allows limited invocations for testing.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// FailureThreshold is the number of failures before opening.
	FailureThreshold int

	// SuccessThreshold is the number of successes to close from half-open.
	SuccessThreshold int

	// Timeout is the duration to wait before transitioning to half-open.
	Timeout time.Duration
}

// DefaultCircuitBreakerConfig returns default configuration.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// circuitBreaker implements CircuitBreaker with one breaker per tool.
type circuitBreaker struct {
	config   CircuitBreakerConfig
	breakers map[string]*breaker
	mu       sync.RWMutex
}

// breaker represents a single circuit breaker.
type breaker struct {
	state           CircuitState
	failures        int
	successes       int
	lastFailureTime time.Time
	config          *CircuitBreakerConfig
	mu              sync.Mutex
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) CircuitBreaker {
	if config.FailureThreshold <= 0 {
		config = DefaultCircuitBreakerConfig()
	}
	return &circuitBreaker{
		config:   config,
		breakers: make(map[string]*breaker),
	}
}

// Allow implements CircuitBreaker.Allow.
func (cb *circuitBreaker) Allow(tool string) bool {
	return cb.getBreaker(tool).allow()
}

// RecordSuccess implements CircuitBreaker.RecordSuccess.
func (cb *circuitBreaker) RecordSuccess(tool string) {
	cb.getBreaker(tool).recordSuccess()
}

// RecordFailure implements CircuitBreaker.RecordFailure.
func (cb *circuitBreaker) RecordFailure(tool string) {
	cb.getBreaker(tool).recordFailure()
}

// State implements CircuitBreaker.State.
func (cb *circuitBreaker) State(tool string) CircuitState {
	b := cb.getBreaker(tool)
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (cb *circuitBreaker) getBreaker(tool string) *breaker {
	cb.mu.RLock()
	b, ok := cb.breakers[tool]
	cb.mu.RUnlock()
	if ok {
		return b
	}

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if b, ok := cb.breakers[tool]; ok {
		return b
	}
	b = &breaker{state: StateClosed, config: &cb.config}
	cb.breakers[tool] = b
	return b
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if time.Since(b.lastFailureTime) >= b.config.Timeout {
			b.state = StateHalfOpen
			b.successes = 0
			return true
		}
		return false
	case StateHalfOpen:
		return true
	default:
		return true
	}
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateClosed:
		b.failures = 0
	case StateHalfOpen:
		b.successes++
		if b.successes >= b.config.SuccessThreshold {
			b.state = StateClosed
			b.failures = 0
		}
	}
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastFailureTime = time.Now()

	switch b.state {
	case StateClosed:
		b.failures++
		if b.failures >= b.config.FailureThreshold {
			b.state = StateOpen
		}
	case StateHalfOpen:
		b.state = StateOpen
	}
}
