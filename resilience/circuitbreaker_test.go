package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})

	for i := 0; i < 3; i++ {
		if !cb.Allow("ldd") {
			t.Fatalf("breaker opened early after %d failures", i)
		}
		cb.RecordFailure("ldd")
	}

	if cb.State("ldd") != StateOpen {
		t.Errorf("state = %v, want open", cb.State("ldd"))
	}
	if cb.Allow("ldd") {
		t.Error("open breaker should block invocations")
	}
}

func TestCircuitBreaker_PerTool(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})

	cb.RecordFailure("ldd")

	if cb.Allow("ldd") {
		t.Error("ldd breaker should be open")
	}
	if !cb.Allow("otool") {
		t.Error("otool breaker should be unaffected")
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		SuccessThreshold: 1,
		Timeout:          10 * time.Millisecond,
	})

	cb.RecordFailure("ldd")
	if cb.Allow("ldd") {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)

	if !cb.Allow("ldd") {
		t.Fatal("breaker should transition to half-open after timeout")
	}
	cb.RecordSuccess("ldd")

	if cb.State("ldd") != StateClosed {
		t.Errorf("state = %v, want closed after recovery", cb.State("ldd"))
	}
}

func TestCircuitBreaker_SuccessResetsFailures(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 2,
		SuccessThreshold: 1,
		Timeout:          time.Minute,
	})

	cb.RecordFailure("ldd")
	cb.RecordSuccess("ldd")
	cb.RecordFailure("ldd")

	if cb.State("ldd") != StateClosed {
		t.Error("interleaved success should reset the failure count")
	}
}
