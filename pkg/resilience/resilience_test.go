package resilience

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRetryPolicyStopsOnSuccess(t *testing.T) {
	p := NewRetryPolicy(3, time.Millisecond)
	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 attempts, got %d", calls)
	}
}

func TestRetryPolicyExhaustsAttempts(t *testing.T) {
	p := NewRetryPolicy(2, time.Millisecond)
	calls := 0
	err := p.Do(func() error {
		calls++
		return errors.New("still broken")
	})
	if err == nil {
		t.Fatalf("expected error after exhaustion")
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestIsRateLimitUnwraps(t *testing.T) {
	wrapped := fmt.Errorf("call failed: %w", RateLimitError{Provider: "openai"})
	if !IsRateLimit(wrapped) {
		t.Fatalf("wrapped rate limit not detected")
	}
	if IsRateLimit(errors.New("boom")) {
		t.Fatalf("plain error misclassified")
	}
}

func TestCircuitBreakerOpensOnRateLimits(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Minute)
	if !cb.Allow() {
		t.Fatalf("breaker must start closed")
	}
	cb.OnError(RateLimitError{})
	if !cb.Allow() {
		t.Fatalf("breaker opened below threshold")
	}
	cb.OnError(RateLimitError{})
	if cb.Allow() {
		t.Fatalf("breaker must open at threshold")
	}
	cb.OnSuccess()
	if !cb.Allow() {
		t.Fatalf("success must reset the breaker")
	}
}

func TestCircuitBreakerIgnoresOtherErrors(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	cb.OnError(errors.New("timeout"))
	cb.OnError(errors.New("transport"))
	if !cb.Allow() {
		t.Fatalf("non rate-limit errors must not open the breaker")
	}
}
