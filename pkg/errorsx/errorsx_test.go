package errorsx

import (
	"context"
	"fmt"
	"testing"
)

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestWrapAndReason(t *testing.T) {
	err := Wrap(assertErr{}, ReasonLLMGenerate)
	if Reason(err) != ReasonLLMGenerate {
		t.Fatalf("expected reason %s, got %s", ReasonLLMGenerate, Reason(err))
	}
	if !HasReason(err, ReasonLLMGenerate) {
		t.Fatalf("expected HasReason true")
	}
}

func TestWrapPreservesExistingReason(t *testing.T) {
	first := Wrap(assertErr{}, ReasonSTTTranscribe)
	second := Wrap(first, ReasonLLMGenerate)
	if Reason(second) != ReasonSTTTranscribe {
		t.Fatalf("expected reason preserved, got %s", Reason(second))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, ReasonTTSSynthesize) != nil {
		t.Fatalf("expected nil")
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("deadline exceeded should be a timeout")
	}
	if !IsTimeout(fmt.Errorf("call: %w", context.Canceled)) {
		t.Fatalf("wrapped cancellation should be a timeout")
	}
	if IsTimeout(assertErr{}) {
		t.Fatalf("plain error should not be a timeout")
	}
}
