package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingDrainer struct {
	calls int32
	delay time.Duration
}

func (d *countingDrainer) Drain() error {
	atomic.AddInt32(&d.calls, 1)
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	return nil
}

func TestRunnerDrainsOnCancel(t *testing.T) {
	drainer := &countingDrainer{}
	var started, stopped int32
	r := NewLifecycleRunner(drainer, Hooks{
		OnStart: func() { atomic.AddInt32(&started, 1) },
		OnStop:  func() { atomic.AddInt32(&stopped, 1) },
	}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	waitRunning(t, r)
	cancel()

	if err := <-errCh; err != nil {
		t.Fatalf("run returned error: %v", err)
	}
	if r.State() != StateStopped {
		t.Fatalf("expected stopped state, got %s", r.State())
	}
	if atomic.LoadInt32(&drainer.calls) != 1 {
		t.Fatalf("expected one drain call")
	}
	if atomic.LoadInt32(&started) != 1 || atomic.LoadInt32(&stopped) != 1 {
		t.Fatalf("hooks not invoked exactly once")
	}
}

func waitRunning(t *testing.T, r *LifecycleRunner) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for r.State() != StateRunning {
		if time.Now().After(deadline) {
			t.Fatalf("runner never reached running state")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestRunnerDrainTimeout(t *testing.T) {
	drainer := &countingDrainer{delay: 200 * time.Millisecond}
	r := NewLifecycleRunner(drainer, Hooks{}, 10*time.Millisecond)

	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()
	waitRunning(t, r)
	_ = r.Stop()
	if err := <-errCh; err == nil {
		t.Fatalf("expected drain timeout error")
	}
}

func TestRunnerRejectsSecondRun(t *testing.T) {
	r := NewLifecycleRunner(nil, Hooks{}, time.Second)
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(context.Background()) }()
	waitRunning(t, r)
	_ = r.Stop()
	if err := <-errCh; err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := r.Run(context.Background()); err == nil {
		t.Fatalf("second run must be rejected")
	}
}
