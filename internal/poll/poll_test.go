package poll

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunsImmediatelyAndRepeats(t *testing.T) {
	var runs int32
	p := New(10*time.Millisecond, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	p.Start(context.Background())
	defer p.Stop()

	deadline := time.After(2 * time.Second)
	for atomic.LoadInt32(&runs) < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 runs, got %d", atomic.LoadInt32(&runs))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestNoOverlappingRuns(t *testing.T) {
	var inFlight, overlapped int32
	p := New(5*time.Millisecond, func(ctx context.Context) {
		if atomic.AddInt32(&inFlight, 1) > 1 {
			atomic.StoreInt32(&overlapped, 1)
		}
		time.Sleep(20 * time.Millisecond) // slower than the interval
		atomic.AddInt32(&inFlight, -1)
	})

	p.Start(context.Background())
	time.Sleep(100 * time.Millisecond)
	p.Stop()

	if atomic.LoadInt32(&overlapped) == 1 {
		t.Error("runs overlapped despite guard")
	}
}

func TestStopWaitsForInFlightRun(t *testing.T) {
	done := make(chan struct{})
	var closed int32
	p := New(time.Hour, func(ctx context.Context) {
		time.Sleep(30 * time.Millisecond)
		atomic.StoreInt32(&closed, 1)
		close(done)
	})

	p.Start(context.Background())
	p.Stop()

	if atomic.LoadInt32(&closed) != 1 {
		t.Error("Stop returned before the in-flight run finished")
	}
	select {
	case <-done:
	default:
		t.Error("run never completed")
	}
}

func TestStartTwiceIsNoop(t *testing.T) {
	var runs int32
	p := New(time.Hour, func(ctx context.Context) {
		atomic.AddInt32(&runs, 1)
	})

	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()

	if got := atomic.LoadInt32(&runs); got != 1 {
		t.Errorf("expected exactly 1 immediate run, got %d", got)
	}
	if p.Running() {
		t.Error("expected stopped poller")
	}
}

func TestStopsWhenContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := New(5*time.Millisecond, func(ctx context.Context) {})

	p.Start(ctx)
	cancel()
	p.Stop()

	if p.Running() {
		t.Error("expected stopped poller after context cancel")
	}
}
