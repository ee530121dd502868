package http

import (
	"context"
	"testing"
	"time"
)

// TestInFlightTracker_Counting verifies increment/decrement bookkeeping.
func TestInFlightTracker_Counting(t *testing.T) {
	tr := &InFlightTracker{}
	tr.Increment()
	tr.Increment()
	tr.Decrement()
	if got := tr.Count(); got != 1 {
		t.Errorf("Count() = %d, want 1", got)
	}
}

// TestInFlightTracker_WaitForZero verifies that the wait returns once the
// count drains and errors when the context expires first.
func TestInFlightTracker_WaitForZero(t *testing.T) {
	tr := &InFlightTracker{}
	tr.Increment()

	go func() {
		time.Sleep(20 * time.Millisecond)
		tr.Decrement()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := tr.WaitForZero(ctx, 5*time.Millisecond); err != nil {
		t.Errorf("WaitForZero() error = %v, want nil", err)
	}

	tr.Increment()
	shortCtx, shortCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer shortCancel()
	if err := tr.WaitForZero(shortCtx, 5*time.Millisecond); err == nil {
		t.Error("WaitForZero() error = nil, want deadline exceeded")
	}
}
