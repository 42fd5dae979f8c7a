//go:build !integration

package sched

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type recordingSweeper struct {
	mu      sync.Mutex
	cutoffs []time.Time
	calls   chan struct{}
}

func (r *recordingSweeper) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	r.cutoffs = append(r.cutoffs, cutoff)
	r.mu.Unlock()
	select {
	case r.calls <- struct{}{}:
	default:
	}
	return 2
}

func TestSessionSweeper_SweepOnceUsesIdleCutoff(t *testing.T) {
	rec := &recordingSweeper{calls: make(chan struct{}, 1)}
	w := NewSessionSweeper(time.Minute, time.Hour, rec, nil)
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	w.now = func() time.Time { return now }

	if n := w.SweepOnce(); n != 2 {
		t.Fatalf("SweepOnce = %d", n)
	}
	if got := rec.cutoffs[0]; !got.Equal(now.Add(-time.Hour)) {
		t.Fatalf("cutoff = %v", got)
	}
}

func TestSessionSweeper_RunStopsWithContext(t *testing.T) {
	rec := &recordingSweeper{calls: make(chan struct{}, 1)}
	w := NewSessionSweeper(5*time.Millisecond, time.Hour, rec, nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	select {
	case <-rec.calls:
	case <-time.After(time.Second):
		t.Fatal("sweeper never ran")
	}
	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
}
