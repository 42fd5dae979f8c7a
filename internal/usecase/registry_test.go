//go:build !integration

package usecase

import (
	"errors"
	"sync"
	"testing"
	"time"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/infra/encoder"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&fakeDispatcher{}, encoder.New(), SessionOptions{Welcome: "hello", Endpoints: testEndpoints}, nil)

	if _, err := r.Get(42); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	a, created := r.GetOrCreate(42)
	if !created {
		t.Fatal("first contact should create a session")
	}
	b, created := r.GetOrCreate(42)
	if created || a != b {
		t.Fatal("second contact should reuse the session")
	}
	c, _ := r.GetOrCreate(7)
	if c.ID() == a.ID() {
		t.Fatal("sessions must have distinct ids")
	}
	if len(a.Transcript()) != 1 {
		t.Fatal("welcome should seed every session")
	}
	if r.Len() != 2 {
		t.Fatalf("Len = %d", r.Len())
	}
}

func TestRegistry_Reset(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&fakeDispatcher{}, encoder.New(), SessionOptions{Endpoints: testEndpoints}, nil)
	old, _ := r.GetOrCreate(1)
	old.SetDraft("q")
	if _, err := old.Submit(); err != nil {
		t.Fatal(err)
	}
	fresh := r.Reset(1)
	if fresh == old || fresh.Pending() || len(fresh.Transcript()) != 0 {
		t.Fatal("reset should install a clean session")
	}
	got, err := r.Get(1)
	if err != nil || got != fresh {
		t.Fatalf("Get after Reset = %v, %v", got, err)
	}
}

func TestRegistry_ConcurrentFirstContact(t *testing.T) {
	t.Parallel()
	r := NewRegistry(&fakeDispatcher{}, encoder.New(), SessionOptions{Endpoints: testEndpoints}, nil)
	var wg sync.WaitGroup
	out := make([]*Session, 16)
	for i := range out {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out[i], _ = r.GetOrCreate(99)
		}(i)
	}
	wg.Wait()
	for _, s := range out[1:] {
		if s != out[0] {
			t.Fatal("concurrent first contact created more than one session")
		}
	}
}

func TestRegistry_SweepKeepsBusyAndRecentSessions(t *testing.T) {
	t.Parallel()
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(&fakeDispatcher{}, encoder.New(), SessionOptions{
		Welcome:   "hello",
		Endpoints: testEndpoints,
		Now:       func() time.Time { return t0 },
	}, nil)
	r.GetOrCreate(1)
	busy, _ := r.GetOrCreate(2)
	busy.SetDraft("still thinking?")
	if _, err := busy.Submit(); err != nil {
		t.Fatal(err)
	}

	if n := r.Sweep(t0); n != 0 {
		t.Fatalf("nothing is older than the cutoff, swept %d", n)
	}
	if n := r.Sweep(t0.Add(time.Minute)); n != 1 {
		t.Fatalf("Sweep = %d, want 1", n)
	}
	if _, err := r.Get(1); !errors.Is(err, domain.ErrNotFound) {
		t.Fatal("idle session should be gone")
	}
	if got, err := r.Get(2); err != nil || got != busy {
		t.Fatal("session with a pending exchange must survive")
	}
}
