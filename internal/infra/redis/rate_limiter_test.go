//go:build !integration

package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// memRedis is a small in-memory RedisClient used by unit tests.
type memRedis struct {
	mu      sync.Mutex
	counts  map[string]int64
	ttls    map[string]time.Duration
	incrErr error
}

func newMemRedis() *memRedis {
	return &memRedis{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (m *memRedis) Ping(ctx context.Context) error { return nil }

func (m *memRedis) Incr(ctx context.Context, key string) (int64, error) {
	if m.incrErr != nil {
		return 0, m.incrErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

func (m *memRedis) Expire(ctx context.Context, key string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = d
	return nil
}

func (m *memRedis) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.ttls[key]; ok {
		return d, nil
	}
	return -1, nil
}

func (m *memRedis) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.counts, k)
		delete(m.ttls, k)
	}
	return nil
}

func (m *memRedis) Close() error { return nil }

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	rl := NewRateLimiter(mem, 3, time.Minute)
	key := ChatKey(42, "message")

	for i := 1; i <= 3; i++ {
		ok, err := rl.Allow(ctx, key)
		if err != nil || !ok {
			t.Fatalf("call %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := rl.Allow(ctx, key); ok {
		t.Fatal("fourth call should be limited")
	}
	if mem.ttls[key] != time.Minute {
		t.Fatalf("window not applied: %v", mem.ttls[key])
	}
	if ok, _ := rl.Allow(ctx, ChatKey(7, "message")); !ok {
		t.Fatal("other chats are counted separately")
	}
}

func TestRateLimiter_RepairsMissingExpiry(t *testing.T) {
	ctx := context.Background()
	mem := newMemRedis()
	mem.counts["k"] = 5 // counter left without a TTL
	rl := NewRateLimiter(mem, 10, time.Second)
	if _, err := rl.Allow(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if mem.ttls["k"] != time.Second {
		t.Fatal("expected expiry to be restored")
	}
}

func TestRateLimiter_Error(t *testing.T) {
	mem := newMemRedis()
	mem.incrErr = errors.New("conn reset")
	rl := NewRateLimiter(mem, 1, time.Second)
	if ok, err := rl.Allow(context.Background(), "k"); err == nil || ok {
		t.Fatalf("expected error, got ok=%v err=%v", ok, err)
	}
}

func TestChatKey(t *testing.T) {
	if got := ChatKey(5, "upload"); got != "rate_limit:5:upload" {
		t.Fatalf("ChatKey = %q", got)
	}
}
