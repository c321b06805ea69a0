package guard

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newGuard(interval time.Duration) (*Guard, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	g := New(interval)
	g.now = clock.Now
	g.lastCleanup = clock.Now()
	return g, clock
}

func TestRejectsWhileInFlight(t *testing.T) {
	g, _ := newGuard(0)

	release, err := g.Acquire(Key("transfer", "b@x.io"))
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := g.Acquire(Key("transfer", "b@x.io")); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected ErrInFlight, got %v", err)
	}
	if _, err := g.Acquire(Key("transfer", "c@x.io")); err != nil {
		t.Fatalf("other targets must not be blocked: %v", err)
	}

	release()
	release()
	if _, err := g.Acquire(Key("transfer", "b@x.io")); err != nil {
		t.Fatalf("expected acquire after release: %v", err)
	}
}

func TestMinimumInterval(t *testing.T) {
	g, clock := newGuard(2 * time.Second)

	release, err := g.Acquire("decide:7")
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	clock.Advance(time.Second)
	if _, err := g.Acquire("decide:7"); !errors.Is(err, ErrInFlight) {
		t.Fatalf("expected duplicate inside interval, got %v", err)
	}

	clock.Advance(2 * time.Second)
	if _, err := g.Acquire("decide:7"); err != nil {
		t.Fatalf("expected acquire after interval: %v", err)
	}
}

func TestConcurrentAcquireAdmitsOne(t *testing.T) {
	g, _ := newGuard(0)

	var admitted int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Acquire("topup:new"); err == nil {
				atomic.AddInt32(&admitted, 1)
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("expected exactly one admitted submission, got %d", admitted)
	}
	if g.InFlight() != 1 {
		t.Fatalf("expected one in-flight key, got %d", g.InFlight())
	}
}
