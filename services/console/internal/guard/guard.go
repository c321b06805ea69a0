package guard

import (
	"errors"
	"strings"
	"sync"
	"time"
)

var ErrInFlight = errors.New("submission already in progress")

// Guard rejects a submission while an identical one is still running, or when it
// repeats within the minimum interval of the previous one.
type Guard struct {
	mu           sync.Mutex
	minInterval  time.Duration
	inflight     map[string]struct{}
	finished     map[string]time.Time
	lastCleanup  time.Time
	cleanupEvery time.Duration
	now          func() time.Time
}

func New(minInterval time.Duration) *Guard {
	cleanup := minInterval
	if cleanup <= 0 {
		cleanup = time.Minute
	}
	return &Guard{
		minInterval:  minInterval,
		inflight:     map[string]struct{}{},
		finished:     map[string]time.Time{},
		lastCleanup:  time.Now(),
		cleanupEvery: cleanup,
		now:          time.Now,
	}
}

func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Acquire claims key. The returned release must be called once the submission ends.
func (g *Guard) Acquire(key string) (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if now.Sub(g.lastCleanup) >= g.cleanupEvery {
		for k, at := range g.finished {
			if now.Sub(at) >= g.minInterval {
				delete(g.finished, k)
			}
		}
		g.lastCleanup = now
	}

	if _, busy := g.inflight[key]; busy {
		return nil, ErrInFlight
	}
	if at, ok := g.finished[key]; ok && now.Sub(at) < g.minInterval {
		return nil, ErrInFlight
	}
	g.inflight[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.inflight, key)
			if g.minInterval > 0 {
				g.finished[key] = g.now()
			}
		})
	}, nil
}

func (g *Guard) InFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.inflight)
}
