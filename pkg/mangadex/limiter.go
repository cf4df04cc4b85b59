package mangadex

import (
	"strings"
	"sync"
	"time"
)

// Clock abstracts sleeping so tests can run cooldowns without real waiting.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Cooldown seconds keyed by the endpoint's first path segment. Unknown
// segments fall back to defaultCooldown. POST/PUT/DELETE would need their own
// entries; every GET endpoint currently sits at 60.
// See https://api.mangadex.org/docs/2-limitations/
var cooldowns = map[string]int{
	"at-home": 60,
}

const defaultCooldown = 60

type limiterState int

const (
	stateIdle limiterState = iota
	stateCooldown
)

// CooldownFunc observes a running cooldown: endpoint plus seconds remaining.
// Called once per second, last call with remaining == 0.
type CooldownFunc func(endpoint string, remaining int)

// RateLimiter blocks callers for a fixed per-endpoint-class cooldown after the
// API reports too many requests. It is deliberately non-adaptive: no response
// header inspection, no exponential backoff. The single mutex means concurrent
// requests that hit the limit queue up behind one cooldown instead of each
// serving their own.
type RateLimiter struct {
	mu     sync.Mutex
	state  limiterState
	clock  Clock
	onTick CooldownFunc
}

func NewRateLimiter(clock Clock, onTick CooldownFunc) *RateLimiter {
	if clock == nil {
		clock = realClock{}
	}
	return &RateLimiter{clock: clock, onTick: onTick}
}

// Cooldown blocks for the endpoint class's full cooldown, ticking once per
// second. Returns once the remaining time reaches zero.
func (l *RateLimiter) Cooldown(endpoint string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.state = stateCooldown
	for remaining := cooldownFor(endpoint); remaining >= 0; remaining-- {
		if l.onTick != nil {
			l.onTick(endpoint, remaining)
		}
		if remaining > 0 {
			l.clock.Sleep(time.Second)
		}
	}
	l.state = stateIdle
}

// cooldownFor resolves the cooldown seconds for an endpoint from its first
// non-empty path segment.
func cooldownFor(endpoint string) int {
	for _, seg := range strings.Split(endpoint, "/") {
		if seg == "" {
			continue
		}
		if secs, ok := cooldowns[seg]; ok {
			return secs
		}
		break
	}
	return defaultCooldown
}
