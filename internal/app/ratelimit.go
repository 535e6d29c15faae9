package app

import (
	"sync"
	"time"

	"github.com/dkeye/Telecall/internal/domain"
)

// RateLimiter is a per-user sliding window over call attempts.
type RateLimiter struct {
	mu       sync.Mutex
	history  map[domain.UserID][]time.Time
	limit    int
	interval time.Duration
	now      func() time.Time
}

func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return &RateLimiter{
		history:  make(map[domain.UserID][]time.Time),
		limit:    limit,
		interval: interval,
		now:      time.Now,
	}
}

func (rl *RateLimiter) Allow(uid domain.UserID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[uid]
	fresh := make([]time.Time, 0, len(attempts)+1)
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[uid] = fresh
		return false
	}

	rl.history[uid] = append(fresh, now)
	return true
}

// Expire drops the history of uid once its newest attempt has left the
// window. A recent history is kept so reconnecting does not reset the limit.
func (rl *RateLimiter) Expire(uid domain.UserID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	attempts := rl.history[uid]
	if len(attempts) == 0 || !attempts[len(attempts)-1].After(rl.now().Add(-rl.interval)) {
		delete(rl.history, uid)
	}
}

// Prune drops every history whose window has passed.
func (rl *RateLimiter) Prune() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	windowStart := rl.now().Add(-rl.interval)
	for uid, attempts := range rl.history {
		if len(attempts) == 0 || !attempts[len(attempts)-1].After(windowStart) {
			delete(rl.history, uid)
		}
	}
}
