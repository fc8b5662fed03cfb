package signal

import (
	"sync"
	"time"

	"github.com/orbitalk/relay/internal/domain"
)

// ConfigRateLimiter bounds how often one session may reconfigure itself.
// Every config message restarts streaming recognition, so unthrottled
// reconfiguration would churn upstream subscriptions.
type ConfigRateLimiter struct {
	mu       sync.Mutex
	history  map[domain.SessionID][]time.Time
	limit    int
	interval time.Duration
}

func NewConfigRateLimiter(limit int, interval time.Duration) *ConfigRateLimiter {
	return &ConfigRateLimiter{
		history:  make(map[domain.SessionID][]time.Time),
		limit:    limit,
		interval: interval,
	}
}

func (rl *ConfigRateLimiter) Allow(sid domain.SessionID) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	windowStart := now.Add(-rl.interval)

	attempts := rl.history[sid]

	fresh := make([]time.Time, 0, len(attempts))
	for _, t := range attempts {
		if t.After(windowStart) {
			fresh = append(fresh, t)
		}
	}

	if len(fresh) >= rl.limit {
		rl.history[sid] = fresh
		return false
	}

	fresh = append(fresh, now)
	rl.history[sid] = fresh

	return true
}

// Forget drops a session's history on teardown.
func (rl *ConfigRateLimiter) Forget(sid domain.SessionID) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.history, sid)
}
