package security

import (
	"sync"
	"time"
)

const (
	// Failed logins within the trailing window before a client is blocked
	DefaultBruteForceThreshold = 5
	// Forgiveness window: a failure this long after the previous one restarts
	// accumulation at 1 instead of incrementing
	DefaultBruteForceWindow = 15 * time.Minute
)

type failedLoginRecord struct {
	count       int
	lastAttempt time.Time
}

// BlockedClient is the punitive state for a client key. Blocked is cleared
// only by an explicit successful login from the same key, never by time.
type BlockedClient struct {
	Blocked     bool
	Attempts    int
	LastAttempt time.Time
}

// BruteForceGuard tracks failed-login counts per client key and blocks keys
// that cross the threshold. State machine per key:
//
//	Clear -> Accumulating(n) -> Blocked -> Clear (success only)
//
// The failure counter and the blocked flag live in independent maps: a
// successful login clears both, while the periodic sweep only prunes stale
// failure records, blocked entries persist until cleared.
type BruteForceGuard struct {
	mu        sync.Mutex
	failures  map[string]*failedLoginRecord
	blocked   map[string]*BlockedClient
	threshold int
	window    time.Duration
	now       func() time.Time
}

// NewBruteForceGuard creates a guard with the default 5-attempts / 15-minute
// policy.
func NewBruteForceGuard() *BruteForceGuard {
	return &BruteForceGuard{
		failures:  make(map[string]*failedLoginRecord),
		blocked:   make(map[string]*BlockedClient),
		threshold: DefaultBruteForceThreshold,
		window:    DefaultBruteForceWindow,
		now:       time.Now,
	}
}

// RecordFailure registers a failed login for key. It returns the updated
// count and whether this failure is the one that tripped the block: the
// attempt crossing the threshold both trips the block and is the triggering
// event callers report.
func (g *BruteForceGuard) RecordFailure(key string) (count int, tripped bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	rec, ok := g.failures[key]
	if !ok || now.Sub(rec.lastAttempt) > g.window {
		// Stale-window forgiveness: old failures do not carry over.
		rec = &failedLoginRecord{}
		g.failures[key] = rec
	}
	rec.count++
	rec.lastAttempt = now

	if rec.count >= g.threshold {
		b, ok := g.blocked[key]
		if !ok {
			b = &BlockedClient{}
			g.blocked[key] = b
		}
		tripped = !b.Blocked
		b.Blocked = true
		b.Attempts = rec.count
		b.LastAttempt = now
	}

	return rec.count, tripped
}

// RecordSuccess clears the failure counter and lifts any block for key.
// A single correct credential immediately unblocks, there is no cooldown.
func (g *BruteForceGuard) RecordSuccess(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.failures, key)
	if b, ok := g.blocked[key]; ok {
		b.Blocked = false
	}
}

// IsBlocked reports whether key is currently blocked
func (g *BruteForceGuard) IsBlocked(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.blocked[key]
	return ok && b.Blocked
}

// Snapshot returns the current blocked state for key, for observability
func (g *BruteForceGuard) Snapshot(key string) (BlockedClient, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	b, ok := g.blocked[key]
	if !ok {
		return BlockedClient{}, false
	}
	return *b, true
}

// BlockedCount reports how many keys are currently blocked
func (g *BruteForceGuard) BlockedCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	count := 0
	for _, b := range g.blocked {
		if b.Blocked {
			count++
		}
	}
	return count
}

// Sweep prunes failure records whose window has lapsed. Blocked entries are
// not touched: blocks only clear on success.
func (g *BruteForceGuard) Sweep() int {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	removed := 0
	for key, rec := range g.failures {
		if now.Sub(rec.lastAttempt) > g.window {
			delete(g.failures, key)
			removed++
		}
	}
	return removed
}
