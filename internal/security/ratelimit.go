package security

import (
	"math"
	"sync"
	"time"
)

// Decision is the outcome of a fixed-window rate limit check. Limit,
// Remaining and ResetAt are populated on every check so callers can set
// informational headers even when the request is allowed.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds until the window resets; meaningful when !Allowed
}

type rateWindow struct {
	count   int
	resetAt time.Time
}

// WindowStore tracks fixed-window counters per key. A window is anchored at
// the first request of a fresh period; once its deadline passes, the next
// request resets the counter to 1 and starts a new window at "now". This
// admits a 2x burst at window boundaries. Callers depend on this exact
// behavior, do not swap in a sliding window.
type WindowStore struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

// NewWindowStore creates an empty store
func NewWindowStore() *WindowStore {
	return &WindowStore{
		windows: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Check counts a request against the window for key and reports the outcome.
// Keys are caller-composed; scoping (global vs per-endpoint) is expressed by
// key prefixes so both limiters share this primitive.
func (s *WindowStore) Check(key string, limit int, window time.Duration) Decision {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	w, ok := s.windows[key]
	if !ok || now.After(w.resetAt) {
		w = &rateWindow{count: 1, resetAt: now.Add(window)}
		s.windows[key] = w
		return Decision{
			Allowed:   true,
			Limit:     limit,
			Remaining: limit - 1,
			ResetAt:   w.resetAt,
		}
	}

	if w.count >= limit {
		retryAfter := int(math.Ceil(w.resetAt.Sub(now).Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		return Decision{
			Allowed:    false,
			Limit:      limit,
			Remaining:  0,
			ResetAt:    w.resetAt,
			RetryAfter: retryAfter,
		}
	}

	w.count++
	remaining := limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   true,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   w.resetAt,
	}
}

// Sweep removes entries whose window has expired and returns how many were
// deleted. Called on a timer decoupled from request traffic so one-shot
// clients do not grow the map forever.
func (s *WindowStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if now.After(w.resetAt) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked windows
func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// EndpointLimit configures the per-endpoint limiter for one exact path
type EndpointLimit struct {
	Window      time.Duration
	MaxRequests int
	Message     string
}

// DefaultEndpointLimits is the per-endpoint configuration table. Only paths
// present here are limited by the endpoint scope; everything else bypasses it.
func DefaultEndpointLimits() map[string]EndpointLimit {
	return map[string]EndpointLimit{
		"/api/auth/login": {
			Window:      15 * time.Minute,
			MaxRequests: 5,
			Message:     "Too many login attempts. Try again in 15 minutes.",
		},
		"/api/auth/register": {
			Window:      time.Hour,
			MaxRequests: 3,
			Message:     "Too many registration attempts. Try again in 1 hour.",
		},
		"/api/payment/preference": {
			Window:      time.Minute,
			MaxRequests: 10,
			Message:     "Too many payment requests. Wait a moment.",
		},
		"/api/cart": {
			Window:      time.Minute,
			MaxRequests: 30,
			Message:     "Too many cart requests. Wait a moment.",
		},
	}
}
