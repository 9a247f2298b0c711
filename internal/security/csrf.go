package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"sync"
	"time"
)

// DefaultCSRFTokenTTL is how long an issued token stays valid
const DefaultCSRFTokenTTL = time.Hour

type csrfTokenRecord struct {
	token     string
	expiresAt time.Time
}

// CSRFTokenManager issues and validates CSRF tokens keyed by authenticated
// identity. One active token per identity: issuing a new token replaces the
// prior one. Tokens are time-bound, not single-use; validation within the
// TTL succeeds any number of times.
type CSRFTokenManager struct {
	mu     sync.Mutex
	tokens map[string]*csrfTokenRecord
	ttl    time.Duration
	now    func() time.Time
}

// NewCSRFTokenManager creates a manager with the default 1-hour TTL
func NewCSRFTokenManager() *CSRFTokenManager {
	return &CSRFTokenManager{
		tokens: make(map[string]*csrfTokenRecord),
		ttl:    DefaultCSRFTokenTTL,
		now:    time.Now,
	}
}

// Issue generates a fresh random token for identity, replacing any prior one
func (m *CSRFTokenManager) Issue(identity string) (string, error) {
	randomBytes := make([]byte, 32)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	token := hex.EncodeToString(randomBytes)

	m.mu.Lock()
	m.tokens[identity] = &csrfTokenRecord{
		token:     token,
		expiresAt: m.now().Add(m.ttl),
	}
	m.mu.Unlock()

	return token, nil
}

// Validate fails closed: no record, token mismatch and expiry all return
// false. An expired record is evicted as a side effect.
func (m *CSRFTokenManager) Validate(identity, suppliedToken string) bool {
	if suppliedToken == "" {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.tokens[identity]
	if !ok {
		return false
	}

	if m.now().After(rec.expiresAt) {
		delete(m.tokens, identity)
		return false
	}

	return subtle.ConstantTimeCompare([]byte(rec.token), []byte(suppliedToken)) == 1
}

// Sweep evicts expired records independent of access
func (m *CSRFTokenManager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for identity, rec := range m.tokens {
		if now.After(rec.expiresAt) {
			delete(m.tokens, identity)
			removed++
		}
	}
	return removed
}

// Len reports the number of live token records
func (m *CSRFTokenManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}
