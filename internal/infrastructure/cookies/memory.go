// Package cookies persists visitors' upstream session cookies.
package cookies

import (
	"context"
	"sync"
	"time"

	"wework-hub/internal/domain"
)

type memoryJar struct {
	cookies  map[string]domain.StoredCookie
	lastUsed time.Time
}

// MemoryStore keeps cookies in process memory, so sessions survive visitor
// eviction but not a restart. Implements domain.CookieStore.
type MemoryStore struct {
	mu   sync.Mutex
	ttl  time.Duration
	now  func() time.Time
	jars map[string]*memoryJar
}

// NewMemoryStore creates an in-memory cookie store. A visitor's cookies are
// dropped ttl after its last write.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{ttl: ttl, now: time.Now, jars: make(map[string]*memoryJar)}
}

// Load returns the visitor's unexpired cookies and restarts the visitor's
// idle lifetime.
func (s *MemoryStore) Load(_ context.Context, visitorID string) ([]domain.StoredCookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jar, ok := s.jars[visitorID]
	if !ok {
		return nil, nil
	}
	now := s.now()
	if s.ttl > 0 && now.Sub(jar.lastUsed) > s.ttl {
		delete(s.jars, visitorID)
		return nil, nil
	}
	out := make([]domain.StoredCookie, 0, len(jar.cookies))
	for key, c := range jar.cookies {
		if !c.Expires.IsZero() && now.After(c.Expires) {
			delete(jar.cookies, key)
			continue
		}
		out = append(out, c)
	}
	jar.lastUsed = now
	return out, nil
}

// Put stores c, replacing the cookie with the same key.
func (s *MemoryStore) Put(_ context.Context, visitorID string, c domain.StoredCookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	jar, ok := s.jars[visitorID]
	if !ok {
		jar = &memoryJar{cookies: make(map[string]domain.StoredCookie)}
		s.jars[visitorID] = jar
	}
	jar.cookies[c.Key()] = c
	jar.lastUsed = s.now()
	return nil
}

// Delete removes one cookie.
func (s *MemoryStore) Delete(_ context.Context, visitorID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if jar, ok := s.jars[visitorID]; ok {
		delete(jar.cookies, key)
		if len(jar.cookies) == 0 {
			delete(s.jars, visitorID)
		}
	}
	return nil
}

// Clear drops every cookie of the visitor.
func (s *MemoryStore) Clear(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jars, visitorID)
	return nil
}

// Touch restarts the visitor's idle lifetime. Unknown visitors are ignored.
func (s *MemoryStore) Touch(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if jar, ok := s.jars[visitorID]; ok {
		jar.lastUsed = s.now()
	}
	return nil
}

// sweepLocked drops idle jars. Callers hold mu.
func (s *MemoryStore) sweepLocked() {
	if s.ttl <= 0 {
		return
	}
	now := s.now()
	for id, jar := range s.jars {
		if now.Sub(jar.lastUsed) > s.ttl {
			delete(s.jars, id)
		}
	}
}
