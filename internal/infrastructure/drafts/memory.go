// Package drafts stores remembered form drafts per visitor.
package drafts

import (
	"context"
	"maps"
	"sync"
	"time"
)

type memoryEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// MemoryStore keeps drafts in process memory. Implements domain.DraftStore.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]map[string]memoryEntry
}

// NewMemoryStore creates an in-memory draft store. Drafts older than ttl are
// treated as absent.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]map[string]memoryEntry),
	}
}

// Save replaces the draft for form. Empty values delete it.
func (s *MemoryStore) Save(_ context.Context, visitorID, form string, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(values) == 0 {
		delete(s.entries[visitorID], form)
		return nil
	}
	forms, ok := s.entries[visitorID]
	if !ok {
		forms = make(map[string]memoryEntry)
		s.entries[visitorID] = forms
	}
	forms[form] = memoryEntry{values: maps.Clone(values), expiresAt: s.now().Add(s.ttl)}
	return nil
}

// Load returns the draft for form, or nil when there is none.
func (s *MemoryStore) Load(_ context.Context, visitorID, form string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[visitorID][form]
	if !ok {
		return nil, nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries[visitorID], form)
		return nil, nil
	}
	return maps.Clone(entry.values), nil
}

// Purge drops every draft of the visitor.
func (s *MemoryStore) Purge(_ context.Context, visitorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, visitorID)
	return nil
}
