package guard

import (
	"sync"
	"time"
)

// TTLStore is a small expiring key/value counter store. It replaces what
// would otherwise be ambient module-level state: an instance is constructed
// once, owned by its SubmissionGuard, and injected where needed.
type TTLStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time // swapped in tests
}

type entry struct {
	count     int
	expiresAt time.Time
}

// NewTTLStore creates a store whose entries expire ttl after first touch.
func NewTTLStore(ttl time.Duration) *TTLStore {
	return &TTLStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Incr bumps the counter for key and returns the new count within the
// current window. Expired entries restart at 1.
func (s *TTLStore) Incr(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok || now.After(e.expiresAt) {
		e = entry{expiresAt: now.Add(s.ttl)}
	}
	e.count++
	s.entries[key] = e
	return e.count
}

// Seen reports whether key is present and unexpired, then records it.
func (s *TTLStore) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	live := ok && !now.After(e.expiresAt)
	if !live {
		s.entries[key] = entry{count: 1, expiresAt: now.Add(s.ttl)}
	}
	return live
}

// Sweep evicts expired entries. Called opportunistically by the guard; the
// map otherwise self-corrects on access.
func (s *TTLStore) Sweep() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Len returns the number of stored entries, expired or not.
func (s *TTLStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
