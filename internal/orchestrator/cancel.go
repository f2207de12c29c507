package orchestrator

import (
	"sync"
	"sync/atomic"
)

// CancelToken signals best-effort cancellation to the scheduler and runner.
// It is checked between items/chunks and at stage boundaries, never during a
// stage call, so an in-flight stage request always runs to its own timeout.
type CancelToken struct {
	flag atomic.Bool
}

// Cancel flips the token. Safe to call more than once.
func (t *CancelToken) Cancel() { t.flag.Store(true) }

// Cancelled reports whether cancellation was requested.
func (t *CancelToken) Cancelled() bool { return t.flag.Load() }

// cancelSet tracks the cancel token of every batch currently running in this
// process, keyed by batch id.
type cancelSet struct {
	mu     sync.Mutex
	tokens map[string]*CancelToken
}

func newCancelSet() *cancelSet {
	return &cancelSet{tokens: make(map[string]*CancelToken)}
}

// ensure returns the token for batchID, registering one if none exists yet.
// Prepare registers it, so a cancellation landing before Run starts is seen
// by Run instead of being replaced by a fresh token.
func (s *cancelSet) ensure(batchID string) *CancelToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[batchID]
	if !ok {
		tok = &CancelToken{}
		s.tokens[batchID] = tok
	}
	return tok
}

// cancel fires the token for batchID if the batch is still running here.
func (s *cancelSet) cancel(batchID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[batchID]
	if ok {
		tok.Cancel()
	}
	return ok
}

// remove drops the token once the batch resolves.
func (s *cancelSet) remove(batchID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, batchID)
}
