// Package dedup remembers which creator identities were already emitted during a run.
package dedup

import "sync"

// Set is a run scoped set of identities, it is safe for concurrent use.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewSet() *Set {
	return &Set{seen: map[string]struct{}{}}
}

// Admit records identity and reports whether this is the first time it was seen.
func (s *Set) Admit(identity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[identity]; ok {
		return false
	}
	s.seen[identity] = struct{}{}
	return true
}

func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
