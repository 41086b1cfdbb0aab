// Package idseq provides the monotonically increasing id generators used to
// number decoded entities. Each entity kind owns its own Sequence; sequences
// are passed explicitly to the decode functions and never shared implicitly.
package idseq

import "sync"

// Sequence hands out 1, 2, 3, ... on successive calls to Next.
// The zero value is ready to use and safe for concurrent callers.
type Sequence struct {
	mu      sync.Mutex
	current int
}

// New returns a Sequence whose first Next call yields 1.
func New() *Sequence {
	return &Sequence{}
}

// Next increments the counter and returns the new value.
func (s *Sequence) Next() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current++
	return s.current
}

// Reset returns the counter to zero so the next call to Next yields 1.
// Only tests and tooling reset sequences; production fetches never do.
func (s *Sequence) Reset() {
	s.mu.Lock()
	s.current = 0
	s.mu.Unlock()
}
