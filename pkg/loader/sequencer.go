package loader

import (
	"sync"

	"bank-console/pkg/view"
)

// Sequencer issues a monotonically increasing token per resource. Only a
// response carrying the latest token may be applied.
type Sequencer struct {
	mu     sync.Mutex
	tokens map[view.Resource]uint64
}

// NewSequencer creates an empty sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{tokens: make(map[view.Resource]uint64)}
}

// Next issues a new token for res, superseding every earlier one.
func (s *Sequencer) Next(res view.Resource) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tokens[res]++
	return s.tokens[res]
}

// Invalidate supersedes all outstanding tokens of res without a new request.
func (s *Sequencer) Invalidate(res view.Resource) {
	s.Next(res)
}

// IsLatest reports whether token is still the newest issued for res.
func (s *Sequencer) IsLatest(res view.Resource, token uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tokens[res] == token
}
