package dispatch

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// ReplayGuard remembers form nonces so that a resubmitted page is refused.
// It keeps two bloom filter generations: once the current one holds
// capacity nonces it becomes the previous one and a fresh filter starts.
type ReplayGuard struct {
	mu       sync.Mutex
	current  *bloom.BloomFilter
	previous *bloom.BloomFilter
	added    uint
	capacity uint
	fpRate   float64
}

// NewReplayGuard creates a guard sized for capacity nonces per generation.
func NewReplayGuard(capacity uint, falsePositiveRate float64) *ReplayGuard {
	if capacity == 0 {
		capacity = 100000
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = 1e-6
	}
	return &ReplayGuard{
		current:  bloom.NewWithEstimates(capacity, falsePositiveRate),
		capacity: capacity,
		fpRate:   falsePositiveRate,
	}
}

// Seen records nonce and reports whether it had been recorded before.
func (g *ReplayGuard) Seen(nonce string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.previous != nil && g.previous.TestString(nonce) {
		return true
	}
	if g.current.TestAndAddString(nonce) {
		return true
	}

	g.added++
	if g.added >= g.capacity {
		g.previous = g.current
		g.current = bloom.NewWithEstimates(g.capacity, g.fpRate)
		g.added = 0
	}
	return false
}
