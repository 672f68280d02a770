// Package testutil provides deterministic test doubles shared across
// packages.
package testutil

import "sync"

// DeterministicClock is a resettable generation-token source for tests.
//
// Unlike probe.Clock it can be rewound, so the same scenario can run
// repeatedly with identical token values (required for golden output
// comparison).
//
// Implements probe.TokenSource.
type DeterministicClock struct {
	mu  sync.Mutex
	seq int64
}

// NewDeterministicClock creates a clock starting at 0; the first token is 1.
func NewDeterministicClock() *DeterministicClock {
	return &DeterministicClock{}
}

// Next returns the next generation token.
func (c *DeterministicClock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last issued token without advancing.
func (c *DeterministicClock) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the clock so the next token is 1 again.
func (c *DeterministicClock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
