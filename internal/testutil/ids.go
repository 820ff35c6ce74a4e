package testutil

import (
	"fmt"
	"sync"
)

// FixedIDGenerator returns the same sync id every time.
//
// Output containers written with it are identical across test runs, which
// keeps golden comparisons stable.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a fixed generator. An empty id becomes
// "test-sync-default".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "test-sync-default"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}

// SequenceIDGenerator returns "sync-0001", "sync-0002", ... in call order.
//
// Safe for concurrent use; the runner stamps runs from several workers.
type SequenceIDGenerator struct {
	mu  sync.Mutex
	seq int
}

// Generate returns the next id in the sequence.
func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("sync-%04d", g.seq)
}

// Count returns how many ids were generated.
func (g *SequenceIDGenerator) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}
