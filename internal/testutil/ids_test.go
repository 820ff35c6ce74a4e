package testutil

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedIDGenerator_ReturnsSameID(t *testing.T) {
	gen := NewFixedIDGenerator("sync-abc")

	assert.Equal(t, "sync-abc", gen.Generate())
	assert.Equal(t, "sync-abc", gen.Generate())
}

func TestFixedIDGenerator_EmptyIDDefault(t *testing.T) {
	assert.Equal(t, "test-sync-default", NewFixedIDGenerator("").Generate())
}

func TestSequenceIDGenerator_Ordered(t *testing.T) {
	var gen SequenceIDGenerator

	assert.Equal(t, "sync-0001", gen.Generate())
	assert.Equal(t, "sync-0002", gen.Generate())
	assert.Equal(t, 2, gen.Count())
}

func TestSequenceIDGenerator_ThreadSafe(t *testing.T) {
	var gen SequenceIDGenerator
	const goroutines = 20
	const calls = 50

	ids := make(chan string, goroutines*calls)
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < calls; j++ {
				ids <- gen.Generate()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, goroutines*calls)
	assert.Equal(t, goroutines*calls, gen.Count())
}
