package idgen

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySequenceStartsAtCL1001(t *testing.T) {
	seq := NewMemorySequence()

	id, err := seq.Next(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "CL1001", id)
}

func TestMemorySequenceConcurrentAllocationsAreUnique(t *testing.T) {
	seq := NewMemorySequence()

	const workers = 50
	ids := make(chan string, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, err := seq.Next(context.Background())
			assert.NoError(t, err)
			ids <- id
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)
}
