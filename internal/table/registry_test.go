package table

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryReserveIsExclusive(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	const contenders = 16
	var wg sync.WaitGroup
	var mu sync.Mutex
	won := 0
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Reserve(&Session{channelID: "general", buyIn: 100}) == nil {
				mu.Lock()
				won++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryRemove(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	first := &Session{channelID: "general", buyIn: 250}
	require.NoError(t, r.Reserve(first))

	// A stale session cannot evict the current one.
	r.Remove(&Session{channelID: "general", buyIn: 10})
	got, ok := r.Lookup("general")
	require.True(t, ok)
	assert.Same(t, first, got)

	r.Remove(first)
	_, ok = r.Lookup("general")
	assert.False(t, ok)
	buyIn, ok := r.LastBuyIn("general")
	require.True(t, ok)
	assert.Equal(t, 250, buyIn)

	second := &Session{channelID: "other", buyIn: 100}
	require.NoError(t, r.Reserve(second))
	r.Discard(second)
	_, ok = r.LastBuyIn("other")
	assert.False(t, ok)
	assert.Empty(t, r.Sessions())
}
