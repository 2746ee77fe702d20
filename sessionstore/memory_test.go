package sessionstore

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_roundtrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, found, err := store.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "fp-1", "https://host/upload/1"))

	url, found, err := store.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "https://host/upload/1", url)

	require.NoError(t, store.Remove(ctx, "fp-1"))

	_, found, err = store.Get(ctx, "fp-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMemoryStore_removeMissingIsNoop(t *testing.T) {
	store := NewMemoryStore()
	assert.NoError(t, store.Remove(context.Background(), "never-set"))
}

func TestMemoryStore_concurrentDistinctFingerprints(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fp := fmt.Sprintf("fp-%d", i)
			assert.NoError(t, store.Set(ctx, fp, fmt.Sprintf("https://host/upload/%d", i)))
			_, _, err := store.Get(ctx, fp)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i := 0; i < 50; i++ {
		url, found, err := store.Get(ctx, fmt.Sprintf("fp-%d", i))
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, fmt.Sprintf("https://host/upload/%d", i), url)
	}
}
