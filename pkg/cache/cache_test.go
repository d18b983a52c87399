package cache

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"poolheap/pkg/allocator"
)

func newTestCache(t *testing.T, capacity int, scratchPath string) (*Cache, *allocator.Allocator) {
	a, err := allocator.New(&allocator.Options{PoolSize: 1 << 20, DebugAudits: true})
	require.NoError(t, err)

	c, err := New(a, 64, capacity, scratchPath)
	require.NoError(t, err)
	return c, a
}

func TestCacheGetIsStableWithinResidency(t *testing.T) {
	c, a := newTestCache(t, 4, "")
	defer a.Close()
	defer c.Close()

	p1, err := c.Get(1)
	require.NoError(t, err)
	p2, err := c.Get(1)
	require.NoError(t, err)
	require.Same(t, p1, p2)
}

func TestCacheEvictsRoundRobinWhenFull(t *testing.T) {
	c, a := newTestCache(t, 2, "")
	defer a.Close()
	defer c.Close()

	_, err := c.Get(1)
	require.NoError(t, err)
	_, err = c.Get(2)
	require.NoError(t, err)

	// the ring has wrapped: fetching a third id evicts id 1's page.
	_, err = c.Get(3)
	require.NoError(t, err)

	require.Len(t, c.pages, 2)
	require.Contains(t, c.pages, uint64(2))
	require.Contains(t, c.pages, uint64(3))
	require.NotContains(t, c.pages, uint64(1))
}

func TestCacheCloseEvictsEverything(t *testing.T) {
	c, a := newTestCache(t, 4, "")
	defer a.Close()

	_, err := c.Get(1)
	require.NoError(t, err)
	_, err = c.Get(2)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.Empty(t, c.pages)
	require.NoError(t, a.Validate())
}

func TestCacheScratchRoundTripsDirtyPageAfterEviction(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/scratch.bin"

	c, a := newTestCache(t, 1, path)
	defer a.Close()
	defer c.Close()

	page, err := c.Get(7)
	require.NoError(t, err)
	copy(page.Bytes(), []byte("persisted across eviction"))
	page.MarkDirty()

	// a second id on a one-slot cache forces id 7 out, flushing it to
	// the scratch file. id 8 collides with id 7 on that same scratch
	// slot (capacity 1, so every id maps to slot 0) but must not be
	// handed id 7's bytes back.
	fresh, err := c.Get(8)
	require.NoError(t, err)
	require.NotEqual(t, "persisted across eviction", string(fresh.Bytes()[:len("persisted across eviction")]))

	restored, err := c.Get(7)
	require.NoError(t, err)
	require.Equal(t, "persisted across eviction", string(restored.Bytes()[:len("persisted across eviction")]))

	_, err = os.Stat(path)
	require.NoError(t, err)
}
