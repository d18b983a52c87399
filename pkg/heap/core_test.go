package heap

import (
	"testing"

	"github.com/stretchr/testify/require"

	"poolheap/pkg/pool"
)

func newTestCore(t *testing.T, capacity uint64) (*Core, *pool.Pool) {
	p, err := pool.Open(capacity)
	require.NoError(t, err)
	return NewCore(p), p
}

func TestCoreAllocateDeallocateSimple(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	addr, ok := c.Allocate(64)
	require.True(t, ok)
	require.Equal(t, p.Base(), addr)
	require.NoError(t, c.Validate())

	c.Deallocate(addr, 64)
	require.NoError(t, c.Validate())

	blocks, _, _, _, freeBlocks, freeBytes := c.Counters()
	require.Equal(t, uint64(1), blocks)
	require.Equal(t, uint64(1), freeBlocks)
	require.Equal(t, uint64(64), freeBytes)
}

func TestCoreAllocateReusesFreedBlockViaSplit(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	first, ok := c.Allocate(256)
	require.True(t, ok)
	c.Deallocate(first, 256)
	require.NoError(t, c.Validate())

	second, ok := c.Allocate(64)
	require.True(t, ok)
	require.Equal(t, first, second)
	require.NoError(t, c.Validate())

	_, _, _, _, freeBlocks, freeBytes := c.Counters()
	require.Equal(t, uint64(1), freeBlocks)
	require.Equal(t, uint64(192), freeBytes)
}

func TestCoreDeallocateCoalescesBothNeighbors(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	a, ok := c.Allocate(64)
	require.True(t, ok)
	b, ok := c.Allocate(64)
	require.True(t, ok)
	d, ok := c.Allocate(64)
	require.True(t, ok)

	c.Deallocate(a, 64)
	c.Deallocate(d, 64)
	require.NoError(t, c.Validate())

	_, _, _, _, freeBlocksBefore, _ := c.Counters()
	require.Equal(t, uint64(2), freeBlocksBefore)

	c.Deallocate(b, 64)
	require.NoError(t, c.Validate())

	_, _, _, _, freeBlocksAfter, freeBytesAfter := c.Counters()
	require.Equal(t, uint64(1), freeBlocksAfter)
	require.Equal(t, uint64(192), freeBytesAfter)
}

func TestCoreAllocateFailsWhenPoolExhausted(t *testing.T) {
	c, p := newTestCore(t, 128)
	defer p.Close()

	_, ok := c.Allocate(64)
	require.True(t, ok)

	_, ok = c.Allocate(128)
	require.False(t, ok)
	require.NoError(t, c.Validate())
}

func TestCoreFindPicksSmallestSufficientClass(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	small, ok := c.Allocate(64)
	require.True(t, ok)
	_, ok = c.Allocate(64) // spacer: keeps small and large non-adjacent
	require.True(t, ok)
	large, ok := c.Allocate(256)
	require.True(t, ok)

	c.Deallocate(small, 64)
	c.Deallocate(large, 256)
	require.NoError(t, c.Validate())

	reused, ok := c.Allocate(48)
	require.True(t, ok)
	require.Equal(t, small, reused)
}

func TestCoreResetDiscardsLiveBlocks(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	_, ok := c.Allocate(64)
	require.True(t, ok)
	_, ok = c.Allocate(128)
	require.True(t, ok)

	c.Reset()
	require.NoError(t, c.Validate())

	allocBlocks, allocBytes, deallocBlocks, deallocBytes, freeBlocks, freeBytes := c.Counters()
	require.Zero(t, allocBlocks)
	require.Zero(t, allocBytes)
	require.Zero(t, deallocBlocks)
	require.Zero(t, deallocBytes)
	require.Zero(t, freeBlocks)
	require.Zero(t, freeBytes)

	addr, ok := c.Allocate(64)
	require.True(t, ok)
	require.Equal(t, p.Base(), addr)
}

func TestCoreAllocateRejectsInvalidSize(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	require.Panics(t, func() { c.Allocate(1) })
}

func TestCoreDeallocateRejectsOutOfBounds(t *testing.T) {
	c, p := newTestCore(t, 4096)
	defer p.Close()

	require.Panics(t, func() { c.Deallocate(p.Base()-pool.MinAlign, 64) })
}
