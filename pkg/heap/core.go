package heap

import (
	"github.com/pkg/errors"

	"poolheap/pkg/customerrors"
	"poolheap/pkg/pool"
	"poolheap/util/logger"
)

// Core ties the tagged free block, boundary-tag manager, segregated
// range lists and stats together over a caller-owned Pool. It
// implements split-on-alloc / coalesce-on-free and the three-way
// bookkeeping audit; it is not meant to be used directly by
// application code — see pkg/allocator for the public façade.
type Core struct {
	pool     *pool.Pool
	seg      *segList
	boundary *boundaryManager
	stats    *stats
}

func NewCore(p *pool.Pool) *Core {
	return &Core{
		pool:     p,
		seg:      newSegList(),
		boundary: newBoundaryManager(),
		stats:    &stats{},
	}
}

// Allocate returns the address of a size-byte block and true, or
// (0, false) if the pool is exhausted. It panics if size fails
// IsValidSize — a caller contract violation, not an expected outcome.
func (c *Core) Allocate(size uint64) (uintptr, bool) {
	if !IsValidSize(size) {
		panic(errors.Wrapf(customerrors.ErrInvalidSize, "Allocate(%d)", size))
	}

	if addr, ok := c.takeAndSplit(size); ok {
		c.stats.onAllocate(size)
		return addr, true
	}

	addr, err := c.pool.Alloc(size)
	if err != nil {
		return 0, false
	}
	logger.L.Tracef("pool extended by %d bytes, pos now %d/%d", size, c.pool.Pos(), c.pool.Capacity())

	c.stats.onAllocate(size)
	return addr, true
}

// takeAndSplit finds a free block >= size, removes it from the
// freelist, and reinserts the leftover if it is itself a valid
// block. The leftover is absorbed into the returned allocation when
// it is too small to track.
func (c *Core) takeAndSplit(size uint64) (uintptr, bool) {
	header := c.seg.find(size)
	if header == nil {
		return 0, false
	}

	addr := header.addr()
	leftover := header.size - size

	c.removeFromFreelist(header)

	if IsValidSize(leftover) {
		c.addToFreelist(addr+uintptr(size), leftover)
	}

	return addr, true
}

// Deallocate returns [p, p+size) to the free lists, coalescing with
// any address-adjacent free neighbors first. size must be exactly the
// size originally passed to Allocate — the allocator has no header on
// live blocks to check this against, so a mismatched size silently
// corrupts the heap; that is the cost of headerless allocation.
func (c *Core) Deallocate(p uintptr, size uint64) {
	if !IsValidSize(size) {
		panic(errors.Wrapf(customerrors.ErrInvalidSize, "Deallocate(%#x, %d)", p, size))
	}
	if p%pool.MinAlign != 0 {
		panic(errors.Wrapf(customerrors.ErrInvalidSize, "Deallocate(%#x, %d): misaligned address", p, size))
	}
	if p < c.pool.Base() || p+uintptr(size) > c.pool.End() {
		panic(errors.Wrapf(customerrors.ErrOutOfBounds, "Deallocate(%#x, %d)", p, size))
	}

	if err := c.stats.onDeallocate(size); err != nil {
		panic(err)
	}

	if preceding := c.boundary.precedingBlock(p, c.pool.Base()); preceding != nil {
		p -= uintptr(preceding.size)
		size += preceding.size
		c.removeFromFreelist(preceding)
	}
	if following := c.boundary.followingBlock(p, size, c.pool.End()); following != nil {
		size += following.size
		c.removeFromFreelist(following)
	}

	c.addToFreelist(p, size)
}

// Reset truncates the pool to empty and forgets all bookkeeping.
// Memory is logically released, not rezeroed: tags written before the
// reset stay in pool memory until a caller overwrites them, and the
// neighbor probes in a later Deallocate read memory by address, so they
// can still recognize such a stale tag.
func (c *Core) Reset() {
	c.pool.FreeAll()
	c.seg = newSegList()
	c.boundary = newBoundaryManager()
	c.stats.reset()
}

// Validate asserts each component's own invariants, then the
// three-way agreement between Stats, the segregated lists and the
// boundary-tag manager.
func (c *Core) Validate() error {
	if err := c.seg.validate(); err != nil {
		return errors.Wrap(err, "segregated range lists")
	}
	if err := c.stats.validate(); err != nil {
		return errors.Wrap(err, "stats")
	}

	segBlocks, segBytes := c.seg.counts()
	boundaryBlocks, boundaryBytes := c.boundary.counts()

	if segBlocks != boundaryBlocks || segBlocks != c.stats.freeBlocks {
		return errors.Wrapf(customerrors.ErrCorruption,
			"free block count disagreement: segregated=%d boundary=%d stats=%d",
			segBlocks, boundaryBlocks, c.stats.freeBlocks)
	}
	if segBytes != boundaryBytes || segBytes != c.stats.freeBytes {
		return errors.Wrapf(customerrors.ErrCorruption,
			"free byte count disagreement: segregated=%d boundary=%d stats=%d",
			segBytes, boundaryBytes, c.stats.freeBytes)
	}

	extantBlocks, extantBytes := c.stats.extant()
	if extantBlocks > c.stats.allocBlocks || extantBytes > c.stats.allocBytes {
		return errors.Wrap(customerrors.ErrCorruption, "extant block count exceeds total allocated")
	}

	return nil
}

// Counters returns a snapshot of the allocator's bookkeeping, for
// diagnostics and tests.
func (c *Core) Counters() (allocBlocks, allocBytes, deallocBlocks, deallocBytes, freeBlocks, freeBytes uint64) {
	return c.stats.allocBlocks, c.stats.allocBytes,
		c.stats.deallocBlocks, c.stats.deallocBytes,
		c.stats.freeBlocks, c.stats.freeBytes
}

func (c *Core) addToFreelist(addr uintptr, size uint64) {
	header := c.boundary.writeTags(addr, size)
	c.seg.insert(header)
	c.stats.onFree(size)
}

func (c *Core) removeFromFreelist(t *tag) {
	size := t.size
	if err := c.boundary.removeTags(t); err != nil {
		panic(errors.Wrap(err, "removeFromFreelist"))
	}
	c.seg.remove(t)
	c.stats.onUnfree(size)
}
