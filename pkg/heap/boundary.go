package heap

import (
	"github.com/pkg/errors"
)

// boundaryManager writes/removes boundary tags and locates the
// physical neighbors of an arbitrary address by peeking just-before
// and just-after memory. It keeps its own free {blocks, bytes}
// counters, independent of Stats and the segregated lists, so
// Validate can cross-check all three views against each other.
type boundaryManager struct {
	freeBlocks uint64
	freeBytes  uint64
}

func newBoundaryManager() *boundaryManager {
	return &boundaryManager{}
}

// writeTags constructs a header at p and a footer at
// p+size-tagSize, both carrying size, and returns the header.
func (b *boundaryManager) writeTags(p uintptr, size uint64) *tag {
	header := writeTag(p, size, headerID)
	writeTag(p+uintptr(size)-uintptr(tagSize), size, footerID)
	b.freeBlocks++
	b.freeBytes += size
	return header
}

// removeTags validates and destroys header and footer, decrementing
// the free counters.
func (b *boundaryManager) removeTags(header *tag) error {
	if err := header.validate(headerID); err != nil {
		return errors.Wrap(err, "removeTags: header")
	}

	footer := tagAt(header.addr() + uintptr(header.size) - uintptr(tagSize))
	if err := footer.validate(footerID); err != nil {
		return errors.Wrap(err, "removeTags: footer")
	}

	b.freeBlocks--
	b.freeBytes -= header.size
	destroyTag(header)
	destroyTag(footer)
	return nil
}

// precedingBlock looks at the tentative footer just before p. If it
// recognizes one, the preceding free block starts at p-footer.size.
func (b *boundaryManager) precedingBlock(p, base uintptr) *tag {
	if p == base {
		return nil
	}

	footer := tagAt(p - uintptr(tagSize))
	if !footer.isFreedBlock(footerID) {
		return nil
	}

	header := tagAt(p - uintptr(footer.size))
	if err := header.validate(headerID); err != nil {
		return nil
	}
	return header
}

// followingBlock looks at the tentative header just after [p, p+size).
func (b *boundaryManager) followingBlock(p uintptr, size uint64, end uintptr) *tag {
	if p+uintptr(size) == end {
		return nil
	}

	header := tagAt(p + uintptr(size))
	if !header.isFreedBlock(headerID) {
		return nil
	}
	if err := header.validate(headerID); err != nil {
		return nil
	}
	return header
}

func (b *boundaryManager) counts() (blocks, bytes uint64) {
	return b.freeBlocks, b.freeBytes
}
