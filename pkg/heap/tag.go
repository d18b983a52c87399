// Package heap implements the free-block management and coalescing
// engine of a headerless pool-based allocator: segregated
// address-ordered free lists keyed by power-of-two size class, a
// bitmap for O(1) non-empty-class lookup, and a boundary-tag scheme
// for constant-time neighbor coalescing.
//
// Nothing in this package stores metadata in a live (caller-owned)
// block. Every record below is written in place over memory that the
// allocator currently considers free, the same way a C allocator
// would overlay a header struct on freed storage — the difference is
// that Go requires unsafe.Pointer at the boundary instead of a cast.
package heap

import (
	"unsafe"

	"github.com/pkg/errors"

	"poolheap/pkg/customerrors"
	"poolheap/pkg/pool"
)

type tagID uint32

const (
	headerID tagID = 0x111E8E6F
	footerID tagID = 0x4D745342
)

// tagMagic is written first in the record (see tag below) so that an
// arbitrary stray write is more likely to corrupt it before it
// corrupts id, which is written last.
const tagMagic uint64 = 0xFF55AA00

// tag is the boundary-tag record written into the first and last
// bytes of every free block. Header and footer share this type; id
// says which one a given in-memory record is. prev/next are only
// meaningful on a header — they are the block's intrusive range-list
// links — but footers carry full tag records anyway, for simplicity.
type tag struct {
	magic uint64
	prev  uintptr
	next  uintptr
	size  uint64
	id    tagID
}

// tagSize is the real in-memory footprint of a tag record on this
// platform; it is what the footer's offset from the header is
// computed from.
const tagSize = unsafe.Sizeof(tag{})

// minBlockSize is the smallest size a free block can be tracked at:
// big enough to hold a tag, rounded up to a MinAlign multiple.
const minBlockSize = ((uint64(tagSize) + pool.MinAlign - 1) / pool.MinAlign) * pool.MinAlign

// IsValidSize is the alignment invariant: every block start address
// and every size must be a MinAlign multiple, and size must be large
// enough to hold a tag.
func IsValidSize(size uint64) bool {
	return size > 0 && size%pool.MinAlign == 0 && size >= minBlockSize
}

func tagAt(addr uintptr) *tag {
	return (*tag)(unsafe.Pointer(addr)) //nolint:govet
}

func (t *tag) addr() uintptr {
	return uintptr(unsafe.Pointer(t)) //nolint:govet
}

// Size returns the block's tracked size, including both tags.
func (t *tag) Size() uint64 {
	return t.size
}

// isFreedBlock checks magic+id without asserting — used on
// tentative/untrusted reads where a mismatch is an expected "not a
// free block here" answer, not corruption.
func (t *tag) isFreedBlock(want tagID) bool {
	return t.magic == tagMagic && t.id == want
}

// validate asserts magic, id and IsValidSize(size) once a caller has
// already decided the record in question is supposed to be a valid
// tag. Returns a wrapped customerrors.ErrCorruption on mismatch.
func (t *tag) validate(want tagID) error {
	if t.magic != tagMagic {
		return errors.Wrapf(customerrors.ErrCorruption, "tag at %#x: bad magic %#x", t.addr(), t.magic)
	}
	if t.id != want {
		return errors.Wrapf(customerrors.ErrCorruption, "tag at %#x: expected id %#x, got %#x", t.addr(), want, t.id)
	}
	if !IsValidSize(t.size) {
		return errors.Wrapf(customerrors.ErrCorruption, "tag at %#x: invalid size %d", t.addr(), t.size)
	}
	return nil
}

// writeTag constructs a tag record in place at addr and returns a
// pointer to it.
func writeTag(addr uintptr, size uint64, which tagID) *tag {
	t := tagAt(addr)
	t.magic = tagMagic
	t.prev = 0
	t.next = 0
	t.size = size
	t.id = which
	return t
}

// destroyTag zeros the fields that make a region recognizable as a
// tag, so a later probe of stale memory does not mistake it for one.
func destroyTag(t *tag) {
	t.magic = 0
	t.id = 0
}
