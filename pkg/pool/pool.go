// Package pool implements the bump-style arena the heap allocator
// extends from. It reserves a fixed amount of address space once, up
// front, and only ever grows a monotonic high-water mark inside that
// reservation; it never returns pages to the operating system except
// on Close.
package pool

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"

	"poolheap/pkg/customerrors"
)

// MinAlign is the minimum alignment guaranteed for a Pool's base
// address and for every address handed out by Alloc.
const MinAlign = 16

// Open reserves capacity bytes of anonymous, private memory via mmap
// and returns a Pool with pos == 0. The kernel supplies the
// reservation's pages on demand, zero-filled on first touch, and its
// base address is page aligned, which satisfies MinAlign.
func Open(capacity uint64) (*Pool, error) {
	if capacity == 0 {
		return nil, errors.New("pool capacity must be > 0")
	}

	buf, err := unix.Mmap(
		-1, 0, int(capacity),
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to mmap pool reservation")
	}

	return &Pool{
		buf:      buf,
		capacity: capacity,
	}, nil
}

// Pool is a contiguous byte range [base, base+pos) inside a
// reservation [base, base+capacity). pos only grows, except on
// FreeAll/Close.
type Pool struct {
	buf      []byte
	capacity uint64
	pos      uint64
}

// Base returns the address of the first byte of the reservation.
func (p *Pool) Base() uintptr {
	return uintptr(unsafe.Pointer(&p.buf[0]))
}

// Pos returns the current high-water mark, relative to Base.
func (p *Pool) Pos() uint64 {
	return p.pos
}

// Capacity returns the total size of the reservation.
func (p *Pool) Capacity() uint64 {
	return p.capacity
}

// End returns Base()+Pos(), the address just past the committed
// range.
func (p *Pool) End() uintptr {
	return p.Base() + uintptr(p.pos)
}

// Alloc advances pos by size and returns the address it was bumped
// from. It fails if the reservation is exhausted.
func (p *Pool) Alloc(size uint64) (uintptr, error) {
	if p.pos+size > p.capacity {
		return 0, customerrors.ErrOutOfCapacity
	}

	addr := p.Base() + uintptr(p.pos)
	p.pos += size
	return addr, nil
}

// FreeAll rewinds pos to zero. The reservation itself is kept; bytes
// are not rezeroed. Memory is logically released, not physically —
// callers that need zeroing must do it themselves.
func (p *Pool) FreeAll() {
	p.pos = 0
}

// Contains reports whether addr lies in the committed range
// [Base, Base+Pos).
func (p *Pool) Contains(addr uintptr) bool {
	base := p.Base()
	return addr >= base && addr < base+uintptr(p.pos)
}

// Close releases the reservation back to the operating system.
func (p *Pool) Close() error {
	if p.buf == nil {
		return nil
	}
	err := unix.Munmap(p.buf)
	p.buf = nil
	p.pos = 0
	p.capacity = 0
	return errors.Wrap(err, "failed to munmap pool reservation")
}
