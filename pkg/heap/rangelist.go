package heap

import (
	"github.com/pkg/errors"

	"poolheap/pkg/customerrors"
)

// rangeList is one intrusive, circular, doubly-linked free list, in
// strict ascending address order, with an in-place sentinel. The
// sentinel is a plain tag-shaped Go value embedded in the list (not
// allocated out of the pool) whose address is taken once, at
// construction, and compared against by pointer identity during
// traversal — the "dedicated sentinel per list" fallback the design
// calls for when the self-referential node cannot share storage with
// the pool memory it links together.
type rangeList struct {
	sentinel tag
	count    int
	bytes    uint64
}

// newRangeList is kept out of line so its result always escapes to the
// heap: the sentinel's address is stored as a uintptr in pool memory,
// and a stack-allocated list would move when the goroutine stack grows.
//
//go:noinline
func newRangeList() *rangeList {
	rl := &rangeList{}
	self := rl.sentinel.addr()
	rl.sentinel.prev = self
	rl.sentinel.next = self
	return rl
}

// insert splices t into the list before the first node whose address
// is greater than t's, preserving ascending address order.
func (rl *rangeList) insert(t *tag) {
	self := &rl.sentinel
	cur := tagAt(self.next)
	for cur != self && cur.addr() < t.addr() {
		cur = tagAt(cur.next)
	}

	prev := tagAt(cur.prev)
	t.prev = prev.addr()
	t.next = cur.addr()
	prev.next = t.addr()
	cur.prev = t.addr()

	rl.count++
	rl.bytes += t.size
}

// find returns the first block of size >= minSize, scanning from the
// low end of the list.
func (rl *rangeList) find(minSize uint64) *tag {
	self := &rl.sentinel
	for cur := tagAt(self.next); cur != self; cur = tagAt(cur.next) {
		if cur.size >= minSize {
			return cur
		}
	}
	return nil
}

// remove unlinks t. The caller guarantees t is a member of this list.
func (rl *rangeList) remove(t *tag) {
	prev := tagAt(t.prev)
	next := tagAt(t.next)
	prev.next = next.addr()
	next.prev = prev.addr()
	t.prev = 0
	t.next = 0

	rl.count--
	rl.bytes -= t.size
}

// validate traverses forward and backward independently and checks
// they agree on the same sequence of addresses, that every node's tag
// passes validate(headerID), that the running totals match the
// maintained counters, and that an empty list's sentinel points at
// itself.
func (rl *rangeList) validate() error {
	self := &rl.sentinel

	if rl.count == 0 {
		if self.next != self.addr() || self.prev != self.addr() {
			return errors.Wrap(customerrors.ErrCorruption, "empty range list sentinel is not self-referential")
		}
		if rl.bytes != 0 {
			return errors.Wrap(customerrors.ErrCorruption, "empty range list has nonzero byte count")
		}
		return nil
	}

	forward := make([]uintptr, 0, rl.count)
	var bytes uint64
	for cur := tagAt(self.next); cur != self; cur = tagAt(cur.next) {
		if err := cur.validate(headerID); err != nil {
			return errors.Wrap(err, "range list forward traversal")
		}
		if n := len(forward); n > 0 && cur.addr() <= forward[n-1] {
			return errors.Wrap(customerrors.ErrCorruption, "range list not in strict address order")
		}
		forward = append(forward, cur.addr())
		bytes += cur.size
	}
	if len(forward) != rl.count {
		return errors.Wrapf(customerrors.ErrCorruption, "range list count mismatch: counted %d, tracked %d", len(forward), rl.count)
	}
	if bytes != rl.bytes {
		return errors.Wrapf(customerrors.ErrCorruption, "range list byte mismatch: counted %d, tracked %d", bytes, rl.bytes)
	}

	backward := make([]uintptr, 0, rl.count)
	for cur := tagAt(self.prev); cur != self; cur = tagAt(cur.prev) {
		backward = append(backward, cur.addr())
	}
	if len(backward) != len(forward) {
		return errors.Wrap(customerrors.ErrCorruption, "range list forward/backward traversal length mismatch")
	}
	for i, addr := range forward {
		if addr != backward[len(backward)-1-i] {
			return errors.Wrap(customerrors.ErrCorruption, "range list forward/backward traversal disagree")
		}
	}

	return nil
}
