package heap

import (
	"github.com/pkg/errors"

	"poolheap/pkg/customerrors"
)

// stats carries six counters: total-ever-allocated and
// total-ever-deallocated {blocks, bytes}, and current-free {blocks,
// bytes}. Current-extant (live) is derived, not stored, as
// allocated-deallocated. The current-free pair is the oracle that
// Core.Validate checks against the segregated lists' and the
// boundary-tag manager's own free counters.
type stats struct {
	allocBlocks   uint64
	allocBytes    uint64
	deallocBlocks uint64
	deallocBytes  uint64
	freeBlocks    uint64
	freeBytes     uint64
}

func (s *stats) onAllocate(size uint64) {
	s.allocBlocks++
	s.allocBytes += size
}

// onDeallocate records a deallocation and asserts the conservation law
// deallocated <= allocated.
func (s *stats) onDeallocate(size uint64) error {
	if s.deallocBlocks+1 > s.allocBlocks || s.deallocBytes+size > s.allocBytes {
		return errors.Wrap(customerrors.ErrCorruption, "deallocated count would exceed allocated count")
	}
	s.deallocBlocks++
	s.deallocBytes += size
	return nil
}

func (s *stats) onFree(size uint64) {
	s.freeBlocks++
	s.freeBytes += size
}

func (s *stats) onUnfree(size uint64) {
	s.freeBlocks--
	s.freeBytes -= size
}

func (s *stats) extant() (blocks, bytes uint64) {
	return s.allocBlocks - s.deallocBlocks, s.allocBytes - s.deallocBytes
}

func (s *stats) reset() {
	*s = stats{}
}

func (s *stats) validate() error {
	if s.deallocBlocks > s.allocBlocks {
		return errors.Wrap(customerrors.ErrCorruption, "deallocated blocks exceed allocated blocks")
	}
	if s.deallocBytes > s.allocBytes {
		return errors.Wrap(customerrors.ErrCorruption, "deallocated bytes exceed allocated bytes")
	}
	return nil
}
