// Package customerrors defines the sentinel errors shared by the pool
// heap allocator and its collaborators.
package customerrors

import (
	"errors"
)

var (
	// ErrInvalidSize is the (wrapped) panic value when a requested size
	// fails IsValidSize — zero, not a multiple of MinAlign, or smaller
	// than a tag — or when a deallocated address is misaligned.
	ErrInvalidSize = errors.New("invalid block size")

	// ErrOutOfCapacity is returned by Pool.Alloc when growing would exceed
	// the reservation.
	ErrOutOfCapacity = errors.New("pool out of capacity")

	ErrOutOfBounds = errors.New("address outside of pool bounds")

	// ErrCorruption is returned by Validate when the three independent
	// bookkeeping views disagree, or a tag fails its magic/id check.
	ErrCorruption = errors.New("allocator state corrupted")
)
