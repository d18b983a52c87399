// Package allocator is the public façade over pkg/heap and pkg/pool:
// a small wrapper exposing Allocate/Deallocate/Reset/Validate. It
// owns the pool's lifetime and, when DebugAudits is enabled, runs a
// full consistency check after every mutating call.
//
// An Allocator is not safe for concurrent use: it does no locking of
// its own, so callers sharing one across goroutines must serialize
// access themselves.
package allocator

import (
	"github.com/pkg/errors"

	"poolheap/pkg/heap"
	"poolheap/pkg/pool"
	"poolheap/util/logger"
)

// New reserves opts.PoolSize bytes and returns a ready Allocator.
func New(opts *Options) (*Allocator, error) {
	p, err := pool.Open(opts.PoolSize)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open pool")
	}

	return &Allocator{
		pool:  p,
		core:  heap.NewCore(p),
		debug: opts.DebugAudits,
	}, nil
}

type Allocator struct {
	pool  *pool.Pool
	core  *heap.Core
	debug bool
}

// Allocate returns the address of a size-byte block, or (0, false) if
// the pool is exhausted. size must satisfy heap.IsValidSize.
func (a *Allocator) Allocate(size uint64) (uintptr, bool) {
	addr, ok := a.core.Allocate(size)
	a.audit()
	return addr, ok
}

// Deallocate returns [addr, addr+size) to the allocator. size must
// equal the size originally passed to Allocate.
func (a *Allocator) Deallocate(addr uintptr, size uint64) {
	a.core.Deallocate(addr, size)
	a.audit()
}

// Reset frees every outstanding block at once and truncates the pool.
// Callers must not dereference any previously allocated address after
// this call.
func (a *Allocator) Reset() {
	logger.L.Debug("allocator reset")
	a.core.Reset()
	a.audit()
}

// Validate delegates to Core.Validate. Callers that don't want the cost
// of a full audit simply don't call it, or rely on DebugAudits only in
// tests.
func (a *Allocator) Validate() error {
	return a.core.Validate()
}

// Close releases the pool reservation back to the operating system.
func (a *Allocator) Close() error {
	return a.pool.Close()
}

func (a *Allocator) audit() {
	if !a.debug {
		return
	}
	if err := a.core.Validate(); err != nil {
		logger.L.WithError(err).Error("allocator corruption detected during debug audit")
		panic(err)
	}
}
