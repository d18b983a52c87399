package allocator

// Options configures a new Allocator.
type Options struct {
	// PoolSize is the capacity, in bytes, reserved up front. It is
	// fixed for the lifetime of the allocator (Reset truncates usage,
	// it does not grow or shrink the reservation).
	PoolSize uint64

	// DebugAudits, when true, runs Validate after every Allocate,
	// Deallocate and Reset and logs+panics on disagreement. It is expensive —
	// O(free blocks) per call — and meant for tests, not hot paths.
	DebugAudits bool
}
