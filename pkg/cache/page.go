package cache

import "unsafe"

// Page is a fixed-size block carved out of the allocator, with a
// dirty bit for the cache's write-back-on-evict policy. It carries no
// allocator metadata of its own — the cache remembers addr and size
// on the caller's behalf, exactly the contract a headerless allocator
// imposes.
type Page struct {
	id    uint64
	addr  uintptr
	size  uint64
	dirty bool
}

// Bytes exposes the page's backing memory directly — no copy, no
// marshaling. Mutating the returned slice mutates the page; call
// MarkDirty afterwards so the cache knows to flush it on eviction.
func (p *Page) Bytes() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p.addr)), int(p.size))
}

func (p *Page) ID() uint64 {
	return p.id
}

func (p *Page) Dirty() bool {
	return p.dirty
}

func (p *Page) MarkDirty() {
	p.dirty = true
}
