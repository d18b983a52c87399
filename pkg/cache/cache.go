// Package cache implements a fixed-size-page cache carved entirely out
// of a headerless pool allocator, so that cached pages carry zero
// per-page allocator overhead. Eviction is a fixed-size round-robin
// ring; a dirty evicted page is optionally flushed to a memory-mapped
// scratch file so it can be restored without a read(2) the next time
// its id comes back around.
package cache

import (
	"github.com/pkg/errors"

	"poolheap/pkg/allocator"
	"poolheap/pkg/customerrors"
)

// New creates a Cache of capacity pages, each pageSize bytes, backed
// by alloc. If scratchPath is non-empty, dirty pages are written back
// to a memory-mapped file there on eviction and restored from it on
// the next access with the same id.
func New(alloc *allocator.Allocator, pageSize uint64, capacity int, scratchPath string) (*Cache, error) {
	c := &Cache{
		alloc:    alloc,
		pageSize: pageSize,
		capacity: capacity,
		pages:    make(map[uint64]*Page, capacity),
		order:    make([]uint64, capacity),
		occupied: make([]bool, capacity),
	}

	if scratchPath != "" {
		s, err := openScratch(scratchPath, pageSize, capacity)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open cache")
		}
		c.scratch = s
	}

	return c, nil
}

type Cache struct {
	alloc    *allocator.Allocator
	pageSize uint64
	capacity int

	pages    map[uint64]*Page
	order    []uint64
	occupied []bool
	index    int

	scratch *scratch
}

// Get returns the page for id, allocating and (if a scratch file is
// configured) restoring it on first access.
func (c *Cache) Get(id uint64) (*Page, error) {
	if p, ok := c.pages[id]; ok {
		return p, nil
	}

	addr, ok := c.alloc.Allocate(c.pageSize)
	if !ok {
		return nil, errors.Wrap(customerrors.ErrOutOfCapacity, "page cache")
	}

	page := &Page{id: id, addr: addr, size: c.pageSize}
	if c.scratch != nil {
		c.scratch.readInto(id, page)
	}

	c.insert(page)
	return page, nil
}

func (c *Cache) insert(page *Page) {
	if c.occupied[c.index] {
		if evicted, ok := c.pages[c.order[c.index]]; ok {
			c.evict(evicted)
		}
	}

	c.order[c.index] = page.id
	c.occupied[c.index] = true
	c.pages[page.id] = page

	c.index++
	if c.index == c.capacity {
		c.index = 0
	}
}

func (c *Cache) evict(page *Page) {
	if page.dirty && c.scratch != nil {
		c.scratch.writeBack(page)
	}
	c.alloc.Deallocate(page.addr, page.size)
	delete(c.pages, page.id)
}

// Close evicts every resident page (flushing dirty ones) and releases
// the scratch file, if any.
func (c *Cache) Close() error {
	for _, page := range c.pages {
		c.evict(page)
	}
	if c.scratch == nil {
		return nil
	}
	return c.scratch.close()
}
