package cache

import (
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
)

// scratch is the optional durable-eviction backing store: a
// fixed-size, memory-mapped file with one pageSize slot per
// capacity-sized ring position. A dirty page flushed here on eviction
// can be read back without a read(2) syscall the next time its slot
// is reused — but only for the same id: two ids that collide on a slot
// (id and id+capacity) must not hand each other's bytes back, so each
// slot also tracks which id, if any, currently owns it.
type scratch struct {
	file     *os.File
	mm       mmap.MMap
	pageSize uint64
	capacity int

	owner   []uint64
	present []bool
}

func openScratch(path string, pageSize uint64, capacity int) (*scratch, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open scratch file")
	}

	size := int64(pageSize) * int64(capacity)
	if err := f.Truncate(size); err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "failed to size scratch file")
	}

	mm, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrap(err, "failed to mmap scratch file")
	}

	return &scratch{
		file:     f,
		mm:       mm,
		pageSize: pageSize,
		capacity: capacity,
		owner:    make([]uint64, capacity),
		present:  make([]bool, capacity),
	}, nil
}

func (s *scratch) index(id uint64) uint64 {
	return id % uint64(s.capacity)
}

func (s *scratch) slot(idx uint64) []byte {
	off := idx * s.pageSize
	return s.mm[off : off+s.pageSize]
}

func (s *scratch) writeBack(page *Page) {
	idx := s.index(page.id)
	copy(s.slot(idx), page.Bytes())
	s.owner[idx] = page.id
	s.present[idx] = true
}

// readInto restores id's bytes into page if and only if the slot id
// maps to is actually still holding id's data. A fresh page whose slot
// belongs to a different, colliding id is left untouched.
func (s *scratch) readInto(id uint64, page *Page) {
	idx := s.index(id)
	if !s.present[idx] || s.owner[idx] != id {
		return
	}
	copy(page.Bytes(), s.slot(idx))
}

func (s *scratch) close() error {
	if err := s.mm.Unmap(); err != nil {
		return errors.Wrap(err, "failed to unmap scratch file")
	}
	return errors.Wrap(s.file.Close(), "failed to close scratch file")
}
