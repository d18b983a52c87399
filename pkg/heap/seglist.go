package heap

import (
	"math/bits"

	"github.com/pkg/errors"

	"poolheap/pkg/customerrors"
	"poolheap/util/helpers"
)

// numClasses is the bit width of a machine word: one range list per
// size class, one bitmap bit per range list.
const numClasses = bits.UintSize

func classOf(size uint64) int {
	return helpers.CeilLog2(size)
}

// segList is the array of range lists keyed by size class, plus the
// bitmap that makes "is any class >= c non-empty" an O(1) question.
type segList struct {
	lists  [numClasses]*rangeList
	bitmap uint
}

func newSegList() *segList {
	sl := &segList{}
	for i := range sl.lists {
		sl.lists[i] = newRangeList()
	}
	return sl
}

func (sl *segList) insert(t *tag) {
	c := classOf(t.size)
	sl.lists[c].insert(t)
	sl.bitmap |= uint(1) << uint(c)
}

// find computes c = ceil_log2(minSize), masks the bitmap down to
// classes >= c, and walks the set bits from least to most
// significant — the tightest-fitting non-empty class first — calling
// that class's find until one returns a hit.
func (sl *segList) find(minSize uint64) *tag {
	c := classOf(minSize)
	mask := sl.bitmap & (^uint(0) << uint(c))

	for mask != 0 {
		lowBit := mask & -mask
		idx := bits.TrailingZeros(lowBit)

		if block := sl.lists[idx].find(minSize); block != nil {
			return block
		}

		mask &^= lowBit
	}

	return nil
}

func (sl *segList) remove(t *tag) {
	c := classOf(t.size)
	sl.lists[c].remove(t)
	if sl.lists[c].count == 0 {
		sl.bitmap &^= uint(1) << uint(c)
	}
}

func (sl *segList) counts() (blocks uint64, bytes uint64) {
	for _, rl := range sl.lists {
		blocks += uint64(rl.count)
		bytes += rl.bytes
	}
	return blocks, bytes
}

func (sl *segList) validate() error {
	for i, rl := range sl.lists {
		if err := rl.validate(); err != nil {
			return errors.Wrapf(err, "size class %d", i)
		}

		nonEmpty := rl.count > 0
		bitSet := (sl.bitmap>>uint(i))&1 == 1
		if nonEmpty != bitSet {
			return errors.Wrapf(customerrors.ErrCorruption, "size class %d: bitmap bit %v, list non-empty %v", i, bitSet, nonEmpty)
		}
	}
	return nil
}
