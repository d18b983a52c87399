package helpers

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

func Min[T constraints.Ordered](numbers ...T) T {
	var min T = numbers[0]
	for _, n := range numbers {
		if n < min {
			min = n
		}
	}
	return min
}

// GetBit reports whether bit i (0 == least significant) is set in v.
func GetBit(v uint8, i int) bool {
	return (v>>uint(i))&1 == 1
}

// SetBit sets or clears bit i (0 == least significant) of *v.
func SetBit(v *uint8, i int, set bool) {
	if set {
		*v |= uint8(1) << uint(i)
	} else {
		*v &^= uint8(1) << uint(i)
	}
}

// CeilLog2 returns ceil(log2(s)) for s >= 1. CeilLog2(1) == 0.
func CeilLog2(s uint64) int {
	if s <= 1 {
		return 0
	}
	return bits.Len64(s - 1)
}
