package rangesearch

import (
	"github.com/segmentio/asm/mem"
	"github.com/segmentio/asm/sortedset"

	"github.com/mhr3/rangesearch/internal/bytealg"
)

// Sentinel is the entry return code for "not found".
//
// It is not derived from the table contents: if lookupTable ever gained a
// 255 entry, "found 255" and "not found" would be indistinguishable. See
// SentinelCollides.
const Sentinel uint64 = 255

// TableLen is the number of entries in the lookup table.
const TableLen = 27

// lookupTable is non-decreasing and never written after initialization.
var lookupTable = [TableLen]byte{
	0, 1, 3, 7, 7, 7, 9, 13, 17, 17, 18, 19, 20, 27,
	31, 34, 37, 37, 37, 42, 49, 194, 200, 201, 210, 210, 240,
}

// Table returns a copy of the lookup table.
func Table() []byte {
	t := lookupTable
	return t[:]
}

// At returns the table entry at index i. It panics if i is out of range.
func At(i int) byte {
	return lookupTable[i]
}

// Contains reports whether b appears anywhere in the table.
func Contains(b byte) bool {
	return mem.ContainsByte(lookupTable[:], b)
}

// EqualRange returns the half-open index span holding b; empty when absent.
func EqualRange(b byte) (first, last int) {
	return bytealg.EqualRange(lookupTable[:], b)
}

// Distinct returns the table values with duplicates removed, in order.
func Distinct() []byte {
	return sortedset.Dedupe(nil, lookupTable[:], 1)
}

// FirstDuplicate returns the index of the first entry that is repeated by its
// successor, or -1.
func FirstDuplicate() int {
	return mem.IndexPair(lookupTable[:], 1)
}

// IsSorted reports whether the table is non-decreasing, the precondition of
// every search variant.
func IsSorted() bool {
	return isSorted(lookupTable[:])
}

// SentinelCollides reports whether the sentinel is also a table value.
func SentinelCollides() bool {
	return Contains(byte(Sentinel))
}

func isSorted(t []byte) bool {
	for i := 1; i < len(t); i++ {
		if t[i-1] > t[i] {
			return false
		}
	}
	return true
}
