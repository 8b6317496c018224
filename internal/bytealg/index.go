package bytealg

import (
	"bytes"
	"sort"
)

// IndexByte finds the first position of b in s, or -1.
func IndexByte(s []byte, b byte) int {
	return bytes.IndexByte(s, b)
}

// EqualRange returns the half-open span [first, last) of positions holding b in
// the non-decreasing slice s. An empty span (first == last) means b is absent;
// first is then the insertion point.
func EqualRange(s []byte, b byte) (first, last int) {
	first = sort.Search(len(s), func(i int) bool { return s[i] >= b })
	last = first
	// Duplicate runs in small tables are short, a forward scan is enough.
	for last < len(s) && s[last] == b {
		last++
	}
	return first, last
}
