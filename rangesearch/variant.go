package rangesearch

import (
	"github.com/cockroachdb/errors"
)

// Variant selects the midpoint rule used by the search. The zero value is not
// a variant and is rejected wherever one is consumed.
type Variant uint8

const (
	// LegacyMidpoint computes mid = hi - lo/2. For lo = 0 this is hi itself,
	// so any item below table[hi] re-enters the same range forever.
	LegacyMidpoint Variant = iota + 1
	// CorrectMidpoint computes mid = lo + (hi-lo)/2 and always terminates.
	CorrectMidpoint
)

var (
	ErrNoVariant      = errors.New("search variant not selected")
	ErrUnknownVariant = errors.New("unknown search variant")
)

func (v Variant) String() string {
	switch v {
	case LegacyMidpoint:
		return "legacy_midpoint"
	case CorrectMidpoint:
		return "correct_midpoint"
	case 0:
		return "unset"
	default:
		return "unknown"
	}
}

// Validate returns an error unless v is one of the defined variants.
func (v Variant) Validate() error {
	switch v {
	case LegacyMidpoint, CorrectMidpoint:
		return nil
	case 0:
		return ErrNoVariant
	default:
		return errors.Wrapf(ErrUnknownVariant, "variant %d", uint8(v))
	}
}

// ParseVariant maps "legacy_midpoint" and "correct_midpoint" to a Variant.
func ParseVariant(s string) (Variant, error) {
	switch s {
	case "legacy_midpoint":
		return LegacyMidpoint, nil
	case "correct_midpoint":
		return CorrectMidpoint, nil
	case "":
		return 0, ErrNoVariant
	default:
		return 0, errors.Wrapf(ErrUnknownVariant, "%q", s)
	}
}

// midpoint panics on an invalid variant; callers validate first.
func (v Variant) midpoint(lo, hi uint64) uint64 {
	switch v {
	case LegacyMidpoint:
		return hi - lo/2
	case CorrectMidpoint:
		return lo + (hi-lo)/2
	default:
		panic("rangesearch: " + v.String() + " variant")
	}
}

// initialRange is the range the entry adapter searches. The legacy entry
// passes hi = 26, one short of the table, which makes index 26 the top-level
// mid; the correct variant covers the whole table.
func (v Variant) initialRange() Frame {
	if v == LegacyMidpoint {
		return Frame{Lo: 0, Hi: TableLen - 1}
	}
	return Frame{Lo: 0, Hi: TableLen}
}
