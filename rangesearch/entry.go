package rangesearch

// Entrypoint is the entry function as the host sees it: it reads input[0],
// searches the lookup table with LegacyMidpoint and returns the found value,
// or Sentinel when absent.
//
// input must hold at least one byte; an empty slice panics. For any input
// below 240 the call never returns (see Search).
func Entrypoint(input []byte) uint64 {
	code, _ := Run(LegacyMidpoint, input)
	return code
}

// Run is Entrypoint with an explicit variant, using the recursive Search.
func Run(v Variant, input []byte) (uint64, error) {
	if err := v.Validate(); err != nil {
		return Sentinel, err
	}
	item := input[0]
	r := v.initialRange()
	return returnCode(Search(v, lookupTable[:], r.Lo, r.Hi, item)), nil
}

// RunFrames is Run on top of SearchFrames, so the host's stack decides how deep
// the search may go. On a Push error the code is Sentinel and the error is
// returned as-is.
func RunFrames(v Variant, stack CallStack, input []byte) (uint64, error) {
	if err := v.Validate(); err != nil {
		return Sentinel, err
	}
	item := input[0]
	r := v.initialRange()
	idx, ok, err := SearchFrames(v, stack, lookupTable[:], r.Lo, r.Hi, item)
	if err != nil {
		return Sentinel, err
	}
	return returnCode(idx, ok), nil
}

func returnCode(idx uint64, found bool) uint64 {
	if !found {
		return Sentinel
	}
	return uint64(lookupTable[idx])
}
