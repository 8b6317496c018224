package rangesearch

// Frame is the half-open index range [Lo, Hi) of one search activation.
type Frame struct {
	Lo, Hi uint64
}

// Outcome is what a single activation decided.
type Outcome uint8

const (
	// Descend means the activation calls itself on StepResult.Next.
	Descend Outcome = iota
	Found
	Absent
)

func (o Outcome) String() string {
	switch o {
	case Descend:
		return "descend"
	case Found:
		return "found"
	case Absent:
		return "absent"
	}
	return "unknown"
}

type StepResult struct {
	Outcome Outcome
	Index   uint64 // valid when Outcome == Found
	Next    Frame  // valid when Outcome == Descend
}

// Step runs one activation of the search over f without recursing.
//
// Arithmetic is unsigned 64-bit and wraps, so a legacy frame with Hi < Lo is
// treated as a large range rather than an empty one.
func Step(v Variant, table []byte, f Frame, item byte) StepResult {
	lo, hi := f.Lo, f.Hi
	if hi-lo <= 1 {
		if table[lo] == item {
			return StepResult{Outcome: Found, Index: lo}
		}
		return StepResult{Outcome: Absent}
	}

	mid := v.midpoint(lo, hi)
	switch {
	case table[mid] < item:
		return StepResult{Outcome: Descend, Next: Frame{Lo: mid, Hi: hi}}
	case table[mid] > item:
		return StepResult{Outcome: Descend, Next: Frame{Lo: lo, Hi: mid}}
	}
	return StepResult{Outcome: Found, Index: mid}
}

// Search looks for item in table[lo:hi] by recursive range halving and
// returns the index it stopped at.
//
// This is the reference formulation. It carries no depth bound: with
// LegacyMidpoint and lo = 0, any item smaller than table[hi] recurses on the
// same arguments until the goroutine stack is exhausted, which the Go runtime
// treats as fatal. Use SearchFrames when the caller needs to bound it.
// Search panics if v is not a valid Variant.
func Search(v Variant, table []byte, lo, hi uint64, item byte) (uint64, bool) {
	s := Step(v, table, Frame{Lo: lo, Hi: hi}, item)
	switch s.Outcome {
	case Found:
		return s.Index, true
	case Absent:
		return 0, false
	}
	return Search(v, table, s.Next.Lo, s.Next.Hi, item)
}

// CallStack is supplied by the host that executes a search. Push is called
// before each activation, including the first, and may refuse it; Pop is
// called once per accepted Push when the search unwinds.
type CallStack interface {
	Push(f Frame) error
	Pop()
}

// SearchFrames is Search expressed as a loop, with every activation announced
// to stack. It imposes no limit of its own: a degenerate legacy search against
// a stack that never refuses runs forever. The first error from Push is
// returned unchanged.
func SearchFrames(v Variant, stack CallStack, table []byte, lo, hi uint64, item byte) (uint64, bool, error) {
	if err := v.Validate(); err != nil {
		return 0, false, err
	}

	var pushed int
	defer func() {
		for ; pushed > 0; pushed-- {
			stack.Pop()
		}
	}()

	f := Frame{Lo: lo, Hi: hi}
	for {
		if err := stack.Push(f); err != nil {
			return 0, false, err
		}
		pushed++

		s := Step(v, table, f, item)
		switch s.Outcome {
		case Found:
			return s.Index, true, nil
		case Absent:
			return 0, false, nil
		}
		f = s.Next
	}
}
