package hostvm

import (
	"context"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mhr3/rangesearch/rangesearch"
)

// AllInputs returns every byte value, 0 through 255.
func AllInputs() []byte {
	return lo.Map(lo.Range(256), func(i int, _ int) byte {
		return byte(i)
	})
}

// Sweep invokes the entry function once per input, each on its own Machine,
// with at most workers invocations in flight. Results keep the input order.
func Sweep(ctx context.Context, v rangesearch.Variant, limits Limits, workers int, inputs []byte) ([]Result, error) {
	if _, err := NewMachine(v, limits); err != nil {
		return nil, err
	}

	results := make([]Result, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, in := range inputs {
		g.Go(func() error {
			m, err := NewMachine(v, limits)
			if err != nil {
				return err
			}
			res, err := m.Invoke(gctx, []byte{in})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Tally counts results per status.
func Tally(results []Result) map[Status]int {
	groups := lo.GroupBy(results, func(r Result) Status {
		return r.Status
	})
	counts := make(map[Status]int, len(groups))
	for s, rs := range groups {
		counts[s] = len(rs)
	}
	return counts
}
