package util

import "golang.org/x/sync/errgroup"

// ConcurrentMapFuncWithError maps f over inputs on an errgroup and returns the
// outputs in input order. concurrency == 0 runs one call at a time and a
// negative value removes the limit. The first error is returned.
func ConcurrentMapFuncWithError[Tin, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	var eg errgroup.Group
	switch {
	case concurrency == 0:
		eg.SetLimit(1)
	case concurrency > 0:
		eg.SetLimit(concurrency)
	}

	// every goroutine owns one slot
	outputs := make([]Tout, len(inputs))
	for i, in := range inputs {
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return outputs, nil
}
