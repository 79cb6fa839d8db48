package wasm

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// AnalyzeFunctions runs fn over every function of the module on a bounded
// worker pool and returns one result per function, indexed as in m.Funcs.
// Each worker owns its result slot exclusively, so fn must not touch shared
// mutable state; merging results is the caller's job and stays sequential.
func AnalyzeFunctions[T any](m *Module, jobs int, fn func(*Func) T) []T {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	results := make([]T, len(m.Funcs))
	if len(m.Funcs) == 0 {
		return results
	}

	g := new(errgroup.Group)
	g.SetLimit(min(jobs, len(m.Funcs)))
	for i, f := range m.Funcs {
		i, f := i, f
		g.Go(func() error {
			results[i] = fn(f)
			return nil
		})
	}
	// Workers are pure reads of the IR and never fail.
	_ = g.Wait()
	return results
}
