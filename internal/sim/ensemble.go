package sim

import (
	"context"
	"sync"

	"github.com/san-kum/espic/internal/plasma"
)

// Ensemble runs the same scenario under consecutive seeds in parallel,
// one driver per run. Systems cannot be shared between runs, so the
// caller supplies a builder invoked once per seed.
type Ensemble struct {
	build     func(seed int64) (System, error)
	numRuns   int
	seedStart int64
	metrics   func() []plasma.Metric
}

func NewEnsemble(build func(seed int64) (System, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{build: build, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics registers a factory producing a fresh metric set for each
// run. Metrics cannot be shared across concurrent drivers.
func (e *Ensemble) WithMetrics(fn func() []plasma.Metric) *Ensemble {
	e.metrics = fn
	return e
}

// Run executes all seeds and returns their results in seed order. The
// first construction or run error fails the whole ensemble.
func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sys, err := e.build(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			driver := New(sys)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					driver.AddMetric(m)
				}
			}
			results[idx], errs[idx] = driver.Run(ctx, cfg)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
