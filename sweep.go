package snoopsim

import (
	"context"
	"errors"
	"sync"

	"github.com/ehrlich-b/go-snoopsim/internal/constants"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

// Sweep runs several configurations concurrently on a bounded worker
// pool and returns their results in input order. A configuration that
// fails leaves a nil slot in the results; the joined errors are
// returned alongside whatever completed.
func Sweep(ctx context.Context, configs []Config, workers int) ([]*Result, error) {
	if workers <= 0 {
		workers = constants.DefaultSweepWorkers
	}
	if workers > len(configs) {
		workers = len(configs)
	}

	results := make([]*Result, len(configs))
	errs := make([]error, len(configs))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				logging.Debug("sweep job start", "index", i, "protocol", configs[i].Protocol)
				sim, err := New(configs[i])
				if err != nil {
					errs[i] = err
					continue
				}
				res, err := sim.Run(ctx)
				if err != nil {
					errs[i] = err
					continue
				}
				results[i] = res
			}
		}()
	}

	for i := range configs {
		if ctx.Err() != nil {
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, errors.Join(errs...)
}
