package opt

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"

	"brilflow/internal/ir"
)

// ForEachFunction calls fn for every function of m, at most workers at a
// time. Each function is handed to exactly one goroutine. Every call runs
// to completion even when others fail; the errors are joined in module
// order. Functions not yet started when ctx is cancelled are skipped.
func ForEachFunction(ctx context.Context, m *ir.Module, workers int, fn func(ctx context.Context, i int, f *ir.Function) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	errs := make([]error, len(m.Functions))
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for i, f := range m.Functions {
		if err := ctx.Err(); err != nil {
			errs[i] = fmt.Errorf("@%s: %w", f.Name, err)
			continue
		}
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			errs[i] = fmt.Errorf("@%s: %w", f.Name, ctx.Err())
			continue
		}

		wg.Add(1)
		go func() {
			defer func() {
				<-sem
				wg.Done()
			}()
			errs[i] = fn(ctx, i, f)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}
