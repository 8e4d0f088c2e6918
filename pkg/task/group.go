package task

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/itohio/hidroroll/pkg/logging"
)

// RunAll runs every spec in its own goroutine. The first loop that halts
// cancels the others; RunAll returns its error once all loops have stopped.
func RunAll(ctx context.Context, logger logging.Logger, specs ...Spec) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		spec := spec
		g.Go(func() error {
			logger.Info("%s: started, period %s", spec.Name, spec.Interval)
			defer logger.Info("%s: stopped", spec.Name)
			return Run(ctx, spec, logger)
		})
	}
	return g.Wait()
}
