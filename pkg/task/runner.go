package task

import (
	"context"
	"fmt"
	"time"

	"github.com/itohio/hidroroll/pkg/logging"
)

// TickFunc is one execution of a loop body.
type TickFunc func(ctx context.Context) Result

// Spec describes a periodic loop.
type Spec struct {
	Name     string
	Interval time.Duration // Sleep after every tick
	Tick     TickFunc
}

// Run executes spec.Tick, then sleeps spec.Interval, until ctx is cancelled or
// a tick returns a fatal result. Cancellation is checked once per iteration and
// during the sleep. Transient failures are logged and the loop continues.
func Run(ctx context.Context, spec Spec, logger logging.Logger) error {
	if spec.Tick == nil {
		return fmt.Errorf("task %s: no tick function", spec.Name)
	}

	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return nil
		}

		res := SafeTick(ctx, spec.Tick)
		switch res.Kind {
		case Fatal:
			logger.Error("%s: halting: %v", spec.Name, res.Err)
			return fmt.Errorf("task %s: %w", spec.Name, res.Err)
		case Transient:
			logger.Error("%s: %v", spec.Name, res.Err)
		}

		timer.Reset(spec.Interval)
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}
	}
}

// SafeTick executes tick with panic recovery. A panic is reported as a
// transient result instead of crashing the process.
func SafeTick(ctx context.Context, tick TickFunc) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Retry(fmt.Errorf("panic: %v", rec))
		}
	}()
	return tick(ctx)
}
