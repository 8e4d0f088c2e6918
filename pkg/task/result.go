// Package task runs periodic loop bodies and decides, per tick result, whether
// a loop keeps going or halts.
package task

import "fmt"

// Kind classifies the outcome of one tick.
type Kind int

const (
	// Success means the tick did its work.
	Success Kind = iota
	// Transient means the tick failed but the next tick may succeed.
	Transient
	// Fatal means the loop cannot continue.
	Fatal
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case Transient:
		return "transient"
	case Fatal:
		return "fatal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Result is returned by every tick.
type Result struct {
	Kind Kind
	Err  error
}

// OK reports a successful tick.
func OK() Result {
	return Result{Kind: Success}
}

// Retry reports a failed tick that should simply be tried again next period.
func Retry(err error) Result {
	return Result{Kind: Transient, Err: err}
}

// Halt reports a failure that stops the loop.
func Halt(err error) Result {
	return Result{Kind: Fatal, Err: err}
}
