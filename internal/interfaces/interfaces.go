// Package interfaces defines the contract types shared between the
// scheduler and the public cler package. They live here, separate from
// the public API, to avoid a circular import: internal/sched needs to
// invoke and measure a runner without importing the root cler package,
// and cler needs to hand its own Runner values to internal/sched.
// Modeled directly on ehrlich-b-go-ublk's internal/interfaces/backend.go,
// whose doc comment states this exact purpose.
package interfaces

import "context"

// Logger is the minimal logging surface the scheduler needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Observer receives scheduler lifecycle events. Implementations must not
// block or allocate on the hot path; NoOpObserver is the zero-cost
// default.
type Observer interface {
	ObserveProcedure(blockName string, err error, runtime float64)
	ObserveBlockTerminated(blockName string, err error)
	ObserveGraphStopped()
}

// Runner is one schedulable unit: a block bound to its output channels,
// reduced to the single operation the scheduler needs to call. Concrete
// Runner values are built by the root cler package's NewRunner0..NewRunner4
// constructors and satisfy this interface structurally.
type Runner interface {
	Name() string
	Invoke(ctx context.Context) error
}
