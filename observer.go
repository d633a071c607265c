package cler

import "github.com/caribou-labs/cler-go/internal/interfaces"

// Observer receives flow graph lifecycle events: one call per procedure
// invocation, one when a block terminates, one when the graph stops.
// Implementations must not block or allocate on the hot path. Grounded
// on ehrlich-b-go-ublk's metrics.go Observer/NoOpObserver/MetricsObserver
// trio.
type Observer = interfaces.Observer

// NoOpObserver discards every event; it is the default when a
// FlowGraphConfig leaves Observer nil.
type NoOpObserver struct{}

func (NoOpObserver) ObserveProcedure(string, error, float64) {}
func (NoOpObserver) ObserveBlockTerminated(string, error)    {}
func (NoOpObserver) ObserveGraphStopped()                    {}

var _ Observer = NoOpObserver{}

// LoggingObserver logs every lifecycle event at Debug (procedures) or
// Info/Warn (termination, stop) level through the given Logger. Useful
// during development; production graphs typically prefer NoOpObserver or
// a custom Observer feeding a metrics backend.
type LoggingObserver struct {
	Logger *Logger
}

func (o LoggingObserver) ObserveProcedure(name string, err error, seconds float64) {
	if err != nil {
		o.Logger.Debugf("procedure %q returned %v after %.6fs", name, err, seconds)
		return
	}
	o.Logger.Debugf("procedure %q succeeded after %.6fs", name, seconds)
}

func (o LoggingObserver) ObserveBlockTerminated(name string, err error) {
	o.Logger.Warnf("block %q terminated: %v", name, err)
}

func (o LoggingObserver) ObserveGraphStopped() {
	o.Logger.Info("flow graph stopped")
}

var _ Observer = LoggingObserver{}
