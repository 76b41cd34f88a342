package engine

import "go.uber.org/zap"

// Stdin, Stdout, and Stderr name the three standard descriptors.
const (
	Stdin  = 0
	Stdout = 1
	Stderr = 2
)

// Config configures how a node is prepared and executed.
type Config struct {
	// Logger receives structured lifecycle events (spawn, reap, kill,
	// cleanup) for every Execution. Defaults to a no-op logger.
	Logger *zap.Logger

	// StrictExitCode, when true, makes Run return a NonZeroExit error for a
	// non-zero Result.ReturnCode instead of returning the code alone. Out
	// returns a NonZeroExit for any non-zero code whether or not this is
	// set. The core engine (Prepare/Execution.Wait) never applies this
	// policy itself; it is strictly a convenience-layer knob.
	StrictExitCode bool
}

func (c Config) logger() *zap.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return zap.NewNop()
}
