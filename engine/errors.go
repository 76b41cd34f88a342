package engine

import (
	"fmt"

	"shish/ir"
)

// SpawnError reports that the OS refused to create a child process
// (executable not found, permission denied, resource limits). It is
// surfaced from Prepare only after Prepare has already killed and reaped
// every process spawned so far and closed every fd it still held.
type SpawnError struct {
	Argv []string
	Err  error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("engine: spawn %v: %v", e.Argv, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// IoError reports an unexpected failure reading/writing a pipe or opening a
// redirected file, surfaced after Prepare's or Execution.Wait's own cleanup
// has already run.
type IoError struct {
	Context string
	Err     error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("engine: %s: %v", e.Context, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// NonZeroExit is returned by Run when Config.StrictExitCode opts into
// exception-on-failure, and by Out for any non-zero return code. The core
// engine never raises this itself: a clean
// non-zero exit is simply returned as a Result. Cmd always carries the real
// root ir.Node that was run, never a zero value.
type NonZeroExit struct {
	Cmd        ir.Node
	ReturnCode int
	Captured   []byte
}

func (e *NonZeroExit) Error() string {
	return fmt.Sprintf("engine: command exited %d", e.ReturnCode)
}

// InvariantViolation reports a condition the planner assumes can never
// happen if ir's own constructors and invariants hold (e.g. a Pipeline with
// fewer than two stages reaching prepareNode, or argv resolving to nothing).
// Unlike ir.NewPipeline's panic on the same class of mistake, Prepare
// already has an error return on its signature, so these surface through it
// rather than unwinding the caller's goroutine.
type InvariantViolation struct {
	Msg string
}

func (e *InvariantViolation) Error() string {
	return "engine: invariant violation: " + e.Msg
}

// ErrUnsupportedPlatform is returned (never panicked) by platform-gated
// entry points on operating systems this package does not support; see
// platform_unsupported.go.
var ErrUnsupportedPlatform = fmt.Errorf("engine: unsupported platform")
