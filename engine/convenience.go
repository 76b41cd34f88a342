package engine

import (
	"context"
	"errors"
	"os"

	"shish/ir"
	"shish/iopump"
)

// Run prepares and waits on node, returning its pipefail return code. If
// cfg.StrictExitCode is set, a non-zero return code is reported as a
// *NonZeroExit error instead.
func Run(ctx context.Context, node ir.Node, cfg Config) (int, error) {
	ex, err := Prepare(ctx, node, cfg)
	if err != nil {
		return -1, err
	}
	res, err := ex.Wait(ctx)
	if err != nil {
		return -1, err
	}
	if cfg.StrictExitCode && res.ReturnCode != 0 {
		return res.ReturnCode, &NonZeroExit{Cmd: res.Cmd, ReturnCode: res.ReturnCode}
	}
	return res.ReturnCode, nil
}

// Out runs node with its stdout captured to a pipe read back by the caller,
// and returns everything written to it. A non-zero return code is reported
// as a *NonZeroExit error carrying the captured bytes, regardless of
// cfg.StrictExitCode: there is no code left to hand the caller instead.
func Out(ctx context.Context, node ir.Node, cfg Config) ([]byte, error) {
	rd, wr, err := os.Pipe()
	if err != nil {
		return nil, &IoError{Context: "capture pipe", Err: err}
	}

	ex, err := prepareRoot(ctx, node, cfg, nil, wr)
	// The last stage's prepareCmd already closed its own copy of wr right
	// after Start; this closes the caller's copy so the pipe's write end
	// truly has no holders left and the capture read below can see EOF. A
	// prepare failure may have left wr untouched instead, so only swallow
	// the already-closed case.
	if cerr := wr.Close(); cerr != nil && !errors.Is(cerr, os.ErrClosed) && err == nil {
		err = &IoError{Context: "close capture pipe write end", Err: cerr}
	}
	if err != nil {
		_ = rd.Close()
		return nil, err
	}

	captured, readErr := iopump.ReadAll(ctx, rd)
	res, waitErr := ex.Wait(ctx)
	if waitErr != nil {
		return captured, waitErr
	}
	if readErr != nil {
		return captured, &IoError{Context: "capture stdout", Err: readErr}
	}
	if res.ReturnCode != 0 {
		return captured, &NonZeroExit{Cmd: res.Cmd, ReturnCode: res.ReturnCode, Captured: captured}
	}
	return captured, nil
}
