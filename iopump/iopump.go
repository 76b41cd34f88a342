// Package iopump provides the whole-buffer read/write primitives the
// planner uses for data-feeder and capture pipes.
//
// A goroutine performing an ordinary blocking Read/Write on the pipe's
// *os.File is the idiomatic Go equivalent of a readiness-driven event
// loop: the runtime's netpoller parks that goroutine without occupying an
// OS thread while the syscall would block, giving the caller the same
// non-blocking-from-its-perspective behavior without an explicit event
// loop of its own.
package iopump

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"
)

// ReadAll reads f until EOF and returns everything read. f is always closed
// when ReadAll returns, whether it returns an error or not. If ctx is
// canceled before EOF, f is closed to unblock the pending Read and ctx.Err()
// is returned.
func ReadAll(ctx context.Context, f *os.File) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	go func() {
		data, err := io.ReadAll(f)
		_ = f.Close()
		done <- result{data: data, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return r.data, &IoError{Op: "read", Err: r.err}
		}
		return r.data, nil
	case <-ctx.Done():
		_ = f.Close()
		<-done // wait for the goroutine to observe the close and exit
		return nil, ctx.Err()
	}
}

// WriteAll writes the entirety of data to f, then closes f. A broken pipe
// (the reader exited early) is treated as graceful early termination, not
// an error: pipelines intentionally rely on this to let a downstream
// consumer like `head -n1` terminate a producer early without the feeder
// reporting failure. If ctx is canceled before the write completes, f is
// closed to unblock the pending Write and ctx.Err() is returned.
func WriteAll(ctx context.Context, f *os.File, data []byte) error {
	done := make(chan error, 1)

	go func() {
		_, err := f.Write(data)
		closeErr := f.Close()
		if err == nil {
			err = closeErr
		}
		done <- err
	}()

	select {
	case err := <-done:
		if isBrokenPipe(err) {
			return nil
		}
		if err != nil {
			return &IoError{Op: "write", Err: err}
		}
		return nil
	case <-ctx.Done():
		_ = f.Close()
		<-done
		return ctx.Err()
	}
}

func isBrokenPipe(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EPIPE) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
		return true
	}
	return false
}

// IoError wraps an unexpected (non-EPIPE) syscall failure encountered while
// reading or writing a pipe.
type IoError struct {
	Op  string
	Err error
}

func (e *IoError) Error() string {
	return "iopump: " + e.Op + ": " + e.Err.Error()
}

func (e *IoError) Unwrap() error {
	return e.Err
}
