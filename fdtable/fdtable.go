// Package fdtable implements the pure, I/O-free computation at the heart of
// the planner: given the fd table a child process will start with and the
// sequence of fd operations a Cmd wants applied, compute the table the
// child should end up with and the ordered list of descriptors that must
// actually cross the spawn boundary.
//
// Nothing in this package opens a file, creates a pipe, or spawns a
// process. It only resolves opaque "source" tokens that the caller
// (package engine) has already attached to real, already-open descriptors.
package fdtable

import "shish/ir"

// Source identifies what a child fd resolves to: either an already-open
// descriptor represented by an opaque Token supplied by the caller, or
// Closed, meaning the child must not see this fd at all.
type Source struct {
	Closed bool
	Token  any
}

// Held wraps token as an open Source. The planner's tokens are typically
// *os.File values, but fdtable never dereferences them; it only compares
// identity and carries them through.
func Held(token any) Source {
	return Source{Token: token}
}

// ClosedSource is the zero-value-equivalent explicit "no fd here" source.
var ClosedSource = Source{Closed: true}

// Table is the result of applying an fd-operation sequence to an entry
// table: the final child fd -> Source mapping.
type Table struct {
	slots map[int]Source
}

// Get returns the resolved source for fd, and whether fd is present (as
// either Held or explicitly Closed, meaning it was mentioned at all, either
// in the entry table or by an op).
func (t Table) Get(fd int) (Source, bool) {
	s, ok := t.slots[fd]
	return s, ok
}

// PassThrough returns, in child-fd order starting at 0, the Source for
// every fd from 0 up to the table's maximum mentioned fd (inclusive). Gaps,
// fds never mentioned by the entry table or any op, lying below the
// maximum, are reported as ClosedSource: a realizer built on
// os/exec.Cmd.ExtraFiles needs a contiguous run of descriptors, so every
// slot below the highest one in use must have an entry, even if that entry
// is ClosedSource.
func (t Table) PassThrough() []Source {
	max := -1
	for fd := range t.slots {
		if fd > max {
			max = fd
		}
	}
	if max < 0 {
		return nil
	}
	out := make([]Source, max+1)
	for fd := 0; fd <= max; fd++ {
		if s, ok := t.slots[fd]; ok {
			out[fd] = s
		} else {
			out[fd] = ClosedSource
		}
	}
	return out
}

// Apply computes the final Table given an entry table (the fd -> Source
// mapping the child would start with before any of ops run) and an ordered
// fd-op sequence. Ops are applied strictly left-to-right; a later op
// targeting the same destination fd overrides an earlier one.
//
// FdToFile, FdFromFile, FdFromData, FdFromSub, and FdToSub are not resolved
// here: the planner must first materialize them (open the file, create the
// pipe, spawn the substitution helper, start the feeder goroutine) and hand
// Apply the resulting already-open Source, keyed by the op's index in ops,
// not by destination fd, since the same fd may be targeted by more than
// one materializing op in sequence (e.g. two successive redirects of fd 1
// to different files). Apply resolves OpToFd and OpClose directly, since
// both are pure symbol-table manipulation with no I/O of their own.
func Apply(entry map[int]Source, ops []ir.FdOp, materialized map[int]Source) (Table, error) {
	slots := make(map[int]Source, len(entry))
	for fd, s := range entry {
		slots[fd] = s
	}

	for i, op := range ops {
		switch op.Kind {
		case ir.OpToFile, ir.OpFromFile, ir.OpFromData, ir.OpFromSub, ir.OpToSub:
			s, ok := materialized[i]
			if !ok {
				return Table{}, &UnmaterializedOpError{Op: op}
			}
			slots[op.Fd] = s

		case ir.OpToFd:
			src, ok := slots[op.SrcFd]
			if !ok {
				return Table{}, &DanglingSourceError{Fd: op.SrcFd}
			}
			slots[op.Fd] = src

		case ir.OpClose:
			slots[op.Fd] = ClosedSource

		default:
			return Table{}, &UnknownOpKindError{Kind: op.Kind}
		}
	}

	return Table{slots: slots}, nil
}
