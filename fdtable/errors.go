package fdtable

import (
	"fmt"

	"shish/ir"
)

// UnmaterializedOpError is returned by Apply when an op that requires a
// pre-opened Source (OpToFile, OpFromFile, OpFromData, OpFromSub, OpToSub)
// has no corresponding entry in the materialized map. This indicates a
// planner bug, not a caller error: every such op must be materialized
// before Apply is called.
type UnmaterializedOpError struct {
	Op ir.FdOp
}

func (e *UnmaterializedOpError) Error() string {
	return fmt.Sprintf("fdtable: op targeting fd %d requires materialization but none was provided", e.Op.Fd)
}

// DanglingSourceError is returned by Apply when an OpToFd references a
// source fd that the table has no record of (neither in the entry table
// nor assigned by an earlier op).
type DanglingSourceError struct {
	Fd int
}

func (e *DanglingSourceError) Error() string {
	return fmt.Sprintf("fdtable: fd %d has no source to alias", e.Fd)
}

// UnknownOpKindError is returned by Apply when an FdOp carries a Kind value
// outside the closed set fdtable understands. Since ir.FdOpKind is a closed
// sum type, seeing this indicates a version skew between ir and fdtable.
type UnknownOpKindError struct {
	Kind ir.FdOpKind
}

func (e *UnknownOpKindError) Error() string {
	return fmt.Sprintf("fdtable: unknown fd-op kind %d", e.Kind)
}
