package ir

// FdOpKind is a closed, fixed-cardinality tag identifying which variant of
// FdOp a value holds. The set is closed by design; a switch over Kind in
// the planner is expected to be exhaustive.
type FdOpKind int

const (
	// OpToFile opens Path for writing (truncating, or appending if Append
	// is set) and directs Fd to it in the child.
	OpToFile FdOpKind = iota
	// OpFromFile opens Path for reading and directs Fd to it in the child.
	OpFromFile
	// OpFromData arranges for the child's Fd to read Data: the planner
	// creates a pipe and asynchronously feeds Data into the write end.
	OpFromData
	// OpToFd makes Fd alias SrcFd in the child (dup2 semantics), resolved
	// against SrcFd's *current* source in the fd-table simulation, not
	// recursively.
	OpToFd
	// OpClose closes Fd in the child.
	OpClose
	// OpFromSub spawns Sub and directs Fd to read from its stdout, as a
	// redirect-position process substitution (`cmd < <(sort a)`).
	OpFromSub
	// OpToSub spawns Sub and directs Fd to write to its stdin.
	OpToSub
)

// FdOp is a single, immutable fd-table operation. Only the fields relevant
// to Kind are meaningful; this mirrors a tagged union using a flat struct,
// which is the idiomatic Go encoding of a closed sum type with a handful of
// scalar/pointer payload fields.
type FdOp struct {
	Kind FdOpKind

	// Fd is the destination descriptor in the child's table for every
	// variant except OpToFd, where it is still the destination but the
	// source is SrcFd.
	Fd int

	// Path is used by OpToFile / OpFromFile.
	Path string
	// Append is used by OpToFile.
	Append bool

	// Data is used by OpFromData.
	Data []byte

	// SrcFd is used by OpToFd: the descriptor, from the child's
	// perspective, whose current resolved source Fd should alias.
	SrcFd int

	// Sub is used by OpFromSub / OpToSub.
	Sub Node
}

// ToFile returns an FdOp directing fd to a truncated (or appended) file at
// path when applied to a Cmd.
func ToFile(fd int, path string, append bool) FdOp {
	return FdOp{Kind: OpToFile, Fd: fd, Path: path, Append: append}
}

// FromFile returns an FdOp directing fd to read from path.
func FromFile(fd int, path string) FdOp {
	return FdOp{Kind: OpFromFile, Fd: fd, Path: path}
}

// FromData returns an FdOp that feeds data to fd via an anonymous pipe.
func FromData(fd int, data []byte) FdOp {
	return FdOp{Kind: OpFromData, Fd: fd, Data: data}
}

// ToFd returns an FdOp making dst alias src (dup2 semantics).
func ToFd(dst, src int) FdOp {
	return FdOp{Kind: OpToFd, Fd: dst, SrcFd: src}
}

// Close returns an FdOp closing fd in the child.
func Close(fd int) FdOp {
	return FdOp{Kind: OpClose, Fd: fd}
}

// FromSub returns an FdOp wiring fd to the stdout of a spawned helper (a
// redirect-position process substitution).
func FromSub(fd int, sub Node) FdOp {
	return FdOp{Kind: OpFromSub, Fd: fd, Sub: sub}
}

// ToSub returns an FdOp wiring fd to the stdin of a spawned helper.
func ToSub(fd int, sub Node) FdOp {
	return FdOp{Kind: OpToSub, Fd: fd, Sub: sub}
}
