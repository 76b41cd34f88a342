// Package ir defines the immutable, persistent value types that describe a
// command tree: single commands, pipelines, and the per-descriptor
// operations applied to a command's child file-descriptor table. Nothing in
// this package touches the OS; it is pure data plus the normalization rules
// (flattening, argv atom resolution) needed before the engine package can
// plan and spawn anything.
package ir

import "fmt"

// Node is implemented by both Cmd and Pipeline, allowing a pipeline stage to
// itself be a nested pipeline before NewPipeline flattens it.
type Node interface {
	isNode()
}

// Atom is one element of a Cmd's argv. It is either a literal string (a
// plain argument or a path-like value, both normalized to Literal at
// construction) or an opaque reference to a process substitution that the
// planner must resolve into a /dev/fd/N literal before spawn.
type Atom interface {
	isAtom()
}

// Literal is a plain argv string, already resolved.
type Literal string

func (Literal) isAtom() {}

// SubIn is an argument-position process substitution read by the consumer
// (e.g. the `<(sort a)` side of `diff <(sort a) <(sort b)`). The planner
// spawns Cmd against one end of a fresh pipe and substitutes the literal
// /dev/fd/N path for this atom.
type SubIn struct {
	Cmd Node
}

func (SubIn) isAtom() {}

// SubOut is the write-side counterpart of SubIn (e.g. `tee >(gzip > f.gz)`).
type SubOut struct {
	Cmd Node
}

func (SubOut) isAtom() {}

// ErrTooFewStages is the invariant violation panicked by NewPipeline when
// fewer than two stages result after flattening. A Pipeline with under two
// stages should never reach the planner, so this panics rather than
// returning an error, the same way Go's standard library panics on an
// out-of-range slice index rather than threading an error through every
// caller.
var ErrTooFewStages = fmt.Errorf("ir: pipeline requires at least two stages")
