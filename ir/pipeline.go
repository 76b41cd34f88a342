package ir

import "fmt"

// Pipeline is an immutable, ordered sequence of at least two stages. Nested
// pipelines passed to NewPipeline are flattened at construction time so the
// stored stage list always contains only Cmd values: `A | (B | C)` and
// `(A | B) | C` both produce the stage list [A, B, C].
type Pipeline struct {
	stages []Cmd
}

func (Pipeline) isNode() {}

// NewPipeline flattens nodes into a stage list and returns the resulting
// Pipeline. It panics, wrapping ErrTooFewStages, if fewer than two stages
// result: constructing a sub-two-stage pipeline is a programmer error that
// must never reach the planner.
func NewPipeline(nodes ...Node) Pipeline {
	var stages []Cmd
	for _, n := range nodes {
		flatten(n, &stages)
	}
	if len(stages) < 2 {
		panic(fmt.Errorf("%w: got %d", ErrTooFewStages, len(stages)))
	}
	return Pipeline{stages: stages}
}

func flatten(n Node, out *[]Cmd) {
	switch v := n.(type) {
	case Cmd:
		*out = append(*out, v)
	case Pipeline:
		*out = append(*out, v.stages...)
	default:
		panic(fmt.Errorf("ir: unknown Node implementation %T", n))
	}
}

// Stages returns the pipeline's flattened stage list. The returned slice
// must not be mutated.
func (p Pipeline) Stages() []Cmd {
	return p.stages
}
