package ir

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPipelineFlattensNestedPipelines(t *testing.T) {
	a := New("a")
	b := New("b")
	c := New("c")

	left := NewPipeline(NewPipeline(a, b), c)
	right := NewPipeline(a, NewPipeline(b, c))

	require.Equal(t, []Cmd{a, b, c}, left.Stages())
	require.Equal(t, []Cmd{a, b, c}, right.Stages())
}

func TestNewPipelinePanicsOnTooFewStages(t *testing.T) {
	require.Panics(t, func() {
		NewPipeline(New("only-one"))
	})
	require.Panics(t, func() {
		NewPipeline()
	})
}

func TestCmdBuildersArePersistent(t *testing.T) {
	base := New("cat")
	withArg := base.Arg("-n")

	require.Len(t, base.Argv(), 1, "base must be unmodified by Arg")
	require.Len(t, withArg.Argv(), 2)

	withEnv := base.WithEnv(map[string]string{"FOO": "bar"})
	require.Nil(t, base.Env())
	require.Equal(t, "bar", withEnv.Env()["FOO"])
}

func TestCmdArgSubPreservesAtomKind(t *testing.T) {
	sorted := New("sort", "a.txt")
	c := New("diff").ArgSub(SubIn{Cmd: sorted})

	argv := c.Argv()
	require.Len(t, argv, 2)
	sub, ok := argv[1].(SubIn)
	require.True(t, ok, "expected SubIn atom")
	require.Equal(t, sorted, sub.Cmd)
}
