package planstate

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"shish/ir"
)

func TestFromNodeSingleCmd(t *testing.T) {
	c := ir.New("echo", "hi").WithCwd("/tmp")
	snap, err := FromNode("single", c)
	require.NoError(t, err)
	require.Len(t, snap.Stages, 1)
	require.Equal(t, []string{"echo", "hi"}, snap.Stages[0].Args)
	require.Equal(t, "/tmp", snap.Stages[0].Cwd)
}

func TestFromNodePipelineOrdersStages(t *testing.T) {
	node := ir.NewPipeline(ir.New("a"), ir.New("b"), ir.New("c"))
	snap, err := FromNode("pipe", node)
	require.NoError(t, err)
	require.Len(t, snap.Stages, 3)
	require.Equal(t, []string{"a"}, snap.Stages[0].Args)
	require.Equal(t, []string{"b"}, snap.Stages[1].Args)
	require.Equal(t, []string{"c"}, snap.Stages[2].Args)
}

func TestFromNodeRendersSubstitutionPlaceholders(t *testing.T) {
	c := ir.New("diff").ArgSub(ir.SubIn{Cmd: ir.New("sort", "a")})
	snap, err := FromNode("subst", c)
	require.NoError(t, err)
	require.Equal(t, []string{"diff", "<(...)"}, snap.Stages[0].Args)
}

func TestSaveLoadRoundTrips(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snap")
	c := ir.New("sleep", "1").WithEnv(map[string]string{"X": "1"})
	snap, err := FromNode("roundtrip", c)
	require.NoError(t, err)

	require.NoError(t, Save(dir, snap))

	loaded, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, snap.ID, loaded.ID)
	require.Equal(t, snap.Stages, loaded.Stages)
}
