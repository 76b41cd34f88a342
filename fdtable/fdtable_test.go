package fdtable

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"shish/ir"
)

func TestApplyToFdAliasesCurrentSource(t *testing.T) {
	// Simulates `2>&1 >file`: stderr should end up aliasing the *original*
	// stdout (the terminal), not the file stdout is later redirected to.
	entry := map[int]Source{
		0: Held("stdin"),
		1: Held("tty-stdout"),
		2: Held("tty-stderr"),
	}
	ops := []ir.FdOp{
		ir.ToFd(2, 1),               // 2>&1
		ir.ToFile(1, "out.log", false), // >file
	}
	materialized := map[int]Source{
		1: Held("file:out.log"),
	}

	got, err := Apply(entry, ops, materialized)
	require.NoError(t, err)

	stderr, ok := got.Get(2)
	require.True(t, ok)
	require.Equal(t, Held("tty-stdout"), stderr, "stderr must mirror the pre-redirect stdout")

	stdout, ok := got.Get(1)
	require.True(t, ok)
	require.Equal(t, Held("file:out.log"), stdout)
}

func TestApplyCloseUnassignsSlot(t *testing.T) {
	entry := map[int]Source{0: Held("stdin"), 1: Held("stdout"), 2: Held("stderr")}
	got, err := Apply(entry, []ir.FdOp{ir.Close(0)}, nil)
	require.NoError(t, err)

	s, ok := got.Get(0)
	require.True(t, ok)
	require.Equal(t, ClosedSource, s)
}

func TestApplyLeftToRightLaterWins(t *testing.T) {
	entry := map[int]Source{1: Held("orig")}
	ops := []ir.FdOp{
		ir.ToFile(1, "a.txt", false),
		ir.ToFile(1, "b.txt", false),
	}
	materialized := map[int]Source{
		0: Held("file:a.txt"),
		1: Held("file:b.txt"),
	}
	got, err := Apply(entry, ops, materialized)
	require.NoError(t, err)

	s, _ := got.Get(1)
	require.Equal(t, Held("file:b.txt"), s)
}

func TestApplyEquivalentSequencesProduceEqualTables(t *testing.T) {
	entry := map[int]Source{0: Held("stdin"), 1: Held("stdout"), 2: Held("stderr")}

	t1, err := Apply(entry, []ir.FdOp{ir.ToFd(2, 1)}, nil)
	require.NoError(t, err)

	// A differently-shaped but semantically identical sequence (redundant
	// close+alias round trip) must compile to the same final table.
	t2, err := Apply(entry, []ir.FdOp{ir.Close(2), ir.ToFd(2, 1)}, nil)
	require.NoError(t, err)

	if diff := cmp.Diff(t1.PassThrough(), t2.PassThrough(), cmp.AllowUnexported(Source{})); diff != "" {
		t.Fatalf("equivalent fd-op sequences produced different tables (-want +got):\n%s", diff)
	}
}

func TestApplyUnmaterializedOpFails(t *testing.T) {
	_, err := Apply(nil, []ir.FdOp{ir.ToFile(1, "x", false)}, nil)
	require.Error(t, err)
	var target *UnmaterializedOpError
	require.ErrorAs(t, err, &target)
}

func TestPassThroughFillsGapsWithClosed(t *testing.T) {
	entry := map[int]Source{0: Held("stdin"), 1: Held("stdout"), 2: Held("stderr"), 5: Held("sub")}
	table, err := Apply(entry, nil, nil)
	require.NoError(t, err)

	pt := table.PassThrough()
	require.Len(t, pt, 6)
	require.Equal(t, ClosedSource, pt[3])
	require.Equal(t, ClosedSource, pt[4])
	require.Equal(t, Held("sub"), pt[5])
}
