// Package planstate persists a prepared command tree to disk as JSON, for
// the "shish dump" debugging command and for post-mortem inspection of a
// pipeline that already ran. It reuses
// github.com/opencontainers/runtime-spec's specs.Process as the wire shape
// for a single stage. Args/Env/Cwd map directly onto what an ir.Cmd
// carries, rather than inventing a parallel JSON schema; the rest of
// specs.Process (User, Capabilities, Rlimits, ...) is simply left at its
// zero value, since shish has no notion of them.
package planstate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"

	"shish/ir"
)

// StageState is one pipeline stage's resolved command plus, once it has
// actually run, what happened when it did. Pid/Started/Finished/ExitCode
// are left at their zero value for a Snapshot built from FromNode, since a
// merely-constructed ir.Node was never spawned.
type StageState struct {
	specs.Process
	Pid      int       `json:"pid,omitempty"`
	Started  time.Time `json:"started,omitempty"`
	Finished time.Time `json:"finished,omitempty"`
	ExitCode int       `json:"exitCode"`
}

// Snapshot is the dumped shape of a prepared (or merely constructed) ir.Node:
// one StageState per pipeline stage, in left-to-right order.
type Snapshot struct {
	ID        string       `json:"id"`
	CreatedAt time.Time    `json:"createdAt"`
	Stages    []StageState `json:"stages"`
}

// baseDir is the parent directory Dir resolves plan ids under. Save writes
// to whatever directory it is given, not necessarily one under baseDir. A
// variable so tests can redirect it.
var baseDir = filepath.Join(os.TempDir(), "shish")

// Dir returns the directory a plan with the given id is (or would be)
// dumped under.
func Dir(id string) string {
	return filepath.Join(baseDir, id)
}

// FromNode converts node into a Snapshot, resolving process-substitution atoms
// to the placeholder "<(...)"/">(...)" rather than a real /dev/fd path.
// A Snapshot built this way is a static description, not the product of a
// live Prepare, so there is no fd to name yet and no runtime state to fill
// in; see Execution.DumpState for the post-run counterpart.
func FromNode(id string, node ir.Node) (*Snapshot, error) {
	stages, err := stagesFromNode(node)
	if err != nil {
		return nil, err
	}
	return &Snapshot{ID: id, CreatedAt: time.Now(), Stages: stages}, nil
}

func stagesFromNode(node ir.Node) ([]StageState, error) {
	switch v := node.(type) {
	case ir.Cmd:
		return []StageState{{Process: processFromCmd(v)}}, nil
	case ir.Pipeline:
		stages := v.Stages()
		out := make([]StageState, len(stages))
		for i, c := range stages {
			out[i] = StageState{Process: processFromCmd(c)}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("planstate: unknown ir.Node %T", node)
	}
}

func processFromCmd(c ir.Cmd) specs.Process {
	argv := c.Argv()
	args := make([]string, len(argv))
	for i, a := range argv {
		switch a.(type) {
		case ir.Literal:
			args[i] = string(a.(ir.Literal))
		case ir.SubIn:
			args[i] = "<(...)"
		case ir.SubOut:
			args[i] = ">(...)"
		default:
			args[i] = "<?>"
		}
	}

	var env []string
	if overlay := c.Env(); overlay != nil {
		env = make([]string, 0, len(overlay))
		for k, v := range overlay {
			env = append(env, k+"="+v)
		}
		sort.Strings(env)
	}

	return specs.Process{
		Args: args,
		Env:  env,
		Cwd:  c.Cwd(),
	}
}

// Save writes plan to dir/snapshot.json, creating dir if necessary, mirroring
// container.SaveState's create-encode-sync sequence.
func Save(dir string, plan *Snapshot) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("planstate: create state dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		return fmt.Errorf("planstate: create snapshot.json: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(plan); err != nil {
		return fmt.Errorf("planstate: encode plan: %w", err)
	}
	return f.Sync()
}

// Load reads back a Snapshot previously written by Save.
func Load(dir string) (*Snapshot, error) {
	f, err := os.Open(filepath.Join(dir, "snapshot.json"))
	if err != nil {
		return nil, fmt.Errorf("planstate: open snapshot.json: %w", err)
	}
	defer f.Close()

	var plan Snapshot
	if err := json.NewDecoder(f).Decode(&plan); err != nil {
		return nil, fmt.Errorf("planstate: decode plan: %w", err)
	}
	return &plan, nil
}
