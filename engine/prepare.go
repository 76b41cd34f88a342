package engine

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shish/fdtable"
	"shish/ir"
	"shish/iopump"
	"shish/procsub"
)

// Prepare spawns every process node describes and returns an Execution
// handle once the whole tree is running, or rolls the tree back and returns
// an error if any stage along the way fails.
func Prepare(ctx context.Context, node ir.Node, cfg Config) (*Execution, error) {
	return prepareRoot(ctx, node, cfg, nil, nil)
}

// prepareRoot is Prepare's real body, with stdin/stdout overrides for the
// root node so Out can redirect the tree's stdout to its own capture pipe
// without duplicating Prepare's rollback/logging wiring.
func prepareRoot(ctx context.Context, node ir.Node, cfg Config, stdin, stdout *os.File) (*Execution, error) {
	if err := checkPlatformSupported(); err != nil {
		return nil, err
	}

	log := cfg.logger().With(zap.String("execution_id", uuid.NewString()))
	pctx := newPrepareCtx(ctx, log)

	root, err := prepareNode(ctx, pctx, node, stdin, stdout)
	if err != nil {
		log.Warn("prepare failed, rolling back", zap.Error(err))
		pctx.rollback()
		return nil, err
	}

	return &Execution{
		root:     root,
		rootIR:   node,
		log:      log,
		bgCtx:    pctx.bgCtx,
		bgCancel: pctx.bgCancel,
		bgWg:     &pctx.bgWg,
		bgTasks:  pctx.bgTasks,
	}, nil
}

// prepareNode dispatches to prepareCmd or preparePipeline, optionally
// forcing the node's fd 0 and/or fd 1 to stdin/stdout rather than the
// caller's own stdio, used both at the root (nil, nil: inherit) and when a
// node is itself the target of a pipeline stage or a process substitution.
func prepareNode(ctx context.Context, pctx *prepareCtx, n ir.Node, stdin, stdout *os.File) (Node, error) {
	switch v := n.(type) {
	case ir.Cmd:
		return prepareCmd(ctx, pctx, v, stdin, stdout)
	case ir.Pipeline:
		return preparePipeline(ctx, pctx, v, stdin, stdout)
	default:
		return nil, &InvariantViolation{Msg: fmt.Sprintf("unknown ir.Node %T", n)}
	}
}

// preparePipeline spawns every stage left to right, wiring an os.Pipe
// between each consecutive pair. stdin/stdout, if non-nil, override the
// first stage's fd 0 and the last stage's fd 1 respectively.
func preparePipeline(ctx context.Context, pctx *prepareCtx, p ir.Pipeline, stdin, stdout *os.File) (*PipelineNode, error) {
	stages := p.Stages()
	n := len(stages)
	if n < 2 {
		return nil, &InvariantViolation{Msg: fmt.Sprintf("pipeline reached planner with %d stage(s)", n)}
	}

	stageStdin := make([]*os.File, n)
	stageStdout := make([]*os.File, n)
	stageStdin[0] = stdin
	stageStdout[n-1] = stdout

	for i := 0; i < n-1; i++ {
		rd, wr, err := os.Pipe()
		if err != nil {
			return nil, &IoError{Context: "pipeline stage pipe", Err: err}
		}
		pctx.track(rd)
		pctx.track(wr)
		stageStdout[i] = wr
		stageStdin[i+1] = rd
	}

	nodes := make([]*CmdNode, 0, n)
	for i, stageCmd := range stages {
		node, err := prepareCmd(ctx, pctx, stageCmd, stageStdin[i], stageStdout[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return &PipelineNode{Stages: nodes}, nil
}

// prepareCmd resolves argv substitutions, materializes fd-ops, runs them
// through fdtable.Apply, and spawns the resulting process. stdin/stdout
// override fd 0/fd 1 of the entry table (set by a pipeline stage or a
// process substitution); nil means "inherit the shish process's own".
func prepareCmd(ctx context.Context, pctx *prepareCtx, c ir.Cmd, stdin, stdout *os.File) (*CmdNode, error) {
	alloc := procsub.NewAllocator()
	for _, op := range c.FdOps() {
		alloc.Reserve(op.Fd)
		if op.Kind == ir.OpToFd {
			alloc.Reserve(op.SrcFd)
		}
	}

	entry := map[int]fdtable.Source{
		Stdin:  stdioSource(stdin, os.Stdin),
		Stdout: stdioSource(stdout, os.Stdout),
		Stderr: stdioSource(nil, os.Stderr),
	}

	var subNodes []Node

	argv := make([]string, 0, len(c.Argv()))
	for _, atom := range c.Argv() {
		switch a := atom.(type) {
		case ir.Literal:
			argv = append(argv, string(a))
		case ir.SubIn:
			path, node, err := resolveArgSub(ctx, pctx, alloc, entry, a.Cmd, procsub.In)
			if err != nil {
				return nil, err
			}
			subNodes = append(subNodes, node)
			argv = append(argv, path)
		case ir.SubOut:
			path, node, err := resolveArgSub(ctx, pctx, alloc, entry, a.Cmd, procsub.Out)
			if err != nil {
				return nil, err
			}
			subNodes = append(subNodes, node)
			argv = append(argv, path)
		default:
			return nil, &InvariantViolation{Msg: fmt.Sprintf("unknown ir.Atom %T", atom)}
		}
	}
	if len(argv) == 0 || argv[0] == "" {
		return nil, &InvariantViolation{Msg: "resolved argv[0] is empty"}
	}

	materialized := map[int]fdtable.Source{}
	for i, op := range c.FdOps() {
		switch op.Kind {
		case ir.OpToFile:
			f, err := os.OpenFile(op.Path, writeFlags(op.Append), 0o644)
			if err != nil {
				return nil, &IoError{Context: "open " + op.Path, Err: err}
			}
			pctx.track(f)
			materialized[i] = transferSource(f)

		case ir.OpFromFile:
			f, err := os.OpenFile(op.Path, os.O_RDONLY, 0)
			if err != nil {
				return nil, &IoError{Context: "open " + op.Path, Err: err}
			}
			pctx.track(f)
			materialized[i] = transferSource(f)

		case ir.OpFromData:
			rd, wr, err := os.Pipe()
			if err != nil {
				return nil, &IoError{Context: "data-feed pipe", Err: err}
			}
			pctx.track(rd)
			data := op.Data
			pctx.startBgTask("feed", func(taskCtx context.Context) error {
				return iopump.WriteAll(taskCtx, wr, data)
			})
			materialized[i] = transferSource(rd)

		case ir.OpFromSub:
			rd, wr, err := os.Pipe()
			if err != nil {
				return nil, &IoError{Context: "substitution pipe", Err: err}
			}
			pctx.track(rd)
			pctx.track(wr)
			node, err := prepareNode(ctx, pctx, op.Sub, nil, wr)
			if err != nil {
				return nil, err
			}
			pctx.untrack(wr)
			subNodes = append(subNodes, node)
			materialized[i] = transferSource(rd)

		case ir.OpToSub:
			rd, wr, err := os.Pipe()
			if err != nil {
				return nil, &IoError{Context: "substitution pipe", Err: err}
			}
			pctx.track(rd)
			pctx.track(wr)
			node, err := prepareNode(ctx, pctx, op.Sub, rd, nil)
			if err != nil {
				return nil, err
			}
			pctx.untrack(rd)
			subNodes = append(subNodes, node)
			materialized[i] = transferSource(wr)
		}
	}

	table, err := fdtable.Apply(entry, c.FdOps(), materialized)
	if err != nil {
		return nil, &InvariantViolation{Msg: err.Error()}
	}

	files, toClose, err := realize(table)
	if err != nil {
		return nil, err
	}

	cmdEnv := resolveEnv(c.Env())
	execCmd := exec.Command(argv[0], argv[1:]...)
	execCmd.Args = argv
	execCmd.Stdin = files[0]
	execCmd.Stdout = files[1]
	execCmd.Stderr = files[2]
	if len(files) > 3 {
		execCmd.ExtraFiles = files[3:]
	}
	execCmd.Env = cmdEnv
	execCmd.Dir = c.Cwd()
	applyPlatformAttrs(execCmd)

	startErr := execCmd.Start()
	for _, f := range toClose {
		if _, held := pctx.held[f]; held {
			pctx.untrack(f)
		} else {
			_ = f.Close()
		}
	}
	if startErr != nil {
		return nil, &SpawnError{Argv: argv, Err: startErr}
	}

	pctx.spawned(execCmd.Process)
	pctx.log.Debug("spawned", zap.Strings("argv", argv), zap.Int("pid", execCmd.Process.Pid))

	return &CmdNode{
		Proc:     execCmd.Process,
		Argv:     argv,
		Env:      cmdEnv,
		Cwd:      c.Cwd(),
		Started:  time.Now(),
		subNodes: subNodes,
	}, nil
}

// resolveArgSub spawns sub against one end of a fresh pipe, registers the
// other end in entry under a freshly allocated fd, and returns the
// /dev/fd/N path the caller substitutes into argv.
func resolveArgSub(ctx context.Context, pctx *prepareCtx, alloc *procsub.Allocator, entry map[int]fdtable.Source, sub ir.Node, dir procsub.Direction) (string, Node, error) {
	rd, wr, err := os.Pipe()
	if err != nil {
		return "", nil, &IoError{Context: "argument substitution pipe", Err: err}
	}
	pctx.track(rd)
	pctx.track(wr)

	var node Node
	var fd int
	if dir == procsub.In {
		node, err = prepareNode(ctx, pctx, sub, nil, wr)
		if err != nil {
			return "", nil, err
		}
		pctx.untrack(wr)
		fd = alloc.Next()
		entry[fd] = transferSource(rd)
	} else {
		node, err = prepareNode(ctx, pctx, sub, rd, nil)
		if err != nil {
			return "", nil, err
		}
		pctx.untrack(rd)
		fd = alloc.Next()
		entry[fd] = transferSource(wr)
	}
	return procsub.DevFdPath(fd), node, nil
}

// realize turns a fdtable.Table's PassThrough slots into the *os.File slice
// os/exec.Cmd expects (index 0/1/2 for stdio, 3.. for ExtraFiles). Gaps and
// explicitly Closed slots at 0/1/2 are bound to /dev/null; at 3 and above
// they are left nil, which os/exec closes in the child. It returns the
// distinct transferable files the caller must close once Start has returned.
func realize(table fdtable.Table) (files []*os.File, toClose []*os.File, err error) {
	passthrough := table.PassThrough()
	files = make([]*os.File, len(passthrough))
	seen := map[*os.File]bool{}

	for i, src := range passthrough {
		if src.Closed {
			if i >= 3 {
				continue
			}
			f, oerr := os.OpenFile(os.DevNull, os.O_RDWR, 0)
			if oerr != nil {
				return nil, nil, &IoError{Context: "open /dev/null", Err: oerr}
			}
			files[i] = f
			if !seen[f] {
				seen[f] = true
				toClose = append(toClose, f)
			}
			continue
		}
		tok := src.Token.(*fileToken)
		files[i] = tok.file
		if !tok.keep && !seen[tok.file] {
			seen[tok.file] = true
			toClose = append(toClose, tok.file)
		}
	}
	return files, toClose, nil
}

func stdioSource(override, fallback *os.File) fdtable.Source {
	if override != nil {
		return transferSource(override)
	}
	return fdtable.Held(&fileToken{file: fallback, keep: true})
}

func transferSource(f *os.File) fdtable.Source {
	return fdtable.Held(&fileToken{file: f})
}

func writeFlags(appendTo bool) int {
	if appendTo {
		return os.O_WRONLY | os.O_CREATE | os.O_APPEND
	}
	return os.O_WRONLY | os.O_CREATE | os.O_TRUNC
}

// resolveEnv returns nil (os/exec's own "inherit the parent's environment"
// sentinel) when overlay is nil, or the parent's environment merged with
// overlay otherwise. Sorted so two equal overlays always produce the same
// slice, which keeps CmdNode.Env useful for logging/dump comparisons.
func resolveEnv(overlay map[string]string) []string {
	if overlay == nil {
		return nil
	}
	merged := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			merged[kv[:i]] = kv[i+1:]
		}
	}
	for k, v := range overlay {
		merged[k] = v
	}
	out := make([]string, 0, len(merged))
	for k, v := range merged {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
