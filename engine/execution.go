package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	specs "github.com/opencontainers/runtime-spec/specs-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"shish/ir"
	"shish/planstate"
)

// Result is the outcome of a fully-waited Execution.
type Result struct {
	// ReturnCode is the pipefail return code: the rightmost non-zero root
	// stage's exit code, or 0 if every root stage exited zero. Process
	// substitution helpers never participate, see rootProcs.
	ReturnCode int
	// Cmd is the root ir.Node the Execution was prepared from. This always
	// carries the real root node, never a zero value.
	Cmd ir.Node
}

// Execution is a tree of already-spawned processes. Wait does its work only
// once (subsequent calls return the same result); it blocks until every
// process in the tree, process-substitution helpers included, has exited
// and every background feeder/reader task has finished, unless ctx is
// canceled first.
type Execution struct {
	root   Node
	rootIR ir.Node
	log    *zap.Logger

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWg     *sync.WaitGroup
	bgTasks  []*bgTask

	once    sync.Once
	result  *Result
	waitErr error
}

// Wait blocks until the execution completes or ctx is canceled. On
// cancellation it still kills every remaining process and drains every
// background task, shielded from ctx since a canceled context must not
// abandon a reap or leak an fd, before returning ctx.Err().
func (e *Execution) Wait(ctx context.Context) (*Result, error) {
	e.once.Do(func() {
		e.result, e.waitErr = e.wait(ctx)
	})
	return e.result, e.waitErr
}

func (e *Execution) wait(ctx context.Context) (*Result, error) {
	procs := allProcs(e.root)

	g := new(errgroup.Group)
	for _, p := range procs {
		p := p
		g.Go(func() error {
			state, err := p.Proc.Wait()
			p.Finished = time.Now()
			if err != nil {
				p.WaitErr = err
				e.log.Warn("reap failed", zap.Int("pid", p.Proc.Pid), zap.Error(err))
				return err
			}
			p.ExitCode = exitCodeFromState(state)
			e.log.Debug("reaped", zap.Int("pid", p.Proc.Pid), zap.Int("exit_code", p.ExitCode))
			return nil
		})
	}
	for _, t := range e.bgTasks {
		t := t
		g.Go(func() error {
			if err := <-t.done; err != nil {
				e.log.Warn("background task failed", zap.String("task", t.name), zap.Error(err))
			}
			return nil
		})
	}

	waitDone := make(chan error, 1)
	go func() { waitDone <- g.Wait() }()

	select {
	case err := <-waitDone:
		if err != nil {
			return nil, &IoError{Context: "reap", Err: err}
		}
		e.log.Debug("cleanup complete")
		return e.computeResult(), nil
	case <-ctx.Done():
		cancelErr := ctx.Err()
		e.log.Warn("context canceled, killing remaining processes", zap.Error(cancelErr))
		for _, p := range procs {
			// Go's os.Process already tracks whether a process has been
			// reaped and turns a Kill after Wait into a no-op error, so
			// killing every process here regardless of reap state needs
			// no extra bookkeeping of its own.
			_ = p.Proc.Kill()
		}
		e.bgCancel()
		<-waitDone // reap is shielded: always drained before Wait returns
		e.log.Debug("cleanup complete")
		return nil, cancelErr
	}
}

func (e *Execution) computeResult() *Result {
	ret := 0
	for _, p := range rootProcs(e.root) {
		if p.ExitCode != 0 {
			ret = p.ExitCode
		}
	}
	return &Result{ReturnCode: ret, Cmd: e.rootIR}
}

// DumpState persists a planstate.Snapshot of every process in the
// execution's tree to dir, once Wait has completed: argv, resolved env
// overlay, cwd, pid, start/exit timestamps, and exit code for each. It is
// meant for post-mortem inspection of a pipeline that already ran; call it
// after Wait returns, not before.
func (e *Execution) DumpState(dir string) error {
	procs := allProcs(e.root)
	stages := make([]planstate.StageState, 0, len(procs))
	for _, p := range procs {
		stages = append(stages, planstate.StageState{
			Process: specs.Process{
				Args: p.Argv,
				Env:  p.Env,
				Cwd:  p.Cwd,
			},
			Pid:      p.Proc.Pid,
			Started:  p.Started,
			Finished: p.Finished,
			ExitCode: p.ExitCode,
		})
	}

	snap := &planstate.Snapshot{
		ID:        filepath.Base(dir),
		CreatedAt: time.Now(),
		Stages:    stages,
	}
	if err := planstate.Save(dir, snap); err != nil {
		return fmt.Errorf("engine: dump state: %w", err)
	}
	return nil
}
