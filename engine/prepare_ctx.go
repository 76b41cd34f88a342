package engine

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"
)

// prepareCtx is the transient, prepare-local bookkeeping: every fd the
// parent currently holds and every process spawned so far, so a
// mid-prepare failure can roll both back before the error surfaces to the
// caller. It is only ever touched from the single goroutine driving
// Prepare.
type prepareCtx struct {
	log *zap.Logger

	held  map[*os.File]struct{}
	procs []*os.Process

	bgCtx    context.Context
	bgCancel context.CancelFunc
	bgWg     sync.WaitGroup
	bgTasks  []*bgTask
}

// bgTask is a background feeder/reader goroutine started during Prepare and
// awaited during Execution.Wait.
type bgTask struct {
	name string
	done chan error
}

func newPrepareCtx(ctx context.Context, log *zap.Logger) *prepareCtx {
	bgCtx, cancel := context.WithCancel(ctx)
	return &prepareCtx{
		log:      log,
		held:     make(map[*os.File]struct{}),
		bgCtx:    bgCtx,
		bgCancel: cancel,
	}
}

func (p *prepareCtx) track(f *os.File) {
	if f == nil {
		return
	}
	p.held[f] = struct{}{}
}

// untrack closes f (best-effort) and removes it from the held set. It is
// idempotent: closing an already-untracked file is a no-op.
func (p *prepareCtx) untrack(f *os.File) {
	if f == nil {
		return
	}
	if _, ok := p.held[f]; !ok {
		return
	}
	delete(p.held, f)
	_ = f.Close()
}

func (p *prepareCtx) spawned(proc *os.Process) {
	p.procs = append(p.procs, proc)
}

func (p *prepareCtx) startBgTask(name string, run func(ctx context.Context) error) {
	t := &bgTask{name: name, done: make(chan error, 1)}
	p.bgTasks = append(p.bgTasks, t)
	p.bgWg.Add(1)
	go func() {
		defer p.bgWg.Done()
		t.done <- run(p.bgCtx)
	}()
}

// rollback is invoked when Prepare fails partway through: it kills every
// process spawned so far, cancels and drains background tasks, and closes
// every fd still held, exactly mirroring the cleanup Execution.Wait applies
// on a successful tree.
func (p *prepareCtx) rollback() {
	for _, proc := range p.procs {
		_ = proc.Kill()
	}
	for _, proc := range p.procs {
		_, _ = proc.Wait()
	}
	p.bgCancel()
	p.bgWg.Wait()
	for f := range p.held {
		_ = f.Close()
	}
	p.held = make(map[*os.File]struct{})
}
