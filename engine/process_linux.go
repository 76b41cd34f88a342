//go:build linux

package engine

import (
	"os/exec"
	"syscall"
)

// setDeathSignal sets Pdeathsig so a pipeline stage is killed if the
// parent shish process dies first, rather than being left to run
// detached.
func setDeathSignal(cmd *exec.Cmd) {
	cmd.SysProcAttr.Pdeathsig = syscall.SIGKILL
}
