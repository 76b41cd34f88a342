//go:build unix && !linux

package engine

import "os/exec"

// setDeathSignal is a no-op outside Linux: Pdeathsig is a Linux-only field
// of syscall.SysProcAttr.
func setDeathSignal(cmd *exec.Cmd) {}
