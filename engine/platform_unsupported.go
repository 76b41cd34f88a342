//go:build !unix

package engine

import (
	"os"
	"os/exec"
)

// shish targets Linux/Darwin/BSD; the fd-table realization in prepare.go
// assumes /dev/fd-style process substitution and unix process groups.
// Prepare fails fast on any other platform instead of spawning a
// half-isolated tree.
func checkPlatformSupported() error { return ErrUnsupportedPlatform }

func applyPlatformAttrs(cmd *exec.Cmd) {}

func exitCodeFromState(state *os.ProcessState) int {
	return state.ExitCode()
}
