// Command fdcheck prints, one per line and in order, every file descriptor
// number the calling process inherited across exec, excluding the
// descriptors fdcheck's own process opens (the one used to read
// /proc/self/fd and any the Go runtime holds). It exists so engine's tests can
// observe fd hygiene from outside the process rather than trusting the
// planner's own bookkeeping.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"syscall"
)

func main() {
	dir, err := os.Open("/proc/self/fd")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer dir.Close()

	entries, err := dir.ReadDir(-1)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	self := int(dir.Fd())
	fds := make([]int, 0, len(entries))
	for _, e := range entries {
		n, err := strconv.Atoi(e.Name())
		if err != nil || n == self {
			continue
		}
		// Descriptors this process opened itself, the Go runtime's included,
		// carry FD_CLOEXEC; an inherited one cannot, or exec would have
		// closed it.
		if flags, _, errno := syscall.Syscall(syscall.SYS_FCNTL, uintptr(n), syscall.F_GETFD, 0); errno == 0 && flags&syscall.FD_CLOEXEC != 0 {
			continue
		}
		fds = append(fds, n)
	}
	sort.Ints(fds)
	for _, n := range fds {
		fmt.Println(n)
	}
}
