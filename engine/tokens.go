package engine

import "os"

// fileToken is the concrete type fdtable.Source.Token always holds in this
// package: the open file plus whether the parent must keep it open past
// spawn (the process's own stdio, never closed) or transfer it (everything
// else, closed the instant Start returns).
type fileToken struct {
	file *os.File
	keep bool
}
