package cmd

import (
	"fmt"

	"shish/ir"
)

// splitStages splits argv on a literal "|" token into one argv slice per
// stage. A stage must have at least one token (the command name).
func splitStages(argv []string) ([][]string, error) {
	var stages [][]string
	var cur []string
	for _, tok := range argv {
		if tok == "|" {
			if len(cur) == 0 {
				return nil, fmt.Errorf("empty stage before '|'")
			}
			stages = append(stages, cur)
			cur = nil
			continue
		}
		cur = append(cur, tok)
	}
	if len(cur) == 0 {
		return nil, fmt.Errorf("empty stage at end of argv")
	}
	stages = append(stages, cur)
	return stages, nil
}

// buildNode turns split stage argvs into an ir.Node: a bare ir.Cmd for a
// single stage, or an ir.Pipeline for two or more. This is the CLI's only
// concession to shell-like syntax: no redirection, no substitution, no
// quoting rules beyond what the shell that invoked `shish` already did.
func buildNode(stages [][]string) ir.Node {
	cmds := make([]ir.Cmd, len(stages))
	for i, argv := range stages {
		cmds[i] = ir.New(argv[0], argv[1:]...)
	}
	if len(cmds) == 1 {
		return cmds[0]
	}
	nodes := make([]ir.Node, len(cmds))
	for i, c := range cmds {
		nodes[i] = c
	}
	return ir.NewPipeline(nodes...)
}
