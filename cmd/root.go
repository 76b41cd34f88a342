package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "shish",
	Short: "shish composes and executes shell-style pipelines without a shell",
	Long: `shish builds command pipelines as Go values (ir.Cmd, ir.Pipeline) and
executes them directly with fork/exec, never through /bin/sh. The
subcommands here are a thin demo harness over the engine package: real
callers build an ir.Node and call engine.Run/engine.Out/engine.Prepare
directly instead of going through argv splitting.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("shish: use 'shish --help' for usage.")
	},
}

// Execute runs the root command and adds child commands.
func Execute() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(outCmd)
	rootCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(planCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
