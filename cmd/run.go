package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shish/engine"
)

var (
	runStrict bool
	runDumpTo string
)

var runCmd = &cobra.Command{
	Use:   "run <argv...> [| <argv...>]...",
	Short: "Run a pipeline and exit with its pipefail return code",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stages, err := splitStages(args)
		if err != nil {
			return err
		}
		node := buildNode(stages)

		log, err := zap.NewProduction()
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer log.Sync()

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		ex, err := engine.Prepare(ctx, node, engine.Config{Logger: log})
		if err != nil {
			return err
		}
		res, err := ex.Wait(ctx)
		if err != nil {
			return err
		}

		if runDumpTo != "" {
			if err := ex.DumpState(runDumpTo); err != nil {
				return fmt.Errorf("dump state: %w", err)
			}
		}

		if runStrict && res.ReturnCode != 0 {
			nz := &engine.NonZeroExit{Cmd: res.Cmd, ReturnCode: res.ReturnCode}
			fmt.Fprintln(os.Stderr, nz)
		}
		os.Exit(res.ReturnCode)
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runStrict, "strict", false, "print a NonZeroExit error to stderr on a non-zero return code")
	runCmd.Flags().StringVar(&runDumpTo, "dump-to", "", "after the pipeline finishes, save a planstate.Snapshot of what ran to this directory")
}
