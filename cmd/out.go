package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shish/engine"
)

var outStrict bool

var outCmd = &cobra.Command{
	Use:   "out <argv...> [| <argv...>]...",
	Short: "Run a pipeline and print the final stage's captured stdout",
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

		captured, err := engine.Out(ctx, node, engine.Config{Logger: log, StrictExitCode: outStrict})
		os.Stdout.Write(captured)
		if err != nil {
			var nz *engine.NonZeroExit
			if errors.As(err, &nz) && !outStrict {
				os.Exit(nz.ReturnCode)
			}
			return err
		}
		return nil
	},
}

func init() {
	outCmd.Flags().BoolVar(&outStrict, "strict", false, "fail the command instead of exiting with the child's return code")
}
