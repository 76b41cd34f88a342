package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shish/planstate"
)

var planCmd = &cobra.Command{
	Use:   "plan <argv...> [| <argv...>]...",
	Short: "Print what a pipeline would run, without running it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stages, err := splitStages(args)
		if err != nil {
			return err
		}
		node := buildNode(stages)

		snap, err := planstate.FromNode("plan", node)
		if err != nil {
			return fmt.Errorf("build snapshot: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}
