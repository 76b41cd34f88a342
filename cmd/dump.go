package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"shish/planstate"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <dir>",
	Short: "Load and pretty-print a planstate.Snapshot saved by 'shish run --dump-to'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := planstate.Load(args[0])
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}
