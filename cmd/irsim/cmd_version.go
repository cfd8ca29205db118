package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-acoustics/sensor/audio"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"version": version,
					"commit":  commit,
					"date":    date,
					"engine":  audio.Enabled,
				})
			}
			fmt.Fprintf(out, "irsim version %s (commit: %s, built: %s, engine: %t)\n", version, commit, date, audio.Enabled)
			return nil
		},
	}
}
