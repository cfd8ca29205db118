package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a run configuration without simulating",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			spec, err := cfg.Spec()
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]any{
					"valid":    true,
					"uuid":     spec.UUID,
					"layout":   spec.ChannelLayout.Type.String(),
					"channels": spec.ChannelLayout.ChannelCount,
					"samples":  spec.Acoustics.SampleCount(),
				})
			}
			fmt.Fprintf(out, "config OK: %s, %d channels x %d samples at %d Hz\n",
				spec.ChannelLayout.Type, spec.ChannelLayout.ChannelCount,
				spec.Acoustics.SampleCount(), spec.Acoustics.SampleRate)
			return nil
		},
	}
	cmd.Flags().String("config", "", "YAML run configuration (defaults when empty)")
	return cmd
}
