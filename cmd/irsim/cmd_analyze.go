package main

import (
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-acoustics/internal/irplot"
	"github.com/cwbudde/algo-acoustics/sensor/audio"
)

func newAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <ir.wav>",
		Short: "Report room-acoustic parameters of a recorded or simulated IR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, rate, err := audio.ReadIRWave(args[0])
			if err != nil {
				return err
			}
			r, err := newReport(data, rate)
			if err != nil {
				return err
			}
			if path, _ := cmd.Flags().GetString("plot"); path != "" {
				if err := irplot.WriteWebP(path, data, 1024, 256); err != nil {
					return err
				}
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			return r.write(cmd.OutOrStdout(), jsonOut)
		},
	}
	cmd.Flags().String("plot", "", "Write a waveform plot as WebP")
	return cmd
}
