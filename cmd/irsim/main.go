// Command irsim runs the audio sensor over an OBJ scene and reports the
// resulting impulse response.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-acoustics/internal/config"
	"github.com/cwbudde/algo-acoustics/internal/logging"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "irsim",
		Short: "Acoustic impulse-response simulator",
		Long: `irsim drives the audio sensor over a static scene.

It loads a YAML run description, ingests the scene geometry, runs one
propagation simulation and exports the impulse response as WAV, the
acoustic mesh as OBJ and a waveform plot as WebP.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text, json); overrides the config")

	rootCmd.AddCommand(
		newVersionCmd(),
		newValidateCmd(),
		newSimulateCmd(),
		newAnalyzeCmd(),
	)
	return rootCmd
}

// newLogger builds the stderr logger, letting flags override cfg.
func newLogger(cmd *cobra.Command, cfg config.LoggingConfig) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	if level == "" {
		level = cfg.Level
	}
	if format == "" {
		format = cfg.Format
	}
	return logging.NewLogger(level, format, cmd.ErrOrStderr())
}

func loadConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
