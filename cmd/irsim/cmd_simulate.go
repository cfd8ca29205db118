package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-acoustics/internal/config"
	"github.com/cwbudde/algo-acoustics/internal/irplot"
	"github.com/cwbudde/algo-acoustics/scene"
	"github.com/cwbudde/algo-acoustics/sensor/audio"
)

var errSimulation = errors.New("irsim: simulation failed")

func newSimulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulation and report the impulse response",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg.Logging)

			s, err := buildSensor(cfg, logger)
			if err != nil {
				return err
			}
			defer s.Close()

			src, err := loadScene(cfg)
			if err != nil {
				return err
			}
			if !s.RunSimulation(src) {
				return errSimulation
			}

			if err := exportResults(cmd, s); err != nil {
				return err
			}

			r, err := newReport(s.IR(), cfg.Acoustics.SampleRate)
			if err != nil {
				return err
			}
			eff, visible := s.RayEfficiency(), s.SourceIsVisible()
			r.RayEfficiency, r.SourceVisible = &eff, &visible

			jsonOut, _ := cmd.Flags().GetBool("json")
			return r.write(cmd.OutOrStdout(), jsonOut)
		},
	}
	cmd.Flags().String("config", "", "YAML run configuration (defaults when empty)")
	cmd.Flags().String("wav", "", "Write the IR as 24-bit WAV")
	cmd.Flags().String("obj", "", "Write the acoustic scene mesh as OBJ")
	cmd.Flags().String("plot", "", "Write a waveform plot as WebP")
	cmd.Flags().Int("plot-width", 1024, "Plot width in pixels")
	cmd.Flags().Int("plot-height", 256, "Plot height in pixels")
	return cmd
}

func buildSensor(cfg *config.RunConfig, logger *slog.Logger) (audio.Sensor, error) {
	spec, err := cfg.Spec()
	if err != nil {
		return nil, err
	}
	s, err := audio.New(spec, audio.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if cfg.Materials != "" {
		s.SetAudioMaterialsJSON(cfg.Materials)
	}
	if cfg.HRTF != "" {
		s.SetListenerHRTF(cfg.HRTF)
	}
	s.SetAudioSourceTransform(cfg.SourcePosition())
	s.SetAudioListenerTransform(cfg.ListenerPose())
	return s, nil
}

func loadScene(cfg *config.RunConfig) (scene.Source, error) {
	if cfg.Scene == "" {
		return scene.Empty(), nil
	}
	st, err := scene.LoadOBJ(cfg.Scene)
	if err != nil {
		return nil, fmt.Errorf("irsim: loading scene: %w", err)
	}
	return st, nil
}

func exportResults(cmd *cobra.Command, s audio.Sensor) error {
	if path, _ := cmd.Flags().GetString("wav"); path != "" && !s.WriteIRWave(path) {
		return fmt.Errorf("irsim: writing %s failed", path)
	}
	if path, _ := cmd.Flags().GetString("obj"); path != "" && !s.WriteSceneMeshOBJ(path) {
		return fmt.Errorf("irsim: writing %s failed", path)
	}
	if path, _ := cmd.Flags().GetString("plot"); path != "" {
		w, _ := cmd.Flags().GetInt("plot-width")
		h, _ := cmd.Flags().GetInt("plot-height")
		if err := irplot.WriteWebP(path, s.IR(), w, h); err != nil {
			return err
		}
	}
	return nil
}
