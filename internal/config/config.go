// Package config loads the YAML run description used by irsim.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl64"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/sensor/audio"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("config: invalid run configuration")

// RunConfig describes one simulation run.
type RunConfig struct {
	// UUID names the sensor in log records.
	UUID string `json:"uuid" yaml:"uuid"`

	// Scene is an OBJ file; empty simulates free field. Relative paths are
	// resolved against the config file.
	Scene string `json:"scene,omitempty" yaml:"scene,omitempty"`

	// Materials is the acoustic materials JSON database.
	Materials string `json:"materials,omitempty" yaml:"materials,omitempty"`

	// HRTF is the listener HRTF file.
	HRTF string `json:"hrtf,omitempty" yaml:"hrtf,omitempty"`

	// EnableMaterials ingests the scene's OBJ groups as material categories.
	EnableMaterials bool `json:"enable_materials" yaml:"enable_materials"`

	// Layout is mono, binaural or ambisonics. Channels defaults to the
	// smallest count the layout accepts.
	Layout   string `json:"layout" yaml:"layout"`
	Channels int    `json:"channels,omitempty" yaml:"channels,omitempty"`

	Source   [3]float64     `json:"source" yaml:"source"`
	Listener ListenerConfig `json:"listener" yaml:"listener"`

	Acoustics acoustics.ContextConfig `json:"acoustics" yaml:"acoustics"`

	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// ListenerConfig is the listener pose. Orientation is a quaternion in
// x, y, z, w order.
type ListenerConfig struct {
	Position    [3]float64 `json:"position" yaml:"position"`
	Orientation [4]float64 `json:"orientation" yaml:"orientation"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// Default returns a binaural run in free field with the source one metre in
// front of the listener.
func Default() *RunConfig {
	return &RunConfig{
		UUID:   "audio",
		Layout: "binaural",
		Source: [3]float64{0, 0, -1},
		Listener: ListenerConfig{
			Orientation: [4]float64{0, 0, 0, 1},
		},
		Acoustics: acoustics.DefaultContextConfig(),
		Logging:   LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a YAML run configuration. Missing fields keep their defaults.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	dir := filepath.Dir(path)
	cfg.Scene = resolve(dir, cfg.Scene)
	cfg.Materials = resolve(dir, cfg.Materials)
	cfg.HRTF = resolve(dir, cfg.HRTF)
	return cfg, nil
}

func resolve(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// Spec builds the sensor spec described by c and sanity-checks it.
func (c *RunConfig) Spec() (*audio.Spec, error) {
	layout, err := acoustics.ParseChannelLayoutType(c.Layout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	channels := c.Channels
	if channels == 0 {
		channels = defaultChannels(layout)
	}

	spec := audio.DefaultSpec()
	spec.UUID = c.UUID
	spec.Acoustics = c.Acoustics
	spec.ChannelLayout = acoustics.ChannelLayout{Type: layout, ChannelCount: channels}
	spec.EnableMaterials = c.EnableMaterials
	if err := spec.SanityCheck(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return spec, nil
}

// Validate reports whether c describes a runnable sensor.
func (c *RunConfig) Validate() error {
	_, err := c.Spec()
	return err
}

// SourcePosition returns the source position.
func (c *RunConfig) SourcePosition() mgl64.Vec3 {
	return mgl64.Vec3(c.Source)
}

// ListenerPose returns the listener position and orientation.
func (c *RunConfig) ListenerPose() (mgl64.Vec3, mgl64.Quat) {
	o := c.Listener.Orientation
	return mgl64.Vec3(c.Listener.Position), mgl64.Quat{W: o[3], V: mgl64.Vec3{o[0], o[1], o[2]}}
}

func defaultChannels(t acoustics.ChannelLayoutType) int {
	switch t {
	case acoustics.ChannelLayoutMono:
		return 1
	case acoustics.ChannelLayoutAmbisonics:
		return 4
	default:
		return 2
	}
}
