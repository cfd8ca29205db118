package acoustics

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by configuration validation.
var (
	ErrInvalidConfig = errors.New("acoustics: invalid context configuration")
	ErrInvalidLayout = errors.New("acoustics: invalid channel layout")
)

// Limits enforced by [ContextConfig.Validate].
const (
	MaxSampleRate       = 384000
	MaxFrequencyBands   = 8
	MaxSHOrder          = 5
	MaxDiffractionOrder = 10
	MaxAmbisonicOrder   = 2
)

// SpeedOfSound is the propagation speed used to convert path length to delay, in m/s.
const SpeedOfSound = 343.0

// ContextConfig holds the engine-level simulation settings.
type ContextConfig struct {
	SampleRate          int     `yaml:"sample_rate"`           // output sample rate in Hz
	FrequencyBands      int     `yaml:"frequency_bands"`       // number of bands simulated independently
	DirectSHOrder       int     `yaml:"direct_sh_order"`       // SH order for area-source direct sound
	IndirectSHOrder     int     `yaml:"indirect_sh_order"`     // SH order for reflections and reverb
	ThreadCount         int     `yaml:"thread_count"`          // worker count used inside one simulation
	MaxIRLength         float64 `yaml:"max_ir_length"`         // IR length in seconds
	UnitScale           float64 `yaml:"unit_scale"`            // scene units to meters
	GlobalVolume        float64 `yaml:"global_volume"`         // scale factor on all output
	DirectRayCount      int     `yaml:"direct_ray_count"`      // rays for area-source direct sound
	IndirectRayCount    int     `yaml:"indirect_ray_count"`    // rays emitted from the listener
	IndirectRayDepth    int     `yaml:"indirect_ray_depth"`    // max bounces per listener ray
	SourceRayCount      int     `yaml:"source_ray_count"`      // rays emitted from the source
	SourceRayDepth      int     `yaml:"source_ray_depth"`      // max bounces per source ray
	MaxDiffractionOrder int     `yaml:"max_diffraction_order"` // edge diffraction events per path
	Direct              bool    `yaml:"direct"`
	Indirect            bool    `yaml:"indirect"`
	Diffraction         bool    `yaml:"diffraction"`
	Transmission        bool    `yaml:"transmission"`
}

// DefaultContextConfig returns the engine defaults.
func DefaultContextConfig() ContextConfig {
	return ContextConfig{
		SampleRate:          44100,
		FrequencyBands:      4,
		DirectSHOrder:       3,
		IndirectSHOrder:     1,
		ThreadCount:         1,
		MaxIRLength:         4,
		UnitScale:           1,
		GlobalVolume:        1,
		DirectRayCount:      500,
		IndirectRayCount:    5000,
		IndirectRayDepth:    200,
		SourceRayCount:      200,
		SourceRayDepth:      10,
		MaxDiffractionOrder: 10,
		Direct:              true,
		Indirect:            true,
		Diffraction:         true,
		Transmission:        false,
	}
}

// SampleCount returns the number of samples in each IR channel.
func (c ContextConfig) SampleCount() int {
	return int(math.Ceil(c.MaxIRLength*float64(c.SampleRate) - 1e-9))
}

// Validate reports the first inconsistency in c, wrapped in ErrInvalidConfig.
func (c ContextConfig) Validate() error {
	switch {
	case c.SampleRate <= 0 || c.SampleRate > MaxSampleRate:
		return fmt.Errorf("%w: sample rate %d out of range (0, %d]", ErrInvalidConfig, c.SampleRate, MaxSampleRate)
	case c.FrequencyBands < 1 || c.FrequencyBands > MaxFrequencyBands:
		return fmt.Errorf("%w: frequency bands %d out of range [1, %d]", ErrInvalidConfig, c.FrequencyBands, MaxFrequencyBands)
	case c.DirectSHOrder < 0 || c.DirectSHOrder > MaxSHOrder:
		return fmt.Errorf("%w: direct SH order %d out of range [0, %d]", ErrInvalidConfig, c.DirectSHOrder, MaxSHOrder)
	case c.IndirectSHOrder < 0 || c.IndirectSHOrder > MaxSHOrder:
		return fmt.Errorf("%w: indirect SH order %d out of range [0, %d]", ErrInvalidConfig, c.IndirectSHOrder, MaxSHOrder)
	case c.ThreadCount < 1:
		return fmt.Errorf("%w: thread count must be at least 1", ErrInvalidConfig)
	case !(c.MaxIRLength > 0) || math.IsInf(c.MaxIRLength, 0):
		return fmt.Errorf("%w: max IR length must be positive and finite", ErrInvalidConfig)
	case !(c.UnitScale > 0) || math.IsInf(c.UnitScale, 0):
		return fmt.Errorf("%w: unit scale must be positive and finite", ErrInvalidConfig)
	case c.GlobalVolume < 0 || math.IsNaN(c.GlobalVolume) || math.IsInf(c.GlobalVolume, 0):
		return fmt.Errorf("%w: global volume must be non-negative and finite", ErrInvalidConfig)
	case c.DirectRayCount < 0 || c.IndirectRayCount < 0 || c.SourceRayCount < 0:
		return fmt.Errorf("%w: ray counts must be non-negative", ErrInvalidConfig)
	case c.IndirectRayCount > 0 && c.IndirectRayDepth < 1:
		return fmt.Errorf("%w: indirect ray depth must be at least 1", ErrInvalidConfig)
	case c.SourceRayCount > 0 && c.SourceRayDepth < 1:
		return fmt.Errorf("%w: source ray depth must be at least 1", ErrInvalidConfig)
	case c.MaxDiffractionOrder < 0 || c.MaxDiffractionOrder > MaxDiffractionOrder:
		return fmt.Errorf("%w: diffraction order %d out of range [0, %d]", ErrInvalidConfig, c.MaxDiffractionOrder, MaxDiffractionOrder)
	}
	return nil
}

// ChannelLayoutType identifies the spatial arrangement of output channels.
type ChannelLayoutType int

const (
	ChannelLayoutUnknown ChannelLayoutType = iota
	// ChannelLayoutMono has one channel without spatial information.
	ChannelLayoutMono
	// ChannelLayoutBinaural has two channels spatialized with an HRTF.
	ChannelLayoutBinaural
	// ChannelLayoutAmbisonics encodes the sound field as spherical harmonic
	// coefficients (ACN order, SN3D normalization).
	ChannelLayoutAmbisonics
)

// String returns the lower-case layout name.
func (t ChannelLayoutType) String() string {
	switch t {
	case ChannelLayoutMono:
		return "mono"
	case ChannelLayoutBinaural:
		return "binaural"
	case ChannelLayoutAmbisonics:
		return "ambisonics"
	default:
		return "unknown"
	}
}

// ParseChannelLayoutType maps a layout name to its type.
func ParseChannelLayoutType(s string) (ChannelLayoutType, error) {
	switch s {
	case "mono":
		return ChannelLayoutMono, nil
	case "binaural", "":
		return ChannelLayoutBinaural, nil
	case "ambisonics":
		return ChannelLayoutAmbisonics, nil
	default:
		return ChannelLayoutUnknown, fmt.Errorf("%w: unknown layout type %q", ErrInvalidLayout, s)
	}
}

// ChannelLayout describes the listener's output channels.
type ChannelLayout struct {
	Type         ChannelLayoutType
	ChannelCount int
}

// DefaultChannelLayout returns a two-channel binaural layout.
func DefaultChannelLayout() ChannelLayout {
	return ChannelLayout{Type: ChannelLayoutBinaural, ChannelCount: 2}
}

// Validate checks that ChannelCount is compatible with Type.
func (l ChannelLayout) Validate() error {
	switch l.Type {
	case ChannelLayoutMono:
		if l.ChannelCount != 1 {
			return fmt.Errorf("%w: mono needs 1 channel, got %d", ErrInvalidLayout, l.ChannelCount)
		}
	case ChannelLayoutBinaural:
		if l.ChannelCount != 2 {
			return fmt.Errorf("%w: binaural needs 2 channels, got %d", ErrInvalidLayout, l.ChannelCount)
		}
	case ChannelLayoutAmbisonics:
		if _, ok := AmbisonicOrder(l.ChannelCount); !ok {
			return fmt.Errorf("%w: ambisonics needs (order+1)^2 channels with order <= %d, got %d",
				ErrInvalidLayout, MaxAmbisonicOrder, l.ChannelCount)
		}
	default:
		return fmt.Errorf("%w: layout type %s", ErrInvalidLayout, l.Type)
	}
	return nil
}

// AmbisonicOrder returns the order n for which (n+1)^2 == channels.
func AmbisonicOrder(channels int) (int, bool) {
	for n := 0; n <= MaxAmbisonicOrder; n++ {
		if (n+1)*(n+1) == channels {
			return n, true
		}
	}
	return 0, false
}
