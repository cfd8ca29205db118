package audio

import (
	"fmt"

	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/sensor"
)

// ErrInvalidSpec is wrapped by every configuration failure.
var ErrInvalidSpec = sensor.ErrInvalidSpec

// Spec configures an audio sensor.
type Spec struct {
	sensor.Spec

	Acoustics       acoustics.ContextConfig
	ChannelLayout   acoustics.ChannelLayout
	EnableMaterials bool
}

var _ sensor.Specifier = (*Spec)(nil)

// DefaultSpec returns a binaural impulse-response sensor with engine
// defaults.
func DefaultSpec() *Spec {
	return &Spec{
		Spec: sensor.Spec{
			UUID:    "audio",
			Type:    sensor.TypeAudio,
			SubType: sensor.SubTypeImpulseResponse,
		},
		Acoustics:     acoustics.DefaultContextConfig(),
		ChannelLayout: acoustics.DefaultChannelLayout(),
	}
}

// SanityCheck validates the base spec, the sensor type and the acoustic
// configuration.
func (s *Spec) SanityCheck() error {
	if s == nil {
		return fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}
	if err := s.Spec.SanityCheck(); err != nil {
		return err
	}
	if s.Type != sensor.TypeAudio {
		return fmt.Errorf("%w: sensor type must be %s, got %s", ErrInvalidSpec, sensor.TypeAudio, s.Type)
	}
	if s.SubType != sensor.SubTypeImpulseResponse {
		return fmt.Errorf("%w: sensor subtype must be impulse response", ErrInvalidSpec)
	}
	if err := s.Acoustics.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	if err := s.ChannelLayout.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSpec, err)
	}
	return nil
}

// IsVisualSensorSpec always reports false: the sensor produces IRs, not
// images.
func (s *Spec) IsVisualSensorSpec() bool { return false }

// FromSpec narrows a generic sensor spec to an audio spec. It fails for
// visual specs and for specs of any other concrete type.
func FromSpec(spec sensor.Specifier) (*Spec, error) {
	if spec == nil {
		return nil, fmt.Errorf("%w: nil spec", ErrInvalidSpec)
	}
	if spec.IsVisualSensorSpec() {
		return nil, fmt.Errorf("%w: visual spec cannot configure an audio sensor", ErrInvalidSpec)
	}
	s, ok := spec.(*Spec)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an audio spec", ErrInvalidSpec, spec)
	}
	return s, nil
}

func (s *Spec) clone() *Spec {
	c := *s
	return &c
}
