// Package sensor holds the contract shared by every sensor kind: the base
// specification, sensor type tags and the observation buffer layout.
package sensor

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidSpec is wrapped by every SanityCheck failure.
var ErrInvalidSpec = errors.New("sensor: invalid spec")

// Type tags the kind of sensor.
type Type int

const (
	TypeNone Type = iota
	TypeColor
	TypeDepth
	TypeSemantic
	TypeAudio
)

// String returns the upper-case type name.
func (t Type) String() string {
	switch t {
	case TypeColor:
		return "COLOR"
	case TypeDepth:
		return "DEPTH"
	case TypeSemantic:
		return "SEMANTIC"
	case TypeAudio:
		return "AUDIO"
	default:
		return "NONE"
	}
}

// IsVisual reports whether sensors of this type render images.
func (t Type) IsVisual() bool {
	return t == TypeColor || t == TypeDepth || t == TypeSemantic
}

// SubType refines Type.
type SubType int

const (
	SubTypeNone SubType = iota
	SubTypePinhole
	SubTypeOrthographic
	SubTypeFisheye
	SubTypeEquirectangular
	SubTypeImpulseResponse
)

// Spec is the base specification embedded by concrete sensor specs.
type Spec struct {
	UUID        string
	Type        Type
	SubType     SubType
	Position    mgl64.Vec3 // relative to the parent scene node
	Orientation mgl64.Vec3 // Euler XYZ in radians
}

// SanityCheck validates the fields common to all sensors.
func (s *Spec) SanityCheck() error {
	if s.UUID == "" {
		return fmt.Errorf("%w: empty uuid", ErrInvalidSpec)
	}
	if s.Type == TypeNone {
		return fmt.Errorf("%w: sensor type not set", ErrInvalidSpec)
	}
	return nil
}

// Specifier is implemented by every concrete sensor spec.
type Specifier interface {
	Base() *Spec
	SanityCheck() error
	IsVisualSensorSpec() bool
}

// Base returns s itself so *Spec satisfies the Base part of Specifier.
func (s *Spec) Base() *Spec { return s }
