package audio

import (
	"errors"
	"io"
	"log/slog"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/scene"
	"github.com/cwbudde/algo-acoustics/sensor"
)

// ErrNoEngine is returned by New when no propagation engine is configured.
var ErrNoEngine = errors.New("audio: no propagation engine available")

// State is the lifecycle state of the acoustic context.
type State int

const (
	// StateUninitialized means no geometry has been ingested into a live
	// context.
	StateUninitialized State = iota
	// StateLoaded means the context holds the current geometry and materials.
	StateLoaded
	// StateDirty means materials or HRTF changed after ingestion; the next
	// RunSimulation recreates the context.
	StateDirty
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	case StateDirty:
		return "dirty"
	default:
		return "uninitialized"
	}
}

// Sensor is the audio sensor contract shared by the engine-backed sensor and
// the inert stub.
type Sensor interface {
	// Spec returns a copy of the configuration the sensor was built with.
	Spec() *Spec

	CreateAudioSimulator()
	Reset()

	SetAudioSourceTransform(pos mgl64.Vec3)
	SetAudioListenerTransform(pos mgl64.Vec3, rot mgl64.Quat)
	SetAudioMaterialsJSON(path string)
	SetListenerHRTF(path string)

	// RunSimulation ingests geometry if needed, pushes the buffered poses
	// and computes a new IR. It blocks until the engine returns.
	RunSimulation(src scene.Source) bool

	// IR returns the cached IR, channel-major. The slices are reused by
	// the next RunSimulation.
	IR() [][]float32
	WriteIRWave(path string) bool
	WriteSceneMeshOBJ(path string) bool
	RayEfficiency() float32
	SourceIsVisible() bool

	ObservationSpace(space *sensor.ObservationSpace) bool
	Observation(src scene.Source, obs *sensor.Observation) bool
	DisplayObservation(src scene.Source) bool

	State() State
	// ContextID identifies the live acoustic context, "" when there is none.
	ContextID() string
	Close() error
}

// Option configures a sensor.
type Option func(*options)

type options struct {
	logger *slog.Logger
	engine acoustics.Engine
}

// WithLogger sets the logger. Records are tagged with component=audio and
// the sensor UUID.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEngine replaces the default propagation engine.
func WithEngine(engine acoustics.Engine) Option {
	return func(o *options) {
		if engine != nil {
			o.engine = engine
		}
	}
}

func applyOptions(opts ...Option) options {
	o := options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		engine: defaultEngine(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// New validates spec and builds a sensor. The spec is copied; later changes
// to it have no effect. Builds without an engine return the stub.
func New(spec *Spec, opts ...Option) (Sensor, error) {
	if err := spec.SanityCheck(); err != nil {
		return nil, err
	}
	if !Enabled {
		return NewStub(spec), nil
	}

	o := applyOptions(opts...)
	if o.engine == nil {
		return nil, ErrNoEngine
	}
	return newSimulator(spec.clone(), o), nil
}

// MustNew is like New but panics on an invalid spec.
func MustNew(spec *Spec, opts ...Option) Sensor {
	s, err := New(spec, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
