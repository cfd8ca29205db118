package audio

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-acoustics/scene"
	"github.com/cwbudde/algo-acoustics/sensor"
)

// stub is the sensor used when no propagation engine is available. It holds
// no context, geometry or materials and every query returns its zero value.
type stub struct {
	spec *Spec
}

// NewStub returns the inert sensor. New returns it in builds without an
// engine; it can be constructed explicitly in any build.
func NewStub(spec *Spec) Sensor {
	if spec == nil {
		spec = DefaultSpec()
	}
	return stub{spec: spec.clone()}
}

func (s stub) Spec() *Spec { return s.spec.clone() }
func (stub) CreateAudioSimulator() {}
func (stub) Reset() {}
func (stub) SetAudioSourceTransform(mgl64.Vec3) {}
func (stub) SetAudioListenerTransform(mgl64.Vec3, mgl64.Quat) {}
func (stub) SetAudioMaterialsJSON(string) {}
func (stub) SetListenerHRTF(string) {}
func (stub) RunSimulation(scene.Source) bool { return false }
func (stub) IR() [][]float32 { return nil }
func (stub) WriteIRWave(string) bool { return false }
func (stub) WriteSceneMeshOBJ(string) bool { return false }
func (stub) RayEfficiency() float32 { return 0 }
func (stub) SourceIsVisible() bool { return false }
func (stub) ObservationSpace(*sensor.ObservationSpace) bool { return false }
func (stub) Observation(scene.Source, *sensor.Observation) bool { return false }
func (stub) DisplayObservation(scene.Source) bool { return false }
func (stub) State() State { return StateUninitialized }
func (stub) ContextID() string { return "" }
func (stub) Close() error { return nil }
