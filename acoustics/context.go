package acoustics

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Errors shared by engine implementations.
var (
	ErrClosed          = errors.New("acoustics: context is closed")
	ErrNoListener      = errors.New("acoustics: listener index out of range")
	ErrNoSource        = errors.New("acoustics: source index out of range")
	ErrNoObject        = errors.New("acoustics: object index out of range")
	ErrInvalidMesh     = errors.New("acoustics: invalid mesh data")
	ErrNotSimulated    = errors.New("acoustics: no simulation result")
	ErrMaterialsLocked = errors.New("acoustics: materials database must be set before geometry is added")
)

// Engine allocates simulation contexts.
type Engine interface {
	NewContext(cfg ContextConfig) (Context, error)
}

// Context is one configured propagation-engine instance.
//
// Geometry is uploaded in three steps: vertices with AddMeshVertices, faces
// with AddMeshIndices (tagged with a material name, "" for the default
// material), then AddObject and FinalizeObjectMesh move the pending faces into
// a traceable object. Only finalized geometry takes part in simulation and ray
// queries.
type Context interface {
	AddListener(layout ChannelLayout) error
	AddSource() error

	SetMaterialDatabase(path string) error
	SetListenerHRTF(listener int, path string) error

	AddMeshVertices(vertices []mgl64.Vec3) error
	AddMeshIndices(indices []uint32, verticesPerFace int, material string) error
	AddObject() error
	ObjectCount() int
	FinalizeObjectMesh(object int) error

	SetSourcePosition(source int, pos mgl64.Vec3) error
	SetListenerPosition(listener int, pos mgl64.Vec3) error
	SetListenerOrientation(listener int, rot mgl64.Quat) error

	// Simulate computes the IR for every listener/source pair. It blocks
	// until the result is available.
	Simulate() error

	IRChannelCount(listener, source int) int
	IRSampleCount(listener, source int) int
	// IRChannel returns a read-only view of one IR channel. The slice is
	// overwritten by the next Simulate call.
	IRChannel(listener, source, channel int) []float32
	IndirectRayEfficiency() float32

	// TraceRayAnyHit sets ray.Hit when any finalized surface intersects the
	// ray within [TMin, TMax].
	TraceRayAnyHit(ray *Ray) error

	WriteSceneMeshOBJ(path string) error

	Close() error
}

// Ray is a ray query against finalized scene geometry.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3 // unit length
	TMin      float64
	TMax      float64
	Hit       bool
}
