package audio

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-acoustics/acoustics"
	"github.com/cwbudde/algo-acoustics/scene"
	"github.com/cwbudde/algo-acoustics/sensor"
)

const (
	listenerIndex = 0
	sourceIndex   = 0

	// visibilityBias keeps the visibility ray off the source and listener
	// positions.
	visibilityBias = 1e-4
)

// simulator is the engine-backed sensor. It is not safe for concurrent use.
type simulator struct {
	spec   *Spec
	engine acoustics.Engine
	log    *slog.Logger

	ctx    acoustics.Context
	ctxID  string
	state  State
	loaded   bool // ingestion ran for ctx
	uploaded bool // ctx holds finalized geometry
	closed bool

	materialsPath string
	materialsSet  bool
	hrtfPath      string

	sourcePos   mgl64.Vec3
	listenerPos mgl64.Vec3
	listenerRot mgl64.Quat

	ir         [][]float32
	efficiency float32
	visible    bool
}

var _ Sensor = (*simulator)(nil)

func newSimulator(spec *Spec, o options) *simulator {
	return &simulator{
		spec:        spec,
		engine:      o.engine,
		log:         o.logger.With("component", "audio", "uuid", spec.UUID),
		listenerRot: mgl64.QuatIdent(),
	}
}

func (s *simulator) Spec() *Spec { return s.spec.clone() }

func (s *simulator) State() State { return s.state }

func (s *simulator) ContextID() string { return s.ctxID }

// CreateAudioSimulator replaces any existing context with a new one holding
// one listener and one source. The recorded HRTF and materials database are
// applied; geometry is ingested by the next RunSimulation.
func (s *simulator) CreateAudioSimulator() {
	if s.closed {
		s.log.Error("create audio simulator on closed sensor")
		return
	}
	s.destroyContext()
	s.clearResults()

	ctx, err := s.engine.NewContext(s.spec.Acoustics)
	if err != nil {
		s.log.Error("couldn't create audio context", "err", err)
		return
	}
	if err := ctx.AddListener(s.spec.ChannelLayout); err != nil {
		ctx.Close()
		s.log.Error("couldn't add audio listener", "err", err)
		return
	}
	if err := ctx.AddSource(); err != nil {
		ctx.Close()
		s.log.Error("couldn't add audio source", "err", err)
		return
	}

	s.ctx = ctx
	s.ctxID = uuid.NewString()
	s.applyHRTF()
	s.applyMaterials()
	s.log.Debug("audio context created", "context", s.ctxID,
		"layout", s.spec.ChannelLayout.Type, "channels", s.spec.ChannelLayout.ChannelCount)
}

// Reset destroys the context and every cached result. Poses return to the
// origin with identity orientation. Recorded materials and HRTF paths are
// kept and applied to the next context.
func (s *simulator) Reset() {
	s.log.Debug("resetting audio sensor", "context", s.ctxID)
	s.destroyContext()
	s.clearResults()
	s.sourcePos = mgl64.Vec3{}
	s.listenerPos = mgl64.Vec3{}
	s.listenerRot = mgl64.QuatIdent()
}

// Close releases the context. The sensor cannot simulate afterwards.
func (s *simulator) Close() error {
	if s.closed {
		return nil
	}
	s.Reset()
	s.closed = true
	return nil
}

func (s *simulator) destroyContext() {
	if s.ctx != nil {
		if err := s.ctx.Close(); err != nil {
			s.log.Warn("closing audio context", "context", s.ctxID, "err", err)
		}
	}
	s.ctx = nil
	s.ctxID = ""
	s.loaded = false
	s.uploaded = false
	s.materialsSet = false
	s.state = StateUninitialized
}

func (s *simulator) clearResults() {
	s.ir = nil
	s.efficiency = 0
	s.visible = false
}

// SetAudioSourceTransform buffers the source position for the next run.
func (s *simulator) SetAudioSourceTransform(pos mgl64.Vec3) {
	s.sourcePos = pos
}

// SetAudioListenerTransform buffers the listener pose for the next run.
func (s *simulator) SetAudioListenerTransform(pos mgl64.Vec3, rot mgl64.Quat) {
	s.listenerPos = pos
	s.listenerRot = rot
}

// SetAudioMaterialsJSON records the materials database. A context without
// geometry picks it up immediately; after ingestion the context is marked
// dirty and rebuilt on the next run.
func (s *simulator) SetAudioMaterialsJSON(path string) {
	s.log.Debug("set audio materials database", "path", path)
	s.materialsPath = path
	switch {
	case s.ctx == nil:
	case s.loaded:
		s.state = StateDirty
	default:
		s.materialsSet = false
		s.applyMaterials()
	}
}

// SetListenerHRTF records the listener HRTF file with the same rules as
// SetAudioMaterialsJSON.
func (s *simulator) SetListenerHRTF(path string) {
	s.log.Debug("set listener HRTF", "path", path)
	s.hrtfPath = path
	switch {
	case s.ctx == nil:
	case s.loaded:
		s.state = StateDirty
	default:
		s.applyHRTF()
	}
}

func (s *simulator) applyMaterials() {
	if s.materialsPath == "" || s.materialsSet {
		return
	}
	if err := s.ctx.SetMaterialDatabase(s.materialsPath); err != nil {
		s.log.Warn("audio material database could not be loaded, using default material",
			"path", s.materialsPath, "err", err)
		return
	}
	s.materialsSet = true
}

func (s *simulator) applyHRTF() {
	if s.hrtfPath == "" {
		return
	}
	if err := s.ctx.SetListenerHRTF(listenerIndex, s.hrtfPath); err != nil {
		s.log.Warn("couldn't load listener HRTF", "path", s.hrtfPath, "err", err)
	}
}

// RunSimulation implements Sensor.
func (s *simulator) RunSimulation(src scene.Source) bool {
	if s.closed {
		s.log.Error("run simulation on closed sensor")
		return false
	}
	if s.ctx == nil || s.state == StateDirty {
		s.CreateAudioSimulator()
		if s.ctx == nil {
			return false
		}
	}
	if !s.loaded {
		s.ingest(src)
		s.loaded = true
		s.state = StateLoaded
	}
	s.clearResults()

	if err := s.pushPoses(); err != nil {
		s.log.Error("couldn't set audio poses", "err", err)
		return false
	}
	if err := s.ctx.Simulate(); err != nil {
		s.log.Error("error while running audio simulation", "err", err)
		return false
	}

	ir, err := s.readIR()
	if err != nil {
		s.log.Error("couldn't read impulse response", "err", err)
		return false
	}
	s.ir = ir
	s.efficiency = clampUnit(s.ctx.IndirectRayEfficiency())
	s.visible = s.traceVisibility()
	s.log.Debug("audio simulation done", "channels", len(ir),
		"efficiency", s.efficiency, "visible", s.visible)
	return true
}

func (s *simulator) pushPoses() error {
	if err := s.ctx.SetSourcePosition(sourceIndex, s.sourcePos); err != nil {
		return err
	}
	if err := s.ctx.SetListenerPosition(listenerIndex, s.listenerPos); err != nil {
		return err
	}
	return s.ctx.SetListenerOrientation(listenerIndex, normalizeQuat(s.listenerRot))
}

func (s *simulator) readIR() ([][]float32, error) {
	channels := s.ctx.IRChannelCount(listenerIndex, sourceIndex)
	samples := s.ctx.IRSampleCount(listenerIndex, sourceIndex)
	if channels == 0 || samples == 0 {
		return nil, acoustics.ErrNotSimulated
	}
	ir := make([][]float32, channels)
	for ch := range ir {
		data := s.ctx.IRChannel(listenerIndex, sourceIndex, ch)
		if len(data) != samples {
			return nil, fmt.Errorf("audio: channel %d has %d samples, want %d", ch, len(data), samples)
		}
		ir[ch] = append([]float32(nil), data...)
	}
	return ir, nil
}

// traceVisibility casts a ray from the source towards the listener. The
// source is visible when nothing lies strictly between them.
func (s *simulator) traceVisibility() bool {
	dir := s.listenerPos.Sub(s.sourcePos)
	dist := dir.Len()
	if dist == 0 {
		return true
	}
	eps := math.Min(dist, visibilityBias)
	ray := acoustics.Ray{
		Origin:    s.sourcePos,
		Direction: dir.Mul(1 / dist),
		TMin:      eps,
		TMax:      dist - eps,
	}
	if err := s.ctx.TraceRayAnyHit(&ray); err != nil {
		s.log.Warn("visibility ray failed", "err", err)
		return false
	}
	return !ray.Hit
}

// IR implements Sensor.
func (s *simulator) IR() [][]float32 { return s.ir }

// RayEfficiency implements Sensor.
func (s *simulator) RayEfficiency() float32 { return s.efficiency }

// SourceIsVisible implements Sensor.
func (s *simulator) SourceIsVisible() bool { return s.visible }

// WriteIRWave writes the cached IR as a 24-bit PCM WAV file.
func (s *simulator) WriteIRWave(path string) bool {
	if len(s.ir) == 0 {
		s.log.Warn("no impulse response to write", "path", path)
		return false
	}
	if err := writeWave(path, s.ir, s.spec.Acoustics.SampleRate); err != nil {
		s.log.Error("couldn't write impulse response", "path", path, "err", err)
		return false
	}
	return true
}

// WriteSceneMeshOBJ writes the geometry loaded into the context.
func (s *simulator) WriteSceneMeshOBJ(path string) bool {
	if s.ctx == nil || !s.uploaded {
		s.log.Warn("no audio geometry loaded", "path", path)
		return false
	}
	if err := s.ctx.WriteSceneMeshOBJ(path); err != nil {
		s.log.Error("couldn't write audio scene mesh", "path", path, "err", err)
		return false
	}
	return true
}

// ObservationSpace declares a float32 tensor of shape [channels, samples].
// The shape depends only on the spec and never changes.
func (s *simulator) ObservationSpace(space *sensor.ObservationSpace) bool {
	if space == nil {
		return false
	}
	space.SpaceType = sensor.SpaceTensor
	space.DataType = sensor.DataFloat32
	space.Shape = []int{s.spec.ChannelLayout.ChannelCount, s.spec.Acoustics.SampleCount()}
	return true
}

// Observation copies the cached IR into obs, channel after channel.
func (s *simulator) Observation(_ scene.Source, obs *sensor.Observation) bool {
	if obs == nil || len(s.ir) == 0 {
		return false
	}
	var space sensor.ObservationSpace
	s.ObservationSpace(&space)
	channels, samples := space.Shape[0], space.Shape[1]
	if len(s.ir) != channels || len(s.ir[0]) != samples {
		s.log.Error("impulse response does not match observation space",
			"channels", len(s.ir), "samples", len(s.ir[0]), "shape", space.Shape)
		return false
	}

	obs.Reset()
	obs.Shape = append(obs.Shape, channels, samples)
	for _, ch := range s.ir {
		obs.Data = append(obs.Data, ch...)
	}
	return true
}

// DisplayObservation is unsupported: IRs have no rendering target.
func (s *simulator) DisplayObservation(scene.Source) bool {
	s.log.Error("display observation is not supported for audio sensors")
	return false
}

func normalizeQuat(q mgl64.Quat) mgl64.Quat {
	if q.Len() == 0 {
		return mgl64.QuatIdent()
	}
	return q.Normalize()
}

func clampUnit(v float32) float32 {
	if v != v || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
