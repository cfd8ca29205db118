//go:build !noaudio

package audio

import (
	"bytes"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-acoustics/scene"
	"github.com/cwbudde/algo-acoustics/sensor"
)

func testSpec() *Spec {
	spec := DefaultSpec()
	spec.Acoustics.SampleRate = 8000
	spec.Acoustics.MaxIRLength = 0.0125 // 100 samples
	spec.Acoustics.IndirectRayCount = 100
	spec.Acoustics.IndirectRayDepth = 4
	return spec
}

func newFakeSensor(t *testing.T, spec *Spec) (*simulator, *fakeEngine) {
	t.Helper()
	eng := &fakeEngine{efficiency: 0.25}
	s, err := New(spec, WithEngine(eng))
	require.NoError(t, err)
	return s.(*simulator), eng
}

func roomScene() *scene.Static {
	return scene.NewStatic(scene.Box([3]float64{-2, -2, -2}, [3]float64{2, 2, 2}))
}

func TestIREmptyUntilFirstRun(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())

	assert.Nil(t, s.IR())
	assert.Zero(t, s.RayEfficiency())
	assert.False(t, s.SourceIsVisible())

	s.CreateAudioSimulator()
	require.Len(t, eng.contexts, 1)
	assert.NotEmpty(t, s.ContextID())
	assert.Nil(t, s.IR())
	assert.Equal(t, StateUninitialized, s.State())

	require.True(t, s.RunSimulation(roomScene()))
	assert.Len(t, eng.contexts, 1, "existing context is reused")
	assert.Equal(t, StateLoaded, s.State())
	require.Len(t, s.IR(), 2)
	assert.Len(t, s.IR()[0], 100)
	assert.Len(t, s.IR()[1], 100)
}

func TestCreateAudioSimulatorReplacesContext(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	require.True(t, s.RunSimulation(roomScene()))
	first := s.ContextID()

	s.CreateAudioSimulator()
	require.Len(t, eng.contexts, 2)
	assert.True(t, eng.contexts[0].closed)
	assert.NotEqual(t, first, s.ContextID())
	assert.Nil(t, s.IR())
	require.Len(t, eng.last().layouts, 1)
	assert.Equal(t, 2, eng.last().layouts[0].ChannelCount)
	assert.Equal(t, 1, eng.last().sources)
}

func TestTransformsCoalesceBeforeRun(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())

	for i := 1; i <= 3; i++ {
		f := float64(i)
		s.SetAudioSourceTransform(mgl64.Vec3{f, 0, 0})
		s.SetAudioListenerTransform(mgl64.Vec3{0, f, 0}, mgl64.QuatRotate(f/10, mgl64.Vec3{0, 1, 0}).Scale(2))
	}
	assert.Empty(t, eng.contexts, "setters must not touch the engine")

	require.True(t, s.RunSimulation(roomScene()))
	ctx := eng.last()
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, ctx.sourcePos)
	assert.Equal(t, mgl64.Vec3{0, 3, 0}, ctx.listenerPos)
	want := mgl64.QuatRotate(0.3, mgl64.Vec3{0, 1, 0})
	assert.True(t, ctx.listenerRot.ApproxEqualThreshold(want, 1e-12), "got %v want %v", ctx.listenerRot, want)

	s.SetAudioSourceTransform(mgl64.Vec3{5, 5, 5})
	assert.Equal(t, mgl64.Vec3{3, 0, 0}, ctx.sourcePos, "later writes wait for the next run")
	require.True(t, s.RunSimulation(roomScene()))
	assert.Equal(t, mgl64.Vec3{5, 5, 5}, ctx.sourcePos)
	assert.Len(t, eng.contexts, 1, "transforms never reload geometry")
}

func TestZeroOrientationBecomesIdentity(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	s.SetAudioListenerTransform(mgl64.Vec3{}, mgl64.Quat{})
	require.True(t, s.RunSimulation(nil))
	assert.Equal(t, mgl64.QuatIdent(), eng.last().listenerRot)
}

func TestRayEfficiencyClamped(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"negative", -0.5, 0},
		{"inside", 0.3, 0.3},
		{"above one", 1.7, 1},
		{"nan", float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, eng := newFakeSensor(t, testSpec())
			eng.efficiency = tt.in
			assert.Zero(t, s.RayEfficiency())
			require.True(t, s.RunSimulation(roomScene()))
			assert.Equal(t, tt.want, s.RayEfficiency())
		})
	}
}

func TestResetReproducesIngestion(t *testing.T) {
	dir := t.TempDir()
	materials := filepath.Join(dir, "materials.json")
	require.NoError(t, os.WriteFile(materials, []byte(`{"materials": []}`), 0o644))

	spec := testSpec()
	spec.EnableMaterials = true

	run := func(s *simulator) {
		s.SetAudioMaterialsJSON(materials)
		s.SetAudioSourceTransform(mgl64.Vec3{1, 0, 0})
		require.True(t, s.RunSimulation(semanticScene()))
	}

	fresh, freshEng := newFakeSensor(t, spec)
	run(fresh)

	s, eng := newFakeSensor(t, spec)
	run(s)
	s.SetAudioListenerTransform(mgl64.Vec3{1, 1, 1}, mgl64.QuatIdent())
	s.Reset()

	assert.Equal(t, StateUninitialized, s.State())
	assert.True(t, eng.contexts[0].closed)
	assert.Nil(t, s.IR())
	assert.Zero(t, s.RayEfficiency())
	assert.False(t, s.SourceIsVisible())
	assert.Empty(t, s.ContextID())

	run(s)
	require.Len(t, eng.contexts, 2)
	want, got := freshEng.last(), eng.last()
	assert.Equal(t, want.materials, got.materials)
	assert.Equal(t, want.vertices, got.vertices)
	assert.Equal(t, want.uploads, got.uploads)
	assert.Equal(t, want.finalized, got.finalized)
	assert.Equal(t, want.listenerPos, got.listenerPos, "reset restores the default listener pose")
	assert.Equal(t, want.listenerRot, got.listenerRot)
}

func TestMaterialsAndHRTFMarkDirty(t *testing.T) {
	dir := t.TempDir()
	materials := filepath.Join(dir, "materials.json")
	hrtf := filepath.Join(dir, "head.sofa")
	require.NoError(t, os.WriteFile(materials, []byte(`{"materials": []}`), 0o644))
	require.NoError(t, os.WriteFile(hrtf, []byte("sofa"), 0o644))

	s, eng := newFakeSensor(t, testSpec())
	require.True(t, s.RunSimulation(roomScene()))
	assert.Equal(t, StateLoaded, s.State())

	s.SetAudioMaterialsJSON(materials)
	assert.Equal(t, StateDirty, s.State())
	assert.Empty(t, eng.last().materials, "materials wait for the next context")

	require.True(t, s.RunSimulation(roomScene()))
	require.Len(t, eng.contexts, 2)
	assert.Equal(t, StateLoaded, s.State())
	assert.Equal(t, materials, eng.last().materials)
	assert.NotEmpty(t, eng.last().uploads, "geometry re-ingested")

	s.SetListenerHRTF(hrtf)
	assert.Equal(t, StateDirty, s.State())
	require.True(t, s.RunSimulation(roomScene()))
	require.Len(t, eng.contexts, 3)
	assert.Equal(t, hrtf, eng.last().hrtf)
	assert.Equal(t, materials, eng.last().materials)
}

func TestMaterialsAppliedToContextWithoutGeometry(t *testing.T) {
	dir := t.TempDir()
	materials := filepath.Join(dir, "materials.json")

	s, eng := newFakeSensor(t, testSpec())
	s.CreateAudioSimulator()
	s.SetAudioMaterialsJSON(materials)

	assert.Equal(t, StateUninitialized, s.State())
	assert.Equal(t, materials, eng.last().materials)

	require.True(t, s.RunSimulation(roomScene()))
	assert.Len(t, eng.contexts, 1)
}

func TestResourceFailuresAreNonFatal(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	eng.materialErr = errFake
	s.SetAudioMaterialsJSON("missing.json")
	s.SetListenerHRTF(filepath.Join(t.TempDir(), "missing.sofa"))

	require.True(t, s.RunSimulation(roomScene()))
	assert.Empty(t, eng.last().materials)
	assert.Empty(t, eng.last().hrtf)
	assert.Len(t, s.IR(), 2)
}

func TestContextCreationFailure(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	eng.createErr = errFake

	s.CreateAudioSimulator()
	assert.Empty(t, s.ContextID())
	assert.False(t, s.RunSimulation(roomScene()))
	assert.Equal(t, StateUninitialized, s.State())
	assert.Nil(t, s.IR())
	assert.False(t, s.WriteSceneMeshOBJ(filepath.Join(t.TempDir(), "scene.obj")))
}

func TestSimulateFailureClearsResults(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	require.True(t, s.RunSimulation(roomScene()))
	require.NotNil(t, s.IR())

	eng.simulateErr = errFake
	assert.False(t, s.RunSimulation(roomScene()))
	assert.Nil(t, s.IR())
	assert.Zero(t, s.RayEfficiency())
	assert.False(t, s.SourceIsVisible())

	var obs sensor.Observation
	assert.False(t, s.Observation(nil, &obs))
}

func TestSourceVisibilityRay(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	s.SetAudioSourceTransform(mgl64.Vec3{2, 0, 0})
	s.SetAudioListenerTransform(mgl64.Vec3{}, mgl64.QuatIdent())

	require.True(t, s.RunSimulation(roomScene()))
	assert.True(t, s.SourceIsVisible())

	rays := eng.last().rays
	require.Len(t, rays, 1)
	assert.Equal(t, mgl64.Vec3{2, 0, 0}, rays[0].Origin)
	assert.Equal(t, mgl64.Vec3{-1, 0, 0}, rays[0].Direction)
	assert.InDelta(t, 1e-4, rays[0].TMin, 1e-12)
	assert.InDelta(t, 2-1e-4, rays[0].TMax, 1e-12)

	eng.hit = true
	require.True(t, s.RunSimulation(roomScene()))
	assert.False(t, s.SourceIsVisible())

	s.SetAudioSourceTransform(mgl64.Vec3{})
	require.True(t, s.RunSimulation(roomScene()))
	assert.True(t, s.SourceIsVisible(), "coincident source and listener")
	assert.Len(t, eng.last().rays, 2, "no ray is cast for coincident positions")
}

func TestObservation(t *testing.T) {
	s, _ := newFakeSensor(t, testSpec())

	var space sensor.ObservationSpace
	require.True(t, s.ObservationSpace(&space))
	assert.Equal(t, sensor.SpaceTensor, space.SpaceType)
	assert.Equal(t, sensor.DataFloat32, space.DataType)
	assert.Equal(t, []int{2, 100}, space.Shape)

	obs := sensor.Observation{Data: make([]float32, 7)}
	assert.False(t, s.Observation(nil, &obs), "no result before the first run")

	require.True(t, s.RunSimulation(roomScene()))
	require.True(t, s.Observation(nil, &obs))
	assert.Equal(t, []int{2, 100}, obs.Shape)
	require.Len(t, obs.Data, space.Size())
	assert.Equal(t, float32(0.5), obs.Data[0])
	assert.Equal(t, float32(0.5), obs.Data[101])
	assert.Zero(t, obs.Data[100])

	var after sensor.ObservationSpace
	s.Reset()
	require.True(t, s.ObservationSpace(&after))
	assert.Equal(t, space, after, "observation space is stable")
}

func TestDisplayObservationUnsupported(t *testing.T) {
	s, _ := newFakeSensor(t, testSpec())
	require.True(t, s.RunSimulation(roomScene()))
	assert.False(t, s.DisplayObservation(roomScene()))
}

func TestWriteSceneMeshOBJ(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.obj")
	s, _ := newFakeSensor(t, testSpec())

	assert.False(t, s.WriteSceneMeshOBJ(path), "no geometry before the first run")
	require.True(t, s.RunSimulation(roomScene()))
	assert.True(t, s.WriteSceneMeshOBJ(path))
	assert.FileExists(t, path)
}

func TestWriteSceneMeshOBJWithoutUploadedGeometry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.obj")
	s, _ := newFakeSensor(t, testSpec())

	require.True(t, s.RunSimulation(nil))
	assert.Equal(t, StateLoaded, s.State())
	assert.False(t, s.WriteSceneMeshOBJ(path), "free-field run has no mesh to export")
	assert.NoFileExists(t, path)

	s.Reset()
	require.True(t, s.RunSimulation(scene.Empty()))
	assert.False(t, s.WriteSceneMeshOBJ(path), "unusable mesh is not exported")
	assert.NoFileExists(t, path)
}

func TestWriteIRWaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, _ := newFakeSensor(t, testSpec())

	assert.False(t, s.WriteIRWave(filepath.Join(dir, "early.wav")), "no IR cached")
	require.True(t, s.RunSimulation(roomScene()))

	path := filepath.Join(dir, "ir.wav")
	require.True(t, s.WriteIRWave(path))

	got, rate, err := ReadIRWave(path)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	require.Len(t, got, len(s.IR()))
	for ch := range got {
		assert.Len(t, got[ch], len(s.IR()[ch]))
		assert.InDelta(t, 0.5, got[ch][ch], 1e-6)
	}

	assert.False(t, s.WriteIRWave(filepath.Join(dir, "missing", "ir.wav")))
}

func TestCloseReleasesContext(t *testing.T) {
	s, eng := newFakeSensor(t, testSpec())
	require.True(t, s.RunSimulation(roomScene()))

	require.NoError(t, s.Close())
	assert.True(t, eng.last().closed)
	assert.Equal(t, StateUninitialized, s.State())
	assert.False(t, s.RunSimulation(roomScene()))
	assert.Nil(t, s.IR())
	require.NoError(t, s.Close())
}

func TestSpecIsCopiedAtConstruction(t *testing.T) {
	spec := testSpec()
	s, _ := newFakeSensor(t, spec)
	spec.ChannelLayout.ChannelCount = 9
	spec.UUID = "changed"

	assert.Equal(t, 2, s.Spec().ChannelLayout.ChannelCount)
	assert.Equal(t, "audio", s.Spec().UUID)

	s.Spec().UUID = "mutated"
	assert.Equal(t, "audio", s.Spec().UUID)
}

func TestLoggerTagsRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s, err := New(testSpec(), WithEngine(&fakeEngine{}), WithLogger(logger))
	require.NoError(t, err)
	require.True(t, s.RunSimulation(nil))

	out := buf.String()
	assert.Contains(t, out, `"component":"audio"`)
	assert.Contains(t, out, `"uuid":"audio"`)
	assert.True(t, strings.Contains(out, "simulating without geometry"), out)
}

// The scenario every binding relies on: a binaural sensor in free field with
// the source one metre to the side.
func TestReferenceEngineFreeField(t *testing.T) {
	s, err := New(testSpec())
	require.NoError(t, err)
	defer s.Close()

	s.SetAudioSourceTransform(mgl64.Vec3{1, 0, 0})
	s.SetAudioListenerTransform(mgl64.Vec3{}, mgl64.QuatIdent())
	require.True(t, s.RunSimulation(scene.Empty()))

	ir := s.IR()
	require.Len(t, ir, 2)
	assert.Equal(t, len(ir[0]), len(ir[1]))
	assert.NotEmpty(t, ir[0])
	assert.True(t, s.SourceIsVisible())
	assert.GreaterOrEqual(t, s.RayEfficiency(), float32(0))
	assert.LessOrEqual(t, s.RayEfficiency(), float32(1))
	assert.False(t, s.WriteSceneMeshOBJ(filepath.Join(t.TempDir(), "empty.obj")), "free field has no mesh")
}

func TestReferenceEngineOccludedSource(t *testing.T) {
	wall := scene.NewStatic(scene.Box([3]float64{0.4, -1, -1}, [3]float64{0.6, 1, 1}))

	s, err := New(testSpec())
	require.NoError(t, err)
	defer s.Close()

	s.SetAudioSourceTransform(mgl64.Vec3{1, 0, 0})
	require.True(t, s.RunSimulation(wall))
	assert.False(t, s.SourceIsVisible())

	path := filepath.Join(t.TempDir(), "wall.obj")
	require.True(t, s.WriteSceneMeshOBJ(path))
	loaded, err := scene.LoadOBJ(path)
	require.NoError(t, err)
	assert.Equal(t, 12, loaded.Mesh.TriangleCount())
}
