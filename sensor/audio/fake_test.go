package audio

import (
	"errors"
	"os"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-acoustics/acoustics"
)

var errFake = errors.New("fake engine failure")

// fakeEngine records every context it creates.
type fakeEngine struct {
	contexts  []*fakeContext
	createErr error

	efficiency  float32
	hit         bool
	simulateErr error
	materialErr error
}

func (e *fakeEngine) NewContext(cfg acoustics.ContextConfig) (acoustics.Context, error) {
	if e.createErr != nil {
		return nil, e.createErr
	}
	c := &fakeContext{engine: e, cfg: cfg}
	e.contexts = append(e.contexts, c)
	return c, nil
}

func (e *fakeEngine) last() *fakeContext {
	if len(e.contexts) == 0 {
		return nil
	}
	return e.contexts[len(e.contexts)-1]
}

type upload struct {
	material string
	indices  []uint32
}

type fakeContext struct {
	engine *fakeEngine
	cfg    acoustics.ContextConfig
	closed bool

	layouts   []acoustics.ChannelLayout
	sources   int
	materials string
	hrtf      string

	vertices  []mgl64.Vec3
	uploads   []upload
	objects   int
	finalized []int

	sourcePos   mgl64.Vec3
	listenerPos mgl64.Vec3
	listenerRot mgl64.Quat
	simulated   int
	rays        []acoustics.Ray
}

func (c *fakeContext) AddListener(layout acoustics.ChannelLayout) error {
	c.layouts = append(c.layouts, layout)
	return nil
}

func (c *fakeContext) AddSource() error {
	c.sources++
	return nil
}

func (c *fakeContext) SetMaterialDatabase(path string) error {
	if c.engine.materialErr != nil {
		return c.engine.materialErr
	}
	c.materials = path
	return nil
}

func (c *fakeContext) SetListenerHRTF(_ int, path string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	c.hrtf = path
	return nil
}

func (c *fakeContext) AddMeshVertices(v []mgl64.Vec3) error {
	c.vertices = append(c.vertices, v...)
	return nil
}

func (c *fakeContext) AddMeshIndices(indices []uint32, _ int, material string) error {
	c.uploads = append(c.uploads, upload{material: material, indices: append([]uint32(nil), indices...)})
	return nil
}

func (c *fakeContext) AddObject() error {
	c.objects++
	return nil
}

func (c *fakeContext) ObjectCount() int { return c.objects }

func (c *fakeContext) FinalizeObjectMesh(i int) error {
	c.finalized = append(c.finalized, i)
	return nil
}

func (c *fakeContext) SetSourcePosition(_ int, pos mgl64.Vec3) error {
	c.sourcePos = pos
	return nil
}

func (c *fakeContext) SetListenerPosition(_ int, pos mgl64.Vec3) error {
	c.listenerPos = pos
	return nil
}

func (c *fakeContext) SetListenerOrientation(_ int, rot mgl64.Quat) error {
	c.listenerRot = rot
	return nil
}

func (c *fakeContext) Simulate() error {
	if c.engine.simulateErr != nil {
		return c.engine.simulateErr
	}
	c.simulated++
	return nil
}

func (c *fakeContext) IRChannelCount(int, int) int {
	if c.simulated == 0 {
		return 0
	}
	return c.layouts[0].ChannelCount
}

func (c *fakeContext) IRSampleCount(int, int) int {
	if c.simulated == 0 {
		return 0
	}
	return c.cfg.SampleCount()
}

// IRChannel returns a unit impulse delayed by the channel index.
func (c *fakeContext) IRChannel(_, _, ch int) []float32 {
	out := make([]float32, c.IRSampleCount(0, 0))
	if ch < len(out) {
		out[ch] = 0.5
	}
	return out
}

func (c *fakeContext) IndirectRayEfficiency() float32 { return c.engine.efficiency }

func (c *fakeContext) TraceRayAnyHit(ray *acoustics.Ray) error {
	ray.Hit = c.engine.hit
	c.rays = append(c.rays, *ray)
	return nil
}

func (c *fakeContext) WriteSceneMeshOBJ(path string) error {
	return os.WriteFile(path, []byte("# fake\n"), 0o644)
}

func (c *fakeContext) Close() error {
	if c.closed {
		return acoustics.ErrClosed
	}
	c.closed = true
	return nil
}
