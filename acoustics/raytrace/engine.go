package raytrace

import (
	"errors"
	"fmt"
	"os"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-acoustics/acoustics"
)

// Errors returned by the reference engine.
var (
	ErrNoGeometry = errors.New("raytrace: no finalized geometry")
	ErrHRTF       = errors.New("raytrace: cannot load HRTF")
)

// Engine creates reference contexts.
type Engine struct{}

// NewEngine returns the reference engine.
func NewEngine() *Engine { return &Engine{} }

// NewContext validates cfg and allocates an empty context.
func (e *Engine) NewContext(cfg acoustics.ContextConfig) (acoustics.Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Context{cfg: cfg, db: NewDatabase()}, nil
}

type listener struct {
	layout acoustics.ChannelLayout
	pos    mgl64.Vec3
	rot    mgl64.Quat
	hrtf   string
}

type object struct {
	faces     []face
	finalized bool
}

type face struct {
	idx      [3]uint32
	material string
}

// Context is one reference simulation instance. It is not safe for
// concurrent use.
type Context struct {
	cfg    acoustics.ContextConfig
	closed bool

	listeners []listener
	sources   []mgl64.Vec3

	db        *Database
	vertices  []mgl64.Vec3
	base      int // first vertex of the pending object
	pending   []face
	objects   []object
	triangles []triangle

	ir         [][][]float32 // [listener*len(sources)+source][channel][sample]
	efficiency float32

	plan     *algofft.Plan[complex128]
	planSize int
}

var _ acoustics.Context = (*Context)(nil)

// AddListener appends a listener with the given channel layout.
func (c *Context) AddListener(layout acoustics.ChannelLayout) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if err := layout.Validate(); err != nil {
		return err
	}
	c.listeners = append(c.listeners, listener{layout: layout, rot: mgl64.QuatIdent()})
	c.ir = nil
	return nil
}

// AddSource appends a point source at the origin.
func (c *Context) AddSource() error {
	if c.closed {
		return acoustics.ErrClosed
	}
	c.sources = append(c.sources, mgl64.Vec3{})
	c.ir = nil
	return nil
}

// SetMaterialDatabase loads a materials JSON file. It must be called before
// any geometry is added.
func (c *Context) SetMaterialDatabase(path string) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if len(c.vertices) > 0 || len(c.triangles) > 0 {
		return acoustics.ErrMaterialsLocked
	}
	db, err := LoadDatabase(path)
	if err != nil {
		return err
	}
	c.db = db
	return nil
}

// SetListenerHRTF checks that path is readable and records it. Spatialization
// keeps using the spherical-head model.
func (c *Context) SetListenerHRTF(l int, path string) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if l < 0 || l >= len(c.listeners) {
		return acoustics.ErrNoListener
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHRTF, err)
	}
	f.Close()
	c.listeners[l].hrtf = path
	return nil
}

// AddMeshVertices appends vertices to the pending object.
func (c *Context) AddMeshVertices(vertices []mgl64.Vec3) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if len(vertices) == 0 {
		return acoustics.ErrInvalidMesh
	}
	c.vertices = append(c.vertices, vertices...)
	return nil
}

// AddMeshIndices appends faces to the pending object. Indices are relative to
// the vertices added since the last finalized object.
func (c *Context) AddMeshIndices(indices []uint32, verticesPerFace int, material string) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if verticesPerFace != 3 || len(indices) == 0 || len(indices)%3 != 0 {
		return fmt.Errorf("%w: need triangles, got %d indices with %d per face",
			acoustics.ErrInvalidMesh, len(indices), verticesPerFace)
	}
	avail := len(c.vertices) - c.base
	for _, idx := range indices {
		if int(idx) >= avail {
			return fmt.Errorf("%w: index %d out of range (%d vertices)", acoustics.ErrInvalidMesh, idx, avail)
		}
	}
	for i := 0; i < len(indices); i += 3 {
		c.pending = append(c.pending, face{idx: [3]uint32{indices[i], indices[i+1], indices[i+2]}, material: material})
	}
	return nil
}

// AddObject appends an empty object.
func (c *Context) AddObject() error {
	if c.closed {
		return acoustics.ErrClosed
	}
	c.objects = append(c.objects, object{})
	return nil
}

// ObjectCount returns the number of objects added so far.
func (c *Context) ObjectCount() int { return len(c.objects) }

// FinalizeObjectMesh moves the pending faces into object i and makes them
// traceable.
func (c *Context) FinalizeObjectMesh(i int) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if i < 0 || i >= len(c.objects) || c.objects[i].finalized {
		return acoustics.ErrNoObject
	}

	for _, f := range c.pending {
		a := c.vertices[c.base+int(f.idx[0])]
		b := c.vertices[c.base+int(f.idx[1])]
		v := c.vertices[c.base+int(f.idx[2])]
		if tr, ok := newTriangle(a, b, v, c.db.Lookup(f.material), f.material); ok {
			c.triangles = append(c.triangles, tr)
		}
	}
	c.objects[i] = object{faces: c.pending, finalized: true}
	c.pending = nil
	c.base = len(c.vertices)
	return nil
}

// SetSourcePosition moves source s.
func (c *Context) SetSourcePosition(s int, pos mgl64.Vec3) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if s < 0 || s >= len(c.sources) {
		return acoustics.ErrNoSource
	}
	c.sources[s] = pos
	return nil
}

// SetListenerPosition moves listener l.
func (c *Context) SetListenerPosition(l int, pos mgl64.Vec3) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if l < 0 || l >= len(c.listeners) {
		return acoustics.ErrNoListener
	}
	c.listeners[l].pos = pos
	return nil
}

// SetListenerOrientation rotates listener l. The quaternion is normalized; a
// zero quaternion resets to identity.
func (c *Context) SetListenerOrientation(l int, rot mgl64.Quat) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if l < 0 || l >= len(c.listeners) {
		return acoustics.ErrNoListener
	}
	if rot.Len() < rayEpsilon {
		rot = mgl64.QuatIdent()
	}
	c.listeners[l].rot = rot.Normalize()
	return nil
}

// ListenerPose returns the position and orientation of listener l.
func (c *Context) ListenerPose(l int) (mgl64.Vec3, mgl64.Quat, bool) {
	if l < 0 || l >= len(c.listeners) {
		return mgl64.Vec3{}, mgl64.Quat{}, false
	}
	return c.listeners[l].pos, c.listeners[l].rot, true
}

// SourcePosition returns the position of source s.
func (c *Context) SourcePosition(s int) (mgl64.Vec3, bool) {
	if s < 0 || s >= len(c.sources) {
		return mgl64.Vec3{}, false
	}
	return c.sources[s], true
}

// TriangleCount returns the number of finalized triangles.
func (c *Context) TriangleCount() int { return len(c.triangles) }

// IRChannelCount returns the channel count of the listener/source pair.
func (c *Context) IRChannelCount(l, s int) int {
	ch := c.irPair(l, s)
	return len(ch)
}

// IRSampleCount returns the per-channel sample count of the pair.
func (c *Context) IRSampleCount(l, s int) int {
	ch := c.irPair(l, s)
	if len(ch) == 0 {
		return 0
	}
	return len(ch[0])
}

// IRChannel returns one channel of the most recent IR.
func (c *Context) IRChannel(l, s, channel int) []float32 {
	ch := c.irPair(l, s)
	if channel < 0 || channel >= len(ch) {
		return nil
	}
	return ch[channel]
}

func (c *Context) irPair(l, s int) [][]float32 {
	if c.closed || l < 0 || l >= len(c.listeners) || s < 0 || s >= len(c.sources) {
		return nil
	}
	i := l*len(c.sources) + s
	if i >= len(c.ir) {
		return nil
	}
	return c.ir[i]
}

// IndirectRayEfficiency returns the fraction of indirect rays of the last
// simulation that reached a source.
func (c *Context) IndirectRayEfficiency() float32 { return c.efficiency }

// TraceRayAnyHit implements acoustics.Context.
func (c *Context) TraceRayAnyHit(ray *acoustics.Ray) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if ray == nil {
		return errors.New("raytrace: nil ray")
	}
	ray.Hit = anyHit(c.triangles, ray.Origin, ray.Direction, ray.TMin, ray.TMax)
	return nil
}

// WriteSceneMeshOBJ writes the finalized geometry to path.
func (c *Context) WriteSceneMeshOBJ(path string) error {
	if c.closed {
		return acoustics.ErrClosed
	}
	if len(c.triangles) == 0 {
		return ErrNoGeometry
	}
	return writeOBJ(path, c.triangles)
}

// Close releases all buffers. Further calls return ErrClosed.
func (c *Context) Close() error {
	if c.closed {
		return acoustics.ErrClosed
	}
	*c = Context{closed: true}
	return nil
}
