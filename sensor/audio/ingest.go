package audio

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/cwbudde/algo-acoustics/scene"
)

// defaultCategory tags vertices without a semantic annotation.
const defaultCategory = "default"

var errNoScene = errors.New("audio: no scene to ingest")

// geometry is one object ready for upload: shared vertices plus indices
// grouped by material name.
type geometry struct {
	vertices  []mgl64.Vec3
	materials []string
	indices   map[string][]uint32
}

func (g *geometry) indexCount() int {
	n := 0
	for _, idx := range g.indices {
		n += len(idx)
	}
	return n
}

// ingest uploads the scene geometry once per context. The semantic mesh is
// used when materials are enabled and the scene has annotations; otherwise,
// or when the semantic mesh is unusable, the render mesh is uploaded with
// the default material. Without any mesh the simulation runs in free field.
func (s *simulator) ingest(src scene.Source) {
	if src == nil {
		s.log.Warn("no scene, simulating without geometry", "err", errNoScene)
		return
	}

	if s.spec.EnableMaterials && src.SemanticSceneExists() {
		g, err := semanticGeometry(src)
		if err == nil {
			s.upload(g)
			return
		}
		s.log.Warn("semantic mesh unavailable, falling back to render mesh", "err", err)
	} else {
		s.log.Debug("semantic scene missing or materials disabled, using default material")
	}

	g, err := plainGeometry(src)
	if err != nil {
		s.log.Warn("scene mesh unavailable, simulating without geometry", "err", err)
		return
	}
	s.upload(g)
}

func (s *simulator) upload(g *geometry) {
	if err := uploadGeometry(s.ctx, g); err != nil {
		s.log.Error("couldn't upload audio geometry", "err", err)
		return
	}
	s.uploaded = true
	s.log.Debug("audio geometry loaded", "vertices", len(g.vertices),
		"triangles", g.indexCount()/3, "materials", len(g.materials))
}

type meshUploader interface {
	AddMeshVertices(vertices []mgl64.Vec3) error
	AddMeshIndices(indices []uint32, verticesPerFace int, material string) error
	AddObject() error
	ObjectCount() int
	FinalizeObjectMesh(object int) error
}

func uploadGeometry(ctx meshUploader, g *geometry) error {
	if err := ctx.AddMeshVertices(g.vertices); err != nil {
		return fmt.Errorf("audio: add vertices: %w", err)
	}
	for _, name := range g.materials {
		if err := ctx.AddMeshIndices(g.indices[name], 3, name); err != nil {
			return fmt.Errorf("audio: add indices for %q: %w", name, err)
		}
	}
	obj := ctx.ObjectCount()
	if err := ctx.AddObject(); err != nil {
		return fmt.Errorf("audio: add object: %w", err)
	}
	if err := ctx.FinalizeObjectMesh(obj); err != nil {
		return fmt.Errorf("audio: finalize object %d: %w", obj, err)
	}
	return nil
}

func plainGeometry(src scene.Source) (*geometry, error) {
	mesh, err := src.JoinedMesh(true)
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	return &geometry{
		vertices:  mesh.Vertices,
		materials: []string{""},
		indices:   map[string][]uint32{"": mesh.Indices},
	}, nil
}

func semanticGeometry(src scene.Source) (*geometry, error) {
	mesh, ids, err := src.JoinedSemanticMesh()
	if err != nil {
		return nil, err
	}
	if err := mesh.Validate(); err != nil {
		return nil, err
	}
	if len(ids) != len(mesh.Vertices) {
		return nil, fmt.Errorf("audio: %d object ids for %d vertices", len(ids), len(mesh.Vertices))
	}
	sem := src.SemanticScene()
	if sem == nil {
		return nil, scene.ErrNoSemanticScene
	}

	category := func(vertex uint32) string {
		if name := sem.CategoryName(int(ids[vertex])); name != "" {
			return name
		}
		return defaultCategory
	}

	g := &geometry{vertices: mesh.Vertices, indices: map[string][]uint32{}}
	for i := 0; i < len(mesh.Indices); i += 3 {
		tri := mesh.Indices[i : i+3]
		name := triangleCategory(category(tri[0]), category(tri[1]), category(tri[2]))
		if _, ok := g.indices[name]; !ok {
			g.materials = append(g.materials, name)
		}
		g.indices[name] = append(g.indices[name], tri...)
	}
	slices.Sort(g.materials)
	return g, nil
}

// triangleCategory picks one category for a triangle from its vertex
// categories. The odd one out wins: when exactly two agree, the third is the
// triangle's category; when all differ, the first vertex decides.
func triangleCategory(c1, c2, c3 string) string {
	switch {
	case c1 == c2 && c1 == c3:
		return c1
	case c1 != c2 && c1 != c3:
		return c1
	case c1 == c2:
		return c3
	default:
		return c2
	}
}
