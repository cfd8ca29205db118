// Package scene provides the scene-graph view the audio sensor ingests:
// joined render meshes, joined semantic meshes and the semantic object table.
package scene

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
)

// Errors returned by scene sources.
var (
	ErrNoMesh          = errors.New("scene: no mesh available")
	ErrNoSemanticScene = errors.New("scene: no semantic scene available")
)

// Mesh is an indexed triangle mesh in scene units.
type Mesh struct {
	Vertices []mgl64.Vec3
	Indices  []uint32 // three per triangle
}

// TriangleCount returns the number of complete triangles.
func (m *Mesh) TriangleCount() int {
	if m == nil {
		return 0
	}
	return len(m.Indices) / 3
}

// Validate checks that every index references an existing vertex and the
// index count is a multiple of three.
func (m *Mesh) Validate() error {
	if m == nil || len(m.Vertices) == 0 || len(m.Indices) == 0 {
		return ErrNoMesh
	}
	if len(m.Indices)%3 != 0 {
		return errors.New("scene: index count is not a multiple of 3")
	}
	for _, idx := range m.Indices {
		if int(idx) >= len(m.Vertices) {
			return errors.New("scene: index out of range")
		}
	}
	return nil
}

// Category is a semantic class such as "wall" or "carpet".
type Category struct {
	ID   int
	Name string
}

// Object is one annotated instance in the semantic scene.
type Object struct {
	ID       int
	Category *Category
}

// SemanticScene is the semantic annotation table. Objects is indexed by the
// object IDs reported by [Source.JoinedSemanticMesh]; nil entries mark IDs
// without an annotation.
type SemanticScene struct {
	Categories []*Category
	Objects    []*Object
}

// CategoryName returns the category name of object id, or "" when the object
// is unknown or has no category.
func (s *SemanticScene) CategoryName(id int) string {
	if s == nil || id < 0 || id >= len(s.Objects) {
		return ""
	}
	obj := s.Objects[id]
	if obj == nil || obj.Category == nil {
		return ""
	}
	return obj.Category.Name
}

// Source is implemented by anything that can hand scene geometry to the
// sensor, typically the simulator that owns the scene graph.
type Source interface {
	SemanticSceneExists() bool
	// JoinedSemanticMesh returns the semantic mesh plus one object ID per
	// vertex.
	JoinedSemanticMesh() (*Mesh, []uint16, error)
	SemanticScene() *SemanticScene
	// JoinedMesh returns the render mesh flattened into world space.
	JoinedMesh(includeStaticObjects bool) (*Mesh, error)
}
