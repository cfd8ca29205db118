package scene

// Static is an in-memory Source over fixed geometry.
type Static struct {
	Mesh         *Mesh
	SemanticMesh *Mesh
	ObjectIDs    []uint16
	Semantic     *SemanticScene
}

// NewStatic returns a Static scene with a render mesh only.
func NewStatic(mesh *Mesh) *Static {
	return &Static{Mesh: mesh}
}

// Empty returns a scene without any geometry.
func Empty() *Static {
	return &Static{}
}

// SemanticSceneExists reports whether semantic annotations are present.
func (s *Static) SemanticSceneExists() bool {
	return s.Semantic != nil && s.SemanticMesh != nil
}

// JoinedSemanticMesh implements Source.
func (s *Static) JoinedSemanticMesh() (*Mesh, []uint16, error) {
	if !s.SemanticSceneExists() {
		return nil, nil, ErrNoSemanticScene
	}
	if err := s.SemanticMesh.Validate(); err != nil {
		return nil, nil, err
	}
	if len(s.ObjectIDs) != len(s.SemanticMesh.Vertices) {
		return nil, nil, ErrNoSemanticScene
	}
	return s.SemanticMesh, s.ObjectIDs, nil
}

// SemanticScene implements Source.
func (s *Static) SemanticScene() *SemanticScene {
	return s.Semantic
}

// JoinedMesh implements Source. Static scenes have no separate static
// objects, so includeStaticObjects is ignored.
func (s *Static) JoinedMesh(bool) (*Mesh, error) {
	if err := s.Mesh.Validate(); err != nil {
		return nil, err
	}
	return s.Mesh, nil
}

// Box returns a closed axis-aligned box, the usual shoebox room.
func Box(lo, hi [3]float64) *Mesh {
	x0, y0, z0 := lo[0], lo[1], lo[2]
	x1, y1, z1 := hi[0], hi[1], hi[2]
	m := &Mesh{}
	m.Vertices = append(m.Vertices,
		vec(x0, y0, z0), vec(x1, y0, z0), vec(x1, y1, z0), vec(x0, y1, z0),
		vec(x0, y0, z1), vec(x1, y0, z1), vec(x1, y1, z1), vec(x0, y1, z1),
	)
	quads := [][4]uint32{
		{0, 1, 2, 3}, // z0
		{4, 7, 6, 5}, // z1
		{0, 4, 5, 1}, // y0
		{3, 2, 6, 7}, // y1
		{0, 3, 7, 4}, // x0
		{1, 5, 6, 2}, // x1
	}
	for _, q := range quads {
		m.Indices = append(m.Indices, q[0], q[1], q[2], q[0], q[2], q[3])
	}
	return m
}
