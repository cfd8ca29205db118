package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// LoadOBJ reads a Wavefront OBJ file into a Static scene.
//
// Every face is added to the render mesh. Faces are also grouped into semantic
// objects: the active `usemtl` name is the category, falling back to the
// active `g`/`o` name. Faces outside any named group get no semantic object.
// Vertices are duplicated per object in the semantic mesh so each vertex maps
// to exactly one object ID.
func LoadOBJ(path string) (*Static, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scene: open %s: %w", path, err)
	}
	defer f.Close()

	s, err := ReadOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("scene: parse %s: %w", path, err)
	}
	return s, nil
}

// ReadOBJ parses OBJ text from r. See LoadOBJ.
func ReadOBJ(r io.Reader) (*Static, error) {
	p := objParser{
		render:     &Mesh{},
		semantic:   &Mesh{},
		semScene:   &SemanticScene{Objects: []*Object{nil}}, // ID 0: unannotated
		categories: map[string]*Category{},
		objects:    map[string]int{},
		remap:      map[[2]int]uint32{},
	}

	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		if err := p.parseLine(sc.Text()); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(p.render.Indices) == 0 {
		return nil, ErrNoMesh
	}

	st := &Static{Mesh: p.render}
	if len(p.semScene.Objects) > 1 {
		st.SemanticMesh = p.semantic
		st.ObjectIDs = p.objectIDs
		st.Semantic = p.semScene
	}
	return st, nil
}

type objParser struct {
	render    *Mesh
	semantic  *Mesh
	objectIDs []uint16
	semScene  *SemanticScene

	categories map[string]*Category
	objects    map[string]int
	remap      map[[2]int]uint32 // (object, render vertex) -> semantic vertex

	group    string
	material string
}

func (p *objParser) parseLine(text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch fields[0] {
	case "v":
		if len(fields) < 4 {
			return fmt.Errorf("vertex needs 3 coordinates")
		}
		var v mgl64.Vec3
		for i := range 3 {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return fmt.Errorf("vertex coordinate: %w", err)
			}
			v[i] = f
		}
		p.render.Vertices = append(p.render.Vertices, v)
	case "g", "o":
		p.group = strings.Join(fields[1:], " ")
	case "usemtl":
		p.material = strings.Join(fields[1:], " ")
	case "f":
		return p.parseFace(fields[1:])
	}
	return nil
}

func (p *objParser) parseFace(refs []string) error {
	if len(refs) < 3 {
		return fmt.Errorf("face needs at least 3 vertices")
	}

	idx := make([]uint32, len(refs))
	for i, ref := range refs {
		// v, v/vt, v//vn, v/vt/vn
		head, _, _ := strings.Cut(ref, "/")
		n, err := strconv.Atoi(head)
		if err != nil {
			return fmt.Errorf("face index %q: %w", ref, err)
		}
		switch {
		case n > 0:
			n--
		case n < 0:
			n += len(p.render.Vertices)
		default:
			return fmt.Errorf("face index 0 is invalid")
		}
		if n < 0 || n >= len(p.render.Vertices) {
			return fmt.Errorf("face index %q out of range", ref)
		}
		idx[i] = uint32(n)
	}

	obj := p.currentObject()
	// Fan triangulation.
	for i := 1; i+1 < len(idx); i++ {
		tri := [3]uint32{idx[0], idx[i], idx[i+1]}
		p.render.Indices = append(p.render.Indices, tri[:]...)
		for _, v := range tri {
			p.semantic.Indices = append(p.semantic.Indices, p.semanticVertex(obj, v))
		}
	}
	return nil
}

func (p *objParser) currentObject() int {
	name := p.material
	if name == "" {
		name = p.group
	}
	if name == "" {
		return 0
	}

	key := p.group + "\x00" + name
	if id, ok := p.objects[key]; ok {
		return id
	}

	cat, ok := p.categories[name]
	if !ok {
		cat = &Category{ID: len(p.semScene.Categories), Name: name}
		p.categories[name] = cat
		p.semScene.Categories = append(p.semScene.Categories, cat)
	}

	id := len(p.semScene.Objects)
	p.semScene.Objects = append(p.semScene.Objects, &Object{ID: id, Category: cat})
	p.objects[key] = id
	return id
}

func (p *objParser) semanticVertex(obj int, v uint32) uint32 {
	key := [2]int{obj, int(v)}
	if sv, ok := p.remap[key]; ok {
		return sv
	}
	sv := uint32(len(p.semantic.Vertices))
	p.semantic.Vertices = append(p.semantic.Vertices, p.render.Vertices[v])
	p.objectIDs = append(p.objectIDs, uint16(obj))
	p.remap[key] = sv
	return sv
}

func vec(x, y, z float64) mgl64.Vec3 {
	return mgl64.Vec3{x, y, z}
}
