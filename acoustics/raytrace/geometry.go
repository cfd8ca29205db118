package raytrace

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

const rayEpsilon = 1e-6

type triangle struct {
	a, b, c  mgl64.Vec3
	normal   mgl64.Vec3
	material *Material
	name     string // material tag as submitted
}

func newTriangle(a, b, c mgl64.Vec3, mat *Material, name string) (triangle, bool) {
	n := b.Sub(a).Cross(c.Sub(a))
	l := n.Len()
	if l < rayEpsilon {
		return triangle{}, false
	}
	return triangle{a: a, b: b, c: c, normal: n.Mul(1 / l), material: mat, name: name}, true
}

// intersect is a two-sided Möller–Trumbore test. It returns the ray
// parameter t and whether the ray hits the triangle.
func (tr *triangle) intersect(origin, dir mgl64.Vec3) (float64, bool) {
	e1 := tr.b.Sub(tr.a)
	e2 := tr.c.Sub(tr.a)
	p := dir.Cross(e2)
	det := e1.Dot(p)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	inv := 1 / det
	s := origin.Sub(tr.a)
	u := s.Dot(p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(e1)
	v := dir.Dot(q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	return e2.Dot(q) * inv, true
}

type hit struct {
	t   float64
	tri *triangle
}

// TODO: replace the linear scans below with a BVH once scenes beyond a few
// thousand faces need interactive simulation times.

// closestHit returns the nearest intersection with t in (tMin, tMax].
func closestHit(tris []triangle, origin, dir mgl64.Vec3, tMin, tMax float64) (hit, bool) {
	best := hit{t: tMax}
	found := false
	for i := range tris {
		t, ok := tris[i].intersect(origin, dir)
		if ok && t > tMin && t <= best.t {
			best = hit{t: t, tri: &tris[i]}
			found = true
		}
	}
	return best, found
}

// anyHit reports whether any triangle intersects the ray within [tMin, tMax].
func anyHit(tris []triangle, origin, dir mgl64.Vec3, tMin, tMax float64) bool {
	for i := range tris {
		t, ok := tris[i].intersect(origin, dir)
		if ok && t >= tMin && t <= tMax {
			return true
		}
	}
	return false
}

// crossings returns every triangle intersected within [tMin, tMax].
func crossings(tris []triangle, origin, dir mgl64.Vec3, tMin, tMax float64) []*triangle {
	var out []*triangle
	for i := range tris {
		t, ok := tris[i].intersect(origin, dir)
		if ok && t >= tMin && t <= tMax {
			out = append(out, &tris[i])
		}
	}
	return out
}

// writeOBJ writes the triangles grouped by material tag.
func writeOBJ(path string, tris []triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("raytrace: create %s: %w", path, err)
	}

	groups := map[string][]int{}
	for i := range tris {
		groups[tris[i].name] = append(groups[tris[i].name], i)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "# audio scene: %d triangles\n", len(tris))
	for _, tr := range tris {
		for _, v := range [3]mgl64.Vec3{tr.a, tr.b, tr.c} {
			fmt.Fprintf(w, "v %g %g %g\n", v.X(), v.Y(), v.Z())
		}
	}
	for _, name := range names {
		label := name
		if label == "" {
			label = DefaultMaterialName
		}
		fmt.Fprintf(w, "g %s\nusemtl %s\n", label, label)
		for _, i := range groups[name] {
			base := 3*i + 1
			fmt.Fprintf(w, "f %d %d %d\n", base, base+1, base+2)
		}
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("raytrace: write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("raytrace: close %s: %w", path, err)
	}
	return nil
}
