package mesh

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
)

// Triangulate returns a copy of m where every polygon has been decomposed
// into triangles. Faces with fewer than three indices are dropped. Face
// normals, if present, are repeated for each generated triangle. The input
// mesh is not modified.
func Triangulate(m *Mesh) *Mesh {
	out := &Mesh{
		Name:       m.Name,
		Vertices:   append([]Vertex(nil), m.Vertices...),
		Faces:      make([]Face, 0, len(m.Faces)),
		HasNormals: m.HasNormals,
		BoundsMin:  m.BoundsMin,
		BoundsMax:  m.BoundsMax,
	}
	withFaceNormals := len(m.FaceNormals) == len(m.Faces) && m.FaceNormals != nil
	if withFaceNormals {
		out.FaceNormals = make([]math3d.Vec3, 0, len(m.Faces))
	}

	for fi, f := range m.Faces {
		var tris [][3]int
		switch {
		case len(f.V) < 3:
			continue
		case len(f.V) == 3:
			tris = [][3]int{{f.V[0], f.V[1], f.V[2]}}
		default:
			tris = earClip(m.Vertices, f.V)
		}
		for _, t := range tris {
			out.Faces = append(out.Faces, Tri(t[0], t[1], t[2]))
			if withFaceNormals {
				out.FaceNormals = append(out.FaceNormals, m.FaceNormals[fi])
			}
		}
	}
	return out
}

// earClip triangulates a simple polygon by projecting it onto the plane of
// its dominant normal axis and clipping convex ears. Winding of the output
// follows the input polygon. A polygon with no usable plane, or one where
// no ear can be found, falls back to a fan.
func earClip(verts []Vertex, idx []int) [][3]int {
	n := newellNormal(verts, idx)
	if n.LenSq() == 0 || math.IsNaN(n.LenSq()) {
		return fan(idx)
	}

	// Drop the dominant axis; (u, v) keep cyclic order so the projection
	// preserves orientation when that component is positive.
	axis := 2
	abs := n.Abs()
	if abs.X >= abs.Y && abs.X >= abs.Z {
		axis = 0
	} else if abs.Y >= abs.Z {
		axis = 1
	}
	ui, vi := (axis+1)%3, (axis+2)%3
	sign := 1.0
	if n.Component(axis) < 0 {
		sign = -1
	}

	type pt struct{ u, v float64 }
	proj := func(i int) pt {
		p := verts[i].Position
		return pt{p.Component(ui), p.Component(vi)}
	}
	cross := func(a, b, c pt) float64 {
		return ((b.u-a.u)*(c.v-a.v) - (b.v-a.v)*(c.u-a.u)) * sign
	}
	inside := func(p, a, b, c pt) bool {
		return cross(a, b, p) >= 0 && cross(b, c, p) >= 0 && cross(c, a, p) >= 0
	}

	remaining := append([]int(nil), idx...)
	tris := make([][3]int, 0, len(idx)-2)

	for len(remaining) > 3 {
		found := false
		for i := range remaining {
			prev := remaining[(i+len(remaining)-1)%len(remaining)]
			cur := remaining[i]
			next := remaining[(i+1)%len(remaining)]
			a, b, c := proj(prev), proj(cur), proj(next)
			if cross(a, b, c) <= 0 {
				continue // reflex or collinear
			}
			ear := true
			for _, other := range remaining {
				if other == prev || other == cur || other == next {
					continue
				}
				if inside(proj(other), a, b, c) {
					ear = false
					break
				}
			}
			if !ear {
				continue
			}
			tris = append(tris, [3]int{prev, cur, next})
			remaining = append(remaining[:i], remaining[i+1:]...)
			found = true
			break
		}
		if !found {
			return append(tris, fan(remaining)...)
		}
	}
	return append(tris, [3]int{remaining[0], remaining[1], remaining[2]})
}

// fan triangulates around the first index.
func fan(idx []int) [][3]int {
	tris := make([][3]int, 0, len(idx)-2)
	for i := 1; i+1 < len(idx); i++ {
		tris = append(tris, [3]int{idx[0], idx[i], idx[i+1]})
	}
	return tris
}
