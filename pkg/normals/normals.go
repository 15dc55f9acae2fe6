// Package normals reduces the normals of a clipped patch to one direction.
package normals

import (
	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

// Source names where the summed normals came from.
type Source string

const (
	SourcePoints Source = "points"
	SourceFaces  Source = "faces"
	SourceNone   Source = "none"
)

// Sum is the unnormalized aggregate of the accepted normals.
type Sum struct {
	Vector   math3d.Vec3
	Count    int
	Rejected int
	Source   Source
}

// Aggregate sums the per-point normals of patch, or its per-face normals
// when it has no per-point normals. A normal with any non-finite component
// is rejected as a whole and only counted in Rejected. With nothing
// accepted the vector is zero.
func Aggregate(patch *mesh.Mesh) Sum {
	switch {
	case patch == nil:
		return Sum{Source: SourceNone}
	case patch.HasNormals:
		s := Sum{Source: SourcePoints}
		for _, v := range patch.Vertices {
			s.add(v.Normal)
		}
		return s
	case patch.FaceNormals != nil:
		s := Sum{Source: SourceFaces}
		for _, n := range patch.FaceNormals {
			s.add(n)
		}
		return s
	default:
		return Sum{Source: SourceNone}
	}
}

// Vectors sums an arbitrary list under the same rejection rule.
func Vectors(ns []math3d.Vec3) Sum {
	s := Sum{Source: SourcePoints}
	for _, n := range ns {
		s.add(n)
	}
	return s
}

func (s *Sum) add(n math3d.Vec3) {
	if !n.IsFinite() {
		s.Rejected++
		return
	}
	s.Vector = s.Vector.Add(n)
	s.Count++
}

// Mean returns the average accepted normal, or zero when none was
// accepted.
func (s Sum) Mean() math3d.Vec3 {
	if s.Count == 0 {
		return math3d.Zero3()
	}
	return s.Vector.Scale(1 / float64(s.Count))
}

// Degenerate reports whether the sum cannot define a direction.
func (s Sum) Degenerate() bool {
	return s.Count == 0 || s.Vector.LenSq() == 0
}
