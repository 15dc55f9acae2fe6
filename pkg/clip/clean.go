package clip

import (
	"math"

	"github.com/taigrr/entryframe/pkg/math3d"
	"github.com/taigrr/entryframe/pkg/mesh"
)

// areaEpsilon is the relative area, against the squared bounding diagonal,
// below which a face counts as zero-area.
const areaEpsilon = 1e-14

// CleanStats counts what Clean removed.
type CleanStats struct {
	MergedPoints int
	RemovedFaces int
	UnusedPoints int
}

// Clean merges coincident points, drops faces that collapse (repeated
// indices or zero area) and removes points no face uses. A merged point
// keeps the attributes of its first occurrence. m is not modified.
func Clean(m *mesh.Mesh, tol float64) (*mesh.Mesh, CleanStats) {
	var stats CleanStats
	out := mesh.NewMesh(m.Name)
	out.HasNormals = m.HasNormals

	merge := newMerger(tol)
	remap := make([]int, len(m.Vertices))
	var pts []mesh.Vertex
	for i, v := range m.Vertices {
		if j, ok := merge.find(v.Position); ok {
			remap[i] = j
			stats.MergedPoints++
			continue
		}
		remap[i] = len(pts)
		merge.add(v.Position, len(pts))
		pts = append(pts, v)
	}

	minArea := areaEpsilon * diagonalSq(m)
	used := make([]int, len(pts))
	for i := range used {
		used[i] = -1
	}
	var faces []mesh.Face
	var faceNormals []math3d.Vec3
	for fi, f := range m.Faces {
		idx := make([]int, len(f.V))
		for k, v := range f.V {
			idx[k] = remap[v]
		}
		if len(idx) < 3 || hasRepeats(idx) || polygonArea(pts, idx) <= minArea {
			stats.RemovedFaces++
			continue
		}
		faces = append(faces, mesh.Face{V: idx})
		if m.FaceNormals != nil {
			faceNormals = append(faceNormals, m.FaceNormals[fi])
		}
	}

	for _, f := range faces {
		for k, v := range f.V {
			if used[v] < 0 {
				used[v] = len(out.Vertices)
				out.Vertices = append(out.Vertices, pts[v])
			}
			f.V[k] = used[v]
		}
	}
	stats.UnusedPoints = len(pts) - len(out.Vertices)
	out.Faces = append(out.Faces, faces...)
	if m.FaceNormals != nil {
		out.FaceNormals = faceNormals
	}
	out.CalculateBounds()
	return out, stats
}

func diagonalSq(m *mesh.Mesh) float64 {
	if len(m.Vertices) == 0 {
		return 0
	}
	lo, hi := m.Vertices[0].Position, m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		lo = lo.Min(v.Position)
		hi = hi.Max(v.Position)
	}
	return hi.Sub(lo).LenSq()
}

func hasRepeats(idx []int) bool {
	for i := range idx {
		for j := i + 1; j < len(idx); j++ {
			if idx[i] == idx[j] {
				return true
			}
		}
	}
	return false
}

// polygonArea returns the Newell area of a polygon. Non-finite geometry
// reports zero.
func polygonArea(pts []mesh.Vertex, idx []int) float64 {
	if len(idx) == 3 {
		a := math3d.TriangleArea(pts[idx[0]].Position, pts[idx[1]].Position, pts[idx[2]].Position)
		if math.IsNaN(a) {
			return 0
		}
		return a
	}
	var n math3d.Vec3
	for i := range idx {
		cur := pts[idx[i]].Position
		next := pts[idx[(i+1)%len(idx)]].Position
		n = n.Add(cur.Cross(next))
	}
	a := n.Len() / 2
	if math.IsNaN(a) {
		return 0
	}
	return a
}

// merger finds previously seen points, exactly or within a tolerance via a
// hashed grid of cell size tol.
type merger struct {
	tol   float64
	exact map[math3d.Vec3]int
	cells map[[3]int64][]mergeEntry
}

type mergeEntry struct {
	p   math3d.Vec3
	idx int
}

func newMerger(tol float64) *merger {
	if tol > 0 {
		return &merger{tol: tol, cells: make(map[[3]int64][]mergeEntry)}
	}
	return &merger{exact: make(map[math3d.Vec3]int)}
}

func (m *merger) cell(p math3d.Vec3) [3]int64 {
	return [3]int64{
		int64(math.Floor(p.X / m.tol)),
		int64(math.Floor(p.Y / m.tol)),
		int64(math.Floor(p.Z / m.tol)),
	}
}

func (m *merger) find(p math3d.Vec3) (int, bool) {
	if m.exact != nil {
		idx, ok := m.exact[p]
		return idx, ok
	}
	if !p.IsFinite() {
		return 0, false
	}
	c := m.cell(p)
	tol2 := m.tol * m.tol
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				for _, e := range m.cells[[3]int64{c[0] + dx, c[1] + dy, c[2] + dz}] {
					if e.p.Sub(p).LenSq() <= tol2 {
						return e.idx, true
					}
				}
			}
		}
	}
	return 0, false
}

func (m *merger) add(p math3d.Vec3, idx int) {
	if m.exact != nil {
		m.exact[p] = idx
		return
	}
	if !p.IsFinite() {
		return
	}
	c := m.cell(p)
	m.cells[c] = append(m.cells[c], mergeEntry{p: p, idx: idx})
}
