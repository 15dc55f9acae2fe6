package mesh

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/taigrr/entryframe/pkg/math3d"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// CalculateNormals computes per-point normals when the file has none.
	CalculateNormals bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
	}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and merges every triangle primitive into a
// single Mesh. Node transforms are not applied.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	m := NewMesh(filepath.Base(path))

	hasNormals := len(doc.Meshes) > 0
	for _, gm := range doc.Meshes {
		withNormals, err := l.processMesh(doc, gm, m)
		if err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", gm.Name, err)
		}
		hasNormals = hasNormals && withNormals
	}
	m.HasNormals = hasNormals && len(m.Vertices) > 0

	if l.CalculateNormals && !m.HasNormals {
		m.CalculateNormals()
	}

	m.CalculateBounds()
	return m, nil
}

// processMesh appends the triangle primitives of a glTF mesh. It reports
// whether every primitive carried a NORMAL attribute.
func (l *GLTFLoader) processMesh(doc *gltf.Document, gm *gltf.Mesh, m *Mesh) (bool, error) {
	allNormals := true
	for pi, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Lines and points carry no surface.
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return false, fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return false, fmt.Errorf("read normals: %w", err)
			}
		}
		if len(normals) != len(positions) {
			allNormals = false
			normals = nil
		}

		base := len(m.Vertices)
		for i, p := range positions {
			n := math3d.NaN3()
			if normals != nil {
				n = normals[i]
			}
			m.AddVertexNormal(p, n)
		}

		// glTF front faces are counter-clockwise, which is the winding
		// Mesh uses, so indices are taken as-is.
		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return false, fmt.Errorf("read indices: %w", err)
			}
			for _, idx := range indices {
				if idx < 0 || idx >= len(positions) {
					return false, fmt.Errorf("primitive %d: index %d out of range (%d vertices)", pi, idx, len(positions))
				}
			}
			for i := 0; i+2 < len(indices); i += 3 {
				m.Faces = append(m.Faces, Tri(base+indices[i], base+indices[i+1], base+indices[i+2]))
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				m.Faces = append(m.Faces, Tri(base+i, base+i+1, base+i+2))
			}
		}
	}
	return allNormals, nil
}

// readVec3Accessor reads float VEC3 data from a glTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 || accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float VEC3, got %v/%v", accessor.Type, accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, 12)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		if off+12 > len(data) {
			return nil, fmt.Errorf("accessor %d overruns its buffer", accessorIdx)
		}
		result[i] = math3d.V3(
			float64(readFloat32(data[off:])),
			float64(readFloat32(data[off+4:])),
			float64(readFloat32(data[off+8:])),
		)
	}
	return result, nil
}

// readIndices reads scalar index data of any unsigned component type.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorScalar {
		return nil, fmt.Errorf("expected SCALAR indices, got %v", accessor.Type)
	}

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index component type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorBytes(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		off := start + i*stride
		if off+size > len(data) {
			return nil, fmt.Errorf("accessor %d overruns its buffer", accessorIdx)
		}
		switch size {
		case 1:
			result[i] = int(data[off])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(data[off:]))
		default:
			result[i] = int(binary.LittleEndian.Uint32(data[off:]))
		}
	}
	return result, nil
}

// accessorBytes resolves the buffer behind an accessor and returns it with
// the first element offset and the element stride.
func accessorBytes(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, fmt.Errorf("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	// gltf.Open resolves both GLB chunks and external .bin URIs into Data.
	if buffer.Data == nil {
		return nil, 0, 0, fmt.Errorf("buffer %d has no data", bufferView.Buffer)
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	return buffer.Data, bufferView.ByteOffset + accessor.ByteOffset, stride, nil
}

// readFloat32 reads a little-endian float32.
func readFloat32(b []byte) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

const embeddedPrefix = "data:application/octet-stream;base64,"

// Export collects meshes and transform nodes into one glTF document.
type Export struct {
	doc *gltf.Document
}

// NewExport starts an empty document with a single root scene.
func NewExport() *Export {
	return &Export{doc: gltf.NewDocument()}
}

// AddMesh writes m as one triangle primitive and adds a node for it.
// Polygons are triangulated first. NORMAL is only written when every point
// has a finite normal, since glTF forbids undefined normals.
func (e *Export) AddMesh(m *Mesh) error {
	if m == nil || len(m.Faces) == 0 {
		return fmt.Errorf("export %q: mesh has no faces", nameOf(m))
	}
	tri := m
	if !m.IsTriangular() {
		tri = Triangulate(m)
	}

	positions := make([][3]float32, len(tri.Vertices))
	normals := make([][3]float32, len(tri.Vertices))
	writeNormals := tri.HasNormals
	for i, v := range tri.Vertices {
		positions[i] = [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		if !v.Normal.IsFinite() {
			writeNormals = false
			continue
		}
		normals[i] = [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
	}

	indices := make([]uint32, 0, len(tri.Faces)*3)
	for _, f := range tri.Faces {
		for _, idx := range f.V {
			indices = append(indices, uint32(idx))
		}
	}

	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(e.doc, positions),
	}
	if writeNormals {
		attrs[gltf.NORMAL] = modeler.WriteNormal(e.doc, normals)
	}

	e.doc.Meshes = append(e.doc.Meshes, &gltf.Mesh{
		Name: tri.Name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(modeler.WriteIndices(e.doc, indices)),
			Attributes: attrs,
			Mode:       gltf.PrimitiveTriangles,
		}},
	})
	e.addNode(&gltf.Node{Name: tri.Name, Mesh: gltf.Index(len(e.doc.Meshes) - 1)})
	return nil
}

// AddTransform adds an empty node whose local matrix is m. glTF matrices
// are column-major, the same layout as math3d.Mat4.
func (e *Export) AddTransform(name string, m math3d.Mat4) {
	e.addNode(&gltf.Node{Name: name, Matrix: [16]float64(m)})
}

func (e *Export) addNode(n *gltf.Node) {
	e.doc.Nodes = append(e.doc.Nodes, n)
	root := e.doc.Scenes[0]
	root.Nodes = append(root.Nodes, len(e.doc.Nodes)-1)
}

// Save writes the document. A .glb extension selects the binary container;
// anything else is written as JSON with the buffers embedded as data URIs.
func (e *Export) Save(path string) error {
	var err error
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = gltf.SaveBinary(e.doc, path)
	} else {
		for _, b := range e.doc.Buffers {
			if b.URI == "" {
				b.URI = embeddedPrefix + base64.StdEncoding.EncodeToString(b.Data)
			}
		}
		err = gltf.Save(e.doc, path)
	}
	if err != nil {
		return fmt.Errorf("save gltf %s: %w", path, err)
	}
	return nil
}

// SaveGLTF writes the given meshes to path.
func SaveGLTF(path string, meshes ...*Mesh) error {
	e := NewExport()
	for _, m := range meshes {
		if err := e.AddMesh(m); err != nil {
			return err
		}
	}
	return e.Save(path)
}

func nameOf(m *Mesh) string {
	if m == nil {
		return "<nil>"
	}
	return m.Name
}

// SaveScene writes the meshes plus an empty node named frameName carrying
// the placement frame.
func SaveScene(path, frameName string, frame math3d.Mat4, meshes ...*Mesh) error {
	e := NewExport()
	for _, m := range meshes {
		if m == nil || m.IsEmpty() {
			continue
		}
		if err := e.AddMesh(m); err != nil {
			return err
		}
	}
	e.AddTransform(frameName, frame)
	return e.Save(path)
}

// LoadTransform returns the local matrix of the first node called name.
func LoadTransform(path, name string) (math3d.Mat4, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return math3d.Mat4{}, fmt.Errorf("failed to open glTF file: %w", err)
	}
	for _, n := range doc.Nodes {
		if n.Name == name {
			return math3d.Mat4(n.MatrixOrDefault()), nil
		}
	}
	return math3d.Mat4{}, fmt.Errorf("node %q not found in %s", name, path)
}
