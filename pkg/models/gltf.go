package models

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/mesh"
)

// gltfHandedness is the TANGENT.w written to glTF. glTF places the
// texture origin at the top-left, which mirrors v and so the bitangent.
const gltfHandedness = -mesh.Handedness

// Encode converts generator output into a single-mesh glTF document.
// Indices are stored as unsigned shorts when every vertex fits.
func Encode(name string, b *mesh.Buffers) (*gltf.Document, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("encode %q: %w", name, err)
	}

	n := b.VertexCount()
	frameN, frameT := unitFrames(b)
	positions := make([][3]float32, n)
	normals := make([][3]float32, n)
	tangents := make([][4]float32, n)
	uvs := make([][2]float32, n)
	for i := range n {
		copy(positions[i][:], b.Vertices[3*i:3*i+3])
		normals[i] = [3]float32{float32(frameN[i].X), float32(frameN[i].Y), float32(frameN[i].Z)}
		tangents[i] = [4]float32{float32(frameT[i].X), float32(frameT[i].Y), float32(frameT[i].Z), gltfHandedness}
		uvs[i] = [2]float32{b.TexCoords[2*i], 1 - b.TexCoords[2*i+1]}
	}

	doc := gltf.NewDocument()
	var indices int
	if narrow, err := b.IndicesUint16(); err == nil {
		indices = modeler.WriteIndices(doc, narrow)
	} else if errors.Is(err, mesh.ErrTooManyVertices) {
		indices = modeler.WriteIndices(doc, b.Indices)
	} else {
		return nil, fmt.Errorf("encode %q: %w", name, err)
	}

	attrs := map[string]int{
		gltf.POSITION:   modeler.WritePosition(doc, positions),
		gltf.NORMAL:     modeler.WriteNormal(doc, normals),
		gltf.TANGENT:    modeler.WriteTangent(doc, tangents),
		gltf.TEXCOORD_0: modeler.WriteTextureCoord(doc, uvs),
	}
	doc.Meshes = []*gltf.Mesh{{
		Name: name,
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(indices),
			Attributes: attrs,
		}},
	}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	if len(doc.Scenes) == 0 {
		doc.Scenes = []*gltf.Scene{{Name: name}}
		doc.Scene = gltf.Index(0)
	}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// unitFrames returns a unit normal and tangent for every vertex. glTF
// rejects zero-length NORMAL and TANGENT values, so degenerate vertices
// such as a collapsed apex take the average of the vertices they share a
// triangle with, falling back to +z and an arbitrary perpendicular.
func unitFrames(b *mesh.Buffers) (normals, tangents []math3d.Vec3) {
	n := b.VertexCount()
	normals = make([]math3d.Vec3, n)
	tangents = make([]math3d.Vec3, n)
	for i := range n {
		normals[i], tangents[i] = b.Normal(i), b.Tangent(i)
	}

	nsum := make([]math3d.Vec3, n)
	tsum := make([]math3d.Vec3, n)
	for t := range b.TriangleCount() {
		tri := b.Triangle(t)
		for _, a := range tri {
			for _, c := range tri {
				nsum[a] = nsum[a].Add(normals[c])
				tsum[a] = tsum[a].Add(tangents[c])
			}
		}
	}

	for i := range n {
		if normals[i].LenSq() == 0 {
			normals[i] = nsum[i].Normalize()
			if normals[i].LenSq() == 0 {
				normals[i] = math3d.V3(0, 0, 1)
			}
		}
		if tangents[i].LenSq() == 0 {
			nv := normals[i]
			t := tsum[i]
			t = t.Sub(nv.Scale(nv.Dot(t))).Normalize()
			if t.LenSq() == 0 {
				t = perpendicular(nv)
			}
			tangents[i] = t
		}
	}
	return normals, tangents
}

func perpendicular(n math3d.Vec3) math3d.Vec3 {
	axis := math3d.V3(1, 0, 0)
	if math.Abs(n.X) > 0.9 {
		axis = math3d.V3(0, 1, 0)
	}
	return axis.Sub(n.Scale(n.Dot(axis))).Normalize()
}

// ExportGLB writes generator output as a binary glTF file. Every NORMAL and
// TANGENT written is unit length; see unitFrames for degenerate vertices.
func ExportGLB(path, name string, b *mesh.Buffers) error {
	doc, err := Encode(name, b)
	if err != nil {
		return err
	}
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("save glb %s: %w", path, err)
	}
	return nil
}

// Load reads a GLTF or GLB file into a Mesh. Triangles keep the file's
// counter-clockwise winding.
func Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	m := NewMesh(filepath.Base(path))
	for _, gm := range doc.Meshes {
		for _, prim := range gm.Primitives {
			if err := appendPrimitive(doc, prim, m); err != nil {
				return nil, fmt.Errorf("process mesh %q: %w", gm.Name, err)
			}
		}
	}
	m.CalculateBounds()
	return m, nil
}

func appendPrimitive(doc *gltf.Document, prim *gltf.Primitive, m *Mesh) error {
	if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
		return nil
	}
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil
	}

	positions, err := readFloats(doc, posIdx, gltf.AccessorVec3)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}
	count := len(positions) / 3

	optional := func(attr string, typ gltf.AccessorType) ([]float32, error) {
		idx, ok := prim.Attributes[attr]
		if !ok {
			return nil, nil
		}
		data, err := readFloats(doc, idx, typ)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", attr, err)
		}
		return data, nil
	}
	normals, err := optional(gltf.NORMAL, gltf.AccessorVec3)
	if err != nil {
		return err
	}
	tangents, err := optional(gltf.TANGENT, gltf.AccessorVec4)
	if err != nil {
		return err
	}
	uvs, err := optional(gltf.TEXCOORD_0, gltf.AccessorVec2)
	if err != nil {
		return err
	}

	base := len(m.Vertices)
	for i := range count {
		v := MeshVertex{Position: vec3(positions, i)}
		if 3*i+2 < len(normals) {
			v.Normal = vec3(normals, i)
		}
		if 4*i+3 < len(tangents) {
			t := tangents[4*i : 4*i+4]
			// Undo the texture-origin mirror applied on export.
			v.Tangent = math3d.V4(float64(t[0]), float64(t[1]), float64(t[2]), -float64(t[3]))
		}
		if 2*i+1 < len(uvs) {
			// Flip V for bottom-left origin
			v.UV = math3d.V2(float64(uvs[2*i]), 1-float64(uvs[2*i+1]))
		}
		m.Vertices = append(m.Vertices, v)
	}

	var indices []uint32
	if prim.Indices != nil {
		if indices, err = readIndices(doc, *prim.Indices); err != nil {
			return fmt.Errorf("read indices: %w", err)
		}
	} else {
		indices = make([]uint32, count)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for i := 0; i+2 < len(indices); i += 3 {
		f := Face{V: [3]int{base + int(indices[i]), base + int(indices[i+1]), base + int(indices[i+2])}}
		for _, vi := range f.V {
			if vi >= len(m.Vertices) {
				return fmt.Errorf("face %d references vertex %d of %d", i/3, vi, len(m.Vertices))
			}
		}
		m.Faces = append(m.Faces, f)
	}
	return nil
}

func components(typ gltf.AccessorType) int {
	switch typ {
	case gltf.AccessorVec2:
		return 2
	case gltf.AccessorVec3:
		return 3
	case gltf.AccessorVec4:
		return 4
	default:
		return 1
	}
}

func vec3(s []float32, i int) math3d.Vec3 {
	return math3d.V3(float64(s[3*i]), float64(s[3*i+1]), float64(s[3*i+2]))
}

// accessorBytes returns the bytes backing an accessor and its element stride.
func accessorBytes(doc *gltf.Document, acr *gltf.Accessor, elemSize int) ([]byte, int, error) {
	if acr.BufferView == nil {
		return nil, 0, fmt.Errorf("accessor has no buffer view")
	}
	view := doc.BufferViews[*acr.BufferView]
	buf := doc.Buffers[view.Buffer]
	if buf.URI != "" && len(buf.Data) == 0 {
		return nil, 0, fmt.Errorf("external buffer %q not loaded", buf.URI)
	}

	stride := view.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	start := view.ByteOffset + acr.ByteOffset
	end := start + (acr.Count-1)*stride + elemSize
	if acr.Count == 0 {
		end = start
	}
	if end > len(buf.Data) {
		return nil, 0, fmt.Errorf("accessor spans %d bytes of %d byte buffer", end, len(buf.Data))
	}
	return buf.Data[start:end], stride, nil
}

// readFloats reads a float accessor of the given type as a flat slice.
func readFloats(doc *gltf.Document, idx int, typ gltf.AccessorType) ([]float32, error) {
	acr := doc.Accessors[idx]
	if acr.Type != typ {
		return nil, fmt.Errorf("expected %v, got %v", typ, acr.Type)
	}
	if acr.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("expected float components, got %v", acr.ComponentType)
	}
	comps := components(typ)
	data, stride, err := accessorBytes(doc, acr, 4*comps)
	if err != nil {
		return nil, err
	}

	out := make([]float32, 0, acr.Count*comps)
	for i := range acr.Count {
		for c := range comps {
			bits := binary.LittleEndian.Uint32(data[i*stride+c*4:])
			out = append(out, math.Float32frombits(bits))
		}
	}
	return out, nil
}

// readIndices reads an index accessor of any unsigned component width.
func readIndices(doc *gltf.Document, idx int) ([]uint32, error) {
	acr := doc.Accessors[idx]
	var size int
	switch acr.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", acr.ComponentType)
	}
	data, stride, err := accessorBytes(doc, acr, size)
	if err != nil {
		return nil, err
	}

	out := make([]uint32, acr.Count)
	for i := range out {
		b := data[i*stride:]
		switch acr.ComponentType {
		case gltf.ComponentUbyte:
			out[i] = uint32(b[0])
		case gltf.ComponentUshort:
			out[i] = uint32(binary.LittleEndian.Uint16(b))
		default:
			out[i] = binary.LittleEndian.Uint32(b)
		}
	}
	return out, nil
}
