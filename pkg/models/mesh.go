// Package models converts generated surfaces into renderable meshes and
// moves them in and out of glTF.
package models

import (
	"fmt"

	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/mesh"
)

// Mesh represents a triangle mesh with per-vertex shading attributes.
type Mesh struct {
	Name     string
	Vertices []MeshVertex
	Faces    []Face

	// Bounding box (calculated on build or load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// MeshVertex holds all vertex attributes.
// Tangent.W is the bitangent sign.
type MeshVertex struct {
	Position math3d.Vec3
	Normal   math3d.Vec3
	Tangent  math3d.Vec4
	UV       math3d.Vec2
}

// Face is a counter-clockwise triangle of indices into Mesh.Vertices.
type Face struct {
	V [3]int
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// FromBuffers builds a Mesh from validated generator output.
func FromBuffers(name string, b *mesh.Buffers) (*Mesh, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("build mesh %q: %w", name, err)
	}

	m := &Mesh{
		Name:     name,
		Vertices: make([]MeshVertex, b.VertexCount()),
		Faces:    make([]Face, b.TriangleCount()),
	}
	for i := range m.Vertices {
		m.Vertices[i] = MeshVertex{
			Position: b.Position(i),
			Normal:   b.Normal(i),
			Tangent:  math3d.V4FromV3(b.Tangent(i), mesh.Handedness),
			UV:       b.TexCoord(i),
		}
	}
	for f := range m.Faces {
		tri := b.Triangle(f)
		m.Faces[f] = Face{V: [3]int{int(tri[0]), int(tri[1]), int(tri[2])}}
	}
	m.CalculateBounds()
	return m, nil
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Vertices) == 0 {
		m.BoundsMin, m.BoundsMax = math3d.Vec3{}, math3d.Vec3{}
		return
	}

	m.BoundsMin = m.Vertices[0].Position
	m.BoundsMax = m.Vertices[0].Position
	for _, v := range m.Vertices[1:] {
		m.BoundsMin = m.BoundsMin.Min(v.Position)
		m.BoundsMax = m.BoundsMax.Max(v.Position)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Faces)
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// GetVertex returns the position, normal, and UV for vertex i.
// Implements render.MeshRenderer interface.
func (m *Mesh) GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2) {
	v := m.Vertices[i]
	return v.Position, v.Normal, v.UV
}

// GetTangent returns the tangent and bitangent sign for vertex i.
func (m *Mesh) GetTangent(i int) math3d.Vec4 {
	return m.Vertices[i].Tangent
}

// GetFace returns the vertex indices for face i.
func (m *Mesh) GetFace(i int) [3]int {
	return m.Faces[i].V
}

// GetBounds returns the axis-aligned bounding box.
func (m *Mesh) GetBounds() (min, max math3d.Vec3) {
	return m.BoundsMin, m.BoundsMax
}
