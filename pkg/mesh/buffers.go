package mesh

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/taigrr/hornview/pkg/math3d"
)

// Buffers holds the five parallel mesh buffers, all indexed by vertex.
type Buffers struct {
	USteps, VSteps int

	Vertices  []float32 // 3 per vertex
	Indices   []uint32  // 3 per triangle
	Normals   []float32 // 3 per vertex
	Tangents  []float32 // 3 per vertex
	TexCoords []float32 // 2 per vertex

	Diagnostics Diagnostics
}

// Diagnostics counts numeric degeneracies met during generation.
// Degenerate contributions are zero vectors, never NaN.
type Diagnostics struct {
	DegenerateNormalFaces  int
	DegenerateTangentFaces int
	ZeroNormalVertices     int
	ZeroTangentVertices    int
}

// Clean reports whether generation met no degeneracy at all.
func (d Diagnostics) Clean() bool {
	return d == Diagnostics{}
}

func (d Diagnostics) String() string {
	return fmt.Sprintf("degenerate faces: %d normal, %d tangent; zero vertices: %d normal, %d tangent",
		d.DegenerateNormalFaces, d.DegenerateTangentFaces, d.ZeroNormalVertices, d.ZeroTangentVertices)
}

// VertexCount returns (USteps+1)*(VSteps+1).
func (b *Buffers) VertexCount() int {
	return len(b.Vertices) / 3
}

// TriangleCount returns 2*USteps*VSteps.
func (b *Buffers) TriangleCount() int {
	return len(b.Indices) / 3
}

// Position returns vertex i.
func (b *Buffers) Position(i int) math3d.Vec3 {
	return vec3At(b.Vertices, i)
}

// Normal returns the normal of vertex i.
func (b *Buffers) Normal(i int) math3d.Vec3 {
	return vec3At(b.Normals, i)
}

// Tangent returns the tangent of vertex i.
func (b *Buffers) Tangent(i int) math3d.Vec3 {
	return vec3At(b.Tangents, i)
}

// TexCoord returns the texture coordinate of vertex i.
func (b *Buffers) TexCoord(i int) math3d.Vec2 {
	return math3d.V2(float64(b.TexCoords[2*i]), float64(b.TexCoords[2*i+1]))
}

// Triangle returns the vertex indices of triangle t.
func (b *Buffers) Triangle(t int) [3]uint32 {
	return [3]uint32{b.Indices[3*t], b.Indices[3*t+1], b.Indices[3*t+2]}
}

func vec3At(s []float32, i int) math3d.Vec3 {
	return math3d.V3(float64(s[3*i]), float64(s[3*i+1]), float64(s[3*i+2]))
}

// Validate checks buffer lengths against the resolution, index ranges and
// that every float is finite.
func (b *Buffers) Validate() error {
	if b.USteps < 1 || b.VSteps < 1 {
		return fmt.Errorf("validate %dx%d: %w", b.USteps, b.VSteps, ErrInvalidResolution)
	}
	n := (b.USteps + 1) * (b.VSteps + 1)
	lengths := []struct {
		name      string
		got, want int
	}{
		{"vertices", len(b.Vertices), 3 * n},
		{"normals", len(b.Normals), 3 * n},
		{"tangents", len(b.Tangents), 3 * n},
		{"texcoords", len(b.TexCoords), 2 * n},
		{"indices", len(b.Indices), 6 * b.USteps * b.VSteps},
	}
	for _, l := range lengths {
		if l.got != l.want {
			return fmt.Errorf("validate %s: length %d, want %d: %w", l.name, l.got, l.want, ErrBufferLength)
		}
	}

	for k, idx := range b.Indices {
		if int(idx) >= n {
			return fmt.Errorf("validate index %d = %d, vertex count %d: %w", k, idx, n, ErrIndexRange)
		}
	}

	for _, s := range []struct {
		name string
		data []float32
	}{
		{"vertices", b.Vertices},
		{"normals", b.Normals},
		{"tangents", b.Tangents},
		{"texcoords", b.TexCoords},
	} {
		for k, f := range s.data {
			if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
				return fmt.Errorf("validate %s[%d] = %v: non-finite value", s.name, k, f)
			}
		}
	}

	// Degenerate vertices carry zero vectors; everything else is unit length.
	for i := range n {
		for _, s := range []struct {
			name string
			v    math3d.Vec3
		}{
			{"normal", b.Normal(i)},
			{"tangent", b.Tangent(i)},
		} {
			l := s.v.Len()
			if l != 0 && math.Abs(l-1) > unitTolerance {
				return fmt.Errorf("validate %s %d: length %v: %w", s.name, i, l, ErrNotUnit)
			}
		}
	}
	return nil
}

const unitTolerance = 1e-4

// IndicesUint16 narrows the index buffer for 16-bit index renderers.
func (b *Buffers) IndicesUint16() ([]uint16, error) {
	if n := b.VertexCount(); n > math.MaxUint16+1 {
		return nil, fmt.Errorf("narrow %d vertices to uint16 indices: %w", n, ErrTooManyVertices)
	}
	out := NewBounded[uint16](len(b.Indices))
	for _, idx := range b.Indices {
		if err := out.Push(uint16(idx)); err != nil {
			return nil, err
		}
	}
	return out.Collect()
}

// Attribute names one of the vertex buffers.
type Attribute int

const (
	AttrPosition Attribute = iota
	AttrNormal
	AttrTangent
	AttrTexCoord
	AttrIndex
)

func (a Attribute) String() string {
	switch a {
	case AttrPosition:
		return "position"
	case AttrNormal:
		return "normal"
	case AttrTangent:
		return "tangent"
	case AttrTexCoord:
		return "texcoord"
	case AttrIndex:
		return "index"
	}
	return fmt.Sprintf("Attribute(%d)", int(a))
}

// Bytes packs one buffer little-endian for upload as an opaque byte range.
func (b *Buffers) Bytes(a Attribute) ([]byte, error) {
	var data any
	switch a {
	case AttrPosition:
		data = b.Vertices
	case AttrNormal:
		data = b.Normals
	case AttrTangent:
		data = b.Tangents
	case AttrTexCoord:
		data = b.TexCoords
	case AttrIndex:
		data = b.Indices
	default:
		return nil, fmt.Errorf("pack %v: unknown attribute", a)
	}
	out, err := binary.Append(nil, binary.LittleEndian, data)
	if err != nil {
		return nil, fmt.Errorf("pack %v: %w", a, err)
	}
	return out, nil
}

// ByteSize returns the total packed size of all five buffers.
func (b *Buffers) ByteSize() int {
	return 4 * (len(b.Vertices) + len(b.Normals) + len(b.Tangents) + len(b.TexCoords) + len(b.Indices))
}
