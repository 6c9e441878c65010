// Package mesh tessellates parametric surfaces into indexed triangle meshes
// with per-vertex normals, tangents and texture coordinates.
package mesh

import (
	"fmt"
	"math"

	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/surface"
)

// Handedness is the bitangent sign of every generated tangent frame:
// bitangent = cross(normal, tangent) * Handedness points toward increasing v.
const Handedness = -1.0

// Squared lengths at or below these are treated as zero.
const (
	degenerateAreaSq = 1e-20
	degenerateUVDet  = 1e-12
)

// TangentMode selects how face tangents combine at shared vertices.
type TangentMode int

const (
	// TangentSum sums face tangents then normalizes, like normals.
	TangentSum TangentMode = iota
	// TangentLastFace keeps only the tangent of the last face touching a vertex.
	TangentLastFace
)

func (m TangentMode) String() string {
	switch m {
	case TangentSum:
		return "sum"
	case TangentLastFace:
		return "last-face"
	default:
		return fmt.Sprintf("TangentMode(%d)", int(m))
	}
}

// ParseTangentMode parses "sum" or "last-face".
func ParseTangentMode(s string) (TangentMode, error) {
	switch s {
	case "", "sum":
		return TangentSum, nil
	case "last-face":
		return TangentLastFace, nil
	default:
		return 0, fmt.Errorf("unknown tangent mode %q", s)
	}
}

// Options configures a Generator.
type Options struct {
	Tangents TangentMode
}

// Generator builds mesh buffers from parametric surfaces.
// A Generator holds no per-call state and may be reused.
type Generator struct {
	opts Options
}

// NewGenerator creates a generator with the given options.
func NewGenerator(opts Options) *Generator {
	return &Generator{opts: opts}
}

// Generate tessellates eq over the default domain with summed tangents.
func Generate(eq surface.Equation, uSteps, vSteps int) (*Buffers, error) {
	return NewGenerator(Options{}).Generate(surface.Surface{Eq: eq, Domain: surface.DefaultDomain()}, uSteps, vSteps)
}

// Generate samples s on a (uSteps+1) x (vSteps+1) grid and returns freshly
// allocated buffers. Vertex (row i, column j) has index i*(uSteps+1)+j.
func (g *Generator) Generate(s surface.Surface, uSteps, vSteps int) (*Buffers, error) {
	if uSteps < 1 || vSteps < 1 {
		return nil, fmt.Errorf("generate %dx%d: %w", uSteps, vSteps, ErrInvalidResolution)
	}
	if s.Eq == nil {
		return nil, fmt.Errorf("generate: nil equation")
	}
	if err := s.Domain.Validate(); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	// Indices are uint32, so every vertex must be addressable.
	if uint64(uSteps)+1 > math.MaxUint32 || uint64(vSteps)+1 > math.MaxUint32 ||
		(uint64(uSteps)+1)*(uint64(vSteps)+1) > math.MaxUint32+1 {
		return nil, fmt.Errorf("generate %dx%d: %w", uSteps, vSteps, ErrTooManyVertices)
	}

	grid, err := sample(s, uSteps, vSteps)
	if err != nil {
		return nil, err
	}

	indices, err := triangulate(uSteps, vSteps)
	if err != nil {
		return nil, err
	}

	var diag Diagnostics
	normals, tangents := g.accumulate(grid, indices, &diag)

	out, err := assemble(grid, normals, tangents, &diag)
	if err != nil {
		return nil, err
	}
	out.USteps, out.VSteps = uSteps, vSteps
	out.Indices = indices
	out.Diagnostics = diag
	return out, nil
}

type grid struct {
	positions []math3d.Vec3
	uvs       []math3d.Vec2
}

func sample(s surface.Surface, uSteps, vSteps int) (grid, error) {
	n := (uSteps + 1) * (vSteps + 1)
	g := grid{
		positions: make([]math3d.Vec3, 0, n),
		uvs:       make([]math3d.Vec2, 0, n),
	}
	du := s.Domain.UMax / float64(uSteps)
	dv := s.Domain.VMax / float64(vSteps)

	for i := 0; i <= vSteps; i++ {
		for j := 0; j <= uSteps; j++ {
			u, v := float64(j)*du, float64(i)*dv
			p := s.Eq(u, v)
			if !p.IsFinite() {
				return grid{}, fmt.Errorf("sample (u=%g, v=%g) row %d col %d: %w", u, v, i, j, ErrNonFinitePosition)
			}
			g.positions = append(g.positions, p)
			g.uvs = append(g.uvs, math3d.V2(float64(j)/float64(uSteps), float64(i)/float64(vSteps)))
		}
	}
	return g, nil
}

// triangulate emits (i0, i2, i1) and (i1, i2, i3) for every grid cell, so
// each face normal is cross(dP/dv, dP/du).
func triangulate(uSteps, vSteps int) ([]uint32, error) {
	w := uint32(uSteps + 1)
	idx := NewBounded[uint32](6 * uSteps * vSteps)
	for i := range uint32(vSteps) {
		for j := range uint32(uSteps) {
			i0 := i*w + j
			i1 := i0 + 1
			i2 := i0 + w
			i3 := i2 + 1
			if err := idx.Push(i0, i2, i1, i1, i2, i3); err != nil {
				return nil, fmt.Errorf("triangulate cell (%d, %d): %w", i, j, err)
			}
		}
	}
	return idx.Collect()
}

func (g *Generator) accumulate(gr grid, indices []uint32, diag *Diagnostics) (normals, tangents []math3d.Vec3) {
	normals = make([]math3d.Vec3, len(gr.positions))
	tangents = make([]math3d.Vec3, len(gr.positions))

	for f := 0; f < len(indices); f += 3 {
		tri := [3]uint32{indices[f], indices[f+1], indices[f+2]}
		face := computeFace(
			gr.positions[tri[0]], gr.positions[tri[1]], gr.positions[tri[2]],
			gr.uvs[tri[0]], gr.uvs[tri[1]], gr.uvs[tri[2]],
		)
		if !face.normalOK {
			diag.DegenerateNormalFaces++
		}
		if !face.tangentOK {
			diag.DegenerateTangentFaces++
		}

		for _, vi := range tri {
			normals[vi] = normals[vi].Add(face.normal)
			switch g.opts.Tangents {
			case TangentLastFace:
				tangents[vi] = face.tangent
			default:
				tangents[vi] = tangents[vi].Add(face.tangent)
			}
		}
	}
	return normals, tangents
}

type face struct {
	normal, tangent     math3d.Vec3
	normalOK, tangentOK bool
}

// computeFace returns the unit normal cross(e1, e2) and the unit tangent
// along increasing texture u. Degenerate geometry or UVs yield zero vectors.
func computeFace(p0, p1, p2 math3d.Vec3, uv0, uv1, uv2 math3d.Vec2) face {
	var f face

	e1 := p1.Sub(p0)
	e2 := p2.Sub(p0)

	n := e1.Cross(e2)
	if n.LenSq() > degenerateAreaSq {
		f.normal = n.Normalize()
		f.normalOK = true
	}

	d1 := uv1.Sub(uv0)
	d2 := uv2.Sub(uv0)
	det := d1.Cross(d2)
	if math.Abs(det) <= degenerateUVDet {
		return f
	}
	t := e1.Scale(d2.Y).Sub(e2.Scale(d1.Y)).Scale(1 / det)
	if t.LenSq() > degenerateAreaSq && t.IsFinite() {
		f.tangent = t.Normalize()
		f.tangentOK = true
	}
	return f
}

func assemble(gr grid, normals, tangents []math3d.Vec3, diag *Diagnostics) (*Buffers, error) {
	n := len(gr.positions)
	vertices := NewBounded[float32](3 * n)
	norms := NewBounded[float32](3 * n)
	tans := NewBounded[float32](3 * n)
	tex := NewBounded[float32](2 * n)

	for i := range n {
		nv := normals[i].Normalize()
		if nv.LenSq() == 0 {
			diag.ZeroNormalVertices++
		}
		tv := tangents[i].Normalize()
		if tv.LenSq() == 0 {
			diag.ZeroTangentVertices++
		}

		p, uv := gr.positions[i], gr.uvs[i]
		if err := pushVec3(vertices, p); err != nil {
			return nil, fmt.Errorf("assemble vertex %d: %w", i, err)
		}
		if err := pushVec3(norms, nv); err != nil {
			return nil, fmt.Errorf("assemble normal %d: %w", i, err)
		}
		if err := pushVec3(tans, tv); err != nil {
			return nil, fmt.Errorf("assemble tangent %d: %w", i, err)
		}
		if err := tex.Push(float32(uv.X), float32(uv.Y)); err != nil {
			return nil, fmt.Errorf("assemble texcoord %d: %w", i, err)
		}
	}

	out := &Buffers{}
	var err error
	if out.Vertices, err = vertices.Collect(); err != nil {
		return nil, fmt.Errorf("assemble vertices: %w", err)
	}
	if out.Normals, err = norms.Collect(); err != nil {
		return nil, fmt.Errorf("assemble normals: %w", err)
	}
	if out.Tangents, err = tans.Collect(); err != nil {
		return nil, fmt.Errorf("assemble tangents: %w", err)
	}
	if out.TexCoords, err = tex.Collect(); err != nil {
		return nil, fmt.Errorf("assemble texcoords: %w", err)
	}
	return out, nil
}

func pushVec3(b *Bounded[float32], v math3d.Vec3) error {
	return b.Push(float32(v.X), float32(v.Y), float32(v.Z))
}
