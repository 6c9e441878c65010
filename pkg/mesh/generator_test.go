package mesh

import (
	"errors"
	"math"
	"slices"
	"testing"

	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/surface"
)

const testTolerance = 1e-5

func TestGenerateCounts(t *testing.T) {
	tests := []struct {
		name           string
		uSteps, vSteps int
	}{
		{"minimal", 1, 1},
		{"small square", 2, 2},
		{"disk scenario", 4, 1},
		{"wide", 17, 3},
		{"tall", 3, 29},
		{"default", 50, 50},
		{"max ui", 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Generate(surface.HornEq, tt.uSteps, tt.vSteps)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			n := (tt.uSteps + 1) * (tt.vSteps + 1)
			if len(b.Vertices) != 3*n {
				t.Errorf("len(Vertices) = %d, want %d", len(b.Vertices), 3*n)
			}
			if len(b.Normals) != 3*n || len(b.Tangents) != 3*n {
				t.Errorf("len(Normals) = %d, len(Tangents) = %d, want %d", len(b.Normals), len(b.Tangents), 3*n)
			}
			if len(b.TexCoords) != 2*n {
				t.Errorf("len(TexCoords) = %d, want %d", len(b.TexCoords), 2*n)
			}
			if want := 6 * tt.uSteps * tt.vSteps; len(b.Indices) != want {
				t.Errorf("len(Indices) = %d, want %d", len(b.Indices), want)
			}
			for k, idx := range b.Indices {
				if int(idx) >= n {
					t.Fatalf("Indices[%d] = %d, want < %d", k, idx, n)
				}
			}
			if err := b.Validate(); err != nil {
				t.Errorf("Validate: %v", err)
			}
		})
	}
}

func TestGenerateInvalidResolution(t *testing.T) {
	tests := []struct {
		name           string
		uSteps, vSteps int
	}{
		{"zero u", 0, 5},
		{"zero v", 5, 0},
		{"negative", -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(surface.HornEq, tt.uSteps, tt.vSteps)
			if !errors.Is(err, ErrInvalidResolution) {
				t.Errorf("Generate(%d, %d) error = %v, want ErrInvalidResolution", tt.uSteps, tt.vSteps, err)
			}
		})
	}
}

func TestGenerateTooManyVertices(t *testing.T) {
	_, err := Generate(surface.HornEq, 1<<20, 1<<20)
	if !errors.Is(err, ErrTooManyVertices) {
		t.Errorf("error = %v, want ErrTooManyVertices", err)
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	g := NewGenerator(Options{})
	if _, err := g.Generate(surface.Surface{Domain: surface.DefaultDomain()}, 2, 2); err == nil {
		t.Error("nil equation accepted")
	}
	if _, err := g.Generate(surface.Surface{Eq: surface.DiskEq}, 2, 2); err == nil {
		t.Error("zero domain accepted")
	}

	nan := func(u, v float64) math3d.Vec3 {
		if v > 10 {
			return math3d.V3(math.NaN(), 0, 0)
		}
		return math3d.V3(u, v, 0)
	}
	if _, err := Generate(nan, 4, 4); !errors.Is(err, ErrNonFinitePosition) {
		t.Errorf("NaN equation error = %v, want ErrNonFinitePosition", err)
	}
}

func TestGridIndexingLaw(t *testing.T) {
	const uSteps, vSteps = 2, 2
	var calls []math3d.Vec2
	record := func(u, v float64) math3d.Vec3 {
		calls = append(calls, math3d.V2(u, v))
		return math3d.V3(u, v, 0)
	}
	b, err := Generate(record, uSteps, vSteps)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.VertexCount() != 9 || b.TriangleCount() != 8 || len(b.Indices) != 24 {
		t.Fatalf("got %d vertices, %d triangles, %d indices", b.VertexCount(), b.TriangleCount(), len(b.Indices))
	}

	du, dv := 2*math.Pi/uSteps, float64(surface.HornVMax)/vSteps
	for i := 0; i <= vSteps; i++ {
		for j := 0; j <= uSteps; j++ {
			k := i*(uSteps+1) + j
			want := math3d.V3(float64(j)*du, float64(i)*dv, 0)
			if got := b.Position(k); !got.ApproxEqual(want, 1e-5) {
				t.Errorf("vertex %d (row %d col %d) = %v, want %v", k, i, j, got, want)
			}
			wantUV := math3d.V2(float64(j)/uSteps, float64(i)/vSteps)
			if got := b.TexCoord(k); math.Abs(got.X-wantUV.X) > 1e-6 || math.Abs(got.Y-wantUV.Y) > 1e-6 {
				t.Errorf("texcoord %d = %v, want %v", k, got, wantUV)
			}
		}
	}
	if len(calls) != 9 {
		t.Errorf("equation evaluated %d times, want 9", len(calls))
	}

	want := []uint32{
		0, 3, 1, 1, 3, 4,
		1, 4, 2, 2, 4, 5,
		3, 6, 4, 4, 6, 7,
		4, 7, 5, 5, 7, 8,
	}
	if !slices.Equal(b.Indices, want) {
		t.Errorf("Indices = %v, want %v", b.Indices, want)
	}
}

func TestMinimalMesh(t *testing.T) {
	b, err := Generate(surface.DiskEq, 1, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.VertexCount() != 4 || b.TriangleCount() != 2 || len(b.Indices) != 6 {
		t.Errorf("got %d vertices, %d triangles, %d indices", b.VertexCount(), b.TriangleCount(), len(b.Indices))
	}
	if !slices.Equal(b.Indices, []uint32{0, 2, 1, 1, 2, 3}) {
		t.Errorf("Indices = %v", b.Indices)
	}
}

func TestTexCoordCorners(t *testing.T) {
	for _, res := range [][2]int{{1, 1}, {4, 1}, {7, 13}, {100, 3}} {
		b, err := Generate(surface.HornEq, res[0], res[1])
		if err != nil {
			t.Fatalf("Generate%v: %v", res, err)
		}
		if got := b.TexCoord(0); got != math3d.V2(0, 0) {
			t.Errorf("%v: first texcoord = %v, want (0, 0)", res, got)
		}
		if got := b.TexCoord(b.VertexCount() - 1); got != math3d.V2(1, 1) {
			t.Errorf("%v: last texcoord = %v, want (1, 1)", res, got)
		}
	}
}

func TestDiskNormals(t *testing.T) {
	b, err := Generate(surface.DiskEq, 4, 1)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if b.VertexCount() != 10 || b.TriangleCount() != 8 || len(b.Indices) != 24 {
		t.Fatalf("got %d vertices, %d triangles", b.VertexCount(), b.TriangleCount())
	}

	// Every vertex of the center row coincides, so the first triangle of
	// each cell collapses and vertex 0 touches nothing else.
	if b.Diagnostics.DegenerateNormalFaces != 4 {
		t.Errorf("DegenerateNormalFaces = %d, want 4", b.Diagnostics.DegenerateNormalFaces)
	}
	if b.Diagnostics.ZeroNormalVertices != 1 || b.Normal(0) != (math3d.Vec3{}) {
		t.Errorf("vertex 0 normal = %v, diagnostics %v", b.Normal(0), b.Diagnostics)
	}

	for i := 1; i < b.VertexCount(); i++ {
		n := b.Normal(i)
		if !n.ApproxEqual(math3d.V3(0, 0, 1), testTolerance) {
			t.Errorf("normal %d = %v, want (0, 0, 1)", i, n)
		}
	}
}

func TestDiskFaceWinding(t *testing.T) {
	b, err := Generate(surface.DiskEq, 8, 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for f := range b.TriangleCount() {
		tri := b.Triangle(f)
		p0, p1, p2 := b.Position(int(tri[0])), b.Position(int(tri[1])), b.Position(int(tri[2]))
		n := p1.Sub(p0).Cross(p2.Sub(p0))
		if n.LenSq() < 1e-12 {
			continue
		}
		if n.Normalize().Z < 1-testTolerance {
			t.Errorf("face %d normal = %v, want +z", f, n.Normalize())
		}
	}
}

func TestUnitLength(t *testing.T) {
	surfaces := []surface.Surface{surface.Horn(), surface.Disk(), surface.Plane()}
	for _, s := range surfaces {
		for _, res := range [][2]int{{3, 3}, {50, 50}, {100, 7}} {
			b, err := NewGenerator(Options{}).Generate(s, res[0], res[1])
			if err != nil {
				t.Fatalf("%s %v: %v", s.Name, res, err)
			}
			zeroN, zeroT := 0, 0
			for i := range b.VertexCount() {
				n, tan := b.Normal(i), b.Tangent(i)
				switch l := n.Len(); {
				case l == 0:
					zeroN++
				case math.Abs(l-1) > testTolerance:
					t.Errorf("%s %v: |normal %d| = %v", s.Name, res, i, l)
				}
				switch l := tan.Len(); {
				case l == 0:
					zeroT++
				case math.Abs(l-1) > testTolerance:
					t.Errorf("%s %v: |tangent %d| = %v", s.Name, res, i, l)
				}
			}
			if zeroN != b.Diagnostics.ZeroNormalVertices || zeroT != b.Diagnostics.ZeroTangentVertices {
				t.Errorf("%s %v: zero vectors %d/%d, diagnostics %v", s.Name, res, zeroN, zeroT, b.Diagnostics)
			}
			if s.Name == "plane" && !b.Diagnostics.Clean() {
				t.Errorf("plane diagnostics = %v, want clean", b.Diagnostics)
			}
		}
	}
}

func TestTangentFrame(t *testing.T) {
	b, err := Generate(surface.DiskEq, 12, 4)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range b.VertexCount() {
		n, tan := b.Normal(i), b.Tangent(i)
		if n.LenSq() == 0 || tan.LenSq() == 0 {
			continue
		}
		if d := n.Dot(tan); math.Abs(d) > testTolerance {
			t.Errorf("vertex %d: normal . tangent = %v", i, d)
		}
		// Increasing u moves counterclockwise around the disk.
		p := b.Position(i)
		if p.LenSq() == 0 {
			continue
		}
		ccw := math3d.V3(-p.Y, p.X, 0).Normalize()
		if tan.Dot(ccw) < 0.9 {
			t.Errorf("vertex %d: tangent %v does not follow increasing u %v", i, tan, ccw)
		}
	}
}

func TestPlaneHandedness(t *testing.T) {
	b, err := NewGenerator(Options{}).Generate(surface.Plane(), 3, 3)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := range b.VertexCount() {
		n, tan := b.Normal(i), b.Tangent(i)
		if !tan.ApproxEqual(math3d.V3(1, 0, 0), testTolerance) {
			t.Errorf("tangent %d = %v, want +x", i, tan)
		}
		bitangent := n.Cross(tan).Scale(Handedness)
		if !bitangent.ApproxEqual(math3d.V3(0, 1, 0), testTolerance) {
			t.Errorf("bitangent %d = %v, want +v direction", i, bitangent)
		}
	}
}

func TestIdempotent(t *testing.T) {
	a, err := Generate(surface.HornEq, 23, 31)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Generate(surface.HornEq, 23, 31)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(a.Vertices, b.Vertices) ||
		!slices.Equal(a.Indices, b.Indices) ||
		!slices.Equal(a.Normals, b.Normals) ||
		!slices.Equal(a.Tangents, b.Tangents) ||
		!slices.Equal(a.TexCoords, b.TexCoords) {
		t.Error("repeated generation produced different buffers")
	}
	if &a.Vertices[0] == &b.Vertices[0] {
		t.Error("buffers shared between calls")
	}
}

func TestLastFaceTangents(t *testing.T) {
	sum, err := NewGenerator(Options{Tangents: TangentSum}).Generate(surface.Horn(), 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	last, err := NewGenerator(Options{Tangents: TangentLastFace}).Generate(surface.Horn(), 10, 10)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(sum.Normals, last.Normals) {
		t.Error("tangent mode changed normals")
	}
	// Interior vertex at row 5, column 5.
	i := 5*11 + 5
	if sum.Tangent(i).ApproxEqual(last.Tangent(i), 1e-6) {
		t.Errorf("tangent %d identical in both modes: %v", i, sum.Tangent(i))
	}
	if l := last.Tangent(i).Len(); math.Abs(l-1) > testTolerance {
		t.Errorf("last-face tangent length = %v", l)
	}
}

func TestParseTangentMode(t *testing.T) {
	tests := []struct {
		in      string
		want    TangentMode
		wantErr bool
	}{
		{"", TangentSum, false},
		{"sum", TangentSum, false},
		{"last-face", TangentLastFace, false},
		{"average", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTangentMode(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !tt.wantErr && tt.in != "" && got.String() != tt.in {
				t.Errorf("String() = %q", got.String())
			}
		})
	}
}

func TestComputeFaceDegenerate(t *testing.T) {
	p := math3d.V3(1, 2, 3)
	uv := math3d.V2(0.5, 0.5)

	f := computeFace(p, p, p, math3d.V2(0, 0), math3d.V2(0, 1), math3d.V2(1, 0))
	if f.normalOK || f.tangentOK || f.normal != (math3d.Vec3{}) || f.tangent != (math3d.Vec3{}) {
		t.Errorf("collapsed face = %+v, want zero vectors", f)
	}

	f = computeFace(math3d.V3(0, 0, 0), math3d.V3(0, 1, 0), math3d.V3(1, 0, 0), uv, uv, uv)
	if !f.normalOK {
		t.Error("valid geometry reported degenerate normal")
	}
	if f.tangentOK || f.tangent != (math3d.Vec3{}) {
		t.Errorf("duplicate uvs tangent = %v, want zero", f.tangent)
	}
}
