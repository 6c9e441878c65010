package models

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/mesh"
	"github.com/taigrr/hornview/pkg/surface"
)

func TestLoadInvalidPath(t *testing.T) {
	_, err := Load("/nonexistent/path.glb")
	if err == nil {
		t.Error("Expected error for nonexistent file")
	}
}

func TestExportGLBRoundTrip(t *testing.T) {
	tests := []struct {
		name           string
		uSteps, vSteps int
	}{
		{"minimal", 1, 1},
		{"horn", 24, 18},
		// Too many vertices for 16-bit indices.
		{"wide indices", 300, 220},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := mesh.Generate(surface.HornEq, tt.uSteps, tt.vSteps)
			if err != nil {
				t.Fatal(err)
			}
			path := filepath.Join(t.TempDir(), "horn.glb")
			if err := ExportGLB(path, "horn", b); err != nil {
				t.Fatalf("ExportGLB: %v", err)
			}

			m, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if m.VertexCount() != b.VertexCount() {
				t.Errorf("VertexCount() = %d, want %d", m.VertexCount(), b.VertexCount())
			}
			if m.TriangleCount() != b.TriangleCount() {
				t.Errorf("TriangleCount() = %d, want %d", m.TriangleCount(), b.TriangleCount())
			}

			want, err := FromBuffers("horn", b)
			if err != nil {
				t.Fatal(err)
			}
			for _, i := range []int{0, 1, b.VertexCount() / 2, b.VertexCount() - 1} {
				got, exp := m.Vertices[i], want.Vertices[i]
				if !got.Position.ApproxEqual(exp.Position, 1e-5) {
					t.Errorf("vertex %d position = %v, want %v", i, got.Position, exp.Position)
				}
				// Degenerate vertices are filled on export.
				if exp.Normal.LenSq() > 0 && !got.Normal.ApproxEqual(exp.Normal, 1e-6) {
					t.Errorf("vertex %d normal = %v, want %v", i, got.Normal, exp.Normal)
				}
				if exp.Tangent.Vec3().LenSq() > 0 && got.Tangent != exp.Tangent {
					t.Errorf("vertex %d tangent = %v, want %v", i, got.Tangent, exp.Tangent)
				}
				if math.Abs(got.UV.X-exp.UV.X) > 1e-6 || math.Abs(got.UV.Y-exp.UV.Y) > 1e-6 {
					t.Errorf("vertex %d uv = %v, want %v", i, got.UV, exp.UV)
				}
			}
			for f := range want.Faces {
				if m.Faces[f] != want.Faces[f] {
					t.Fatalf("face %d = %v, want %v", f, m.Faces[f], want.Faces[f])
				}
			}
		})
	}
}

func TestExportFillsDegenerateFrames(t *testing.T) {
	tests := []struct {
		name           string
		uSteps, vSteps int
	}{
		{"horn apex", 12, 8},
		// Every face collapses, so nothing can be borrowed.
		{"fully degenerate", 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := mesh.Generate(surface.HornEq, tt.uSteps, tt.vSteps)
			if err != nil {
				t.Fatal(err)
			}
			if b.Diagnostics.ZeroNormalVertices == 0 {
				t.Fatal("horn should have a degenerate apex")
			}
			path := filepath.Join(t.TempDir(), "horn.glb")
			if err := ExportGLB(path, "horn", b); err != nil {
				t.Fatalf("ExportGLB: %v", err)
			}
			m, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}

			for i, vert := range m.Vertices {
				n, tan := vert.Normal, vert.Tangent.Vec3()
				if math.Abs(n.Len()-1) > 1e-5 {
					t.Fatalf("vertex %d normal length = %v, want 1", i, n.Len())
				}
				if math.Abs(tan.Len()-1) > 1e-5 {
					t.Fatalf("vertex %d tangent length = %v, want 1", i, tan.Len())
				}
				if b.Tangent(i).LenSq() == 0 && math.Abs(n.Dot(tan)) > 1e-5 {
					t.Errorf("filled vertex %d: tangent not perpendicular to normal", i)
				}
			}
		})
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	b, err := mesh.Generate(surface.DiskEq, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	b.Indices[0] = 1000
	if _, err := Encode("bad", b); err == nil {
		t.Error("Encode accepted out of range index")
	}
}

func TestEncodeDocument(t *testing.T) {
	b, err := mesh.Generate(surface.HornEq, 4, 4)
	if err != nil {
		t.Fatal(err)
	}
	doc, err := Encode("horn", b)
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Meshes) != 1 || len(doc.Meshes[0].Primitives) != 1 {
		t.Fatalf("got %d meshes", len(doc.Meshes))
	}
	attrs := doc.Meshes[0].Primitives[0].Attributes
	for _, name := range []string{"POSITION", "NORMAL", "TANGENT", "TEXCOORD_0"} {
		if _, ok := attrs[name]; !ok {
			t.Errorf("missing attribute %s", name)
		}
	}
	if len(doc.Nodes) != 1 || doc.Nodes[0].Mesh == nil || len(doc.Scenes[0].Nodes) != 1 {
		t.Error("mesh not attached to the scene")
	}
}

func TestFromBuffers(t *testing.T) {
	b, err := mesh.Generate(surface.DiskEq, 4, 2)
	if err != nil {
		t.Fatal(err)
	}
	m, err := FromBuffers("disk", b)
	if err != nil {
		t.Fatal(err)
	}
	if m.VertexCount() != 15 || m.TriangleCount() != 16 {
		t.Fatalf("got %d vertices, %d faces", m.VertexCount(), m.TriangleCount())
	}
	if w := m.GetTangent(7).W; w != mesh.Handedness {
		t.Errorf("tangent w = %v, want %v", w, mesh.Handedness)
	}

	minB, maxB := m.GetBounds()
	if !minB.ApproxEqual(math3d.V3(-36, -36, 0), 1e-4) || !maxB.ApproxEqual(math3d.V3(36, 36, 0), 1e-4) {
		t.Errorf("bounds = %v .. %v", minB, maxB)
	}
	if c := m.Center(); !c.ApproxEqual(math3d.Vec3{}, 1e-4) {
		t.Errorf("Center() = %v", c)
	}
	if s := m.Size(); math.Abs(s.X-72) > 1e-4 {
		t.Errorf("Size() = %v", s)
	}

	b.Normals = b.Normals[:3]
	if _, err := FromBuffers("broken", b); err == nil {
		t.Error("FromBuffers accepted broken buffers")
	}
}
