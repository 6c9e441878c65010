package render

import (
	"fmt"
	"math"

	"github.com/taigrr/hornview/pkg/math3d"
)

// ShadeMode selects how DrawMesh shades triangles.
type ShadeMode int

const (
	ShadeNormalMapped ShadeMode = iota // Per-pixel lighting through the tangent frame
	ShadeTextured                      // Diffuse and specular maps, per-vertex lighting
	ShadeGouraud                       // Base color, per-vertex lighting
	ShadeWireframe                     // Triangle edges only
)

var shadeModeNames = [...]string{"normal-mapped", "textured", "gouraud", "wireframe"}

func (m ShadeMode) String() string {
	if m < 0 || int(m) >= len(shadeModeNames) {
		return fmt.Sprintf("ShadeMode(%d)", int(m))
	}
	return shadeModeNames[m]
}

// Next cycles to the following mode.
func (m ShadeMode) Next() ShadeMode {
	return (m + 1) % ShadeMode(len(shadeModeNames))
}

// ParseShadeMode parses a mode name as returned by String.
func ParseShadeMode(s string) (ShadeMode, error) {
	for i, name := range shadeModeNames {
		if s == name {
			return ShadeMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown shade mode %q", s)
}

// Light is a point light with Phong reflection coefficients.
type Light struct {
	Position  math3d.Vec3
	Ambient   float64
	Diffuse   float64
	Specular  float64
	Shininess float64
}

// DefaultLight returns a light with Ka=0.2, Kd=0.7, Ks=0.5 and shininess 15.
func DefaultLight() Light {
	return Light{
		Position:  math3d.V3(4, -1, 0),
		Ambient:   0.2,
		Diffuse:   0.7,
		Specular:  0.5,
		Shininess: 15,
	}
}

// phong returns the diffuse and specular terms for unit normal n at pos.
func (l Light) phong(n, pos, eye math3d.Vec3) (diffuse, specular float64) {
	toLight := l.Position.Sub(pos).Normalize()
	d := n.Dot(toLight)
	if d <= 0 {
		return 0, 0
	}
	toEye := eye.Sub(pos).Normalize()
	r := toLight.Negate().Reflect(n)
	s := math.Pow(math.Max(0, r.Dot(toEye)), l.Shininess)
	return l.Diffuse * d, l.Specular * s
}

// UVTransform tiles texture coordinates around a pivot:
// uv' = (uv - Pivot) * Scale + Pivot. A zero Scale leaves uv unchanged.
type UVTransform struct {
	Scale float64
	Pivot math3d.Vec2
}

// Apply transforms uv.
func (t UVTransform) Apply(uv math3d.Vec2) math3d.Vec2 {
	if t.Scale == 0 {
		return uv
	}
	return uv.Sub(t.Pivot).Scale(t.Scale).Add(t.Pivot)
}

// Material describes surface appearance. Nil maps fall back to Color.
type Material struct {
	Color    Color
	Diffuse  *Texture
	Specular *Texture
	Normal   *Texture
	UV       UVTransform
}

// MeshRenderer is the read-only mesh view the rasterizer draws.
type MeshRenderer interface {
	VertexCount() int
	TriangleCount() int
	GetVertex(i int) (pos, normal math3d.Vec3, uv math3d.Vec2)
	GetFace(i int) [3]int
}

// TangentMeshRenderer adds per-vertex tangents (W = bitangent sign).
type TangentMeshRenderer interface {
	MeshRenderer
	GetTangent(i int) math3d.Vec4
}

// BoundedMeshRenderer adds bounds for frustum culling.
type BoundedMeshRenderer interface {
	MeshRenderer
	GetBounds() (min, max math3d.Vec3)
}

// FrameStats counts rasterizer work since the last ResetStats.
type FrameStats struct {
	Triangles      int // Triangles submitted
	Drawn          int // Triangles rasterized
	BackfaceCulled int // Rejected as back-facing
	Clipped        int // Rejected for crossing the camera plane
	MeshesCulled   int // Meshes rejected by the frustum
}

// Rasterizer handles software triangle rasterization.
// Front faces are counter-clockwise.
type Rasterizer struct {
	camera  *Camera
	fb      *Framebuffer
	zbuffer []float64
	verts   []worldVertex

	Stats FrameStats
	// TwoSided draws back faces lit with the flipped normal.
	TwoSided bool
}

// NewRasterizer creates a new rasterizer.
func NewRasterizer(camera *Camera, fb *Framebuffer) *Rasterizer {
	r := &Rasterizer{camera: camera, fb: fb}
	r.Resize()
	return r
}

// Resize resizes the depth buffer to match the framebuffer.
func (r *Rasterizer) Resize() {
	if r.fb == nil {
		r.zbuffer = nil
		return
	}
	r.zbuffer = make([]float64, r.fb.Width*r.fb.Height)
}

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// ClearDepth clears the Z-buffer (call before each frame).
func (r *Rasterizer) ClearDepth() {
	n := len(r.zbuffer)
	if n == 0 {
		return
	}
	r.zbuffer[0] = math.MaxFloat64
	for i := 1; i < n; i *= 2 {
		copy(r.zbuffer[i:], r.zbuffer[:i])
	}
}

// ResetStats zeroes the frame statistics.
func (r *Rasterizer) ResetStats() {
	r.Stats = FrameStats{}
}

// IsVisible tests a world-space box against the camera frustum.
func (r *Rasterizer) IsVisible(box AABB) bool {
	return r.camera.Frustum().IntersectAABB(box)
}

type worldVertex struct {
	pos     math3d.Vec3
	normal  math3d.Vec3
	tangent math3d.Vec3
	sign    float64
	uv      math3d.Vec2
	clip    math3d.Vec4
}

const maxVaryings = 12

type varyings [maxVaryings]float64

// shader computes interpolated attributes per vertex and a color per pixel.
type shader struct {
	n        int
	vertex   func(v *worldVertex, back bool, out *varyings)
	fragment func(in *varyings, back bool) Color
}

// DrawMesh renders mesh with the given model transform.
// ShadeNormalMapped falls back to ShadeTextured without tangents or a normal map.
func (r *Rasterizer) DrawMesh(mesh MeshRenderer, transform math3d.Mat4, mode ShadeMode, mat Material, light Light) {
	if bounded, ok := mesh.(BoundedMeshRenderer); ok {
		lo, hi := bounded.GetBounds()
		if !r.IsVisible(AABB{Min: lo, Max: hi}.Transform(transform)) {
			r.Stats.MeshesCulled++
			return
		}
	}

	tm, hasTangents := mesh.(TangentMeshRenderer)
	if mode == ShadeNormalMapped && (!hasTangents || mat.Normal == nil) {
		mode = ShadeTextured
	}

	viewProj := r.camera.ViewProjectionMatrix()
	normalMat := transform.NormalMatrix()

	n := mesh.VertexCount()
	if cap(r.verts) < n {
		r.verts = make([]worldVertex, n)
	}
	verts := r.verts[:n]
	for i := range verts {
		pos, normal, uv := mesh.GetVertex(i)
		v := &verts[i]
		v.pos = transform.MulVec3(pos)
		v.normal = normalMat.MulVec3Dir(normal).Normalize()
		v.uv = mat.UV.Apply(uv)
		v.clip = viewProj.MulVec4(math3d.V4FromV3(v.pos, 1))
		if hasTangents {
			t := tm.GetTangent(i)
			v.tangent = transform.MulVec3Dir(t.Vec3()).Normalize()
			v.sign = t.W
		}
	}

	var sh shader
	switch mode {
	case ShadeWireframe:
		for f := range mesh.TriangleCount() {
			face := mesh.GetFace(f)
			r.Stats.Triangles++
			r.drawLine(&verts[face[0]], &verts[face[1]], mat.Color)
			r.drawLine(&verts[face[1]], &verts[face[2]], mat.Color)
			r.drawLine(&verts[face[2]], &verts[face[0]], mat.Color)
		}
		return
	case ShadeNormalMapped:
		sh = r.normalMappedShader(mat, light)
	case ShadeTextured:
		sh = r.texturedShader(mat, light)
	default:
		sh = r.gouraudShader(mat, light)
	}

	for f := range mesh.TriangleCount() {
		face := mesh.GetFace(f)
		r.Stats.Triangles++
		r.drawTriangle([3]*worldVertex{&verts[face[0]], &verts[face[1]], &verts[face[2]]}, &sh)
	}
}

func (r *Rasterizer) gouraudShader(mat Material, light Light) shader {
	eye := r.camera.Position
	return shader{
		n: 2,
		vertex: func(v *worldVertex, back bool, out *varyings) {
			n := v.normal
			if back {
				n = n.Negate()
			}
			d, s := light.phong(n, v.pos, eye)
			out[0] = light.Ambient + d
			out[1] = s
		},
		fragment: func(in *varyings, _ bool) Color {
			c := MultiplyColor(mat.Color, in[0])
			return AddColor(c, MultiplyColor(ColorWhite, in[1]))
		},
	}
}

func (r *Rasterizer) texturedShader(mat Material, light Light) shader {
	eye := r.camera.Position
	return shader{
		n: 4,
		vertex: func(v *worldVertex, back bool, out *varyings) {
			n := v.normal
			if back {
				n = n.Negate()
			}
			d, s := light.phong(n, v.pos, eye)
			out[0] = light.Ambient + d
			out[1] = s
			out[2], out[3] = v.uv.X, v.uv.Y
		},
		fragment: func(in *varyings, _ bool) Color {
			base := sampleOr(mat.Diffuse, in[2], in[3], mat.Color)
			spec := sampleOr(mat.Specular, in[2], in[3], ColorWhite)
			return AddColor(MultiplyColor(base, in[0]), MultiplyColor(spec, in[1]))
		},
	}
}

func (r *Rasterizer) normalMappedShader(mat Material, light Light) shader {
	eye := r.camera.Position
	return shader{
		n: 12,
		vertex: func(v *worldVertex, back bool, out *varyings) {
			n := v.normal
			if back {
				n = n.Negate()
			}
			out[0], out[1], out[2] = v.pos.X, v.pos.Y, v.pos.Z
			out[3], out[4], out[5] = n.X, n.Y, n.Z
			out[6], out[7], out[8] = v.tangent.X, v.tangent.Y, v.tangent.Z
			out[9] = v.sign
			out[10], out[11] = v.uv.X, v.uv.Y
		},
		fragment: func(in *varyings, _ bool) Color {
			pos := math3d.V3(in[0], in[1], in[2])
			n := math3d.V3(in[3], in[4], in[5]).Normalize()
			t := math3d.V3(in[6], in[7], in[8])
			u, v := in[10], in[11]

			// Gram-Schmidt; a vanishing tangent leaves the geometric normal.
			t = t.Sub(n.Scale(n.Dot(t))).Normalize()
			if t.LenSq() > 0 {
				sign := 1.0
				if in[9] < 0 {
					sign = -1
				}
				b := n.Cross(t).Scale(sign)
				m := DecodeNormal(mat.Normal.Sample(u, v))
				n = t.Scale(m.X).Add(b.Scale(m.Y)).Add(n.Scale(m.Z)).Normalize()
			}

			d, s := light.phong(n, pos, eye)
			base := sampleOr(mat.Diffuse, u, v, mat.Color)
			spec := sampleOr(mat.Specular, u, v, ColorWhite)
			return AddColor(MultiplyColor(base, light.Ambient+d), MultiplyColor(spec, s))
		},
	}
}

func sampleOr(tex *Texture, u, v float64, fallback Color) Color {
	if tex == nil {
		return fallback
	}
	return tex.Sample(u, v)
}

// clipEpsilon rejects vertices at or behind the camera plane.
const clipEpsilon = 1e-6

func (r *Rasterizer) drawTriangle(tri [3]*worldVertex, sh *shader) {
	var sx, sy, sz, invW [3]float64
	for i, v := range tri {
		if v.clip.W <= clipEpsilon {
			r.Stats.Clipped++
			return
		}
		invW[i] = 1 / v.clip.W
		sx[i] = (v.clip.X*invW[i] + 1) * 0.5 * float64(r.Width())
		sy[i] = (1 - v.clip.Y*invW[i]) * 0.5 * float64(r.Height()) // Y flipped
		sz[i] = v.clip.Z * invW[i]
	}

	area := edge(sx[0], sy[0], sx[1], sy[1], sx[2], sy[2])
	if area == 0 {
		return
	}
	// Screen Y points down, so counter-clockwise front faces have negative area.
	back := area > 0
	if back && !r.TwoSided {
		r.Stats.BackfaceCulled++
		return
	}

	var vary [3]varyings
	for i, v := range tri {
		sh.vertex(v, back, &vary[i])
		for k := range sh.n {
			vary[i][k] *= invW[i]
		}
	}

	minX := max(0, int(math.Floor(min(sx[0], sx[1], sx[2]))))
	maxX := min(r.Width()-1, int(math.Ceil(max(sx[0], sx[1], sx[2]))))
	minY := max(0, int(math.Floor(min(sy[0], sy[1], sy[2]))))
	maxY := min(r.Height()-1, int(math.Ceil(max(sy[0], sy[1], sy[2]))))

	invArea := 1 / area
	var in varyings
	drawn := false
	for y := minY; y <= maxY; y++ {
		py := float64(y) + 0.5
		for x := minX; x <= maxX; x++ {
			px := float64(x) + 0.5

			b0 := edge(sx[1], sy[1], sx[2], sy[2], px, py) * invArea
			b1 := edge(sx[2], sy[2], sx[0], sy[0], px, py) * invArea
			b2 := 1 - b0 - b1
			if b0 < 0 || b1 < 0 || b2 < 0 {
				continue
			}

			z := b0*sz[0] + b1*sz[1] + b2*sz[2]
			if z < -1 || z > 1 {
				continue
			}
			zi := y*r.fb.Width + x
			if z >= r.zbuffer[zi] {
				continue
			}

			// Perspective-correct interpolation
			w0, w1, w2 := b0*invW[0], b1*invW[1], b2*invW[2]
			oneOverW := w0 + w1 + w2
			if oneOverW == 0 {
				continue
			}
			for k := range sh.n {
				in[k] = (b0*vary[0][k] + b1*vary[1][k] + b2*vary[2][k]) / oneOverW
			}

			r.zbuffer[zi] = z
			r.fb.SetPixel(x, y, sh.fragment(&in, back))
			drawn = true
		}
	}
	if drawn {
		r.Stats.Drawn++
	}
}

// edge is twice the signed area of (a, b, p) in screen space.
func edge(ax, ay, bx, by, px, py float64) float64 {
	return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
}

func (r *Rasterizer) drawLine(a, b *worldVertex, c Color) {
	if a.clip.W <= clipEpsilon || b.clip.W <= clipEpsilon {
		return
	}
	toScreen := func(p math3d.Vec4) (int, int) {
		x := (p.X/p.W + 1) * 0.5 * float64(r.Width())
		y := (1 - p.Y/p.W) * 0.5 * float64(r.Height())
		return int(x), int(y)
	}
	x0, y0 := toScreen(a.clip)
	x1, y1 := toScreen(b.clip)
	r.fb.DrawLine(x0, y0, x1, y1, c)
}
