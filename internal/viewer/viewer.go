// Package viewer holds the render context of the interactive surface
// viewer: the generated mesh, camera, rasterizer, rotation springs,
// texture set and the debounced regeneration trigger.
package viewer

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/hornview/internal/config"
	"github.com/taigrr/hornview/pkg/math3d"
	"github.com/taigrr/hornview/pkg/mesh"
	"github.com/taigrr/hornview/pkg/models"
	"github.com/taigrr/hornview/pkg/render"
	"github.com/taigrr/hornview/pkg/surface"
)

// Interactive control limits.
const (
	ScaleStep   = 0.01 // Scale change per wheel notch
	MinScale    = 0.005
	MaxScale    = 1.0
	MinTexScale = 0.125
	MaxTexScale = 64.0
	PivotStep   = 0.05
)

// Light orbit around the model, in world units.
const (
	lightRadius = 4.0
	lightHeight = -1.0
)

// Viewer is the render context. It is driven from a single goroutine.
type Viewer struct {
	cfg *config.Config
	log *zap.Logger

	gen  *mesh.Generator
	surf surface.Surface

	buffers   *mesh.Buffers
	model     *models.Mesh
	centering math3d.Mat4
	genTime   time.Duration

	camera *render.Camera
	fb     *render.Framebuffer
	raster *render.Rasterizer

	Rotation *RotationState
	textures *render.TextureSet
	texLog   bool

	uSteps, vSteps int
	scale          float64
	texScale       float64
	pivot          math3d.Vec2
	mode           render.ShadeMode
	lightAngle     float64
	baseColor      render.Color
	background     render.Color

	regen *Debouncer
}

// New creates a viewer and generates the initial mesh. A nil texture set
// uses the procedural maps. Call Resize before the first Frame.
func New(cfg *config.Config, log *zap.Logger, textures *render.TextureSet) (*Viewer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	// Validated above, so the parse errors are nil.
	surf, _ := surface.Lookup(cfg.Mesh.Surface)
	tangents, _ := mesh.ParseTangentMode(cfg.Mesh.Tangents)
	mode, _ := render.ParseShadeMode(cfg.Render.Mode)
	base, _ := render.ParseColor(cfg.Render.Color)
	bg, _ := render.ParseColor(cfg.Render.Background)

	if textures == nil {
		textures, _ = render.LoadTextureSet(context.Background(), render.TextureSources{}, nil)
	}

	camera := render.NewCamera()
	camera.SetFOV(cfg.Render.FOV * math.Pi / 180)
	camera.SetPosition(math3d.V3(0, 0, cfg.Render.CameraDistance))
	camera.LookAt(math3d.Zero3())

	v := &Viewer{
		cfg:        cfg,
		log:        log,
		gen:        mesh.NewGenerator(mesh.Options{Tangents: tangents}),
		surf:       surf,
		camera:     camera,
		Rotation:   NewRotationState(cfg.Render.FPS),
		textures:   textures,
		uSteps:     cfg.Mesh.USteps,
		vSteps:     cfg.Mesh.VSteps,
		scale:      cfg.Mesh.ScaleFactor,
		texScale:   cfg.Mesh.TexScale,
		pivot:      math3d.V2(cfg.Mesh.Pivot.U, cfg.Mesh.Pivot.V),
		mode:       mode,
		baseColor:  base,
		background: bg,
		regen:      NewDebouncer(cfg.Mesh.Debounce),
	}
	if err := v.Regenerate(); err != nil {
		return nil, err
	}
	return v, nil
}

// Regenerate rebuilds the mesh at the requested resolution. On failure
// the previous mesh stays in place.
func (v *Viewer) Regenerate() error {
	start := time.Now()
	b, err := v.gen.Generate(v.surf, v.uSteps, v.vSteps)
	if err != nil {
		v.log.Error("surface generation failed",
			zap.String("surface", v.surf.Name),
			zap.Int("u_steps", v.uSteps),
			zap.Int("v_steps", v.vSteps),
			zap.Error(err))
		return fmt.Errorf("generate %s %dx%d: %w", v.surf.Name, v.uSteps, v.vSteps, err)
	}
	m, err := models.FromBuffers(v.surf.Name, b)
	if err != nil {
		return err
	}

	v.buffers, v.model = b, m
	v.centering = math3d.Translate(m.Center().Negate())
	v.genTime = time.Since(start)

	v.log.Info("surface generated",
		zap.String("surface", v.surf.Name),
		zap.Int("u_steps", b.USteps),
		zap.Int("v_steps", b.VSteps),
		zap.Int("vertices", b.VertexCount()),
		zap.Int("triangles", b.TriangleCount()),
		zap.Int("bytes", b.ByteSize()),
		zap.Duration("took", v.genTime))
	if !b.Diagnostics.Clean() {
		v.log.Debug("degenerate geometry", zap.Stringer("diagnostics", b.Diagnostics))
	}
	return nil
}

// Resize replaces the framebuffer with a width x height one.
func (v *Viewer) Resize(width, height int) {
	v.fb = render.NewFramebuffer(width, height)
	v.raster = render.NewRasterizer(v.camera, v.fb)
	v.raster.TwoSided = v.cfg.Render.TwoSided
	if height > 0 {
		v.camera.SetAspectRatio(float64(width) / float64(height))
	}
}

// SetResolution requests a new grid resolution, clamped to
// [1, config.MaxSteps]. The mesh is rebuilt once requests stop for the
// debounce period.
func (v *Viewer) SetResolution(uSteps, vSteps int, now time.Time) {
	uSteps = min(max(uSteps, 1), config.MaxSteps)
	vSteps = min(max(vSteps, 1), config.MaxSteps)
	if uSteps == v.uSteps && vSteps == v.vSteps {
		return
	}
	v.uSteps, v.vSteps = uSteps, vSteps
	v.regen.Trigger(now)
}

// StepResolution changes the requested resolution by du, dv.
func (v *Viewer) StepResolution(du, dv int, now time.Time) {
	v.SetResolution(v.uSteps+du, v.vSteps+dv, now)
}

// AdjustScale changes the model scale. The mesh is not regenerated.
func (v *Viewer) AdjustScale(delta float64) {
	v.scale = min(max(v.scale+delta, MinScale), MaxScale)
}

// MultiplyTexScale scales the texture tiling factor.
func (v *Viewer) MultiplyTexScale(factor float64) {
	v.texScale = min(max(v.texScale*factor, MinTexScale), MaxTexScale)
}

// MovePivot moves the texture pivot, clamped to the unit square.
func (v *Viewer) MovePivot(du, dv float64) {
	v.pivot = v.pivot.Add(math3d.V2(du, dv)).Clamp(0, 1)
}

// CycleMode switches to the next shade mode.
func (v *Viewer) CycleMode() render.ShadeMode {
	v.mode = v.mode.Next()
	return v.mode
}

// Reset restores orientation, scale, texture placement and resolution
// from the config. A pending rebuild is dropped, and a mesh built at
// another resolution is rebuilt at once.
func (v *Viewer) Reset() {
	v.regen.Cancel()
	v.uSteps, v.vSteps = v.cfg.Mesh.USteps, v.cfg.Mesh.VSteps
	if v.buffers.USteps != v.uSteps || v.buffers.VSteps != v.vSteps {
		// Failures are logged and the current mesh is kept.
		_ = v.Regenerate()
	}
	v.Rotation.Reset()
	v.scale = v.cfg.Mesh.ScaleFactor
	v.texScale = v.cfg.Mesh.TexScale
	v.pivot = math3d.V2(v.cfg.Mesh.Pivot.U, v.cfg.Mesh.Pivot.V)
}

// Model returns the model transform: rotation, scale, then centering.
func (v *Viewer) Model() math3d.Mat4 {
	return v.Rotation.Matrix().
		Mul(math3d.ScaleUniform(v.scale)).
		Mul(v.centering)
}

// Light returns the orbiting point light.
func (v *Viewer) Light() render.Light {
	l := render.DefaultLight()
	l.Position = math3d.V3(
		lightRadius*math.Cos(v.lightAngle),
		lightHeight,
		lightRadius*math.Sin(v.lightAngle),
	)
	return l
}

// Material returns the current material.
func (v *Viewer) Material() render.Material {
	mat := v.textures.Material(v.baseColor, render.UVTransform{Scale: v.texScale, Pivot: v.pivot})
	if v.mode == render.ShadeWireframe {
		mat.Color = render.ColorGreen
	}
	return mat
}

// Tick runs per-frame updates that do not draw: the debounced
// regeneration, the rotation springs and the light orbit.
func (v *Viewer) Tick(now time.Time) {
	if v.regen.Ready(now) {
		// Errors are logged; the old mesh keeps drawing.
		_ = v.Regenerate()
	}
	v.logTextures()
	v.Rotation.Update()
	v.lightAngle = math.Mod(v.lightAngle+v.cfg.Render.LightSpeed, 2*math.Pi)
}

// Frame advances one frame and draws it into the framebuffer.
func (v *Viewer) Frame(now time.Time) {
	v.Tick(now)
	v.Draw()
}

// Draw renders the current state without advancing it.
func (v *Viewer) Draw() {
	if v.fb == nil {
		return
	}
	v.fb.Clear(v.background)
	v.raster.ClearDepth()
	v.raster.ResetStats()

	light := v.Light()
	v.raster.DrawMesh(v.model, v.Model(), v.mode, v.Material(), light)

	if x, y, _, ok := v.camera.WorldToScreen(light.Position, v.fb.Width, v.fb.Height); ok {
		v.fb.DrawRect(int(x)-1, int(y)-1, 3, 3, render.ColorGold)
	}
}

func (v *Viewer) logTextures() {
	if v.texLog || !v.textures.Ready() {
		return
	}
	v.texLog = true
	maps := []struct {
		name string
		tex  *render.AsyncTexture
	}{
		{"diffuse", v.textures.Diffuse},
		{"specular", v.textures.Specular},
		{"normal", v.textures.Normal},
	}
	for _, m := range maps {
		t := m.tex.Texture()
		if err := m.tex.Err(); err != nil {
			v.log.Warn("texture load failed, using default",
				zap.String("map", m.name), zap.Error(err))
			continue
		}
		v.log.Debug("texture ready",
			zap.String("map", m.name), zap.Int("width", t.Width), zap.Int("height", t.Height))
	}
}

// Framebuffer returns the current framebuffer, nil before Resize.
func (v *Viewer) Framebuffer() *render.Framebuffer { return v.fb }

// Buffers returns the generator output of the current mesh.
func (v *Viewer) Buffers() *mesh.Buffers { return v.buffers }

// Mesh returns the current renderable mesh.
func (v *Viewer) Mesh() *models.Mesh { return v.model }

// Surface returns the surface being sampled.
func (v *Viewer) Surface() surface.Surface { return v.surf }

// Status is a snapshot of viewer state for display.
type Status struct {
	Surface        string
	USteps, VSteps int // Current mesh
	WantU, WantV   int // Requested, differs while a rebuild is pending
	Pending        bool
	Vertices       int
	Triangles      int
	GenTime        time.Duration
	Diagnostics    mesh.Diagnostics
	Mode           render.ShadeMode
	Scale          float64
	TexScale       float64
	Pivot          math3d.Vec2
	TexturesReady  bool
	Stats          render.FrameStats
}

// Status returns the current state.
func (v *Viewer) Status() Status {
	st := Status{
		Surface:       v.surf.Name,
		USteps:        v.buffers.USteps,
		VSteps:        v.buffers.VSteps,
		WantU:         v.uSteps,
		WantV:         v.vSteps,
		Pending:       v.regen.Pending(),
		Vertices:      v.buffers.VertexCount(),
		Triangles:     v.buffers.TriangleCount(),
		GenTime:       v.genTime,
		Diagnostics:   v.buffers.Diagnostics,
		Mode:          v.mode,
		Scale:         v.scale,
		TexScale:      v.texScale,
		Pivot:         v.pivot,
		TexturesReady: v.textures.Ready(),
	}
	if v.raster != nil {
		st.Stats = v.raster.Stats
	}
	return st
}
