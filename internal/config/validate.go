package config

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/taigrr/hornview/pkg/mesh"
	"github.com/taigrr/hornview/pkg/render"
	"github.com/taigrr/hornview/pkg/surface"
)

// ErrInvalid is wrapped by every validation problem.
var ErrInvalid = errors.New("invalid config")

// MaxSteps bounds the interactive resolution per parameter.
const MaxSteps = 100

var logLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Validate reports every problem in the config, combined.
func (c *Config) Validate() error {
	var err error
	bad := func(format string, args ...any) {
		err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	m := c.Mesh
	if _, lerr := surface.Lookup(m.Surface); lerr != nil {
		bad("mesh.surface: %v", lerr)
	}
	if m.USteps < 1 || m.USteps > MaxSteps {
		bad("mesh.u_steps %d not in [1, %d]", m.USteps, MaxSteps)
	}
	if m.VSteps < 1 || m.VSteps > MaxSteps {
		bad("mesh.v_steps %d not in [1, %d]", m.VSteps, MaxSteps)
	}
	if !(m.ScaleFactor > 0) || math.IsInf(m.ScaleFactor, 0) {
		bad("mesh.scale_factor %v must be positive", m.ScaleFactor)
	}
	if !(m.TexScale > 0) || math.IsInf(m.TexScale, 0) {
		bad("mesh.tex_scale %v must be positive", m.TexScale)
	}
	if !unit(m.Pivot.U) || !unit(m.Pivot.V) {
		bad("mesh.pivot (%v, %v) outside [0, 1]", m.Pivot.U, m.Pivot.V)
	}
	if _, terr := mesh.ParseTangentMode(m.Tangents); terr != nil {
		bad("mesh.tangents: %v", terr)
	}
	if m.Debounce < 0 {
		bad("mesh.debounce %v is negative", m.Debounce)
	}

	r := c.Render
	if _, merr := render.ParseShadeMode(r.Mode); merr != nil {
		bad("render.mode: %v", merr)
	}
	if r.FPS < 1 || r.FPS > 240 {
		bad("render.fps %d not in [1, 240]", r.FPS)
	}
	if r.FOV < 10 || r.FOV > 170 {
		bad("render.fov %v not in [10, 170]", r.FOV)
	}
	if !(r.CameraDistance > 0) {
		bad("render.camera_distance %v must be positive", r.CameraDistance)
	}
	if _, cerr := render.ParseColor(r.Color); cerr != nil {
		bad("render.color: %v", cerr)
	}
	if _, cerr := render.ParseColor(r.Background); cerr != nil {
		bad("render.background: %v", cerr)
	}

	if !logLevels[c.Logging.Level] {
		bad("logging.level %q not one of debug, info, warn, error", c.Logging.Level)
	}
	return err
}

func unit(f float64) bool { return f >= 0 && f <= 1 }
