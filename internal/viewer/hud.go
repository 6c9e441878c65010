package viewer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/taigrr/hornview/pkg/render"
)

// HUD renders an overlay with mesh info and controls.
type HUD struct {
	Visible   bool
	fps       float64
	fpsFrames int
	fpsTime   time.Time
}

// NewHUD creates a new HUD.
func NewHUD(visible bool, now time.Time) *HUD {
	return &HUD{Visible: visible, fpsTime: now}
}

// UpdateFPS updates the FPS counter (call once per frame).
func (h *HUD) UpdateFPS(now time.Time) {
	h.fpsFrames++
	elapsed := now.Sub(h.fpsTime)
	if elapsed >= time.Second {
		h.fps = float64(h.fpsFrames) / elapsed.Seconds()
		h.fpsFrames = 0
		h.fpsTime = now
	}
}

// FPS returns the last measured frame rate.
func (h *HUD) FPS() float64 { return h.fps }

const (
	reset     = "\x1b[0m"
	bold      = "\x1b[1m"
	dim       = "\x1b[2m"
	bgBlack   = "\x1b[40m"
	fgWhite   = "\x1b[97m"
	fgGreen   = "\x1b[92m"
	fgYellow  = "\x1b[93m"
	fgCyan    = "\x1b[96m"
	clearLine = "\x1b[2K"
)

func moveTo(row, col int) string {
	return fmt.Sprintf("\x1b[%d;%dH", row, col)
}

// Render writes the overlay for a width x height cell terminal to w.
// The HUD rows are always cleared so hiding it works.
func (h *HUD) Render(w io.Writer, width, height int, st Status) {
	var b strings.Builder
	b.WriteString(moveTo(1, 1) + clearLine)
	b.WriteString(moveTo(height-1, 1) + clearLine)
	b.WriteString(moveTo(height, 1) + clearLine)

	if !h.Visible {
		io.WriteString(w, b.String())
		return
	}

	// Top left: FPS
	fmt.Fprintf(&b, "%s%s%s %.0f FPS %s", moveTo(1, 1), bgBlack, fgGreen, h.fps, reset)

	// Top middle: surface and resolution
	res := fmt.Sprintf("%dx%d", st.USteps, st.VSteps)
	if st.Pending {
		res = fmt.Sprintf("%dx%d → %dx%d", st.USteps, st.VSteps, st.WantU, st.WantV)
	}
	title := fmt.Sprintf("%s %s", st.Surface, res)
	titleCol := max((width-len(title)-2)/2, 1)
	fmt.Fprintf(&b, "%s%s%s%s %s %s", moveTo(1, titleCol), bold, bgBlack, fgWhite, title, reset)

	// Top right: vertex and triangle counts
	counts := fmt.Sprintf("%d verts %d tris", st.Vertices, st.Triangles)
	fmt.Fprintf(&b, "%s%s%s%s %s %s", moveTo(1, max(width-len(counts)-2, 1)), bgBlack, fgCyan, bold, counts, reset)

	// Second to last row: placement and diagnostics
	info := fmt.Sprintf("scale %.2f  tex %.2fx  pivot (%.2f, %.2f)", st.Scale, st.TexScale, st.Pivot.X, st.Pivot.Y)
	if !st.TexturesReady {
		info += "  loading textures"
	}
	if !st.Diagnostics.Clean() {
		info += "  " + st.Diagnostics.String()
	}
	fmt.Fprintf(&b, "%s%s%s %s %s", moveTo(height-1, 1), bgBlack, fgWhite, info, reset)

	// Bottom: mode checkboxes and key hint
	var modes []string
	for m := render.ShadeNormalMapped; m <= render.ShadeWireframe; m++ {
		check := "[ ]"
		if m == st.Mode {
			check = "[✓]"
		}
		modes = append(modes, check+" "+m.String())
	}
	fmt.Fprintf(&b, "%s%s%s %s %s", moveTo(height, 1), bgBlack, fgWhite, strings.Join(modes, "  "), reset)

	hint := "u/v ± res  [ ] tex  m mode  ? hud"
	fmt.Fprintf(&b, "%s%s%s%s %s %s", moveTo(height, max(width-len(hint)-2, 1)), bgBlack, dim, fgYellow, hint, reset)

	io.WriteString(w, b.String())
}
