// hornview - Terminal viewer for parametric horn surfaces
// Generates the surface mesh with normals, tangents and texture
// coordinates and renders it normal-mapped in the terminal.
//
// Controls:
//
//	Mouse drag  - Rotate surface (yaw/pitch)
//	Scroll      - Scale surface up/down
//	W/S         - Pitch up/down
//	A/D         - Yaw left/right
//	Q/E         - Roll left/right
//	U/Shift+U   - More/fewer cells around u
//	V/Shift+V   - More/fewer cells along v
//	[ / ]       - Texture tiling down/up
//	I/J/K/L     - Move texture pivot
//	M           - Cycle shade mode
//	Space       - Apply random impulse
//	R           - Reset view
//	?           - Toggle HUD overlay
//	Esc         - Quit
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/taigrr/hornview/internal/config"
)

type outputs struct {
	export   string
	snapshot string
	raw      string
	width    int
	height   int
}

func (o outputs) headless() bool {
	return o.export != "" || o.snapshot != "" || o.raw != ""
}

func main() {
	fs := flag.CommandLine
	flags := config.RegisterFlags(fs)
	var out outputs
	fs.StringVar(&out.export, "export", "", "Write the surface as binary glTF (.glb) and exit")
	fs.StringVar(&out.snapshot, "snapshot", "", "Render one frame to a PNG file and exit")
	fs.StringVar(&out.raw, "raw", "", "Write the raw little-endian vertex buffers to a directory and exit")
	fs.IntVar(&out.width, "width", 320, "Snapshot width in pixels")
	fs.IntVar(&out.height, "height", 180, "Snapshot height in pixels")
	saveConfig := fs.Bool("save-config", false, "Write the effective config to the user config directory and exit")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "hornview - Terminal viewer for parametric horn surfaces\n\n")
		fmt.Fprintf(os.Stderr, "Usage: hornview [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nControls:\n")
		fmt.Fprintf(os.Stderr, "  Mouse drag  - Rotate surface\n")
		fmt.Fprintf(os.Stderr, "  Scroll, +/- - Scale surface\n")
		fmt.Fprintf(os.Stderr, "  W/S/A/D     - Pitch and yaw\n")
		fmt.Fprintf(os.Stderr, "  Q/E         - Roll left/right\n")
		fmt.Fprintf(os.Stderr, "  U/Shift+U   - Cells around u\n")
		fmt.Fprintf(os.Stderr, "  V/Shift+V   - Cells along v\n")
		fmt.Fprintf(os.Stderr, "  [ / ]       - Texture tiling\n")
		fmt.Fprintf(os.Stderr, "  I/J/K/L     - Texture pivot\n")
		fmt.Fprintf(os.Stderr, "  M           - Cycle shade mode\n")
		fmt.Fprintf(os.Stderr, "  Space       - Random spin\n")
		fmt.Fprintf(os.Stderr, "  R           - Reset view\n")
		fmt.Fprintf(os.Stderr, "  ?           - Toggle HUD overlay\n")
		fmt.Fprintf(os.Stderr, "  Esc         - Quit\n")
	}
	flag.Parse()

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *saveConfig {
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: save config: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if out.headless() {
		err = runHeadless(cfg, out)
	} else {
		err = run(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
