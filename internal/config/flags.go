package config

import "flag"

// Flags holds command-line overrides registered on a FlagSet.
// Only flags set explicitly on the command line override the file.
type Flags struct {
	fs *flag.FlagSet

	config     *string
	debug      *bool
	logFile    *string
	surface    *string
	uSteps     *int
	vSteps     *int
	scale      *float64
	texScale   *float64
	tangents   *string
	mode       *string
	fps        *int
	twoSided   *bool
	noHUD      *bool
	diffuse    *string
	specular   *string
	normalMap  *string
	background *string
}

// RegisterFlags defines the config flags on fs.
func RegisterFlags(fs *flag.FlagSet) *Flags {
	return &Flags{
		fs:         fs,
		config:     fs.String("config", "", "Path to config file"),
		debug:      fs.Bool("debug", false, "Enable debug logging"),
		logFile:    fs.String("log-file", "", "Write logs to a rotating file"),
		surface:    fs.String("surface", "", "Surface to generate (horn, disk, plane)"),
		uSteps:     fs.Int("u", 0, "Cells around the u parameter"),
		vSteps:     fs.Int("v", 0, "Cells along the v parameter"),
		scale:      fs.Float64("scale", 0, "Model scale factor"),
		texScale:   fs.Float64("tex-scale", 0, "Texture tiling factor"),
		tangents:   fs.String("tangents", "", "Tangent accumulation: sum or last-face"),
		mode:       fs.String("mode", "", "Shade mode: normal-mapped, textured, gouraud, wireframe"),
		fps:        fs.Int("fps", 0, "Target frames per second"),
		twoSided:   fs.Bool("two-sided", true, "Draw back faces"),
		noHUD:      fs.Bool("no-hud", false, "Hide the HUD"),
		diffuse:    fs.String("diffuse", "", "Diffuse map path or URL"),
		specular:   fs.String("specular", "", "Specular map path or URL"),
		normalMap:  fs.String("normal", "", "Normal map path or URL"),
		background: fs.String("bg", "", "Background color R,G,B"),
	}
}

// ConfigPath returns the explicit config path if provided via -config.
func (f *Flags) ConfigPath() string {
	if f == nil {
		return ""
	}
	return *f.config
}

// Apply applies command-line overrides to cfg.
func (f *Flags) Apply(cfg *Config) {
	if f == nil {
		return
	}
	set := make(map[string]bool)
	f.fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })

	if *f.debug {
		cfg.Logging.Level = "debug"
	}
	if set["log-file"] {
		cfg.Logging.LogFile = *f.logFile
	}
	if set["surface"] {
		cfg.Mesh.Surface = *f.surface
	}
	if set["u"] {
		cfg.Mesh.USteps = *f.uSteps
	}
	if set["v"] {
		cfg.Mesh.VSteps = *f.vSteps
	}
	if set["scale"] {
		cfg.Mesh.ScaleFactor = *f.scale
	}
	if set["tex-scale"] {
		cfg.Mesh.TexScale = *f.texScale
	}
	if set["tangents"] {
		cfg.Mesh.Tangents = *f.tangents
	}
	if set["mode"] {
		cfg.Render.Mode = *f.mode
	}
	if set["fps"] {
		cfg.Render.FPS = *f.fps
	}
	if set["two-sided"] {
		cfg.Render.TwoSided = *f.twoSided
	}
	if *f.noHUD {
		cfg.Render.ShowHUD = false
	}
	if set["diffuse"] {
		cfg.Textures.Diffuse = *f.diffuse
	}
	if set["specular"] {
		cfg.Textures.Specular = *f.specular
	}
	if set["normal"] {
		cfg.Textures.Normal = *f.normalMap
	}
	if set["bg"] {
		cfg.Render.Background = *f.background
	}
}
