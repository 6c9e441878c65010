// Package config handles viewer configuration loading and management.
package config

import "time"

// Config holds all viewer settings.
type Config struct {
	Mesh     MeshConfig    `yaml:"mesh"`
	Render   RenderConfig  `yaml:"render"`
	Textures TextureConfig `yaml:"textures"`
	Logging  LoggingConfig `yaml:"logging"`
}

// MeshConfig holds surface sampling and texture placement settings.
type MeshConfig struct {
	Surface     string        `yaml:"surface"`      // Registered surface name
	USteps      int           `yaml:"u_steps"`      // Cells around the parameter u
	VSteps      int           `yaml:"v_steps"`      // Cells along the parameter v
	ScaleFactor float64       `yaml:"scale_factor"` // Model scale, not a resample
	TexScale    float64       `yaml:"tex_scale"`    // Texture tiling about Pivot
	Pivot       Pivot         `yaml:"pivot"`        // Texture-space pivot
	Tangents    string        `yaml:"tangents"`     // "sum" or "last-face"
	Debounce    time.Duration `yaml:"debounce"`     // Delay before regenerating
}

// Pivot is a point in texture space.
type Pivot struct {
	U float64 `yaml:"u"`
	V float64 `yaml:"v"`
}

// RenderConfig holds rasterizer and display settings.
type RenderConfig struct {
	Mode           string  `yaml:"mode"`            // Shade mode name
	FPS            int     `yaml:"fps"`             // Target frame rate
	FOV            float64 `yaml:"fov"`             // Vertical field of view, degrees
	CameraDistance float64 `yaml:"camera_distance"` // Eye distance from the origin
	TwoSided       bool    `yaml:"two_sided"`       // Draw back faces
	Color          string  `yaml:"color"`           // Base color "R,G,B"
	Background     string  `yaml:"background"`      // Clear color "R,G,B"
	LightSpeed     float64 `yaml:"light_speed"`     // Light orbit, radians per frame
	ShowHUD        bool    `yaml:"show_hud"`
}

// TextureConfig holds texture map sources: file paths or http(s) URLs.
// Empty sources use procedural maps.
type TextureConfig struct {
	Diffuse  string `yaml:"diffuse"`
	Specular string `yaml:"specular"`
	Normal   string `yaml:"normal"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			Surface:     "horn",
			USteps:      50,
			VSteps:      50,
			ScaleFactor: 0.04,
			TexScale:    1,
			Pivot:       Pivot{U: 0.5, V: 0.5},
			Tangents:    "sum",
			Debounce:    100 * time.Millisecond,
		},
		Render: RenderConfig{
			Mode:           "normal-mapped",
			FPS:            30,
			FOV:            60,
			CameraDistance: 4,
			TwoSided:       true,
			Color:          "255,255,0",
			Background:     "0,0,0",
			LightSpeed:     0.01,
			ShowHUD:        true,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
