package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/taigrr/hornview/internal/config"
	"github.com/taigrr/hornview/internal/logger"
	"github.com/taigrr/hornview/internal/viewer"
	"github.com/taigrr/hornview/pkg/mesh"
	"github.com/taigrr/hornview/pkg/models"
	"github.com/taigrr/hornview/pkg/render"
)

// textureTimeout bounds how long a snapshot waits for remote maps.
const textureTimeout = 30 * time.Second

// runHeadless generates the surface and writes the requested outputs.
func runHeadless(cfg *config.Config, out outputs) error {
	log := logger.New(cfg.Logging.Level, cfg.Logging.LogFile, os.Stderr)
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), textureTimeout)
	defer cancel()

	textures, wait := render.LoadTextureSet(ctx, textureSources(cfg), nil)
	v, err := viewer.New(cfg, log, textures)
	if err != nil {
		return err
	}

	if out.export != "" {
		if err := models.ExportGLB(out.export, v.Surface().Name, v.Buffers()); err != nil {
			return err
		}
		log.Info("exported glTF", zap.String("path", out.export))
	}

	if out.raw != "" {
		if err := writeRaw(out.raw, v.Buffers()); err != nil {
			return err
		}
		log.Info("wrote raw buffers", zap.String("dir", out.raw), zap.Int("bytes", v.Buffers().ByteSize()))
	}

	if out.snapshot != "" {
		if err := wait(); err != nil {
			log.Warn("texture load failed, using defaults", zap.Error(err))
		}
		if err := snapshot(v, out.snapshot, out.width, out.height); err != nil {
			return err
		}
		log.Info("saved snapshot", zap.String("path", out.snapshot),
			zap.Int("width", out.width), zap.Int("height", out.height))
	}
	return nil
}

func textureSources(cfg *config.Config) render.TextureSources {
	return render.TextureSources{
		Diffuse:  cfg.Textures.Diffuse,
		Specular: cfg.Textures.Specular,
		Normal:   cfg.Textures.Normal,
	}
}

// snapshot renders the current state into a width x height PNG.
func snapshot(v *viewer.Viewer, path string, width, height int) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("snapshot size %dx%d", width, height)
	}
	v.Resize(width, height)
	v.Draw()
	return v.Framebuffer().SavePNG(path)
}

var rawFiles = []struct {
	attr mesh.Attribute
	name string
}{
	{mesh.AttrPosition, "positions.bin"},
	{mesh.AttrNormal, "normals.bin"},
	{mesh.AttrTangent, "tangents.bin"},
	{mesh.AttrTexCoord, "texcoords.bin"},
	{mesh.AttrIndex, "indices.bin"},
}

// writeRaw writes each buffer as its own little-endian file in dir.
func writeRaw(dir string, b *mesh.Buffers) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	for _, f := range rawFiles {
		data, err := b.Bytes(f.attr)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, f.name), data, 0o644); err != nil {
			return fmt.Errorf("write %v buffer: %w", f.attr, err)
		}
	}
	return nil
}
