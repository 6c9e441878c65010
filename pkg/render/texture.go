package render

import (
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"math"

	"github.com/taigrr/hornview/pkg/math3d"
)

// WrapMode determines how texture coordinates outside [0,1] are handled.
type WrapMode int

const (
	WrapRepeat WrapMode = iota // Tile the texture
	WrapClamp                  // Clamp to edge
)

// FilterMode determines how texture sampling is performed.
type FilterMode int

const (
	FilterNearest  FilterMode = iota // Nearest-neighbor (pixelated)
	FilterBilinear                   // Bilinear interpolation (smooth)
)

// Texture holds a 2D image for texture mapping.
type Texture struct {
	Width      int
	Height     int
	Pixels     []Color    // Row-major pixel data
	WrapU      WrapMode   // Horizontal wrap mode
	WrapV      WrapMode   // Vertical wrap mode
	FilterMode FilterMode // Sampling filter mode
}

// NewTexture creates an empty texture with the given dimensions.
func NewTexture(width, height int) *Texture {
	return &Texture{
		Width:      width,
		Height:     height,
		Pixels:     make([]Color, width*height),
		WrapU:      WrapRepeat,
		WrapV:      WrapRepeat,
		FilterMode: FilterBilinear,
	}
}

// DecodeTexture decodes a PNG or JPEG image.
func DecodeTexture(r io.Reader) (*Texture, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return TextureFromImage(img), nil
}

// TextureFromImage creates a texture from an image.Image.
func TextureFromImage(img image.Image) *Texture {
	bounds := img.Bounds()
	tex := NewTexture(bounds.Dx(), bounds.Dy())

	for y := range tex.Height {
		for x := range tex.Width {
			r, g, b, a := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			// RGBA returns 16-bit values, scale to 8-bit
			tex.SetPixel(x, y, Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: uint8(a >> 8)})
		}
	}
	return tex
}

// NewSolidTexture creates a 1x1 texture of a single color.
func NewSolidTexture(c Color) *Texture {
	tex := NewTexture(1, 1)
	tex.FilterMode = FilterNearest
	tex.Pixels[0] = c
	return tex
}

// FlatNormal is the tangent-space normal (0, 0, 1) encoded as a color.
var FlatNormal = RGB(128, 128, 255)

// NewCheckerTexture creates a procedural checkerboard texture.
func NewCheckerTexture(width, height, checkSize int, c1, c2 Color) *Texture {
	tex := NewTexture(width, height)
	tex.FilterMode = FilterNearest
	for y := range height {
		for x := range width {
			if (x/checkSize+y/checkSize)%2 == 0 {
				tex.SetPixel(x, y, c1)
			} else {
				tex.SetPixel(x, y, c2)
			}
		}
	}
	return tex
}

// NewBumpNormalTexture creates a tangent-space normal map of a grid of
// rounded bumps, cells x cells across.
func NewBumpNormalTexture(size, cells int, strength float64) *Texture {
	tex := NewTexture(size, size)
	period := float64(size) / float64(cells)
	k := 2 * math.Pi / period
	for y := range size {
		for x := range size {
			// Height h = sin(kx)·sin(ky); the normal is (-dh/dx, -dh/dy, 1).
			fx, fy := float64(x)+0.5, float64(y)+0.5
			dx := strength * math.Cos(k*fx) * math.Sin(k*fy)
			// Image rows run opposite to texture v.
			dy := -strength * math.Sin(k*fx) * math.Cos(k*fy)
			tex.SetPixel(x, y, EncodeNormal(math3d.V3(-dx, -dy, 1).Normalize()))
		}
	}
	return tex
}

// EncodeNormal maps a unit vector from [-1, 1] to a color.
func EncodeNormal(n math3d.Vec3) Color {
	enc := func(f float64) uint8 {
		return uint8(math.Round(math.Max(0, math.Min(255, (f*0.5+0.5)*255))))
	}
	return RGB(enc(n.X), enc(n.Y), enc(n.Z))
}

// DecodeNormal maps a color back to a unit vector.
func DecodeNormal(c Color) math3d.Vec3 {
	dec := func(b uint8) float64 { return float64(b)/255*2 - 1 }
	return math3d.V3(dec(c.R), dec(c.G), dec(c.B)).Normalize()
}

// SetPixel sets a pixel in the texture.
func (t *Texture) SetPixel(x, y int, c Color) {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return
	}
	t.Pixels[y*t.Width+x] = c
}

// GetPixel returns the pixel at (x, y) with bounds checking.
func (t *Texture) GetPixel(x, y int) Color {
	if x < 0 || x >= t.Width || y < 0 || y >= t.Height {
		return Color{}
	}
	return t.Pixels[y*t.Width+x]
}

// Sample samples the texture at UV coordinates; v = 0 is the bottom row.
func (t *Texture) Sample(u, v float64) Color {
	if t.Width == 0 || t.Height == 0 {
		return Color{}
	}
	u = wrapCoord(u, t.WrapU)
	v = 1.0 - wrapCoord(v, t.WrapV)

	switch t.FilterMode {
	case FilterBilinear:
		return t.sampleBilinear(u, v)
	default:
		return t.sampleNearest(u, v)
	}
}

func wrapCoord(coord float64, mode WrapMode) float64 {
	switch mode {
	case WrapClamp:
		return math.Max(0, math.Min(1, coord))
	default:
		return coord - math.Floor(coord)
	}
}

func (t *Texture) sampleNearest(u, v float64) Color {
	x := min(int(u*float64(t.Width)), t.Width-1)
	y := min(int(v*float64(t.Height)), t.Height-1)
	return t.GetPixel(x, y)
}

func (t *Texture) sampleBilinear(u, v float64) Color {
	fx := u*float64(t.Width) - 0.5
	fy := v*float64(t.Height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	x1 := wrapPixel(x0+1, t.Width, t.WrapU)
	y1 := wrapPixel(y0+1, t.Height, t.WrapV)
	x0 = wrapPixel(x0, t.Width, t.WrapU)
	y0 = wrapPixel(y0, t.Height, t.WrapV)

	top := lerpColor(t.GetPixel(x0, y0), t.GetPixel(x1, y0), tx)
	bot := lerpColor(t.GetPixel(x0, y1), t.GetPixel(x1, y1), tx)
	return lerpColor(top, bot, ty)
}

func wrapPixel(x, size int, mode WrapMode) int {
	switch mode {
	case WrapClamp:
		return max(0, min(size-1, x))
	default:
		x %= size
		if x < 0 {
			x += size
		}
		return x
	}
}

func lerpColor(a, b Color, t float64) Color {
	l := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t)
	}
	return Color{R: l(a.R, b.R), G: l(a.G, b.G), B: l(a.B, b.B), A: l(a.A, b.A)}
}

// MultiplyColor multiplies a color by a scalar (for lighting).
func MultiplyColor(c Color, intensity float64) Color {
	m := func(x uint8) uint8 {
		return uint8(math.Max(0, math.Min(255, float64(x)*intensity)))
	}
	return Color{R: m(c.R), G: m(c.G), B: m(c.B), A: c.A}
}

// AddColor adds two colors with saturation.
func AddColor(a, b Color) Color {
	s := func(x, y uint8) uint8 {
		return uint8(min(255, int(x)+int(y)))
	}
	return Color{R: s(a.R, b.R), G: s(a.G, b.G), B: s(a.B, b.B), A: a.A}
}
