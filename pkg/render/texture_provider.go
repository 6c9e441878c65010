package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ErrNotReady is returned by AsyncTexture.Err before loading completes.
var ErrNotReady = errors.New("texture not loaded")

// AsyncTexture serves a placeholder until its real image has loaded.
type AsyncTexture struct {
	mu          sync.RWMutex
	tex         *Texture
	placeholder *Texture
	err         error
	done        chan struct{}
}

// NewAsyncTexture creates a texture showing placeholder until Resolve is called.
func NewAsyncTexture(placeholder *Texture) *AsyncTexture {
	return &AsyncTexture{placeholder: placeholder, err: ErrNotReady, done: make(chan struct{})}
}

// Resolve publishes tex and the load error. A nil tex keeps the
// placeholder. Only the first call has an effect.
func (a *AsyncTexture) Resolve(tex *Texture, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	select {
	case <-a.done:
		return
	default:
	}
	a.tex, a.err = tex, err
	close(a.done)
}

// Texture returns the loaded texture or the placeholder.
func (a *AsyncTexture) Texture() *Texture {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.tex != nil {
		return a.tex
	}
	return a.placeholder
}

// Ready reports whether loading has finished, successfully or not.
func (a *AsyncTexture) Ready() bool {
	select {
	case <-a.done:
		return true
	default:
		return false
	}
}

// Err returns the load error, ErrNotReady while pending.
func (a *AsyncTexture) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

// Wait blocks until loading finishes or ctx is done.
func (a *AsyncTexture) Wait(ctx context.Context) error {
	select {
	case <-a.done:
		return a.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TextureSources names where each map comes from: a file path, an
// http(s) URL or empty for the procedural default.
type TextureSources struct {
	Diffuse  string
	Specular string
	Normal   string
}

// TextureSet is the three maps bound to the mesh material.
type TextureSet struct {
	Diffuse  *AsyncTexture
	Specular *AsyncTexture
	Normal   *AsyncTexture
}

// Material returns a material from the currently available maps.
func (s *TextureSet) Material(base Color, uv UVTransform) Material {
	return Material{
		Color:    base,
		Diffuse:  s.Diffuse.Texture(),
		Specular: s.Specular.Texture(),
		Normal:   s.Normal.Texture(),
		UV:       uv,
	}
}

// Ready reports whether every map has finished loading.
func (s *TextureSet) Ready() bool {
	return s.Diffuse.Ready() && s.Specular.Ready() && s.Normal.Ready()
}

// Placeholders returns the 1x1 maps shown while loading:
// white diffuse and specular, flat normal.
func Placeholders() (diffuse, specular, normal *Texture) {
	return NewSolidTexture(ColorWhite), NewSolidTexture(ColorWhite), NewSolidTexture(FlatNormal)
}

// Defaults returns the procedural maps used for empty sources.
func Defaults() (diffuse, specular, normal *Texture) {
	diffuse = NewCheckerTexture(256, 256, 32, RGB(200, 170, 90), RGB(120, 80, 40))
	specular = NewSolidTexture(RGB(160, 160, 160))
	normal = NewBumpNormalTexture(256, 8, 0.6)
	return diffuse, specular, normal
}

// Fetcher opens a texture source.
type Fetcher func(ctx context.Context, src string) (io.ReadCloser, error)

// LoadTextureSet starts loading all three maps concurrently and returns
// immediately. A map whose source is empty or fails to load falls back
// to its procedural default. The returned wait function blocks until
// every map has resolved and reports the first error. A nil fetch uses
// FetchSource.
func LoadTextureSet(ctx context.Context, src TextureSources, fetch Fetcher) (*TextureSet, func() error) {
	if fetch == nil {
		fetch = FetchSource
	}
	pd, ps, pn := Placeholders()
	dd, ds, dn := Defaults()
	set := &TextureSet{
		Diffuse:  NewAsyncTexture(pd),
		Specular: NewAsyncTexture(ps),
		Normal:   NewAsyncTexture(pn),
	}

	jobs := []struct {
		name   string
		src    string
		target *AsyncTexture
		def    *Texture
	}{
		{"diffuse", src.Diffuse, set.Diffuse, dd},
		{"specular", src.Specular, set.Specular, ds},
		{"normal", src.Normal, set.Normal, dn},
	}

	// Maps load independently; one failure does not cancel the others.
	var g errgroup.Group
	for _, job := range jobs {
		g.Go(func() error {
			if job.src == "" {
				job.target.Resolve(job.def, nil)
				return nil
			}
			tex, err := loadTexture(ctx, job.src, fetch)
			if err != nil {
				job.target.Resolve(job.def, err)
				return fmt.Errorf("%s map %q: %w", job.name, job.src, err)
			}
			job.target.Resolve(tex, nil)
			return nil
		})
	}

	var once sync.Once
	var waitErr error
	return set, func() error {
		once.Do(func() { waitErr = g.Wait() })
		return waitErr
	}
}

func loadTexture(ctx context.Context, src string, fetch Fetcher) (*Texture, error) {
	rc, err := fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return DecodeTexture(rc)
}

// FetchSource opens a local file or performs an HTTP GET.
func FetchSource(ctx context.Context, src string) (io.ReadCloser, error) {
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return os.Open(src)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", src, resp.Status)
	}
	return resp.Body, nil
}
