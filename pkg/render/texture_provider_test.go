package render

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func encodePNG(t *testing.T, w, h int, c Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestAsyncTexturePlaceholder(t *testing.T) {
	placeholder := NewSolidTexture(ColorWhite)
	a := NewAsyncTexture(placeholder)

	if a.Ready() {
		t.Error("Ready before Resolve")
	}
	if a.Texture() != placeholder {
		t.Error("want placeholder before Resolve")
	}
	if !errors.Is(a.Err(), ErrNotReady) {
		t.Errorf("Err = %v, want ErrNotReady", a.Err())
	}

	loaded := NewSolidTexture(ColorGold)
	a.Resolve(loaded, nil)
	a.Resolve(NewSolidTexture(ColorBlack), errors.New("late"))

	if !a.Ready() || a.Texture() != loaded || a.Err() != nil {
		t.Errorf("after Resolve: ready=%v err=%v", a.Ready(), a.Err())
	}
}

func TestAsyncTextureWaitCanceled(t *testing.T) {
	a := NewAsyncTexture(NewSolidTexture(ColorWhite))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := a.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Wait = %v, want context.Canceled", err)
	}
}

func TestLoadTextureSetDefaults(t *testing.T) {
	set, wait := LoadTextureSet(context.Background(), TextureSources{}, nil)
	if err := wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !set.Ready() {
		t.Fatal("set not ready after wait")
	}
	if set.Normal.Texture().Width <= 1 || set.Diffuse.Texture().Width <= 1 {
		t.Error("empty sources should use procedural maps")
	}
}

func TestLoadTextureSetSources(t *testing.T) {
	dir := t.TempDir()
	diffusePath := filepath.Join(dir, "diffuse.png")
	if err := os.WriteFile(diffusePath, encodePNG(t, 4, 4, ColorGreen), 0o644); err != nil {
		t.Fatal(err)
	}

	normalPNG := encodePNG(t, 2, 2, FlatNormal)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/normal.png":
			w.Write(normalPNG)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := TextureSources{
		Diffuse:  diffusePath,
		Specular: srv.URL + "/missing.png",
		Normal:   srv.URL + "/normal.png",
	}
	set, wait := LoadTextureSet(context.Background(), src, nil)
	err := wait()
	if err == nil {
		t.Fatal("expected error for missing specular map")
	}

	if got := set.Diffuse.Texture().GetPixel(0, 0); got != ColorGreen {
		t.Errorf("diffuse pixel = %v, want green", got)
	}
	if got := set.Normal.Texture(); got.Width != 2 || got.GetPixel(1, 1) != FlatNormal {
		t.Errorf("normal map not loaded over HTTP")
	}
	if set.Specular.Err() == nil {
		t.Error("specular Err should report the failure")
	}
	if set.Specular.Texture() == nil {
		t.Error("failed map should fall back to a default")
	}
}

func TestLoadTextureSetPlaceholderWhileLoading(t *testing.T) {
	release := make(chan struct{})
	fetch := func(ctx context.Context, src string) (io.ReadCloser, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return io.NopCloser(bytes.NewReader(encodePNG(t, 1, 1, ColorGold))), nil
	}

	set, wait := LoadTextureSet(context.Background(), TextureSources{Diffuse: "slow"}, fetch)
	if got := set.Diffuse.Texture().GetPixel(0, 0); got != ColorWhite {
		t.Errorf("placeholder = %v, want white", got)
	}
	if set.Ready() {
		t.Error("set ready before fetch returned")
	}

	close(release)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := set.Diffuse.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if err := wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	if got := set.Diffuse.Texture().GetPixel(0, 0); got != ColorGold {
		t.Errorf("loaded = %v, want gold", got)
	}
}
