package render

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectImageType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		url         string
		data        []byte
		want        string
	}{
		{"content type png", "image/png", "https://cdn.example/logo", nil, ImagePNG},
		{"content type jpeg", "image/jpeg; charset=binary", "https://cdn.example/logo", nil, ImageJPG},
		{"extension with query", "application/octet-stream", "https://cdn.example/logo.JPG?v=3", nil, ImageJPG},
		{"png magic", "", "https://cdn.example/logo", pngMagic, ImagePNG},
		{"jpeg magic", "", "https://cdn.example/logo", []byte{0xff, 0xd8, 0xff, 0xe0}, ImageJPG},
		{"unknown", "image/svg+xml", "https://cdn.example/logo.svg", []byte("<svg/>"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectImageType(tt.contentType, tt.url, tt.data); got != tt.want {
				t.Errorf("DetectImageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogoFetcherFetch(t *testing.T) {
	logo := pngBytes(t, 300, 50)

	mux := http.NewServeMux()
	mux.HandleFunc("/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write(logo)
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("not an image"))
	})
	mux.HandleFunc("/slow.png", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := NewLogoFetcher(200 * time.Millisecond)

	got := f.Fetch(context.Background(), srv.URL+"/logo.png")
	if got == nil {
		t.Fatal("expected logo")
	}
	if got.Type != ImagePNG || got.Width != 300 || got.Height != 50 {
		t.Errorf("logo = %s %vx%v, want png 300x50", got.Type, got.Width, got.Height)
	}

	for _, path := range []string{"/missing.png", "/garbage.png", "/slow.png"} {
		if got := f.Fetch(context.Background(), srv.URL+path); got != nil {
			t.Errorf("Fetch(%s) = %+v, want nil", path, got)
		}
	}
	if got := f.Fetch(context.Background(), ""); got != nil {
		t.Error("Fetch(\"\") should be nil")
	}
}

func TestScaleLogo(t *testing.T) {
	tests := []struct {
		w, h         float64
		wantW, wantH float64
	}{
		{300, 50, 150, 25},
		{100, 100, 50, 50},
		{40, 20, 40, 20},
	}
	for _, tt := range tests {
		w, h := scaleLogo(&Logo{Width: tt.w, Height: tt.h})
		if w != tt.wantW || h != tt.wantH {
			t.Errorf("scaleLogo(%vx%v) = %vx%v, want %vx%v", tt.w, tt.h, w, h, tt.wantW, tt.wantH)
		}
	}
}
