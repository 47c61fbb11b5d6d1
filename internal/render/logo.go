package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"invoicegen/internal/logger"
)

// Image types understood by the PDF engine.
const (
	ImagePNG = "png"
	ImageJPG = "jpg"
)

// DefaultLogoTimeout bounds a logo download when none is configured.
const DefaultLogoTimeout = 5 * time.Second

const maxLogoBytes = 5 << 20

var (
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegMagic = []byte{0xff, 0xd8, 0xff}
)

// Logo is a decoded-and-verified company logo.
type Logo struct {
	Data []byte
	Type string // ImagePNG or ImageJPG

	// natural size in points at 72 dpi
	Width  float64
	Height float64
}

// LogoSource resolves a logo URL. A nil result means "render without logo".
type LogoSource interface {
	Fetch(ctx context.Context, rawURL string) *Logo
}

// LogoFetcher downloads logos over HTTP with a bounded timeout. Every
// failure degrades to a nil logo and a warning.
type LogoFetcher struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewLogoFetcher creates a fetcher. A non-positive timeout uses
// DefaultLogoTimeout.
func NewLogoFetcher(timeout time.Duration) *LogoFetcher {
	if timeout <= 0 {
		timeout = DefaultLogoTimeout
	}
	return &LogoFetcher{
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		log:     logger.WithComponent("logo-fetcher"),
	}
}

// Fetch downloads and verifies the logo at rawURL.
func (f *LogoFetcher) Fetch(ctx context.Context, rawURL string) *Logo {
	if strings.TrimSpace(rawURL) == "" {
		return nil
	}

	logo, err := f.fetch(ctx, rawURL)
	if err != nil {
		f.log.Warn().
			Err(err).
			Str("url", rawURL).
			Dur("timeout", f.timeout).
			Msg("Logo not available, rendering without logo")
		return nil
	}

	f.log.Debug().
		Str("url", rawURL).
		Str("type", logo.Type).
		Int("bytes", len(logo.Data)).
		Msg("Logo fetched")
	return logo
}

func (f *LogoFetcher) fetch(ctx context.Context, rawURL string) (*Logo, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoUnavailable, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrLogoUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrLogoUnavailable, err)
	}

	return NewLogo(data, resp.Header.Get("Content-Type"), rawURL)
}

// NewLogo detects the image type and verifies that the PDF engine can
// embed the bytes.
func NewLogo(data []byte, contentType, name string) (*Logo, error) {
	imageType := DetectImageType(contentType, name, data)
	if imageType == "" {
		return nil, fmt.Errorf("%w: unsupported image format", ErrLogoUnavailable)
	}

	// A failed registration poisons the whole document, so it is tried on a
	// scratch instance first.
	probe := fpdf.New("P", "pt", "A4", "")
	probe.SetCatalogSort(true)
	info := probe.RegisterImageOptionsReader("probe", fpdf.ImageOptions{ImageType: imageType}, bytes.NewReader(data))
	if err := probe.Error(); err != nil || info == nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrLogoUnavailable, imageType, err)
	}

	return &Logo{
		Data:   data,
		Type:   imageType,
		Width:  info.Width(),
		Height: info.Height(),
	}, nil
}

// DetectImageType picks PNG or JPEG from the content type, then the file
// extension of name, then the leading magic bytes. It returns "" otherwise.
func DetectImageType(contentType, name string, data []byte) string {
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "png"):
		return ImagePNG
	case strings.Contains(ct, "jpeg"), strings.Contains(ct, "jpg"):
		return ImageJPG
	}

	p := name
	if u, err := url.Parse(name); err == nil && u.Path != "" {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".png":
		return ImagePNG
	case ".jpg", ".jpeg":
		return ImageJPG
	}

	switch {
	case bytes.HasPrefix(data, pngMagic):
		return ImagePNG
	case bytes.HasPrefix(data, jpegMagic):
		return ImageJPG
	}
	return ""
}

// scaleLogo fits the logo into the header box without enlarging it.
func scaleLogo(l *Logo) (w, h float64) {
	if l.Width <= 0 || l.Height <= 0 {
		return 0, 0
	}
	scale := min(logoMaxWidth/l.Width, logoMaxHeight/l.Height, 1)
	return l.Width * scale, l.Height * scale
}
