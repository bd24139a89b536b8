package preview

import (
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/pkg/errors"
)

// Format is a preview file format.
type Format string

const (
	WebP Format = "webp"
	PNG  Format = "png"
)

// ErrFormat is returned for unknown preview formats.
var ErrFormat = errors.New("preview: unknown format")

// ParseFormat accepts "webp" (also the empty string) and "png".
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case "", WebP:
		return WebP, nil
	case PNG:
		return PNG, nil
	}
	return "", errors.Wrapf(ErrFormat, "%q", s)
}

// Ext returns the file extension with its dot.
func (f Format) Ext() string { return "." + string(f) }

// Encode writes img in format f. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case WebP:
		return errors.Wrap(nativewebp.Encode(w, img, nil), "preview: encode webp")
	case PNG:
		return errors.Wrap(png.Encode(w, img), "preview: encode png")
	}
	return errors.Wrapf(ErrFormat, "%q", string(f))
}

// Save writes img to path, choosing the format from the extension.
func Save(path string, img image.Image) error {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "preview: create dir for %s", path)
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "preview: create %s", path)
	}
	if err := Encode(out, img, f); err != nil {
		out.Close()
		return err
	}
	return errors.Wrapf(out.Close(), "preview: close %s", path)
}
