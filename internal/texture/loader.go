// Package texture loads material images for preview rendering.
package texture

import (
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

// Extensions lists the file types Load understands, alpha-capable formats first.
var Extensions = []string{".tga", ".png", ".jpg", ".jpeg", ".bmp"}

// Supported reports whether path has a loadable image extension.
func Supported(path string) bool {
	return rank(filepath.Ext(path)) >= 0
}

func rank(ext string) int {
	ext = strings.ToLower(ext)
	for i, e := range Extensions {
		if e == ext {
			return i
		}
	}
	return -1
}

// decoders is picked by extension. TGA has no magic number, so sniffing is not reliable.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".tga":  tga.Decode,
	".png":  png.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".bmp":  bmp.Decode,
}

// Load decodes a texture file into NRGBA.
func Load(path string) (*image.NRGBA, error) {
	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return nil, errors.Errorf("texture: unsupported file type %s", path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: open %s", path)
	}
	defer f.Close()

	img, err := decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: decode %s", path)
	}
	return toNRGBA(img), nil
}

// toNRGBA converts any image to NRGBA anchored at the origin.
// Formats without alpha come out opaque.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
