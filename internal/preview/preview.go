// Package preview turns a cut character into a small still image.
package preview

import (
	"image"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/raster"
	"mesh-dismember/internal/texture"
)

// Options controls preview output.
type Options struct {
	Size        int           // final edge length in pixels
	Supersample int           // render scale factor before downsampling
	Fill        float64       // fraction of the canvas the subject spans; 0 keeps the raster framing
	Spread      float32       // distance fragments are pushed from the body
	View        mathutil.Mat3 // zero means the front preview camera
}

// Defaults used by the batch runner when the configuration leaves fields unset.
const (
	DefaultSize        = 256
	DefaultSupersample = 3
	DefaultFill        = 0.9
	DefaultSpread      = 0.5
)

// Render draws the character with its fragments separated.
func Render(c *dismember.Character, frags []*dismember.Fragment, res texture.Resolver, opts Options) *image.NRGBA {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Supersample <= 0 {
		opts.Supersample = 1
	}
	big := raster.Render(raster.Scene(c, frags, opts.Spread), res, raster.Options{
		Size:        opts.Size,
		Supersample: opts.Supersample,
		View:        opts.View,
	})
	if opts.Fill > 0 {
		return Frame(big, opts.Size, opts.Fill)
	}
	return Downsample(big, opts.Size, opts.Size)
}
