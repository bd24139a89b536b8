package raster

import (
	"image"
	"math"

	"mesh-dismember/internal/mathutil"
)

// Vertex is a projected vertex: X, Y in pixels, Z in view units (larger is nearer).
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// Surface is what a triangle is painted with. Tex may be nil, then Color is used.
type Surface struct {
	Tex   *image.NRGBA
	Color [4]uint8
}

// alphaCutoff drops nearly transparent texels without writing depth.
const alphaCutoff = 8

// Triangle rasterizes one flat-shaded, depth-tested triangle. Winding is ignored.
// normal is the face normal in view space and must be unit length.
func (fb *FrameBuffer) Triangle(a, b, c Vertex, normal mathutil.Vec3, s Surface, l *Light) {
	minX := int(math.Floor(math.Min(math.Min(a.X, b.X), c.X)))
	maxX := int(math.Ceil(math.Max(math.Max(a.X, b.X), c.X)))
	minY := int(math.Floor(math.Min(math.Min(a.Y, b.Y), c.Y)))
	maxY := int(math.Ceil(math.Max(math.Max(a.Y, b.Y), c.Y)))
	minX, minY = max(minX, 0), max(minY, 0)
	maxX, maxY = min(maxX, fb.Width-1), min(maxY, fb.Height-1)
	if minX > maxX || minY > maxY {
		return
	}

	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if math.Abs(det) < 1e-8 {
		return
	}
	inv := 1 / det
	dyBC, dxCB := b.Y-c.Y, c.X-b.X
	dyCA, dxAC := c.Y-a.Y, a.X-c.X

	shade := l.Shade(normal)
	flat := l.Apply(s.Color, shade)

	for y := minY; y <= maxY; y++ {
		py := float64(y) - c.Y
		row := y * fb.Width
		for x := minX; x <= maxX; x++ {
			px := float64(x) - c.X
			w0 := (dyBC*px + dxCB*py) * inv
			w1 := (dyCA*px + dxAC*py) * inv
			w2 := 1 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			i := row + x
			if z <= fb.Depth[i] {
				continue
			}

			px4 := flat
			if s.Tex != nil {
				texel := Sample(s.Tex, w0*a.U+w1*b.U+w2*c.U, w0*a.V+w1*b.V+w2*c.V)
				if texel[3] < alphaCutoff {
					continue
				}
				px4 = l.Apply(texel, shade)
			} else if flat[3] < alphaCutoff {
				continue
			}
			fb.Depth[i] = z
			copy(fb.Color[i*4:i*4+4], px4[:])
		}
	}
}
