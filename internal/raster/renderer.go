package raster

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/skeleton"
	"mesh-dismember/internal/texture"
)

// DefaultColor paints submeshes whose material has neither a texture nor a color.
var DefaultColor = [4]uint8{160, 160, 170, 255}

// Item is one renderer tree posed at a placement. Child renderers share the placement.
type Item struct {
	Renderer  *dismember.Renderer
	Placement mgl32.Mat4
}

// Options controls framing. Size is the final edge length; the buffer is Size*Supersample.
type Options struct {
	Size        int
	Supersample int
	View        mathutil.Mat3
	Margin      int // pixels at final size; zero means 16, negative means none, at most 1/8 of the image
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = 512
	}
	if o.Supersample <= 0 {
		o.Supersample = 1
	}
	if o.View == (mathutil.Mat3{}) {
		o.View = mathutil.PreviewFront
	}
	if o.Margin < 0 {
		o.Margin = 0
	} else if o.Margin == 0 {
		o.Margin = 16
	}
	return o
}

type posed struct {
	r     *dismember.Renderer
	verts []mathutil.Vec3 // view space
}

// Render draws items fitted into a square image of Size*Supersample pixels.
// res may be nil; materials then use their flat color.
func Render(items []Item, res texture.Resolver, opts Options) *image.NRGBA {
	opts = opts.withDefaults()
	size := opts.Size * opts.Supersample

	var all []posed
	lo := mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi := mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, it := range items {
		it.Renderer.Walk(func(r *dismember.Renderer) {
			if r.Mesh == nil || r.Mesh.TriangleCount() == 0 {
				return
			}
			world := skeleton.ApplySkin(r.Mesh, r.Binding, it.Placement)
			p := posed{r: r, verts: make([]mathutil.Vec3, len(world))}
			for i, w := range world {
				v := opts.View.MulVec3(mathutil.V3(w))
				p.verts[i] = v
				for k := 0; k < 3; k++ {
					lo[k] = math.Min(lo[k], v[k])
					hi[k] = math.Max(hi[k], v[k])
				}
			}
			all = append(all, p)
		})
	}

	fb := NewFrameBuffer(size, size)
	if len(all) == 0 {
		return fb.Image()
	}

	center := lo.Add(hi).Scale(0.5)
	span := math.Max(math.Max(hi[0]-lo[0], hi[1]-lo[1]), 1e-3)
	margin := min(opts.Margin*opts.Supersample, size/8)
	scale := float64(size-2*margin) / span
	half := float64(size) / 2

	light := DefaultLight()
	for _, p := range all {
		drawPosed(fb, p, center, scale, half, res, &light)
	}
	return fb.Image()
}

func drawPosed(fb *FrameBuffer, p posed, center mathutil.Vec3, scale, half float64, res texture.Resolver, l *Light) {
	m := p.r.Mesh
	proj := make([]Vertex, len(p.verts))
	uvs := m.UVs[0]
	for i, v := range p.verts {
		proj[i] = Vertex{
			X: (v[0]-center[0])*scale + half,
			Y: half - (v[1]-center[1])*scale,
			Z: v[2] - center[2],
		}
		if i < len(uvs) {
			proj[i].U, proj[i].V = float64(uvs[i][0]), float64(uvs[i][1])
		}
	}

	for s, tris := range m.Submeshes {
		surf := surfaceFor(p.r, s, res, len(uvs) == len(p.verts))
		for t := 0; t+2 < len(tris); t += 3 {
			i0, i1, i2 := tris[t], tris[t+1], tris[t+2]
			if i0 < 0 || i1 < 0 || i2 < 0 || i0 >= len(proj) || i1 >= len(proj) || i2 >= len(proj) {
				continue
			}
			n := p.verts[i1].Sub(p.verts[i0]).Cross(p.verts[i2].Sub(p.verts[i0]))
			if n.LenSqr() < 1e-16 {
				continue
			}
			fb.Triangle(proj[i0], proj[i1], proj[i2], n.Normalize(), surf, l)
		}
	}
}

// surfaceFor picks the paint for submesh s. Slots past the material list reuse the last material.
func surfaceFor(r *dismember.Renderer, s int, res texture.Resolver, hasUV bool) Surface {
	if len(r.Materials) == 0 {
		return Surface{Color: DefaultColor}
	}
	mat := r.Materials[min(s, len(r.Materials)-1)]
	if mat == nil {
		return Surface{Color: DefaultColor}
	}
	surf := Surface{Color: colorOf(mat.Color)}
	if res == nil || mat.Texture == "" {
		return surf
	}
	if tex := res.Resolve(mat.Texture); tex != nil {
		surf.Color = AverageColor(tex)
		if hasUV {
			surf.Tex = tex
		}
	}
	return surf
}

func colorOf(c [4]float32) [4]uint8 {
	if c == ([4]float32{}) {
		return DefaultColor
	}
	var out [4]uint8
	for i, f := range c {
		out[i] = clamp255(float64(f) * 255)
	}
	return out
}
