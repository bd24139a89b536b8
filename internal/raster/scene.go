package raster

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/skeleton"
)

// Scene lays out a character and its fragments for a preview. Each fragment is pushed
// spread units away from the character along the line between the two centroids, so the
// cut faces are visible.
func Scene(c *dismember.Character, frags []*dismember.Fragment, spread float32) []Item {
	place := c.Place.Matrix()
	items := []Item{{Renderer: c.Primary, Placement: place}}
	body, ok := centroid(c.Primary, place)

	for _, f := range frags {
		pl := mgl32.Ident4()
		if ok && spread != 0 {
			if fc, fok := centroid(f.Renderer, pl); fok {
				dir := fc.Sub(body)
				if dir.LenSqr() > mathutil.Epsilon {
					d := dir.Normalize().Scale(float64(spread))
					pl = mgl32.Translate3D(float32(d[0]), float32(d[1]), float32(d[2]))
				}
			}
		}
		items = append(items, Item{Renderer: f.Renderer, Placement: pl})
	}
	return items
}

// centroid averages the posed positions of vertices referenced by r's triangles.
func centroid(r *dismember.Renderer, placement mgl32.Mat4) (mathutil.Vec3, bool) {
	if r == nil || r.Mesh == nil {
		return mathutil.Vec3{}, false
	}
	world := skeleton.ApplySkin(r.Mesh, r.Binding, placement)
	var sum mathutil.Vec3
	n := 0
	for _, tris := range r.Mesh.Submeshes {
		for _, i := range tris {
			if i >= 0 && i < len(world) {
				sum = sum.Add(mathutil.V3(world[i]))
				n++
			}
		}
	}
	if n == 0 {
		return mathutil.Vec3{}, false
	}
	return sum.Scale(1 / float64(n)), true
}
