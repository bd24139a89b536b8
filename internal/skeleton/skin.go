package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/mesh"
)

// SkinMatrices returns world * bindPose per bones slot.
func (b Binding) SkinMatrices(placement mgl32.Mat4, bindPoses []mgl32.Mat4) []mgl32.Mat4 {
	worlds := b.Skeleton.WorldMatrices(placement)
	out := make([]mgl32.Mat4, len(b.Bones))
	for slot, n := range b.Bones {
		bind := mgl32.Ident4()
		if slot < len(bindPoses) {
			bind = bindPoses[slot]
		}
		out[slot] = worlds[n].Mul4(bind)
	}
	return out
}

// SkinPoint applies linear blend skinning to one position. Missing weight is filled with the
// unskinned position so records summing below 1 stay in place.
func SkinPoint(p [3]float32, w mesh.BoneWeight, skin []mgl32.Mat4) [3]float32 {
	v := mgl32.Vec4{p[0], p[1], p[2], 1}
	var out mgl32.Vec4
	var total float32
	for k := 0; k < 4; k++ {
		wk := w.Weight[k]
		slot := w.Index[k]
		if wk == 0 || slot < 0 || slot >= len(skin) {
			continue
		}
		out = out.Add(skin[slot].Mul4x1(v).Mul(wk))
		total += wk
	}
	if total == 0 {
		return p
	}
	if total < 1 {
		out = out.Add(v.Mul(1 - total))
	}
	return [3]float32{out[0], out[1], out[2]}
}

// ApplySkin returns the posed vertex positions of m bound through b.
// The mesh itself is not modified.
func ApplySkin(m *mesh.Mesh, b Binding, placement mgl32.Mat4) [][3]float32 {
	out := make([][3]float32, len(m.Verts))
	if b.Skeleton == nil || len(b.Bones) == 0 {
		copy(out, m.Verts)
		return out
	}
	skin := b.SkinMatrices(placement, m.BindPoses)
	for i, p := range m.Verts {
		if i >= len(m.Weights) {
			out[i] = p
			continue
		}
		out[i] = SkinPoint(p, m.Weights[i], skin)
	}
	return out
}
