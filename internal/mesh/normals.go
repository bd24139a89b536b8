package mesh

import "github.com/chewxy/math32"

// RecalculateNormals rebuilds smooth per-vertex normals from every submesh's triangles.
// Face normals are area-weighted; vertices no triangle references keep their previous normal.
func (m *Mesh) RecalculateNormals() {
	acc := make([][3]float32, len(m.Verts))
	used := make([]bool, len(m.Verts))

	for _, sm := range m.Submeshes {
		for i := 0; i+2 < len(sm); i += 3 {
			a, b, c := sm[i], sm[i+1], sm[i+2]
			p0, p1, p2 := m.Verts[a], m.Verts[b], m.Verts[c]
			e1 := [3]float32{p1[0] - p0[0], p1[1] - p0[1], p1[2] - p0[2]}
			e2 := [3]float32{p2[0] - p0[0], p2[1] - p0[1], p2[2] - p0[2]}
			n := [3]float32{
				e1[1]*e2[2] - e1[2]*e2[1],
				e1[2]*e2[0] - e1[0]*e2[2],
				e1[0]*e2[1] - e1[1]*e2[0],
			}
			for _, vi := range [3]int{a, b, c} {
				acc[vi][0] += n[0]
				acc[vi][1] += n[1]
				acc[vi][2] += n[2]
				used[vi] = true
			}
		}
	}

	if len(m.Normals) != len(m.Verts) {
		m.Normals = make([][3]float32, len(m.Verts))
	}
	for i, n := range acc {
		if !used[i] {
			continue
		}
		l := math32.Sqrt(n[0]*n[0] + n[1]*n[1] + n[2]*n[2])
		if l < 1e-12 {
			continue
		}
		m.Normals[i] = [3]float32{n[0] / l, n[1] / l, n[2] / l}
	}
}
