// Package mesh holds the skinned triangle mesh the dismemberment pipeline cuts.
package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/jinzhu/copier"
	"github.com/pkg/errors"
)

// UVChannels is the number of independent per-vertex UV channels a mesh can carry.
const UVChannels = 4

// ErrInvalid marks mesh data that breaks a structural invariant.
var ErrInvalid = errors.New("mesh: invalid")

// BoneWeight references up to four slots of a skin's bones array.
// Weights are non-negative and sum to at most 1.
type BoneWeight struct {
	Index  [4]int
	Weight [4]float32
}

// Single returns a weight record fully bound to one bone slot.
func Single(slot int) BoneWeight {
	return BoneWeight{Index: [4]int{slot, 0, 0, 0}, Weight: [4]float32{1, 0, 0, 0}}
}

// Mesh is an indexed triangle mesh with skinning data. Submeshes share the vertex arrays.
type Mesh struct {
	Name      string
	Verts     [][3]float32
	Normals   [][3]float32 // optional, len == len(Verts) when set
	UVs       [UVChannels][][2]float32
	Weights   []BoneWeight
	Submeshes [][]int // 3 indices per triangle
	BindPoses []mgl32.Mat4
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int { return len(m.Verts) }

// TriangleCount returns the number of triangles over all submeshes.
func (m *Mesh) TriangleCount() int {
	n := 0
	for _, sm := range m.Submeshes {
		n += len(sm) / 3
	}
	return n
}

// UVChannel returns a 1-based UV channel (1..4), or false when the channel is absent.
func (m *Mesh) UVChannel(ch int) ([][2]float32, bool) {
	if ch < 1 || ch > UVChannels {
		return nil, false
	}
	uvs := m.UVs[ch-1]
	if len(uvs) == 0 {
		return nil, false
	}
	return uvs, true
}

// AddSubmesh appends a triangle list and returns its submesh index.
func (m *Mesh) AddSubmesh(tris []int) int {
	m.Submeshes = append(m.Submeshes, tris)
	return len(m.Submeshes) - 1
}

// Validate checks the vertex/weight/index invariants.
func (m *Mesh) Validate() error {
	nv := len(m.Verts)
	if len(m.Weights) != nv {
		return errors.Wrapf(ErrInvalid, "%s: %d vertices but %d bone weights", m.Name, nv, len(m.Weights))
	}
	if len(m.Normals) > 0 && len(m.Normals) != nv {
		return errors.Wrapf(ErrInvalid, "%s: %d vertices but %d normals", m.Name, nv, len(m.Normals))
	}
	for ch, uvs := range m.UVs {
		if len(uvs) > 0 && len(uvs) != nv {
			return errors.Wrapf(ErrInvalid, "%s: uv%d has %d entries for %d vertices", m.Name, ch+1, len(uvs), nv)
		}
	}
	for si, sm := range m.Submeshes {
		if len(sm)%3 != 0 {
			return errors.Wrapf(ErrInvalid, "%s: submesh %d has %d indices", m.Name, si, len(sm))
		}
		for _, idx := range sm {
			if idx < 0 || idx >= nv {
				return errors.Wrapf(ErrInvalid, "%s: submesh %d index %d out of range [0,%d)", m.Name, si, idx, nv)
			}
		}
	}
	for vi, w := range m.Weights {
		var sum float32
		for k := 0; k < 4; k++ {
			if w.Weight[k] < 0 {
				return errors.Wrapf(ErrInvalid, "%s: vertex %d has negative weight", m.Name, vi)
			}
			sum += w.Weight[k]
		}
		if sum > 1.0001 {
			return errors.Wrapf(ErrInvalid, "%s: vertex %d weights sum to %.4f", m.Name, vi, sum)
		}
	}
	return nil
}

// Clone returns a deep copy that shares no slices with m.
func (m *Mesh) Clone() (*Mesh, error) {
	dst := new(Mesh)
	if err := copier.CopyWithOption(dst, m, copier.Option{DeepCopy: true}); err != nil {
		return nil, errors.Wrapf(err, "mesh: clone %s", m.Name)
	}
	// copier assigns fixed-size arrays by value, which would leave the channel slices shared.
	for ch, uvs := range m.UVs {
		if uvs != nil {
			dst.UVs[ch] = append([][2]float32(nil), uvs...)
		}
	}
	return dst, nil
}
