// Package bucket partitions submesh triangles into outer and inner lists and collects the
// boundary edges between them.
package bucket

import "github.com/pkg/errors"

// ErrIndex is returned when a triangle references a vertex the classification does not cover.
var ErrIndex = errors.New("bucket: index out of range")

// Result holds one partition. Its slices belong to the Bucketer that produced it and are
// overwritten by the next Split.
type Result struct {
	Outer [][]int // per submesh
	Inner [][]int // per submesh
	// Edges is the boundary edge sequence, two vertex indices per edge, in submesh order.
	Edges []int

	InnerTriangles int
	MixedTriangles int
}

// HasInner reports whether any triangle landed in the inner bucket.
func (r *Result) HasInner() bool { return r.InnerTriangles > 0 }

// EdgeCount returns the number of boundary edges.
func (r *Result) EdgeCount() int { return len(r.Edges) / 2 }

// Bucketer keeps scratch buffers between splits. A Bucketer is not safe for concurrent use.
type Bucketer struct {
	res Result
}

// Split buckets every submesh against the mesh-wide inner flags.
//
// A triangle whose three vertices agree goes to that bucket. A mixed triangle goes to the
// inner bucket unclipped. A mixed triangle also emits the edge opposite its lone vertex,
// keeping the triangle's winding.
func (b *Bucketer) Split(submeshes [][]int, inner []bool) (*Result, error) {
	r := &b.res
	r.Outer = resize(r.Outer, len(submeshes))
	r.Inner = resize(r.Inner, len(submeshes))
	r.Edges = r.Edges[:0]
	r.InnerTriangles, r.MixedTriangles = 0, 0

	for si, tris := range submeshes {
		if len(tris)%3 != 0 {
			return nil, errors.Wrapf(ErrIndex, "submesh %d has %d indices", si, len(tris))
		}
		outer, in := r.Outer[si], r.Inner[si]
		for i := 0; i < len(tris); i += 3 {
			v := [3]int{tris[i], tris[i+1], tris[i+2]}
			var flags [3]bool
			n := 0
			for k, vi := range v {
				if vi < 0 || vi >= len(inner) {
					return nil, errors.Wrapf(ErrIndex, "submesh %d triangle %d vertex %d", si, i/3, vi)
				}
				flags[k] = inner[vi]
				if flags[k] {
					n++
				}
			}

			if n == 0 {
				outer = append(outer, v[0], v[1], v[2])
				continue
			}
			in = append(in, v[0], v[1], v[2])
			r.InnerTriangles++
			if n == 3 {
				continue
			}
			r.MixedTriangles++

			// the lone vertex is the only inner one when n == 1, the only outer one when n == 2
			lone := 0
			for k := range flags {
				if flags[k] == (n == 1) {
					lone = k
					break
				}
			}
			r.Edges = append(r.Edges, v[(lone+1)%3], v[(lone+2)%3])
		}
		r.Outer[si], r.Inner[si] = outer, in
	}
	return r, nil
}

func resize(lists [][]int, n int) [][]int {
	if cap(lists) < n {
		grown := make([][]int, n)
		copy(grown, lists)
		lists = grown
	}
	lists = lists[:n]
	for i := range lists {
		lists[i] = lists[i][:0]
	}
	return lists
}

// Copy returns a deep copy of the per-submesh lists, detached from the Bucketer's buffers.
func Copy(lists [][]int) [][]int {
	out := make([][]int, len(lists))
	for i, l := range lists {
		out[i] = append(make([]int, 0, len(l)), l...)
	}
	return out
}
