// Package capmesh builds the fan-triangulated lids that close the hole a cut leaves.
package capmesh

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/mesh"
)

// Options tune cap generation.
type Options struct {
	// RecalculateNormals replaces the flat cap normal with smooth normals from the fan topology.
	RecalculateNormals bool
	// Name is given to the generated mesh; "Cap" when empty.
	Name string
}

// Builder keeps the projection scratch buffer between builds.
// A Builder is not safe for concurrent use.
type Builder struct {
	projected []mathutil.Vec3
}

// Build is a convenience wrapper around a fresh Builder.
func Build(src *mesh.Mesh, edges []int, facing bool, opts Options) (*mesh.Mesh, error) {
	var b Builder
	return b.Build(src, edges, facing, opts)
}

// Build creates a cap over the boundary edge sequence. It returns nil without error when
// fewer than two edge indices are given.
//
// The cap copies the referenced vertices and bone weights in edge order, so it skins exactly
// like the border it seals. facing selects the winding: true for the lid left on the outer
// piece, false for the lid on the detached piece.
func (b *Builder) Build(src *mesh.Mesh, edges []int, facing bool, opts Options) (*mesh.Mesh, error) {
	if len(edges) < 2 {
		return nil, nil
	}
	if src == nil {
		return nil, errors.Wrap(mesh.ErrInvalid, "capmesh: nil source mesh")
	}
	n := len(edges)
	name := opts.Name
	if name == "" {
		name = "Cap"
	}
	out := &mesh.Mesh{
		Name:    name,
		Verts:   make([][3]float32, n),
		Normals: make([][3]float32, n),
		Weights: make([]mesh.BoneWeight, n),
	}
	out.UVs[0] = make([][2]float32, n)
	for i, vi := range edges {
		if vi < 0 || vi >= len(src.Verts) || vi >= len(src.Weights) {
			return nil, errors.Wrapf(mesh.ErrInvalid, "capmesh: edge vertex %d out of range", vi)
		}
		out.Verts[i] = src.Verts[vi]
		out.Weights[i] = src.Weights[vi]
	}
	if src.BindPoses != nil {
		out.BindPoses = append([]mgl32.Mat4(nil), src.BindPoses...)
	}

	rot := Orientation(out.Verts)
	b.project(rot, out.Verts, out.UVs[0])

	normal := rot.MulVec3(mathutil.Forward)
	if facing {
		normal = rot.MulVec3(mathutil.Back)
	}
	for i := range out.Normals {
		out.Normals[i] = normal.F32()
	}

	out.AddSubmesh(Fan(n, facing))
	if opts.RecalculateNormals {
		out.RecalculateNormals()
	}
	return out, nil
}

// Fan returns the triangle list over n fan vertices with vertex 0 as the apex, one triangle
// per consecutive pair (a, a+1) for even a.
func Fan(n int, facing bool) []int {
	tris := make([]int, 0, (n/2)*3)
	for a := 0; a+1 < n; a += 2 {
		if facing {
			tris = append(tris, 0, a, a+1)
		} else {
			tris = append(tris, 0, a+1, a)
		}
	}
	return tris
}

// Orientation estimates the cap plane from the vertices at 0, n/3 and 2n/3. The returned
// rotation maps +Z onto the estimated normal; nearly collinear samples give identity.
func Orientation(verts [][3]float32) mathutil.Mat3 {
	n := len(verts)
	if n == 0 {
		return mathutil.Mat3Identity()
	}
	v0 := mathutil.V3(verts[0])
	v1 := mathutil.V3(verts[n/3])
	v2 := mathutil.V3(verts[2*n/3])
	look := v0.Sub(v1).Cross(v2.Sub(v1))
	if look.LenSqr() <= mathutil.Epsilon {
		return mathutil.Mat3Identity()
	}
	return mathutil.LookRotation(look, mathutil.Up)
}

// project writes planar UVs: positions are taken into the orientation's frame and their
// X/Y extents are stretched to [0,1]. An axis with no extent maps to 0.
// The frame is the inverse (transpose) of rot, so U and V follow the cap plane's own axes.
func (b *Builder) project(rot mathutil.Mat3, verts [][3]float32, uvs [][2]float32) {
	view := rot.Transpose()
	b.projected = b.projected[:0]
	var lo, hi [2]float64
	for i, p := range verts {
		v := view.MulVec3(mathutil.V3(p))
		b.projected = append(b.projected, v)
		for k := 0; k < 2; k++ {
			if i == 0 || v[k] < lo[k] {
				lo[k] = v[k]
			}
			if i == 0 || v[k] > hi[k] {
				hi[k] = v[k]
			}
		}
	}
	for i, v := range b.projected {
		for k := 0; k < 2; k++ {
			span := hi[k] - lo[k]
			if span <= 0 {
				uvs[i][k] = 0
				continue
			}
			uvs[i][k] = float32((v[k] - lo[k]) / span)
		}
	}
}

// AppendFan is the lightweight cap: it adds a fan over the original vertex indices as an extra
// submesh of m and returns the submesh index, or -1 when fewer than two edge indices are given.
// No vertices, weights or UVs are created.
func AppendFan(m *mesh.Mesh, edges []int, facing bool) int {
	if len(edges) < 2 {
		return -1
	}
	fan := Fan(len(edges), facing)
	for i, local := range fan {
		fan[i] = edges[local]
	}
	return m.AddSubmesh(fan)
}
