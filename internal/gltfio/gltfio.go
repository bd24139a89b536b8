// Package gltfio reads skinned characters from glTF and writes cut results back out.
package gltfio

import (
	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/skeleton"
)

func toGltfMat(m mgl32.Mat4) [4][4]float32 {
	var out [4][4]float32
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c][r] = m[c*4+r]
		}
	}
	return out
}

func fromGltfMat(m [4][4]float32) mgl32.Mat4 {
	var out mgl32.Mat4
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[c*4+r] = m[c][r]
		}
	}
	return out
}

func toTRS(t skeleton.Transform) (translation [3]float32, rotation [4]float32, scale [3]float32) {
	q := t.Rotation.Normalize()
	return t.Position, [4]float32{q.V[0], q.V[1], q.V[2], q.W}, t.Scale
}

func fromTRS(translation [3]float32, rotation [4]float32, scale [3]float32) skeleton.Transform {
	t := skeleton.IdentityTransform()
	t.Position = translation
	if rotation != ([4]float32{}) {
		t.Rotation = mgl32.Quat{W: rotation[3], V: mgl32.Vec3{rotation[0], rotation[1], rotation[2]}}
	}
	if scale != ([3]float32{}) {
		t.Scale = scale
	}
	return t
}
