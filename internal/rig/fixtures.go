package rig

import "mesh-dismember/internal/humanoid"

// Cube is a unit cube bound to Root -> Limb. The four bottom vertices are fully weighted to
// Root, the four top vertices fully to Limb. Limb is mapped to LeftUpperArm, and UV channel 2
// carries the Hips bit on the bottom and the LeftUpperArm bit on the top.
func Cube() *Description {
	d := &Description{
		Name: "cube",
		Bones: []BoneDesc{
			{Name: "Root"},
			{Name: "Limb", Parent: "Root", TransformDesc: TransformDesc{Position: [3]float32{0, 1, 0}}},
		},
		Joints: map[string]string{"Hips": "Root", "LeftUpperArm": "Limb"},
		Mesh: MeshDesc{
			Name: "cube",
			Vertices: [][3]float32{
				{0, 0, 0}, {1, 0, 0}, {1, 0, 1}, {0, 0, 1},
				{0, 1, 0}, {1, 1, 0}, {1, 1, 1}, {0, 1, 1},
			},
			Submeshes: [][]int{{
				0, 2, 1, 0, 3, 2, // bottom
				4, 5, 6, 4, 6, 7, // top
				0, 1, 5, 0, 5, 4, // -z
				1, 2, 6, 1, 6, 5, // +x
				2, 3, 7, 2, 7, 6, // +z
				3, 0, 4, 3, 4, 7, // -x
			}},
		},
		Materials: []MaterialDesc{{Name: "skin", Color: [4]float32{0.8, 0.6, 0.5, 1}}},
	}
	for i := 0; i < 8; i++ {
		bone, bit := "Root", humanoid.Hips.Bit()
		if i >= 4 {
			bone, bit = "Limb", humanoid.LeftUpperArm.Bit()
		}
		d.Mesh.Weights = append(d.Mesh.Weights, WeightDesc{Bones: []string{bone}, Weights: []float32{1}})
		d.Mesh.UV1 = append(d.Mesh.UV1, [2]float32{float32(i%2), float32(i / 4)})
		d.Mesh.UV2 = append(d.Mesh.UV2, [2]float32{float32(bit), 0})
	}
	return d
}

// ColumnBones names the column's bones from the bottom ring up.
var ColumnBones = []string{"Hips", "Spine", "Chest"}

// Column is a square column of three rings, bound to Root -> Hips -> Spine -> Chest with ring i
// fully weighted to ColumnBones[i]. UV channel 2 holds each ring's own joint bit.
func Column() *Description {
	d := &Description{
		Name:      "column",
		Bones:     []BoneDesc{{Name: "Root"}},
		Mesh:      MeshDesc{Name: "column", Submeshes: [][]int{nil}},
		Materials: []MaterialDesc{{Name: "skin", Color: [4]float32{0.8, 0.6, 0.5, 1}}},
	}
	parent := "Root"
	corners := [4][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	for ring, name := range ColumnBones {
		y := float32(ring)
		d.Bones = append(d.Bones, BoneDesc{Name: name, Parent: parent, TransformDesc: TransformDesc{Position: [3]float32{0, 1, 0}}})
		parent = name
		j, _ := humanoid.ParseJoint(name)
		for _, c := range corners {
			d.Mesh.Vertices = append(d.Mesh.Vertices, [3]float32{c[0], y, c[1]})
			d.Mesh.Weights = append(d.Mesh.Weights, WeightDesc{Bones: []string{name}, Weights: []float32{1}})
			d.Mesh.UV2 = append(d.Mesh.UV2, [2]float32{float32(j.Bit()), 0})
		}
	}
	d.Bones[1].Position = [3]float32{}

	tris := []int{0, 2, 1, 0, 3, 2}
	for ring := 0; ring+1 < len(ColumnBones); ring++ {
		lo, hi := ring*4, (ring+1)*4
		for k := 0; k < 4; k++ {
			a, b := lo+k, lo+(k+1)%4
			tris = append(tris, a, b, hi+(k+1)%4, a, hi+(k+1)%4, hi+k)
		}
	}
	top := (len(ColumnBones) - 1) * 4
	tris = append(tris, top, top+1, top+2, top, top+2, top+3)
	d.Mesh.Submeshes[0] = tris
	return d
}
