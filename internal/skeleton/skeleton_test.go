package skeleton

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"mesh-dismember/internal/mesh"
)

func at(x, y, z float32) Transform {
	t := IdentityTransform()
	t.Position = mgl32.Vec3{x, y, z}
	return t
}

// Root ─ Hips ─┬ Spine ─ Head
//              └ LeftUpperLeg ─ LeftLowerLeg
func humanoid() *Skeleton {
	s := New()
	root := s.Add(RootName, -1, IdentityTransform())
	hips := s.Add("Hips", root, at(0, 1, 0))
	spine := s.Add("Spine", hips, at(0, 0.3, 0))
	s.Add("Head", spine, at(0, 0.5, 0))
	leg := s.Add("LeftUpperLeg", hips, at(0.1, -0.1, 0))
	s.Add("LeftLowerLeg", leg, at(0, -0.4, 0))
	return s
}

func TestSubtreeOrder(t *testing.T) {
	s := humanoid()
	got := s.Subtree(0)
	want := []int{0, 1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("Subtree(0) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Subtree(0) = %v, want %v", got, want)
		}
	}
	leg, _ := s.Find("LeftUpperLeg")
	if sub := s.Subtree(leg); len(sub) != 2 {
		t.Fatalf("Subtree(LeftUpperLeg) = %v, want 2 nodes", sub)
	}
	if !s.InSubtree(leg, 5) || s.InSubtree(leg, 3) {
		t.Fatalf("InSubtree gave wrong membership")
	}
}

func TestCloneFidelity(t *testing.T) {
	src := humanoid()
	src.Nodes[2].Local.Rotation = mgl32.QuatRotate(0.5, mgl32.Vec3{0, 1, 0})
	src.Nodes[4].Local.Scale = mgl32.Vec3{1, 2, 1}

	// slot 3 and 5 both reference Spine
	bones := []int{0, 1, 4, 2, 5, 2}
	leg, _ := src.Find("LeftUpperLeg")

	dst := New()
	top := dst.Add("LeftUpperLeg", -1, IdentityTransform())
	res, err := Clone(src, 0, bones, leg, dst, top)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}

	if len(res.Bones) != len(bones) {
		t.Fatalf("cloned bones length %d, want %d", len(res.Bones), len(bones))
	}
	for slot := range bones {
		s, c := src.Nodes[bones[slot]], dst.Nodes[res.Bones[slot]]
		if s.Name != c.Name || s.Local != c.Local {
			t.Errorf("slot %d: clone %+v differs from source %+v", slot, c, s)
		}
	}
	if res.Bones[3] != res.Bones[5] {
		t.Errorf("duplicate source slots resolved to %d and %d", res.Bones[3], res.Bones[5])
	}
	if dst.Nodes[res.Target].Name != "LeftUpperLeg" || res.Target == top {
		t.Errorf("target clone = %d (%s)", res.Target, dst.Nodes[res.Target].Name)
	}
	if dst.Nodes[res.Root].Parent != top {
		t.Errorf("clone root parent = %d, want %d", dst.Nodes[res.Root].Parent, top)
	}
	// child order mirrors the source
	hips := res.Remap[1]
	kids := dst.Nodes[hips].Children
	if len(kids) != 2 || dst.Nodes[kids[0]].Name != "Spine" || dst.Nodes[kids[1]].Name != "LeftUpperLeg" {
		t.Errorf("hips children = %v", kids)
	}
}

func TestClonePassesThroughOutsideSlots(t *testing.T) {
	src := humanoid()
	leg, _ := src.Find("LeftUpperLeg")
	res, err := Clone(src, leg, []int{0, leg, 5}, 3, New(), -1)
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	if res.Bones[0] != 0 {
		t.Errorf("outside slot changed to %d", res.Bones[0])
	}
	if res.Target != -1 {
		t.Errorf("target outside subtree resolved to %d", res.Target)
	}
}

func TestApplySkinFollowsBone(t *testing.T) {
	s := humanoid()
	b := Binding{Skeleton: s, Bones: []int{0, 5}}
	m := &mesh.Mesh{
		Verts:   [][3]float32{{0.1, 0.5, 0}},
		Weights: []mesh.BoneWeight{mesh.Single(1)},
	}
	m.BindPoses = b.BindPoses(mgl32.Ident4())

	posed := ApplySkin(m, b, mgl32.Ident4())
	if !mgl32.Vec3(posed[0]).ApproxEqualThreshold(mgl32.Vec3(m.Verts[0]), 1e-5) {
		t.Fatalf("bind pose moved vertex to %v", posed[0])
	}

	s.Nodes[5].Local.Position = mgl32.Vec3{0, -0.4, 1}
	posed = ApplySkin(m, b, mgl32.Ident4())
	want := mgl32.Vec3{0.1, 0.5, 1}
	if !mgl32.Vec3(posed[0]).ApproxEqualThreshold(want, 1e-5) {
		t.Fatalf("posed vertex %v, want %v", posed[0], want)
	}
}
