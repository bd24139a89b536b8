package dismember

import (
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/mesh"
	"mesh-dismember/internal/skeleton"
)

// Material is the surface assigned to a submesh slot.
type Material struct {
	Name    string
	Texture string // image path, may be empty
	Color   [4]float32
}

// Renderer draws one skinned mesh. Materials are indexed by submesh.
type Renderer struct {
	Name      string
	Mesh      *mesh.Mesh
	Binding   skeleton.Binding
	Materials []*Material
	Children  []*Renderer
}

// Walk visits r and then every descendant depth-first.
func (r *Renderer) Walk(fn func(*Renderer)) {
	if r == nil {
		return
	}
	fn(r)
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

// RemoveChild detaches c and reports whether it was a direct child.
func (r *Renderer) RemoveChild(c *Renderer) bool {
	for i, x := range r.Children {
		if x == c {
			r.Children = append(r.Children[:i], r.Children[i+1:]...)
			return true
		}
	}
	return false
}

// Fragment is a severed piece. Node Root of Skeleton carries the character's placement and
// parents a full copy of the character's skeleton.
type Fragment struct {
	Name     string
	Skeleton *skeleton.Skeleton
	Root     int
	Renderer *Renderer
	Cut      CutRecord

	targetBone int
	remap      []int // character node -> fragment node
}

// TargetBone returns the clone of the cut bone.
func (f *Fragment) TargetBone() int { return f.targetBone }

// Animator resolves humanoid joints to bones of the character's skeleton.
type Animator interface {
	IsHuman() bool
	BoneTransform(j humanoid.Joint) (bone int, ok bool)
}

// CharacterData provides the character's primary skinned renderer.
type CharacterData interface {
	Renderer() *Renderer
}

// MaterialProvider supplies the material caps are drawn with.
type MaterialProvider interface {
	CapMaterial() *Material
}

// Placer is implemented by characters with a world placement. Fragments start there.
type Placer interface {
	Placement() skeleton.Transform
}

// Character is a ready-made Animator, CharacterData and Placer.
type Character struct {
	Name     string
	Skeleton *skeleton.Skeleton
	Place    skeleton.Transform
	Human    bool
	Joints   map[humanoid.Joint]int
	Primary  *Renderer
}

// NewCharacter wraps a mesh bound to a skeleton. Joints are mapped from bones whose names
// match humanoid joint names; the character counts as human when Hips resolves.
func NewCharacter(name string, m *mesh.Mesh, b skeleton.Binding, place skeleton.Transform, mats []*Material) *Character {
	c := &Character{
		Name:     name,
		Skeleton: b.Skeleton,
		Place:    place,
		Joints:   MapJoints(b.Skeleton),
		Primary:  &Renderer{Name: name, Mesh: m, Binding: b, Materials: mats},
	}
	_, c.Human = c.Joints[humanoid.Hips]
	return c
}

// MapJoints matches bone names against the humanoid joint table, case-insensitively.
func MapJoints(s *skeleton.Skeleton) map[humanoid.Joint]int {
	out := make(map[humanoid.Joint]int)
	if s == nil {
		return out
	}
	for i, n := range s.Nodes {
		j, err := humanoid.ParseJoint(n.Name)
		if err != nil {
			continue
		}
		if _, dup := out[j]; !dup {
			out[j] = i
		}
	}
	return out
}

func (c *Character) IsHuman() bool { return c.Human && c.Skeleton != nil }

func (c *Character) BoneTransform(j humanoid.Joint) (int, bool) {
	bone, ok := c.Joints[j]
	return bone, ok && c.Skeleton.Valid(bone)
}

func (c *Character) Renderer() *Renderer { return c.Primary }

func (c *Character) Placement() skeleton.Transform { return c.Place }

// StaticMaterial hands out one fixed cap material.
type StaticMaterial struct {
	Material *Material
}

func (s StaticMaterial) CapMaterial() *Material { return s.Material }
