// Package skeleton stores bone hierarchies as index arenas and clones them for skinned fragments.
package skeleton

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// RootName is the name of the node every character hierarchy is rooted at.
const RootName = "Root"

// ErrUnknownBone is returned when a bone index or name does not resolve.
var ErrUnknownBone = errors.New("skeleton: unknown bone")

// Transform is a local transform relative to the parent node.
type Transform struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// IdentityTransform has no translation, no rotation and unit scale.
func IdentityTransform() Transform {
	return Transform{Rotation: mgl32.QuatIdent(), Scale: mgl32.Vec3{1, 1, 1}}
}

// Matrix returns T * R * S.
func (t Transform) Matrix() mgl32.Mat4 {
	return mgl32.Translate3D(t.Position[0], t.Position[1], t.Position[2]).
		Mul4(t.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(t.Scale[0], t.Scale[1], t.Scale[2]))
}

// Node is one bone. Parent is -1 for top-level nodes.
type Node struct {
	Name     string
	Parent   int
	Children []int
	Local    Transform
}

// Skeleton is an arena of nodes. A node's parent always has a smaller index.
type Skeleton struct {
	Nodes []Node
}

// New returns an empty skeleton.
func New() *Skeleton {
	return &Skeleton{}
}

// Len returns the node count.
func (s *Skeleton) Len() int { return len(s.Nodes) }

// Add appends a node under parent (-1 for none) and returns its index.
func (s *Skeleton) Add(name string, parent int, local Transform) int {
	idx := len(s.Nodes)
	s.Nodes = append(s.Nodes, Node{Name: name, Parent: parent, Local: local})
	if parent >= 0 {
		s.Nodes[parent].Children = append(s.Nodes[parent].Children, idx)
	}
	return idx
}

// Valid reports whether i indexes a node.
func (s *Skeleton) Valid(i int) bool {
	return i >= 0 && i < len(s.Nodes)
}

// Find returns the first node with the given name.
func (s *Skeleton) Find(name string) (int, bool) {
	for i := range s.Nodes {
		if s.Nodes[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Root returns the node named Root, or the first top-level node when none is named so.
func (s *Skeleton) Root() (int, bool) {
	if i, ok := s.Find(RootName); ok {
		return i, true
	}
	for i := range s.Nodes {
		if s.Nodes[i].Parent < 0 {
			return i, true
		}
	}
	return -1, false
}

// Subtree lists root and all of its descendants depth-first, parents before children,
// children in insertion order.
func (s *Skeleton) Subtree(root int) []int {
	if !s.Valid(root) {
		return nil
	}
	out := make([]int, 0, 16)
	stack := []int{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n)
		children := s.Nodes[n].Children
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return out
}

// InSubtree reports whether node is root or one of its descendants.
func (s *Skeleton) InSubtree(root, node int) bool {
	for n := node; s.Valid(n); n = s.Nodes[n].Parent {
		if n == root {
			return true
		}
	}
	return false
}

// WorldMatrices computes the world transform for each node, with top-level nodes placed by placement.
func (s *Skeleton) WorldMatrices(placement mgl32.Mat4) []mgl32.Mat4 {
	worlds := make([]mgl32.Mat4, len(s.Nodes))
	for i, n := range s.Nodes {
		local := n.Local.Matrix()
		if n.Parent >= 0 && n.Parent < i {
			worlds[i] = worlds[n.Parent].Mul4(local)
		} else {
			worlds[i] = placement.Mul4(local)
		}
	}
	return worlds
}

// Binding is a skin binding: the flat bones array a mesh's bone weights index into.
// Entries are node indices in Skeleton; duplicates are allowed.
type Binding struct {
	Skeleton *Skeleton
	Bones    []int
}

// Validate checks that every slot references a node.
func (b Binding) Validate() error {
	if b.Skeleton == nil {
		return errors.Wrap(ErrUnknownBone, "binding has no skeleton")
	}
	for slot, n := range b.Bones {
		if !b.Skeleton.Valid(n) {
			return errors.Wrapf(ErrUnknownBone, "bones[%d] = %d", slot, n)
		}
	}
	return nil
}

// BindPoses returns inverse world matrices of every bones slot at the current pose.
func (b Binding) BindPoses(placement mgl32.Mat4) []mgl32.Mat4 {
	worlds := b.Skeleton.WorldMatrices(placement)
	out := make([]mgl32.Mat4, len(b.Bones))
	for slot, n := range b.Bones {
		out[slot] = worlds[n].Inv()
	}
	return out
}
