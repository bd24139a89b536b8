// Package rig loads character descriptions (skeleton, skinned mesh, joint map) from YAML.
package rig

import (
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"mesh-dismember/internal/dismember"
	"mesh-dismember/internal/humanoid"
	"mesh-dismember/internal/mathutil"
	"mesh-dismember/internal/mesh"
	"mesh-dismember/internal/skeleton"
)

// ErrRig marks an inconsistent rig description.
var ErrRig = errors.New("rig: invalid description")

// Description is the on-disk form of a character.
type Description struct {
	Name      string            `yaml:"name"`
	Human     *bool             `yaml:"human,omitempty"`
	Placement TransformDesc     `yaml:"placement"`
	Bones     []BoneDesc        `yaml:"bones"`
	Joints    map[string]string `yaml:"joints,omitempty"` // joint name -> bone name
	Mesh      MeshDesc          `yaml:"mesh"`
	Materials []MaterialDesc    `yaml:"materials,omitempty"`
}

// TransformDesc is a local transform. Rotation is Euler XYZ in degrees; a missing scale is 1.
type TransformDesc struct {
	Position [3]float32  `yaml:"position,flow"`
	Rotation [3]float64  `yaml:"rotation,flow"`
	Scale    *[3]float32 `yaml:"scale,flow,omitempty"`
}

// BoneDesc is one skeleton node. Parents must be listed before their children.
type BoneDesc struct {
	Name          string `yaml:"name"`
	Parent        string `yaml:"parent,omitempty"`
	TransformDesc `yaml:",inline"`
}

// MeshDesc is the skinned mesh. Skin lists the bones array by bone name and defaults to
// every bone in order.
type MeshDesc struct {
	Name      string       `yaml:"name"`
	Skin      []string     `yaml:"skin,omitempty"`
	Vertices  [][3]float32 `yaml:"vertices"`
	Weights   []WeightDesc `yaml:"weights"`
	UV1       [][2]float32 `yaml:"uv1,omitempty"`
	UV2       [][2]float32 `yaml:"uv2,omitempty"`
	UV3       [][2]float32 `yaml:"uv3,omitempty"`
	UV4       [][2]float32 `yaml:"uv4,omitempty"`
	Submeshes [][]int      `yaml:"submeshes"`
}

// WeightDesc binds one vertex to up to four bones by name.
type WeightDesc struct {
	Bones   []string  `yaml:"bones,flow"`
	Weights []float32 `yaml:"weights,flow"`
}

// MaterialDesc is a submesh material.
type MaterialDesc struct {
	Name    string     `yaml:"name"`
	Texture string     `yaml:"texture,omitempty"`
	Color   [4]float32 `yaml:"color,flow"`
}

// Transform converts to a skeleton transform.
func (t TransformDesc) Transform() skeleton.Transform {
	out := skeleton.IdentityTransform()
	out.Position = mgl32.Vec3(t.Position)
	out.Rotation = mathutil.EulerDegToQuat(t.Rotation).Mgl()
	if t.Scale != nil {
		out.Scale = mgl32.Vec3(*t.Scale)
	}
	return out
}

// Load reads and parses a YAML rig.
func Load(path string) (*Description, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "rig: read %s", path)
	}
	var d Description
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrapf(err, "rig: parse %s", path)
	}
	return &d, nil
}

// Save writes d as YAML.
func Save(path string, d *Description) error {
	data, err := yaml.Marshal(d)
	if err != nil {
		return errors.Wrapf(err, "rig: encode %s", d.Name)
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "rig: write %s", path)
}

// LoadCharacter loads a YAML rig and builds the character.
func LoadCharacter(path string) (*dismember.Character, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	return d.Build()
}

// Build assembles the skeleton, the skinned mesh and its bind poses.
func (d *Description) Build() (*dismember.Character, error) {
	s := skeleton.New()
	for _, b := range d.Bones {
		parent := -1
		if b.Parent != "" {
			p, ok := s.Find(b.Parent)
			if !ok {
				return nil, errors.Wrapf(ErrRig, "%s: bone %s: parent %s not defined before it", d.Name, b.Name, b.Parent)
			}
			parent = p
		}
		if _, dup := s.Find(b.Name); dup {
			return nil, errors.Wrapf(ErrRig, "%s: duplicate bone %s", d.Name, b.Name)
		}
		s.Add(b.Name, parent, b.Transform())
	}
	if s.Len() == 0 {
		return nil, errors.Wrapf(ErrRig, "%s: no bones", d.Name)
	}

	skin := d.Mesh.Skin
	if len(skin) == 0 {
		for _, n := range s.Nodes {
			skin = append(skin, n.Name)
		}
	}
	binding := skeleton.Binding{Skeleton: s, Bones: make([]int, len(skin))}
	slotOf := make(map[string]int, len(skin))
	for slot, name := range skin {
		n, ok := s.Find(name)
		if !ok {
			return nil, errors.Wrapf(ErrRig, "%s: skin references unknown bone %s", d.Name, name)
		}
		binding.Bones[slot] = n
		if _, seen := slotOf[name]; !seen {
			slotOf[name] = slot
		}
	}

	m := &mesh.Mesh{
		Name:      d.Mesh.Name,
		Verts:     d.Mesh.Vertices,
		Submeshes: d.Mesh.Submeshes,
	}
	if m.Name == "" {
		m.Name = d.Name
	}
	for ch, uvs := range [mesh.UVChannels][][2]float32{d.Mesh.UV1, d.Mesh.UV2, d.Mesh.UV3, d.Mesh.UV4} {
		m.UVs[ch] = uvs
	}
	m.Weights = make([]mesh.BoneWeight, len(d.Mesh.Weights))
	for vi, w := range d.Mesh.Weights {
		if len(w.Bones) > 4 || len(w.Bones) != len(w.Weights) {
			return nil, errors.Wrapf(ErrRig, "%s: vertex %d: %d bones for %d weights", d.Name, vi, len(w.Bones), len(w.Weights))
		}
		for k, name := range w.Bones {
			slot, ok := slotOf[name]
			if !ok {
				return nil, errors.Wrapf(ErrRig, "%s: vertex %d weights unknown bone %s", d.Name, vi, name)
			}
			m.Weights[vi].Index[k] = slot
			m.Weights[vi].Weight[k] = w.Weights[k]
		}
	}
	m.BindPoses = binding.BindPoses(mgl32.Ident4())
	if err := m.Validate(); err != nil {
		return nil, errors.Wrapf(err, "rig: %s", d.Name)
	}

	mats := make([]*dismember.Material, 0, len(m.Submeshes))
	for i := range m.Submeshes {
		mat := &dismember.Material{Name: "default", Color: [4]float32{1, 1, 1, 1}}
		if i < len(d.Materials) {
			md := d.Materials[i]
			mat = &dismember.Material{Name: md.Name, Texture: md.Texture, Color: md.Color}
		}
		mats = append(mats, mat)
	}

	c := dismember.NewCharacter(d.Name, m, binding, d.Placement.Transform(), mats)
	for jn, bn := range d.Joints {
		j, err := humanoid.ParseJoint(jn)
		if err != nil {
			return nil, errors.Wrapf(err, "rig: %s", d.Name)
		}
		n, ok := s.Find(bn)
		if !ok {
			return nil, errors.Wrapf(ErrRig, "%s: joint %s maps to unknown bone %s", d.Name, jn, bn)
		}
		c.Joints[j] = n
	}
	c.Human = len(c.Joints) > 0
	if d.Human != nil {
		c.Human = *d.Human
	}
	return c, nil
}
