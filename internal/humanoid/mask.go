package humanoid

import (
	"fmt"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// MaskAsset maps joints to the bitmask a cut at that joint removes.
//
// On disk it is YAML; each mask is either an integer or a list of joint names
// whose bits are OR-ed together:
//
//	masks:
//	  LeftUpperArm: [LeftUpperArm, LeftLowerArm, LeftHand]
//	  Head: 1024
type MaskAsset struct {
	Masks map[Joint]uint32
}

// NewMaskAsset returns an empty asset.
func NewMaskAsset() *MaskAsset {
	return &MaskAsset{Masks: make(map[Joint]uint32)}
}

// Mask returns the entry for j.
func (a *MaskAsset) Mask(j Joint) (uint32, bool) {
	if a == nil {
		return 0, false
	}
	m, ok := a.Masks[j]
	return m, ok
}

// Set stores the mask for j.
func (a *MaskAsset) Set(j Joint, mask uint32) {
	a.Masks[j] = mask
}

// IncludesItself reports whether j's own bit is present in its mask.
func (a *MaskAsset) IncludesItself(j Joint) bool {
	m, ok := a.Mask(j)
	return ok && m&j.Bit() != 0
}

// Warnings lists entries whose mask does not include the joint's own bit.
func (a *MaskAsset) Warnings() []string {
	var out []string
	for _, j := range a.sortedJoints() {
		if !a.IncludesItself(j) {
			out = append(out, fmt.Sprintf("%s: mask %#x does not include its own bit %#x", j, a.Masks[j], j.Bit()))
		}
	}
	return out
}

func (a *MaskAsset) sortedJoints() []Joint {
	js := make([]Joint, 0, len(a.Masks))
	for j := range a.Masks {
		js = append(js, j)
	}
	sort.Slice(js, func(i, k int) bool { return js[i] < js[k] })
	return js
}

type maskFile struct {
	Masks map[string]maskValue `yaml:"masks"`
}

type maskValue uint32

func (v *maskValue) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var n uint32
		if err := node.Decode(&n); err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		*v = maskValue(n)
		return nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return errors.Wrapf(err, "line %d", node.Line)
		}
		var m uint32
		for _, name := range names {
			j, err := ParseJoint(name)
			if err != nil {
				return errors.Wrapf(err, "line %d", node.Line)
			}
			m |= j.Bit()
		}
		*v = maskValue(m)
		return nil
	}
	return errors.Errorf("line %d: mask must be an integer or a list of joint names", node.Line)
}

// ParseMaskAsset decodes a YAML mask asset.
func ParseMaskAsset(data []byte) (*MaskAsset, error) {
	var f maskFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "humanoid: parse mask asset")
	}
	a := NewMaskAsset()
	for name, m := range f.Masks {
		j, err := ParseJoint(name)
		if err != nil {
			return nil, errors.Wrap(err, "humanoid: parse mask asset")
		}
		a.Set(j, uint32(m))
	}
	return a, nil
}

// LoadMaskAsset reads a YAML mask asset from disk.
func LoadMaskAsset(path string) (*MaskAsset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "humanoid: read %s", path)
	}
	return ParseMaskAsset(data)
}

// MarshalYAML writes masks as joint-name lists when every bit is a valid joint, integers otherwise.
func (a *MaskAsset) MarshalYAML() (interface{}, error) {
	out := maskFileOut{Masks: make(map[string]interface{}, len(a.Masks))}
	for _, j := range a.sortedJoints() {
		out.Masks[j.String()] = maskNames(a.Masks[j])
	}
	return out, nil
}

type maskFileOut struct {
	Masks map[string]interface{} `yaml:"masks"`
}

func maskNames(m uint32) interface{} {
	var names []string
	for bit := 0; bit < 32; bit++ {
		if m&(1<<uint(bit)) == 0 {
			continue
		}
		j := Joint(bit)
		if !j.Valid() {
			return m
		}
		names = append(names, j.String())
	}
	return names
}
