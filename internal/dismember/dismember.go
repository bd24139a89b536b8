// Package dismember cuts a skinned character at a bone: the outer piece stays on the
// character's skeleton, the inner piece becomes a fragment with its own skeleton copy, and
// both sides of the cut are closed with caps.
package dismember

import (
	"log"
	"strings"

	"github.com/pkg/errors"

	"mesh-dismember/internal/classify"
	"mesh-dismember/internal/humanoid"
)

var (
	// ErrInvalidTarget is returned when the joint or bone cannot be resolved on the character.
	ErrInvalidTarget = classify.ErrInvalidTarget
	// ErrPrecondition marks malformed input: bad mesh data, missing renderer or cap material.
	ErrPrecondition = errors.New("dismember: precondition violated")
)

// Mode selects the vertex classification.
type Mode int

const (
	// ModeDefault defers to the engine configuration.
	ModeDefault Mode = iota
	// ModeThreshold classifies by bone weight on the cut bone's subtree.
	ModeThreshold
	// ModeMask classifies by the per-vertex bitmask stored in a UV channel.
	ModeMask
)

func (m Mode) String() string {
	switch m {
	case ModeThreshold:
		return "threshold"
	case ModeMask:
		return "mask"
	}
	return "default"
}

// ParseMode accepts "threshold", "legacy", "mask" or "" for ModeDefault.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "default":
		return ModeDefault, nil
	case "threshold", "legacy":
		return ModeThreshold, nil
	case "mask":
		return ModeMask, nil
	}
	return ModeDefault, errors.Errorf("dismember: unknown mode %q", s)
}

// CapMode selects how the cut is sealed.
type CapMode int

const (
	// CapFull builds separate cap meshes with projected UVs, one per side.
	CapFull CapMode = iota
	// CapAppend appends a fan over the border indices as an extra submesh of each piece.
	CapAppend
)

func (c CapMode) String() string {
	if c == CapAppend {
		return "append"
	}
	return "full"
}

// ParseCapMode accepts "full", "append" or "" for CapFull.
func ParseCapMode(s string) (CapMode, error) {
	switch strings.ToLower(s) {
	case "", "full":
		return CapFull, nil
	case "append", "legacy":
		return CapAppend, nil
	}
	return CapFull, errors.Errorf("dismember: unknown cap mode %q", s)
}

// Status explains the outcome of a cut that did not fail.
type Status int

const (
	StatusCut Status = iota
	// StatusNotConfigured: the joint is not sliceable, or the mask asset, its entry or the mask channel is missing.
	StatusNotConfigured
	// StatusAlreadyCut: the same bone and mask were cut before.
	StatusAlreadyCut
	// StatusEmptyCut: classification matched no triangle. Nothing was changed.
	StatusEmptyCut
	// StatusFailed accompanies a non-nil error.
	StatusFailed
)

var statusNames = [...]string{"cut", "not-configured", "already-cut", "empty", "failed"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// DefaultThreshold is the bone-weight threshold used when nothing else is configured.
const DefaultThreshold = 0.01

// DefaultUVChannel holds the vertex masks unless a request names another channel.
const DefaultUVChannel = 2

// SliceableJoint enables cutting at a joint, optionally with its own weight threshold.
type SliceableJoint struct {
	Joint     humanoid.Joint
	Threshold float32 // 0 uses the global threshold
}

// Config controls an Engine. The zero value is usable: threshold mode, full caps,
// global threshold 0.01, mask channel 2, no sliceable gate.
type Config struct {
	Mode            Mode
	GlobalThreshold float32

	// Sliceable lists the joints that may be cut. It only gates requests when SliceableOnly is set,
	// but per-joint thresholds apply either way.
	Sliceable     []SliceableJoint
	SliceableOnly bool

	MaskAsset    *humanoid.MaskAsset
	UVChannel    int
	MaskEncoding classify.Encoding

	CapMode            CapMode
	RecalculateNormals bool

	Logger *log.Logger
	// OnDismembered is called once per successful cut, after all wiring is done.
	OnDismembered func(Result)
}

func (c Config) withDefaults() Config {
	if c.Mode == ModeDefault {
		c.Mode = ModeThreshold
	}
	if !(c.GlobalThreshold > 0 && c.GlobalThreshold <= 1) {
		c.GlobalThreshold = DefaultThreshold
	}
	if c.UVChannel < 1 || c.UVChannel > 4 {
		c.UVChannel = DefaultUVChannel
	}
	if c.Logger == nil {
		c.Logger = log.Default()
	}
	return c
}

func (c *Config) sliceable(j humanoid.Joint) (SliceableJoint, bool) {
	for _, s := range c.Sliceable {
		if s.Joint == j {
			return s, true
		}
	}
	return SliceableJoint{}, false
}

// Request describes one cut at a humanoid joint. Zero fields take the engine's configuration.
type Request struct {
	Joint     humanoid.Joint
	Mode      Mode
	UVChannel int     // 1..4
	Bitmask   uint32  // mask mode; overrides the mask asset entry
	Threshold float32 // threshold mode; overrides the configured thresholds
}

// CutRecord identifies a completed cut. Mask is 0 for threshold cuts.
type CutRecord struct {
	Bone int
	Mask uint32
}

// Result is the outcome of a cut. Root is nil and TargetBone is -1 unless Status is StatusCut.
type Result struct {
	Root *Fragment
	// TargetBone is the clone of the cut bone inside Root.Skeleton.
	TargetBone int
	Status     Status
}

func empty(s Status) Result {
	return Result{TargetBone: -1, Status: s}
}

// OK reports whether the cut produced a fragment.
func (r Result) OK() bool { return r.Status == StatusCut && r.Root != nil }
