// Package classify decides, per vertex, whether it belongs to the region a cut detaches.
package classify

import (
	"math"

	"github.com/pkg/errors"

	"mesh-dismember/internal/mesh"
	"mesh-dismember/internal/skeleton"
)

var (
	// ErrInvalidTarget is returned when the target bone does not resolve on the binding's skeleton.
	ErrInvalidTarget = errors.New("classify: invalid target")
	// ErrMissingMaskChannel is returned when the mask UV channel is absent or too short.
	ErrMissingMaskChannel = errors.New("classify: missing mask channel")
	// ErrThreshold is returned for thresholds outside (0, 1].
	ErrThreshold = errors.New("classify: threshold out of range")
)

// Encoding selects how a mask channel's X component is turned into 32 bits.
type Encoding int

const (
	// Truncate converts the float value to an integer (authoring tools write small integers).
	Truncate Encoding = iota
	// FloatBits reinterprets the float's bit pattern.
	FloatBits
)

func (e Encoding) String() string {
	if e == FloatBits {
		return "bits"
	}
	return "truncate"
}

// ParseEncoding accepts "truncate" or "bits"; empty selects Truncate.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "", "truncate":
		return Truncate, nil
	case "bits":
		return FloatBits, nil
	}
	return Truncate, errors.Errorf("classify: unknown mask encoding %q", s)
}

// Decode turns one mask channel value into its bitmask. Truncate keeps the two's-complement
// bits of negative values, so a mask with bit 31 set round-trips through its int32 float.
func (e Encoding) Decode(x float32) uint32 {
	if e == FloatBits {
		return math.Float32bits(x)
	}
	switch {
	case math.IsNaN(float64(x)) || x < math.MinInt32:
		return 0
	case x >= math.MaxUint32:
		return math.MaxUint32
	case x < 0:
		return uint32(int32(x))
	}
	return uint32(x)
}

// BoneMask flags every bones-array slot that references target or one of its descendants.
func BoneMask(b skeleton.Binding, target int) ([]bool, error) {
	if b.Skeleton == nil || !b.Skeleton.Valid(target) {
		return nil, errors.Wrapf(ErrInvalidTarget, "bone %d", target)
	}
	mask := make([]bool, len(b.Bones))
	for slot, n := range b.Bones {
		mask[slot] = b.Skeleton.InSubtree(target, n)
	}
	return mask, nil
}

// ByThreshold marks a vertex inner when the weight it puts on masked slots is strictly
// greater than threshold. Influences referencing slots outside boneMask count as unmasked.
func ByThreshold(weights []mesh.BoneWeight, boneMask []bool, threshold float32) ([]bool, error) {
	if !(threshold > 0 && threshold <= 1) {
		return nil, errors.Wrapf(ErrThreshold, "%g", threshold)
	}
	inner := make([]bool, len(weights))
	for i, w := range weights {
		var sum float32
		for k := 0; k < 4; k++ {
			slot := w.Index[k]
			if w.Weight[k] > 0 && slot >= 0 && slot < len(boneMask) && boneMask[slot] {
				sum += w.Weight[k]
			}
		}
		inner[i] = sum > threshold
	}
	return inner, nil
}

// ByMask marks a vertex inner when its decoded channel mask shares a bit with bitmask.
func ByMask(channel [][2]float32, vertexCount int, bitmask uint32, enc Encoding) ([]bool, error) {
	if len(channel) == 0 || len(channel) < vertexCount {
		return nil, errors.Wrapf(ErrMissingMaskChannel, "%d entries for %d vertices", len(channel), vertexCount)
	}
	inner := make([]bool, vertexCount)
	for i := range inner {
		inner[i] = enc.Decode(channel[i][0])&bitmask != 0
	}
	return inner, nil
}

// Count returns how many flags are set.
func Count(inner []bool) int {
	n := 0
	for _, in := range inner {
		if in {
			n++
		}
	}
	return n
}

// BitCounts counts, for each of the 32 mask bits, the vertices whose decoded mask has it set.
// unmasked is the number of vertices decoding to 0.
func BitCounts(channel [][2]float32, enc Encoding) (bits [32]int, unmasked int) {
	for _, uv := range channel {
		m := enc.Decode(uv[0])
		if m == 0 {
			unmasked++
			continue
		}
		for b := 0; m != 0; b, m = b+1, m>>1 {
			if m&1 != 0 {
				bits[b]++
			}
		}
	}
	return bits, unmasked
}
