// Package humanoid names the standard humanoid joints and loads the joint → bitmask slice asset.
package humanoid

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Joint identifies a standard humanoid joint. Values double as bit positions in slice masks.
type Joint int

const (
	Hips Joint = iota
	LeftUpperLeg
	RightUpperLeg
	LeftLowerLeg
	RightLowerLeg
	LeftFoot
	RightFoot
	Spine
	Chest
	Neck
	Head
	LeftShoulder
	RightShoulder
	LeftUpperArm
	RightUpperArm
	LeftLowerArm
	RightLowerArm
	LeftHand
	RightHand
	LeftToes
	RightToes
	LeftEye
	RightEye

	JointCount
)

var jointNames = [JointCount]string{
	"Hips", "LeftUpperLeg", "RightUpperLeg", "LeftLowerLeg", "RightLowerLeg",
	"LeftFoot", "RightFoot", "Spine", "Chest", "Neck", "Head",
	"LeftShoulder", "RightShoulder", "LeftUpperArm", "RightUpperArm",
	"LeftLowerArm", "RightLowerArm", "LeftHand", "RightHand",
	"LeftToes", "RightToes", "LeftEye", "RightEye",
}

// ErrUnknownJoint is returned by ParseJoint for names outside the table.
var ErrUnknownJoint = errors.New("humanoid: unknown joint")

func (j Joint) Valid() bool { return j >= 0 && j < JointCount }

func (j Joint) String() string {
	if !j.Valid() {
		return "Joint(" + strconv.Itoa(int(j)) + ")"
	}
	return jointNames[j]
}

// Bit returns the joint's own bit in a slice mask.
func (j Joint) Bit() uint32 {
	if !j.Valid() {
		return 0
	}
	return 1 << uint(j)
}

// ParseJoint resolves a joint by name, case-insensitively.
func ParseJoint(name string) (Joint, error) {
	for i, n := range jointNames {
		if strings.EqualFold(n, name) {
			return Joint(i), nil
		}
	}
	return -1, errors.Wrapf(ErrUnknownJoint, "%q", name)
}

// Joints returns every joint in table order.
func Joints() []Joint {
	out := make([]Joint, JointCount)
	for i := range out {
		out[i] = Joint(i)
	}
	return out
}
