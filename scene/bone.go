package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sdf_robot_importer/pose"
)

type JointMode int

const (
	Revolute JointMode = iota
	Prismatic
	Fixed
)

func (jm JointMode) String() string {
	switch jm {
	case Revolute:
		return "REVOLUTE"
	case Prismatic:
		return "PRISMATIC"
	case Fixed:
		return "FIXED"
	default:
		return fmt.Sprintf("JointMode(%d)", int(jm))
	}
}

func (jm JointMode) MarshalText() ([]byte, error) {
	return []byte(jm.String()), nil
}

type Axis int

const (
	AxisUnset Axis = iota
	AxisX
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return ""
	}
}

func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

type Limits struct {
	Min float64
	Max float64
}

// Bone is a link+joint pair of the skeleton. It is never changed after
// registration, the builder collects all values beforehand.
type Bone struct {
	Name   string
	Parent string

	// relative to the parent bone
	Offset mgl64.Vec3
	// whole degrees, euler XYZ
	Rotation mgl64.Vec3

	JointMode  JointMode
	Axis       Axis
	AxisRevert bool
	// revolute limits in degrees
	Theta Limits
	// prismatic limits in meters
	D           Limits
	MaxVelocity float64

	// name of assigned physical frame, empty if none
	Physical string

	matrix mgl64.Mat4
}

// Local is bone transform in parent bone space
func (b *Bone) Local() mgl64.Mat4 {
	return mgl64.Translate3D(b.Offset[0], b.Offset[1], b.Offset[2]).Mul4(
		pose.EulerXYZToMat4(pose.Radians(b.Rotation)))
}

// Matrix is bone transform in armature space
func (b *Bone) Matrix() mgl64.Mat4 {
	return b.matrix
}

type BoneBuilder struct {
	bone Bone
}

func NewBone(name string) *BoneBuilder {
	return &BoneBuilder{bone: Bone{Name: name}}
}

func (bb *BoneBuilder) Name() string { return bb.bone.Name }

func (bb *BoneBuilder) Offset(xyz mgl64.Vec3) *BoneBuilder {
	bb.bone.Offset = xyz
	return bb
}

func (bb *BoneBuilder) Rotation(degrees mgl64.Vec3) *BoneBuilder {
	bb.bone.Rotation = degrees
	return bb
}

func (bb *BoneBuilder) JointMode(jm JointMode) *BoneBuilder {
	bb.bone.JointMode = jm
	return bb
}

func (bb *BoneBuilder) Axis(a Axis) *BoneBuilder {
	bb.bone.Axis = a
	return bb
}

func (bb *BoneBuilder) AxisRevert(revert bool) *BoneBuilder {
	bb.bone.AxisRevert = revert
	return bb
}

func (bb *BoneBuilder) Theta(min, max float64) *BoneBuilder {
	bb.bone.Theta = Limits{Min: min, Max: max}
	return bb
}

func (bb *BoneBuilder) D(min, max float64) *BoneBuilder {
	bb.bone.D = Limits{Min: min, Max: max}
	return bb
}

func (bb *BoneBuilder) MaxVelocity(v float64) *BoneBuilder {
	bb.bone.MaxVelocity = v
	return bb
}

func (bb *BoneBuilder) Physical(name string) *BoneBuilder {
	bb.bone.Physical = name
	return bb
}

// Peek returns a copy of the collected values
func (bb *BoneBuilder) Peek() Bone {
	return bb.bone
}
