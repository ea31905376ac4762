package sdf

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/mogaika/sdf_robot_importer/pose"
)

type JointType string

const (
	JointRevolute   JointType = "revolute"
	JointPrismatic  JointType = "prismatic"
	JointFixed      JointType = "fixed"
	JointContinuous JointType = "continuous"
)

// Joint connects a link to its parent link
type Joint struct {
	Name   string
	Type   JointType
	Parent string
	Child  string
	Pose   pose.Pose
	Axis   Axis
}

type Axis struct {
	XYZ      mgl64.Vec3
	Limit    *Limit
	Dynamics *Dynamics
}

// Limit values are in radians for revolute joints and meters for prismatic ones
type Limit struct {
	Lower    float64
	Upper    float64
	Effort   float64
	Velocity float64
}

type Dynamics struct {
	Damping  float64
	Friction float64
}

// Link is a rigid body. Pose is expressed in the model frame.
type Link struct {
	Name      string
	Pose      pose.Pose
	Inertial  *Inertial
	Visual    []*GeometryInstance
	Collision []*GeometryInstance
}

type Inertial struct {
	Mass    float64
	Pose    pose.Pose
	Inertia Inertia
}

type Inertia struct {
	Ixx, Ixy, Ixz float64
	Iyy, Iyz      float64
	Izz           float64
}

func (i Inertia) Diagonal() mgl64.Vec3 {
	return mgl64.Vec3{i.Ixx, i.Iyy, i.Izz}
}

func (i Inertia) HasOffDiagonal() bool {
	return i.Ixy != 0 || i.Ixz != 0 || i.Iyz != 0
}

// GeometryInstance is one visual or collision entry of a link
type GeometryInstance struct {
	Name string
	// in the owning link frame
	Pose     pose.Pose
	Geometry Geometry
}

type GeometryKind int

const (
	KindNone GeometryKind = iota
	KindBox
	KindSphere
	KindCylinder
	KindMesh
	KindUnsupported
)

func (k GeometryKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindCylinder:
		return "cylinder"
	case KindMesh:
		return "mesh"
	default:
		return "unsupported"
	}
}

// Geometry is one of *Box, *Sphere, *Cylinder, *Mesh or *Unsupported.
// A nil Geometry means the entry declared no geometry at all.
type Geometry interface {
	Kind() GeometryKind
	isGeometry()
}

type Box struct {
	Size mgl64.Vec3
}

type Sphere struct {
	Radius float64
}

type Cylinder struct {
	Radius float64
	Length float64
}

type Mesh struct {
	URI   string
	Scale mgl64.Vec3
}

// Unsupported keeps the element name of a geometry the importer can't build
type Unsupported struct {
	Element string
}

func (*Box) Kind() GeometryKind         { return KindBox }
func (*Sphere) Kind() GeometryKind      { return KindSphere }
func (*Cylinder) Kind() GeometryKind    { return KindCylinder }
func (*Mesh) Kind() GeometryKind        { return KindMesh }
func (*Unsupported) Kind() GeometryKind { return KindUnsupported }

func (*Box) isGeometry()         {}
func (*Sphere) isGeometry()      {}
func (*Cylinder) isGeometry()    {}
func (*Mesh) isGeometry()        {}
func (*Unsupported) isGeometry() {}

func KindOf(g Geometry) GeometryKind {
	if g == nil {
		return KindNone
	}
	return g.Kind()
}

// KinematicNode is a link together with the joint attaching it to its parent.
// Joint is nil for chain roots.
type KinematicNode struct {
	Joint    *Joint
	Link     *Link
	Children []*KinematicNode
}

func (n *KinematicNode) IsRoot() bool {
	return n.Joint == nil
}

// Walk visits nodes depth first in declared child order
func (n *KinematicNode) Walk(f func(node *KinematicNode, depth int)) {
	n.walk(f, 0)
}

func (n *KinematicNode) walk(f func(node *KinematicNode, depth int), depth int) {
	f(n, depth)
	for _, c := range n.Children {
		c.walk(f, depth+1)
	}
}
