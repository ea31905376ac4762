package web

import (
	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/scene"
)

type ModelSummary struct {
	Name          string
	FileName      string
	Meta          scene.ModelMeta
	BoneCount     int
	GeometryCount int
}

func NewModelSummary(m *scene.Model) *ModelSummary {
	ms := &ModelSummary{
		Name:      m.Name,
		FileName:  m.FileName,
		Meta:      m.Meta,
		BoneCount: len(m.Bones()),
	}
	for _, b := range m.Bones() {
		ms.GeometryCount += len(m.Geometries(b.Name))
	}
	return ms
}

type GeometryView struct {
	Name     string
	Tag      scene.Tag
	FileName string
	Vertices int
	Faces    int
	// relative to the bone
	Pose pose.Pose
}

type PhysicalView struct {
	Name          string
	Mass          float64
	InertiaTensor [3]float64
}

type BoneView struct {
	Name        string
	Parent      string
	Offset      [3]float64
	Rotation    [3]float64
	JointMode   scene.JointMode
	Axis        scene.Axis
	AxisRevert  bool
	Theta       scene.Limits
	D           scene.Limits
	MaxVelocity float64
	Physical    *PhysicalView `json:",omitempty"`
	Geometries  []GeometryView
	// armature space
	Pose pose.Pose
}

type ModelView struct {
	ModelSummary
	WorldPose pose.Pose
	Bones     []BoneView
}

func NewModelView(s *scene.Scene, m *scene.Model) *ModelView {
	mv := &ModelView{
		ModelSummary: *NewModelSummary(m),
		WorldPose:    pose.FromMatrix(m.MatrixWorld),
	}
	for _, b := range m.Bones() {
		bv := BoneView{
			Name:        b.Name,
			Parent:      b.Parent,
			Offset:      b.Offset,
			Rotation:    b.Rotation,
			JointMode:   b.JointMode,
			Axis:        b.Axis,
			AxisRevert:  b.AxisRevert,
			Theta:       b.Theta,
			D:           b.D,
			MaxVelocity: b.MaxVelocity,
			Geometries:  []GeometryView{},
			Pose:        pose.FromMatrix(b.Matrix()),
		}
		if p := s.Physical(b.Physical); p != nil {
			bv.Physical = &PhysicalView{Name: p.Name, Mass: p.Mass, InertiaTensor: p.InertiaTensor}
		}
		for _, o := range m.Geometries(b.Name) {
			gv := GeometryView{
				Name:     o.Name,
				Tag:      o.Tag,
				FileName: o.FileName,
				Pose:     pose.FromMatrix(s.ObjectLocal(o)),
			}
			if o.Mesh != nil {
				gv.Vertices = len(o.Mesh.Vertices)
				gv.Faces = len(o.Mesh.Faces)
			}
			bv.Geometries = append(bv.Geometries, gv)
		}
		mv.Bones = append(mv.Bones, bv)
	}
	return mv
}
