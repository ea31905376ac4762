package importer

import (
	"fmt"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/sdf"
)

var rootAxis = mgl64.Vec3{1, 0, 0}

// resolveAxis turns every exact -1 component into 1 and reports the flip.
// Only principal axes resolve, anything else stays AxisUnset.
func resolveAxis(v mgl64.Vec3) (axis scene.Axis, revert bool) {
	for i, c := range v {
		if c == -1.0 {
			revert = true
			v[i] = 1.0
		}
	}
	switch v {
	case mgl64.Vec3{1, 0, 0}:
		axis = scene.AxisX
	case mgl64.Vec3{0, 1, 0}:
		axis = scene.AxisY
	case mgl64.Vec3{0, 0, 1}:
		axis = scene.AxisZ
	default:
		axis = scene.AxisUnset
	}
	return
}

func (imp *Importer) jointProperties(log logrus.FieldLogger, bb *scene.BoneBuilder, j *sdf.Joint) {
	limit := j.Axis.Limit

	if j.Axis.Dynamics != nil && limit != nil {
		bb.MaxVelocity(limit.Velocity)
	}

	switch j.Type {
	case sdf.JointRevolute:
		bb.JointMode(scene.Revolute)
		if limit != nil {
			bb.Theta(mgl64.RadToDeg(limit.Lower), mgl64.RadToDeg(limit.Upper))
		}
	case sdf.JointContinuous:
		bb.JointMode(scene.Revolute)
	case sdf.JointPrismatic:
		bb.JointMode(scene.Prismatic)
		if limit != nil {
			bb.D(limit.Lower, limit.Upper)
		}
	case sdf.JointFixed:
		bb.JointMode(scene.Fixed)
	default:
		log.Warnf("joint type %q is not supported, left as %v", j.Type, bb.Peek().JointMode)
	}
}

func (imp *Importer) physical(log logrus.FieldLogger, bb *scene.BoneBuilder, link *sdf.Link) {
	in := link.Inertial
	p := imp.scene.CreatePhysical(link.Name)
	p.Mass = in.Mass
	if in.Inertia.HasOffDiagonal() {
		imp.reportError(log, "Only diagonal inertia matrices currently supported")
	}
	p.InertiaTensor = in.Inertia.Diagonal()
	bb.Physical(p.Name)
}

// Parse creates the bone of node below parentName ("" for a chain root),
// attaches its geometry and recurses into children in declared order.
// refPose is the pose of the parent link in the chain frame.
func (imp *Importer) Parse(m *scene.Model, node *sdf.KinematicNode, refPose pose.Pose, parentName string) (string, error) {
	link := node.Link
	isRoot := parentName == ""

	boneName := RootBoneName
	if !isRoot {
		boneName = node.Joint.Name
	}
	log := imp.log.WithFields(logrus.Fields{"link": link.Name, "bone": boneName})
	log.Infof("%s -> %s", parentName, boneName)

	childLinkPose := link.Pose
	prec := imp.settings.Precision
	parentHomo := pose.ToHomogeneous(pose.Rounded(refPose, prec))
	childHomo := pose.ToHomogeneous(pose.Rounded(childLinkPose, prec))
	xyz, euler := pose.Pose2Origin(parentHomo, childHomo)
	log.Debugf("child pose %v, parent pose %v, local xyz %v, local euler %v", childLinkPose, refPose, xyz, euler)

	bb := scene.NewBone(boneName).
		Offset(xyz).
		Rotation(pose.RoundDegrees(euler))

	axisVec := rootAxis
	if !isRoot {
		axisVec = node.Joint.Axis.XYZ
	}
	axis, revert := resolveAxis(axisVec)
	bb.AxisRevert(revert).Axis(axis)
	if axis == scene.AxisUnset {
		// non principal axes are not remapped, the bone keeps no axis
		log.Warnf("axis is wrong -> %v", axisVec)
	}

	if isRoot {
		bb.JointMode(scene.Fixed)
	} else {
		imp.jointProperties(log, bb, node.Joint)
	}

	if link.Inertial != nil {
		imp.physical(log, bb, link)
	}

	bone, err := imp.scene.AddBone(m, parentName, bb)
	if err != nil {
		return "", err
	}

	segmentWorld, err := imp.scene.SegmentWorld(m, bone.Name)
	if err != nil {
		return "", err
	}

	log.Debugf("%d visual, %d collision geometries", len(link.Visual), len(link.Collision))
	for _, group := range []struct {
		prefix string
		tag    scene.Tag
		list   []*sdf.GeometryInstance
	}{
		{"VIZ", scene.TagNone, link.Visual},
		{"COL", scene.TagCollision, link.Collision},
	} {
		for nr, inst := range group.list {
			trafo, objects, ok := imp.resolve(log, inst)
			if !ok {
				continue
			}
			name := strings.ReplaceAll(fmt.Sprintf("%s_%s_%d", group.prefix, link.Name, nr), " ", "")
			if err := imp.place(log, m, bone.Name, segmentWorld, trafo, objects, name, group.tag); err != nil {
				return "", err
			}
		}
	}

	for _, child := range node.Children {
		if _, err := imp.Parse(m, child, childLinkPose, bone.Name); err != nil {
			return "", err
		}
	}
	return bone.Name, nil
}

// place moves freshly created objects under the bone:
// world = segmentWorld * trafo * own transform, scale baked afterwards
func (imp *Importer) place(log logrus.FieldLogger, m *scene.Model, bone string,
	segmentWorld, trafo mgl64.Mat4, objects []*scene.Object, name string, tag scene.Tag) error {
	for _, o := range objects {
		imp.scene.ClearParentKeepTransform(o)
	}
	for _, o := range objects {
		if o.Kind != scene.ObjectMesh {
			log.Debugf("object type not mesh: %v", o.Kind)
			continue
		}

		imp.scene.ApplyTransform(o, true, true, true)
		o.MatrixWorld = segmentWorld.Mul4(trafo).Mul4(o.MatrixWorld)

		o.Tag = tag
		assigned := imp.scene.Rename(o, name)

		imp.scene.ApplyTransform(o, false, false, true)
		if err := imp.scene.AssignGeometry(m, bone, o); err != nil {
			return err
		}
		log.Debugf("geometry %q assigned", assigned)
	}
	return nil
}
