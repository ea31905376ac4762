package sdf

import (
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/utils"
)

const armSDF = `<?xml version="1.0"?>
<sdf version="1.6">
  <model name="arm">
    <link name="base">
      <inertial>
        <mass>2.5</mass>
        <inertia><ixx>0.1</ixx><iyy>0.2</iyy><izz>0.3</izz></inertia>
      </inertial>
      <visual name="v0"><geometry><box><size>2 4 6</size></box></geometry></visual>
      <collision name="c0">
        <pose>0 0 0.1 0 0 0</pose>
        <geometry><cylinder><radius>0.2</radius><length>0.5</length></cylinder></geometry>
      </collision>
    </link>
    <link name="upper">
      <pose>0 0 1 0 0 1.5707963</pose>
      <visual name="v0"><geometry><mesh><uri>model://arm/meshes/upper.stl</uri><scale>0.001 0.001 0.001</scale></mesh></geometry></visual>
      <visual name="v1"><geometry><sphere><radius>0.1</radius></sphere></geometry></visual>
      <visual name="v2"><geometry><plane><normal>0 0 1</normal></plane></geometry></visual>
      <visual name="v3"></visual>
    </link>
    <link name="tool"><pose>0 0 2 0 0 0</pose></link>
    <link name="sensor"><pose>0 0 1.5 0 0 0</pose></link>
    <joint name="shoulder" type="revolute">
      <parent>base</parent>
      <child>upper</child>
      <axis>
        <xyz>0 0 -1</xyz>
        <limit><lower>-1.57</lower><upper>1.57</upper><velocity>2</velocity></limit>
        <dynamics><damping>0.5</damping></dynamics>
      </axis>
    </joint>
    <joint name="wrist" type="prismatic">
      <parent>upper</parent>
      <child>tool</child>
    </joint>
    <joint name="mount" type="fixed">
      <parent>upper</parent>
      <child>sensor</child>
    </joint>
  </model>
</sdf>`

func decode(t *testing.T, src string) *Document {
	doc, err := Decode(strings.NewReader(src), utils.DiscardLogger())
	require.NoError(t, err)
	return doc
}

func TestDecodeTree(t *testing.T) {
	doc := decode(t, armSDF)

	assert.Equal(t, "1.6", doc.Version)
	assert.Equal(t, "arm", doc.ModelName)
	require.Len(t, doc.Roots, 1)
	assert.Equal(t, "base", doc.Roots[0].Name)
	require.Len(t, doc.Chains, 1)

	var order []string
	doc.Chains[0].Walk(func(n *KinematicNode, depth int) {
		order = append(order, n.Link.Name)
	})
	assert.Equal(t, []string{"base", "upper", "tool", "sensor"}, order)

	root := doc.Chains[0]
	assert.True(t, root.IsRoot())
	shoulder := root.Children[0]
	assert.Equal(t, "shoulder", shoulder.Joint.Name)
	assert.Equal(t, JointRevolute, shoulder.Joint.Type)
	assert.Equal(t, mgl64.Vec3{0, 0, -1}, shoulder.Joint.Axis.XYZ)
	require.NotNil(t, shoulder.Joint.Axis.Limit)
	assert.Equal(t, -1.57, shoulder.Joint.Axis.Limit.Lower)
	assert.Equal(t, 2.0, shoulder.Joint.Axis.Limit.Velocity)
	require.NotNil(t, shoulder.Joint.Axis.Dynamics)
	assert.Equal(t, 0.5, shoulder.Joint.Axis.Dynamics.Damping)

	wrist := shoulder.Children[0]
	assert.Equal(t, JointPrismatic, wrist.Joint.Type)
	assert.Equal(t, mgl64.Vec3{0, 0, 1}, wrist.Joint.Axis.XYZ, "default axis")
	assert.Nil(t, wrist.Joint.Axis.Limit)
}

func TestDecodeLinks(t *testing.T) {
	doc := decode(t, armSDF)
	base, upper := doc.Links[0], doc.Links[1]

	assert.Equal(t, pose.Zero, base.Pose)
	require.NotNil(t, base.Inertial)
	assert.Equal(t, 2.5, base.Inertial.Mass)
	assert.Equal(t, mgl64.Vec3{0.1, 0.2, 0.3}, base.Inertial.Inertia.Diagonal())
	assert.False(t, base.Inertial.Inertia.HasOffDiagonal())

	require.Len(t, base.Visual, 1)
	assert.Equal(t, &Box{Size: mgl64.Vec3{2, 4, 6}}, base.Visual[0].Geometry)
	require.Len(t, base.Collision, 1)
	assert.Equal(t, pose.Pose{0, 0, 0.1, 0, 0, 0}, base.Collision[0].Pose)
	assert.Equal(t, &Cylinder{Radius: 0.2, Length: 0.5}, base.Collision[0].Geometry)

	assert.Equal(t, pose.Pose{0, 0, 1, 0, 0, 1.5707963}, upper.Pose)
	require.Len(t, upper.Visual, 4)
	assert.Equal(t, &Mesh{URI: "model://arm/meshes/upper.stl", Scale: mgl64.Vec3{0.001, 0.001, 0.001}}, upper.Visual[0].Geometry)
	assert.Equal(t, KindSphere, KindOf(upper.Visual[1].Geometry))
	assert.Equal(t, KindUnsupported, KindOf(upper.Visual[2].Geometry))
	assert.Equal(t, KindNone, KindOf(upper.Visual[3].Geometry))
}

var badDocuments = []struct {
	name string
	src  string
}{
	{"no model", `<sdf version="1.6"></sdf>`},
	{"bad pose", `<sdf><model name="m"><link name="a"><pose>1 2</pose></link></model></sdf>`},
	{"bad number", `<sdf><model name="m"><link name="a"><inertial><mass>heavy</mass></inertial></link></model></sdf>`},
	{"unknown child", `<sdf><model name="m"><link name="a"/><joint name="j" type="fixed"><parent>a</parent><child>b</child></joint></model></sdf>`},
	{"duplicate link", `<sdf><model name="m"><link name="a"/><link name="a"/></model></sdf>`},
	{"loop", `<sdf><model name="m"><link name="a"/><link name="b"/>
		<joint name="j1" type="fixed"><parent>a</parent><child>b</child></joint>
		<joint name="j2" type="fixed"><parent>b</parent><child>a</child></joint></model></sdf>`},
	{"not xml", `<sdf><model`},
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range badDocuments {
		_, err := Decode(strings.NewReader(test.src), utils.DiscardLogger())
		if err == nil {
			t.Errorf("%s: expected error", test.name)
		}
	}
}

func TestWorldJointKeepsRoot(t *testing.T) {
	doc := decode(t, `<sdf version="1.6"><world name="w"><model name="m">
		<link name="a"/><link name="b"/>
		<joint name="fix" type="fixed"><parent>world</parent><child>a</child></joint>
		</model></world></sdf>`)

	assert.Equal(t, "m", doc.ModelName)
	require.Len(t, doc.Chains, 2)
	assert.Equal(t, "a", doc.Chains[0].Link.Name)
	assert.Equal(t, "b", doc.Chains[1].Link.Name)
}

var poseTests = []struct {
	in  string
	out pose.Pose
	err bool
}{
	{"", pose.Zero, false},
	{"   ", pose.Zero, false},
	{"1 2 3 0.1 0.2 0.3", pose.Pose{1, 2, 3, 0.1, 0.2, 0.3}, false},
	{"\n  1 2 3\n 0 0 0 ", pose.Pose{1, 2, 3, 0, 0, 0}, false},
	{"1 2 3", pose.Zero, true},
	{"1 2 3 a b c", pose.Zero, true},
}

func TestParsePose(t *testing.T) {
	for _, test := range poseTests {
		result, err := ParsePose(test.in)
		if (err != nil) != test.err {
			t.Errorf("ParsePose(%q) error %v; expected error %t", test.in, err, test.err)
			continue
		}
		if result != test.out {
			t.Errorf("ParsePose(%q)=%v; expected %v", test.in, result, test.out)
		}
	}
}
