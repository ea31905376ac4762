package importer

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
	"github.com/mogaika/sdf_robot_importer/utils"
)

const armSDF = `<?xml version="1.0"?>
<sdf version="1.6">
  <model name="arm">
    <link name="base">
      <inertial>
        <mass>2.5</mass>
        <inertia>
          <ixx>0.1</ixx><ixy>0.01</ixy><ixz>0</ixz>
          <iyy>0.2</iyy><iyz>0</iyz><izz>0.3</izz>
        </inertia>
      </inertial>
      <visual name="base visual"><geometry><box><size>2 4 6</size></box></geometry></visual>
      <visual name="dome"><geometry><sphere><radius>0.5</radius></sphere></geometry></visual>
      <collision name="base_collision"><geometry><cylinder><radius>1</radius><length>6</length></cylinder></geometry></collision>
    </link>
    <link name="upper">
      <pose>0 0 1 0 0 1.5707963</pose>
      <visual name="upper_visual">
        <pose>0.5 0 0 0 0 0</pose>
        <geometry><box><size>1 0.1 0.1</size></box></geometry>
      </visual>
      <visual name="upper_mesh">
        <geometry><mesh><uri>model://pkg/meshes/part.stl</uri><scale>0.001 0.001 0.001</scale></mesh></geometry>
      </visual>
      <visual name="http_mesh">
        <geometry><mesh><uri>http://example.com/part.stl</uri></mesh></geometry>
      </visual>
      <visual name="missing_mesh">
        <geometry><mesh><uri>package://pkg/meshes/missing.stl</uri></mesh></geometry>
      </visual>
      <visual name="obj_mesh">
        <geometry><mesh><uri>model://pkg/meshes/part.obj</uri></mesh></geometry>
      </visual>
      <visual name="floor"><geometry><plane><normal>0 0 1</normal></plane></geometry></visual>
    </link>
    <link name="tool"><pose>1 0 1 0 0 1.5707963</pose></link>
    <link name="tilted"><pose>0 0 1 0 0 0</pose></link>
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
      <axis>
        <xyz>0 1 0</xyz>
        <limit><lower>0</lower><upper>0.2</upper><velocity>3</velocity></limit>
      </axis>
    </joint>
    <joint name="skew" type="fixed">
      <parent>upper</parent>
      <child>tilted</child>
      <axis><xyz>0.5 0.5 0</xyz></axis>
    </joint>
  </model>
</sdf>`

const modelConfig = `<?xml version="1.0"?>
<model>
  <name>Arm robot</name>
  <version>1.2</version>
  <sdf version="1.6">model.sdf</sdf>
  <author><name>Jane Roe</name><email>jane@example.com</email></author>
  <author><name>Second</name><email>second@example.com</email></author>
  <description>  A small arm.  </description>
</model>`

const partSTL = `solid part
facet normal 0 0 1
outer loop
vertex 0 0 0
vertex 1000 0 0
vertex 0 1000 0
endloop
endfacet
endsolid part
`

// writePackage lays out root/pkg/{model.sdf,model.config,meshes/part.stl}
func writePackage(t *testing.T, root, sdfText string, withConfig bool) string {
	pkg := filepath.Join(root, "pkg")
	require.NoError(t, os.MkdirAll(filepath.Join(pkg, "meshes"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "model.sdf"), []byte(sdfText), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "meshes", "part.stl"), []byte(partSTL), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(pkg, "meshes", "part.obj"), []byte("v 0 0 0\n"), 0644))
	if withConfig {
		require.NoError(t, os.WriteFile(filepath.Join(pkg, "model.config"), []byte(modelConfig), 0644))
	}
	return filepath.Join(pkg, "model.sdf")
}

func importArm(t *testing.T) (*scene.Scene, *scene.Model, *status.Collector) {
	path := writePackage(t, t.TempDir(), armSDF, true)
	s := scene.New()
	c := &status.Collector{}
	m, err := ImportPlain(s, c, path, WithLogger(utils.DiscardLogger()), WithSettings(config.Default()))
	require.NoError(t, err)
	return s, m, c
}

func TestRootSynthesis(t *testing.T) {
	_, m, _ := importArm(t)

	assert.Equal(t, "arm", m.Name)
	assert.Equal(t, "model.sdf", m.FileName)

	root := m.Bone(RootBoneName)
	require.NotNil(t, root)
	assert.Equal(t, "", root.Parent)
	assert.Equal(t, scene.Fixed, root.JointMode)
	assert.Equal(t, scene.AxisX, root.Axis)
	assert.False(t, root.AxisRevert)
	assert.Equal(t, mgl64.Vec3{}, root.Offset)
	assert.Equal(t, mgl64.Vec3{}, root.Rotation)
	assert.Equal(t, scene.Limits{}, root.Theta)
}

func TestJointProperties(t *testing.T) {
	_, m, _ := importArm(t)

	shoulder := m.Bone("shoulder")
	require.NotNil(t, shoulder)
	assert.Equal(t, RootBoneName, shoulder.Parent)
	assert.Equal(t, scene.Revolute, shoulder.JointMode)
	assert.Equal(t, scene.AxisZ, shoulder.Axis)
	assert.True(t, shoulder.AxisRevert)
	assert.InDelta(t, -89.954374, shoulder.Theta.Min, 1e-6)
	assert.InDelta(t, 89.954374, shoulder.Theta.Max, 1e-6)
	assert.Equal(t, 2.0, shoulder.MaxVelocity)
	assert.InDeltaSlice(t, []float64{0, 0, 1}, shoulder.Offset[:], 1e-12)
	assert.Equal(t, mgl64.Vec3{0, 0, 90}, shoulder.Rotation)

	wrist := m.Bone("wrist")
	require.NotNil(t, wrist)
	assert.Equal(t, "shoulder", wrist.Parent)
	assert.Equal(t, scene.Prismatic, wrist.JointMode)
	assert.Equal(t, scene.AxisY, wrist.Axis)
	assert.False(t, wrist.AxisRevert)
	assert.Equal(t, scene.Limits{Min: 0, Max: 0.2}, wrist.D)
	// velocity is taken only along with dynamics
	assert.Equal(t, 0.0, wrist.MaxVelocity)
	assert.InDeltaSlice(t, []float64{0, -1, 0}, wrist.Offset[:], 1e-6)
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, wrist.Rotation)

	skew := m.Bone("skew")
	require.NotNil(t, skew)
	assert.Equal(t, scene.Fixed, skew.JointMode)
	assert.Equal(t, scene.AxisUnset, skew.Axis)
	assert.Equal(t, mgl64.Vec3{0, 0, -90}, skew.Rotation)

	assert.Equal(t, []string{"wrist", "skew"}, m.Children("shoulder"))
}

var axisTests = []struct {
	in     mgl64.Vec3
	axis   scene.Axis
	revert bool
}{
	{mgl64.Vec3{-1, 0, 0}, scene.AxisX, true},
	{mgl64.Vec3{0, 1, 0}, scene.AxisY, false},
	{mgl64.Vec3{0, 0, -1}, scene.AxisZ, true},
	{mgl64.Vec3{0.5, 0.5, 0}, scene.AxisUnset, false},
	{mgl64.Vec3{0, -0.5, 0}, scene.AxisUnset, false},
	{mgl64.Vec3{-1, -1, 0}, scene.AxisUnset, true},
}

func TestResolveAxis(t *testing.T) {
	for _, test := range axisTests {
		axis, revert := resolveAxis(test.in)
		if axis != test.axis || revert != test.revert {
			t.Errorf("resolveAxis(%v)=%v,%v; expected %v,%v", test.in, axis, revert, test.axis, test.revert)
		}
	}
}

func objectNames(objs []*scene.Object) []string {
	names := make([]string, len(objs))
	for i, o := range objs {
		names[i] = o.Name
	}
	return names
}

func TestVisualBeforeCollision(t *testing.T) {
	s, m, _ := importArm(t)

	geoms := m.Geometries(RootBoneName)
	assert.Equal(t, []string{"VIZ_base_0", "VIZ_base_1", "COL_base_0"}, objectNames(geoms))
	assert.Equal(t, scene.TagNone, geoms[0].Tag)
	assert.Equal(t, scene.TagNone, geoms[1].Tag)
	assert.Equal(t, scene.TagCollision, geoms[2].Tag)
	assert.Equal(t, "base visual", geoms[0].FileName)

	// box keeps its deterministic shape after baking
	assert.Equal(t, mgl64.Vec3{1, 2, -3}, geoms[0].Mesh.Vertices[0])

	for _, o := range geoms {
		assert.True(t, s.ObjectLocal(o).ApproxEqual(mgl64.Ident4()), o.Name)
	}
}

func TestInertiaTruncation(t *testing.T) {
	s, m, c := importArm(t)

	assert.Contains(t, c.Filter(status.ERROR), "Only diagonal inertia matrices currently supported")

	phys := s.Physicals(m)
	require.Len(t, phys, 1)
	assert.Equal(t, "base", phys[0].Name)
	assert.Equal(t, RootBoneName, phys[0].Bone)
	assert.Equal(t, 2.5, phys[0].Mass)
	assert.Equal(t, mgl64.Vec3{0.1, 0.2, 0.3}, phys[0].InertiaTensor)
}

func TestGeometryPlacement(t *testing.T) {
	_, m, _ := importArm(t)

	geoms := m.Geometries("shoulder")
	require.Equal(t, []string{"VIZ_upper_0", "VIZ_upper_1"}, objectNames(geoms))

	box := geoms[0]
	pos := box.MatrixWorld.Col(3).Vec3()
	assert.InDeltaSlice(t, []float64{0, 0.5, 1}, pos[:], 1e-9)

	mesh := geoms[1]
	assert.Equal(t, "part", mesh.FileName)
	// mesh scale is baked into vertices
	min, max := mesh.Mesh.Bounds()
	assert.InDeltaSlice(t, []float64{0, 0, 0}, min[:], 1e-9)
	assert.InDeltaSlice(t, []float64{1, 1, 0}, max[:], 1e-9)
	s := mesh.Scale()
	assert.InDeltaSlice(t, []float64{1, 1, 1}, s[:], 1e-9)
}

func TestRecoverableReports(t *testing.T) {
	_, _, c := importArm(t)

	errs := c.Filter(status.ERROR)
	found := func(prefix string) bool {
		for _, e := range errs {
			if strings.HasPrefix(e, prefix) {
				return true
			}
		}
		return false
	}
	assert.True(t, found("Unsupported URL schema"), "%v", errs)
	assert.True(t, found("Mesh file not found"), "%v", errs)
	assert.True(t, found(`Geometry "plane"`), "%v", errs)
	// unknown extension is silent
	for _, e := range errs {
		assert.NotContains(t, e, "part.obj")
	}
}

func TestImportConfig(t *testing.T) {
	_, m, _ := importArm(t)

	assert.Equal(t, scene.ModelMeta{
		ConfigName:  "Arm robot",
		Version:     "1.2",
		AuthorName:  "Jane Roe",
		AuthorEmail: "jane@example.com",
		Description: "A small arm.",
	}, m.Meta)
}

func TestImportConfigMissing(t *testing.T) {
	path := writePackage(t, t.TempDir(), armSDF, false)
	s := scene.New()

	m, err := ImportPlain(s, &status.Collector{}, path)
	assert.Error(t, err)
	// import itself is kept, no rollback
	require.NotNil(t, m)
	assert.NotNil(t, m.Bone("shoulder"))
}

func TestImportStandalone(t *testing.T) {
	path := writePackage(t, t.TempDir(), armSDF, false)
	c := &status.Collector{}

	m, err := ImportStandalone(scene.New(), c, path)
	require.NoError(t, err)
	assert.Equal(t, scene.ModelMeta{}, m.Meta)
	assert.Len(t, c.Filter(status.WARNING), 1)
}

// the same plate instanced twice by the visual scene
const twoPartDAE = `<?xml version="1.0" encoding="utf-8"?>
<COLLADA xmlns="http://www.collada.org/2005/11/COLLADASchema" version="1.4.1">
  <asset><unit name="meter" meter="1"/><up_axis>Z_UP</up_axis></asset>
  <library_geometries>
    <geometry id="plate-mesh" name="plate">
      <mesh>
        <source id="plate-positions">
          <float_array id="plate-positions-array" count="12">0 0 0 2 0 0 2 2 0 0 2 0</float_array>
        </source>
        <vertices id="plate-vertices">
          <input semantic="POSITION" source="#plate-positions"/>
        </vertices>
        <polylist count="1">
          <input semantic="VERTEX" source="#plate-vertices" offset="0"/>
          <vcount>4</vcount>
          <p>0 1 2 3</p>
        </polylist>
      </mesh>
    </geometry>
  </library_geometries>
  <library_visual_scenes>
    <visual_scene id="Scene">
      <node id="first"><translate>1 0 0</translate><instance_geometry url="#plate-mesh"/></node>
      <node id="second"><translate>0 2 0</translate><instance_geometry url="#plate-mesh"/></node>
    </visual_scene>
  </library_visual_scenes>
  <scene><instance_visual_scene url="#Scene"/></scene>
</COLLADA>
`

const multiMeshSDF = `<sdf version="1.6"><model name="plates">
  <link name="l">
    <pose>0 0 1 0 0 0</pose>
    <visual name="v"><geometry><mesh><uri>model://pkg/meshes/plates.dae</uri></mesh></geometry></visual>
    <collision name="c"><geometry><box><size>1 1 1</size></box></geometry></collision>
  </link>
</model></sdf>`

func TestMultiObjectMesh(t *testing.T) {
	root := t.TempDir()
	path := writePackage(t, root, multiMeshSDF, true)
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "meshes", "plates.dae"), []byte(twoPartDAE), 0644))

	c := &status.Collector{}
	m, err := ImportPlain(scene.New(), c, path)
	require.NoError(t, err)
	assert.Empty(t, c.Filter(status.ERROR))

	geoms := m.Geometries(RootBoneName)
	require.Equal(t, []string{"VIZ_l_0", "VIZ_l_0.001", "COL_l_0"}, objectNames(geoms))

	for _, test := range []struct {
		o        *scene.Object
		min, max mgl64.Vec3
	}{
		{geoms[0], mgl64.Vec3{1, 0, 0}, mgl64.Vec3{3, 2, 0}},
		{geoms[1], mgl64.Vec3{0, 2, 0}, mgl64.Vec3{2, 4, 0}},
	} {
		assert.Equal(t, "plates", test.o.FileName)
		assert.Equal(t, scene.TagNone, test.o.Tag)
		// node placement is baked, the object sits on the link frame
		pos := test.o.MatrixWorld.Col(3).Vec3()
		assert.InDeltaSlice(t, []float64{0, 0, 1}, pos[:], 1e-9, test.o.Name)
		min, max := test.o.Mesh.Bounds()
		assert.InDeltaSlice(t, test.min[:], min[:], 1e-9, test.o.Name)
		assert.InDeltaSlice(t, test.max[:], max[:], 1e-9, test.o.Name)
	}
	assert.Equal(t, scene.TagCollision, geoms[2].Tag)
}

const twoChainSDF = `<sdf version="1.6"><model name="pair">
  <link name="a"/>
  <link name="b"><pose>1 0 0 0 0 0</pose></link>
</model></sdf>`

func TestSeparateChains(t *testing.T) {
	path := writePackage(t, t.TempDir(), twoChainSDF, true)
	s := scene.New()
	m, err := ImportPlain(s, &status.Collector{}, path)
	require.NoError(t, err)

	assert.Equal(t, []string{RootBoneName, RootBoneName + ".001"}, m.Children(""))
	second := m.Bone(RootBoneName + ".001")
	assert.InDeltaSlice(t, []float64{1, 0, 0}, second.Offset[:], 1e-12)
}

func TestBrokenDescription(t *testing.T) {
	path := writePackage(t, t.TempDir(), `<sdf><model name="x"><link name="a"><pose>1 2</pose></link></model></sdf>`, true)
	_, err := ImportPlain(scene.New(), &status.Collector{}, path)
	assert.Error(t, err)
}

func TestMeshPath(t *testing.T) {
	imp := New(scene.New(), &status.Collector{}, "/models/robot/model.sdf")
	assert.Equal(t, "/models/robot", imp.BaseDir)

	var tests = []struct {
		uri  string
		path string
		ok   bool
	}{
		{"model://robot/meshes/a.stl", "/models/robot/meshes/a.stl", true},
		{"package://robot/meshes/a.dae", "/models/robot/meshes/a.dae", true},
		{"file:///opt/a.stl", "/opt/a.stl", true},
		{"meshes/a.stl", "", false},
		{"https://host/a.stl", "", false},
	}
	for _, test := range tests {
		path, ok := imp.MeshPath(test.uri)
		if path != test.path || ok != test.ok {
			t.Errorf("MeshPath(%q)=%q,%v; expected %q,%v", test.uri, path, ok, test.path, test.ok)
		}
	}
}

func writeZip(t *testing.T, path string, files map[string]string) {
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
}

func TestImportZippedPackage(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "robot.zip")
	writeZip(t, zipPath, map[string]string{
		"a/first.sdf":          twoChainSDF,
		"b/second.sdf":         armSDF,
		"b/model.config":       modelConfig,
		"pkg/meshes/part.stl":  partSTL,
		"../escape/model.conf": "nope",
	})

	s := scene.New()
	c := &status.Collector{}
	m, err := ImportZippedPackage(s, c, zipPath)
	require.NoError(t, err)

	assert.Equal(t, "arm", m.Name)
	assert.Equal(t, "Arm robot", m.Meta.ConfigName)
	assert.Contains(t, c.Filter(status.INFO), "Multiple SDF in zip. Choosing: second.sdf")
}

func TestImportZippedPackageWithoutSDF(t *testing.T) {
	zipPath := filepath.Join(t.TempDir(), "empty.zip")
	writeZip(t, zipPath, map[string]string{"readme.txt": "hi"})

	c := &status.Collector{}
	_, err := ImportZippedPackage(scene.New(), c, zipPath)
	assert.Error(t, err)
	assert.Equal(t, []string{"No SDF file found in package"}, c.Filter(status.ERROR))
}

func TestUnzipSkipsEscapingEntries(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	writeZip(t, zipPath, map[string]string{
		"ok/model.sdf":      twoChainSDF,
		"../../outside.sdf": twoChainSDF,
	})

	dest := filepath.Join(dir, "out")
	files, err := Unzip(zipPath, dest, &status.Collector{})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dest, "ok", "model.sdf")}, files)
}
