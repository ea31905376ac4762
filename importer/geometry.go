package importer

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/meshio"
	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/primitives"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/sdf"
)

// resolve creates scene objects for the instance and returns the instance
// transform. Resolvers never include the segment transform.
// ok is false when the instance was skipped, the reason is already reported.
func (imp *Importer) resolve(log logrus.FieldLogger, inst *sdf.GeometryInstance) (trafo mgl64.Mat4, objects []*scene.Object, ok bool) {
	log = log.WithField("geometry", inst.Name)

	switch g := inst.Geometry.(type) {
	case *sdf.Cylinder:
		return imp.resolveCylinder(log, inst, g)
	case *sdf.Box:
		return imp.resolveBox(log, inst, g)
	case *sdf.Sphere:
		return imp.resolveSphere(log, inst, g)
	case *sdf.Mesh:
		return imp.resolveMesh(log, inst, g)
	case *sdf.Unsupported:
		imp.reportError(log, "Geometry %q of %q is not supported", g.Element, inst.Name)
	case nil:
		imp.reportError(log, "No geometry declared in %q", inst.Name)
	}
	return mgl64.Ident4(), nil, false
}

// instancePose is translate * rotateXYZ of the instance pose, not rounded
func instancePose(inst *sdf.GeometryInstance) mgl64.Mat4 {
	return pose.ToHomogeneous(inst.Pose)
}

func (imp *Importer) newPrimitive(inst *sdf.GeometryInstance, md *scene.MeshData) *scene.Object {
	o := imp.scene.NewMeshObject(md.Name, md)
	o.FileName = filepath.Base(inst.Name)
	return o
}

func (imp *Importer) resolveBox(log logrus.FieldLogger, inst *sdf.GeometryInstance, g *sdf.Box) (mgl64.Mat4, []*scene.Object, bool) {
	log.Debugf("box size %v", g.Size)
	md := primitives.Box(inst.Name, g.Size)
	return instancePose(inst), []*scene.Object{imp.newPrimitive(inst, md)}, true
}

func (imp *Importer) resolveSphere(log logrus.FieldLogger, inst *sdf.GeometryInstance, g *sdf.Sphere) (mgl64.Mat4, []*scene.Object, bool) {
	log.Debugf("sphere radius %v", g.Radius)
	md, err := primitives.UVSphere(inst.Name, imp.settings.SphereSegments, imp.settings.SphereRings, g.Radius)
	if err != nil {
		imp.reportError(log, "Can't build sphere: %v", err)
		return mgl64.Ident4(), nil, false
	}
	return instancePose(inst), []*scene.Object{imp.newPrimitive(inst, md)}, true
}

func (imp *Importer) resolveCylinder(log logrus.FieldLogger, inst *sdf.GeometryInstance, g *sdf.Cylinder) (mgl64.Mat4, []*scene.Object, bool) {
	log.Debugf("cylinder radius %v, depth %v", g.Radius, g.Length)
	md, err := primitives.Cylinder(inst.Name, imp.settings.CylinderVertices, g.Radius, g.Length)
	if err != nil {
		imp.reportError(log, "Can't build cylinder: %v", err)
		return mgl64.Ident4(), nil, false
	}
	return instancePose(inst), []*scene.Object{imp.newPrimitive(inst, md)}, true
}

// MeshPath maps a mesh uri to a file path. model:// and package:// point
// next to the base directory, file:/// is absolute.
func (imp *Importer) MeshPath(uri string) (string, bool) {
	switch {
	case strings.HasPrefix(uri, FileURLAbsolute):
		return "/" + strings.TrimPrefix(uri, FileURLAbsolute), true
	case strings.HasPrefix(uri, FileURLRelative):
		return filepath.Join(filepath.Dir(imp.BaseDir), strings.TrimPrefix(uri, FileURLRelative)), true
	case strings.HasPrefix(uri, PackageURL):
		return filepath.Join(filepath.Dir(imp.BaseDir), strings.TrimPrefix(uri, PackageURL)), true
	default:
		return "", false
	}
}

func (imp *Importer) resolveMesh(log logrus.FieldLogger, inst *sdf.GeometryInstance, g *sdf.Mesh) (mgl64.Mat4, []*scene.Object, bool) {
	path, ok := imp.MeshPath(g.URI)
	if !ok {
		imp.reportError(log, "Unsupported URL schema: %q", g.URI)
		return mgl64.Ident4(), nil, false
	}
	log = log.WithField("mesh", path)

	trafo := instancePose(inst).Mul4(pose.Scale(g.Scale))

	if meshio.FormatOf(path) == meshio.FormatUnknown {
		log.Debugf("mesh extension %q is not loaded", filepath.Ext(path))
		return trafo, nil, true
	}
	if _, err := os.Stat(path); err != nil {
		imp.reportError(log, "Mesh file not found: %q", path)
		return mgl64.Ident4(), nil, false
	}

	parts, err := meshio.Load(path)
	if err != nil {
		imp.reportError(log, "Can't load mesh: %v", err)
		return mgl64.Ident4(), nil, false
	}

	fileName := meshio.BaseName(path)
	objects := make([]*scene.Object, 0, len(parts))
	for _, part := range parts {
		o := imp.scene.NewMeshObject(part.Mesh.Name, part.Mesh)
		o.FileName = fileName
		// baked by place before the instance transform is applied
		o.MatrixWorld = part.Matrix
		objects = append(objects, o)
	}
	log.Debugf("%d objects loaded, scale %v", len(objects), g.Scale)
	return trafo, objects, true
}
