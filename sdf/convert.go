package sdf

import (
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/pose"
)

// Defaults from the format description, used when an optional element is absent
var (
	defaultAxis      = mgl64.Vec3{0, 0, 1}
	defaultBoxSize   = mgl64.Vec3{1, 1, 1}
	defaultMeshScale = mgl64.Vec3{1, 1, 1}
)

const (
	defaultMass           = 1.0
	defaultInertiaDiag    = 1.0
	defaultSphereRadius   = 1.0
	defaultCylinderRadius = 1.0
	defaultCylinderLength = 1.0
)

func parseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	r := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "Bad number %q", f)
		}
		r[i] = v
	}
	return r, nil
}

// ParseVector parses "x y z"
func ParseVector(s string) (mgl64.Vec3, error) {
	v, err := parseFloats(s)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	if len(v) != 3 {
		return mgl64.Vec3{}, errors.Errorf("Expected 3 values, got %d in %q", len(v), s)
	}
	return mgl64.Vec3{v[0], v[1], v[2]}, nil
}

// ParsePose parses "x y z roll pitch yaw". A blank string is the zero pose.
func ParsePose(s string) (pose.Pose, error) {
	if strings.TrimSpace(s) == "" {
		return pose.Zero, nil
	}
	v, err := parseFloats(s)
	if err != nil {
		return pose.Zero, err
	}
	if len(v) != 6 {
		return pose.Zero, errors.Errorf("Expected 6 pose values, got %d in %q", len(v), s)
	}
	return pose.FromSlice(v), nil
}

// The one default rule for every optional pose: absent or blank means zero pose
func (p *domPose) value() (pose.Pose, error) {
	if p == nil {
		return pose.Zero, nil
	}
	return ParsePose(p.Value)
}

func (t *text) float(def float64) (float64, error) {
	if t == nil || strings.TrimSpace(t.Value) == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, errors.Wrapf(err, "Bad number %q", t.Value)
	}
	return v, nil
}

func (t *text) vector(def mgl64.Vec3) (mgl64.Vec3, error) {
	if t == nil || strings.TrimSpace(t.Value) == "" {
		return def, nil
	}
	return ParseVector(t.Value)
}

func (t *text) str() string {
	if t == nil {
		return ""
	}
	return strings.TrimSpace(t.Value)
}

type converter struct {
	log logrus.FieldLogger
}

func (c *converter) link(dl *domLink) (*Link, error) {
	l := &Link{Name: dl.Name}

	var err error
	if l.Pose, err = dl.Pose.value(); err != nil {
		return nil, errors.Wrapf(err, "link %q pose", dl.Name)
	}

	if dl.Inertial != nil {
		if l.Inertial, err = c.inertial(dl.Inertial); err != nil {
			return nil, errors.Wrapf(err, "link %q inertial", dl.Name)
		}
	}

	for i, dv := range dl.Visual {
		gi, err := c.geometryInstance(dv)
		if err != nil {
			return nil, errors.Wrapf(err, "link %q visual %d", dl.Name, i)
		}
		l.Visual = append(l.Visual, gi)
	}
	for i, dc := range dl.Collision {
		gi, err := c.geometryInstance(dc)
		if err != nil {
			return nil, errors.Wrapf(err, "link %q collision %d", dl.Name, i)
		}
		l.Collision = append(l.Collision, gi)
	}

	return l, nil
}

func (c *converter) inertial(di *domInertial) (*Inertial, error) {
	in := &Inertial{
		Inertia: Inertia{Ixx: defaultInertiaDiag, Iyy: defaultInertiaDiag, Izz: defaultInertiaDiag},
	}

	var err error
	if in.Mass, err = di.Mass.float(defaultMass); err != nil {
		return nil, errors.Wrap(err, "mass")
	}
	if in.Pose, err = di.Pose.value(); err != nil {
		return nil, errors.Wrap(err, "pose")
	}

	if d := di.Inertia; d != nil {
		fields := []struct {
			t   *text
			dst *float64
			def float64
		}{
			{d.Ixx, &in.Inertia.Ixx, defaultInertiaDiag},
			{d.Ixy, &in.Inertia.Ixy, 0},
			{d.Ixz, &in.Inertia.Ixz, 0},
			{d.Iyy, &in.Inertia.Iyy, defaultInertiaDiag},
			{d.Iyz, &in.Inertia.Iyz, 0},
			{d.Izz, &in.Inertia.Izz, defaultInertiaDiag},
		}
		for _, f := range fields {
			if *f.dst, err = f.t.float(f.def); err != nil {
				return nil, errors.Wrap(err, "inertia")
			}
		}
	}
	return in, nil
}

func (c *converter) geometryInstance(de *domGeomEntry) (*GeometryInstance, error) {
	gi := &GeometryInstance{Name: de.Name}

	var err error
	if gi.Pose, err = de.Pose.value(); err != nil {
		return nil, errors.Wrap(err, "pose")
	}
	if gi.Geometry, err = c.geometry(de.Name, de.Geometry); err != nil {
		return nil, errors.Wrap(err, "geometry")
	}
	return gi, nil
}

// geometry picks one variant; when a broken document declares several the
// cylinder, box, sphere, mesh priority is used
func (c *converter) geometry(owner string, dg *domGeometry) (Geometry, error) {
	if dg == nil {
		return nil, nil
	}

	declared := len(dg.Cylinder) + len(dg.Box) + len(dg.Sphere) + len(dg.Mesh)
	if declared > 1 {
		c.log.Warnf("%q declares %d geometries, only one is used", owner, declared)
	}

	switch {
	case len(dg.Cylinder) > 0:
		dc := dg.Cylinder[0]
		cyl := &Cylinder{}
		var err error
		if cyl.Radius, err = dc.Radius.float(defaultCylinderRadius); err != nil {
			return nil, errors.Wrap(err, "cylinder radius")
		}
		if cyl.Length, err = dc.Length.float(defaultCylinderLength); err != nil {
			return nil, errors.Wrap(err, "cylinder length")
		}
		return cyl, nil
	case len(dg.Box) > 0:
		size, err := dg.Box[0].Size.vector(defaultBoxSize)
		if err != nil {
			return nil, errors.Wrap(err, "box size")
		}
		return &Box{Size: size}, nil
	case len(dg.Sphere) > 0:
		r, err := dg.Sphere[0].Radius.float(defaultSphereRadius)
		if err != nil {
			return nil, errors.Wrap(err, "sphere radius")
		}
		return &Sphere{Radius: r}, nil
	case len(dg.Mesh) > 0:
		dm := dg.Mesh[0]
		scale, err := dm.Scale.vector(defaultMeshScale)
		if err != nil {
			return nil, errors.Wrap(err, "mesh scale")
		}
		return &Mesh{URI: dm.URI.str(), Scale: scale}, nil
	}

	for _, u := range []struct {
		name  string
		count int
	}{
		{"plane", len(dg.Plane)},
		{"heightmap", len(dg.Heightmap)},
		{"image", len(dg.Image)},
		{"polyline", len(dg.Polyline)},
		{"capsule", len(dg.Capsule)},
		{"ellipsoid", len(dg.Ellipsoid)},
		{"empty", len(dg.Empty)},
	} {
		if u.count > 0 {
			return &Unsupported{Element: u.name}, nil
		}
	}
	return nil, nil
}

func (c *converter) joint(dj *domJoint) (*Joint, error) {
	j := &Joint{
		Name:   dj.Name,
		Type:   JointType(strings.ToLower(strings.TrimSpace(dj.Type))),
		Parent: dj.Parent.str(),
		Child:  dj.Child.str(),
		Axis:   Axis{XYZ: defaultAxis},
	}

	var err error
	if j.Pose, err = dj.Pose.value(); err != nil {
		return nil, errors.Wrapf(err, "joint %q pose", dj.Name)
	}

	if da := dj.Axis; da != nil {
		if j.Axis.XYZ, err = da.XYZ.vector(defaultAxis); err != nil {
			return nil, errors.Wrapf(err, "joint %q axis", dj.Name)
		}
		if dl := da.Limit; dl != nil {
			lim := &Limit{}
			for _, f := range []struct {
				t   *text
				dst *float64
			}{
				{dl.Lower, &lim.Lower},
				{dl.Upper, &lim.Upper},
				{dl.Effort, &lim.Effort},
				{dl.Velocity, &lim.Velocity},
			} {
				if *f.dst, err = f.t.float(0); err != nil {
					return nil, errors.Wrapf(err, "joint %q limit", dj.Name)
				}
			}
			j.Axis.Limit = lim
		}
		if dd := da.Dynamics; dd != nil {
			dyn := &Dynamics{}
			if dyn.Damping, err = dd.Damping.float(0); err != nil {
				return nil, errors.Wrapf(err, "joint %q damping", dj.Name)
			}
			if dyn.Friction, err = dd.Friction.float(0); err != nil {
				return nil, errors.Wrapf(err, "joint %q friction", dj.Name)
			}
			j.Axis.Dynamics = dyn
		}
	}

	return j, nil
}
