package sdf

import "encoding/xml"

// Raw document model, mirrors the xml layout. Values stay textual here and
// get converted into typed records by convert.go.

type text struct {
	Value string `xml:",chardata"`
}

type domRoot struct {
	XMLName xml.Name    `xml:"sdf"`
	Version string      `xml:"version,attr"`
	Models  []*domModel `xml:"model"`
	Worlds  []*domWorld `xml:"world"`
}

type domWorld struct {
	Name   string      `xml:"name,attr"`
	Models []*domModel `xml:"model"`
}

type domModel struct {
	Name   string      `xml:"name,attr"`
	Static *text       `xml:"static"`
	Pose   *domPose    `xml:"pose"`
	Links  []*domLink  `xml:"link"`
	Joints []*domJoint `xml:"joint"`
}

type domPose struct {
	Frame      string `xml:"frame,attr"`
	RelativeTo string `xml:"relative_to,attr"`
	Value      string `xml:",chardata"`
}

type domLink struct {
	Name      string          `xml:"name,attr"`
	Pose      *domPose        `xml:"pose"`
	Inertial  *domInertial    `xml:"inertial"`
	Visual    []*domGeomEntry `xml:"visual"`
	Collision []*domGeomEntry `xml:"collision"`
}

type domInertial struct {
	Mass    *text       `xml:"mass"`
	Pose    *domPose    `xml:"pose"`
	Inertia *domInertia `xml:"inertia"`
}

type domInertia struct {
	Ixx *text `xml:"ixx"`
	Ixy *text `xml:"ixy"`
	Ixz *text `xml:"ixz"`
	Iyy *text `xml:"iyy"`
	Iyz *text `xml:"iyz"`
	Izz *text `xml:"izz"`
}

// visual and collision share the layout
type domGeomEntry struct {
	Name     string       `xml:"name,attr"`
	Pose     *domPose     `xml:"pose"`
	Geometry *domGeometry `xml:"geometry"`
}

type domGeometry struct {
	Box      []*domBox      `xml:"box"`
	Sphere   []*domSphere   `xml:"sphere"`
	Cylinder []*domCylinder `xml:"cylinder"`
	Mesh     []*domMesh     `xml:"mesh"`

	// declared by the format, not importable
	Plane     []*struct{} `xml:"plane"`
	Heightmap []*struct{} `xml:"heightmap"`
	Image     []*struct{} `xml:"image"`
	Polyline  []*struct{} `xml:"polyline"`
	Capsule   []*struct{} `xml:"capsule"`
	Ellipsoid []*struct{} `xml:"ellipsoid"`
	Empty     []*struct{} `xml:"empty"`
}

type domBox struct {
	Size *text `xml:"size"`
}

type domSphere struct {
	Radius *text `xml:"radius"`
}

type domCylinder struct {
	Radius *text `xml:"radius"`
	Length *text `xml:"length"`
}

type domMesh struct {
	URI   *text `xml:"uri"`
	Scale *text `xml:"scale"`
}

type domJoint struct {
	Name   string   `xml:"name,attr"`
	Type   string   `xml:"type,attr"`
	Parent *text    `xml:"parent"`
	Child  *text    `xml:"child"`
	Pose   *domPose `xml:"pose"`
	Axis   *domAxis `xml:"axis"`
}

type domAxis struct {
	XYZ      *text        `xml:"xyz"`
	Limit    *domLimit    `xml:"limit"`
	Dynamics *domDynamics `xml:"dynamics"`
}

type domLimit struct {
	Lower    *text `xml:"lower"`
	Upper    *text `xml:"upper"`
	Effort   *text `xml:"effort"`
	Velocity *text `xml:"velocity"`
}

type domDynamics struct {
	Damping  *text `xml:"damping"`
	Friction *text `xml:"friction"`
}
