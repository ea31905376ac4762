package gltfutils

import (
	"io"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/scene"
)

func NewDocument() *gltf.Document {
	return gltf.NewDocument()
}

func ExportBinary(w io.Writer, doc *gltf.Document) error {
	encoder := gltf.NewEncoder(w)
	encoder.AsBinary = true
	return encoder.Encode(doc)
}

func vec3f(v mgl64.Vec3) [3]float32 {
	return [3]float32{float32(v[0]), float32(v[1]), float32(v[2])}
}

func setTRS(node *gltf.Node, m mgl64.Mat4) {
	t, r, s := scene.DecomposeTRS(m)
	q := mgl64.Mat4ToQuat(r.Mat4()).Normalize()

	node.Translation = vec3f(t)
	node.Rotation = [4]float32{float32(q.V[0]), float32(q.V[1]), float32(q.V[2]), float32(q.W)}
	node.Scale = vec3f(s)
}

type Exporter struct {
	Doc   *gltf.Document
	scene *scene.Scene
	// mesh data can be shared between objects
	meshCache map[*scene.MeshData]uint32
}

func NewExporter(s *scene.Scene) *Exporter {
	return &Exporter{
		Doc:       NewDocument(),
		scene:     s,
		meshCache: make(map[*scene.MeshData]uint32),
	}
}

func (e *Exporter) addNode(node *gltf.Node) uint32 {
	e.Doc.Nodes = append(e.Doc.Nodes, node)
	return uint32(len(e.Doc.Nodes) - 1)
}

func (e *Exporter) mesh(md *scene.MeshData) (uint32, error) {
	if id, ok := e.meshCache[md]; ok {
		return id, nil
	}

	positions := make([][3]float32, len(md.Vertices))
	for i, v := range md.Vertices {
		positions[i] = vec3f(v)
	}
	tris := md.Triangles()
	if len(tris) == 0 {
		return 0, errors.Errorf("Mesh %q has no faces", md.Name)
	}
	indices := make([]uint32, 0, len(tris)*3)
	for _, tri := range tris {
		for _, idx := range tri {
			if idx < 0 || idx >= len(md.Vertices) {
				return 0, errors.Errorf("Mesh %q index %d out of range", md.Name, idx)
			}
			indices = append(indices, uint32(idx))
		}
	}

	positionAccessor := modeler.WritePosition(e.Doc, positions)
	indicesAccessor := modeler.WriteIndices(e.Doc, indices)

	e.Doc.Meshes = append(e.Doc.Meshes, &gltf.Mesh{
		Name: md.Name,
		Primitives: []*gltf.Primitive{
			&gltf.Primitive{
				Indices:    gltf.Index(indicesAccessor),
				Attributes: map[string]uint32{"POSITION": positionAccessor},
			},
		},
	})
	id := uint32(len(e.Doc.Meshes) - 1)
	e.meshCache[md] = id
	return id, nil
}

func (e *Exporter) objectNode(o *scene.Object) (uint32, error) {
	node := &gltf.Node{Name: o.Name}
	setTRS(node, e.scene.ObjectLocal(o))

	extras := map[string]interface{}{"file_name": o.FileName}
	if o.Tag != scene.TagNone {
		extras["tag"] = o.Tag.String()
	}
	node.Extras = extras

	if o.Kind == scene.ObjectMesh && o.Mesh != nil {
		meshId, err := e.mesh(o.Mesh)
		if err != nil {
			return 0, errors.Wrapf(err, "Object %q", o.Name)
		}
		node.Mesh = gltf.Index(meshId)
	}
	return e.addNode(node), nil
}

func (e *Exporter) boneNode(m *scene.Model, b *scene.Bone) (uint32, error) {
	node := &gltf.Node{Name: b.Name}
	setTRS(node, b.Local())

	extras := map[string]interface{}{
		"joint_mode":  b.JointMode.String(),
		"axis":        b.Axis.String(),
		"axis_revert": b.AxisRevert,
	}
	switch b.JointMode {
	case scene.Revolute:
		extras["theta"] = [2]float64{b.Theta.Min, b.Theta.Max}
	case scene.Prismatic:
		extras["d"] = [2]float64{b.D.Min, b.D.Max}
	}
	if b.MaxVelocity != 0 {
		extras["max_velocity"] = b.MaxVelocity
	}
	if p := e.scene.Physical(b.Physical); p != nil {
		extras["physical"] = map[string]interface{}{
			"name":    p.Name,
			"mass":    p.Mass,
			"inertia": [3]float64(p.InertiaTensor),
		}
	}
	node.Extras = extras

	for _, o := range m.Geometries(b.Name) {
		child, err := e.objectNode(o)
		if err != nil {
			return 0, err
		}
		node.Children = append(node.Children, child)
	}
	for _, cb := range m.Children(b.Name) {
		child, err := e.boneNode(m, m.Bone(cb))
		if err != nil {
			return 0, err
		}
		node.Children = append(node.Children, child)
	}
	return e.addNode(node), nil
}

// ExportModel appends the model as a root node: bones become a node
// hierarchy, geometry objects become mesh nodes under their bone
func (e *Exporter) ExportModel(m *scene.Model) error {
	root := &gltf.Node{Name: m.Name}
	setTRS(root, m.MatrixWorld)
	root.Extras = map[string]interface{}{
		"file_name":   m.FileName,
		"config_name": m.Meta.ConfigName,
		"version":     m.Meta.Version,
		"author":      m.Meta.AuthorName,
		"email":       m.Meta.AuthorEmail,
		"description": m.Meta.Description,
		"world_pose":  pose.FromMatrix(m.MatrixWorld),
	}

	for _, name := range m.Children("") {
		child, err := e.boneNode(m, m.Bone(name))
		if err != nil {
			return errors.Wrapf(err, "Model %q", m.Name)
		}
		root.Children = append(root.Children, child)
	}

	rootId := e.addNode(root)
	e.Doc.Scenes[0].Nodes = append(e.Doc.Scenes[0].Nodes, rootId)
	return nil
}

// ExportModel builds a standalone document for one model
func ExportModel(s *scene.Scene, m *scene.Model) (*gltf.Document, error) {
	e := NewExporter(s)
	if err := e.ExportModel(m); err != nil {
		return nil, err
	}
	return e.Doc, nil
}
