// Package scene is an in-memory host scene: armature models with bone
// hierarchies, mesh objects and physical frames. It mirrors the small set of
// editor calls the importer needs, with explicit handles instead of an
// active-object cursor. A Scene is not safe for concurrent use.
package scene

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"
)

type ModelMeta struct {
	ConfigName  string
	Version     string
	AuthorName  string
	AuthorEmail string
	Description string
}

// Model is an armature object owning a bone hierarchy
type Model struct {
	Name        string
	MatrixWorld mgl64.Mat4
	Meta        ModelMeta
	FileName    string

	bones      map[string]*Bone
	boneOrder  []*Bone
	children   map[string][]string
	geometries map[string][]*Object
}

func (m *Model) Bone(name string) *Bone {
	return m.bones[name]
}

// Bones in creation order
func (m *Model) Bones() []*Bone {
	return m.boneOrder
}

// Children of bone name, "" lists top level bones
func (m *Model) Children(name string) []string {
	return m.children[name]
}

func (m *Model) Geometries(bone string) []*Object {
	return m.geometries[bone]
}

type Scene struct {
	// every object kind shares one namespace like in the editor
	names map[string]struct{}

	models    []*Model
	objects   []*Object
	physicals map[string]*Physical
}

func New() *Scene {
	return &Scene{
		names:     make(map[string]struct{}),
		physicals: make(map[string]*Physical),
	}
}

// uniqueName appends the lowest free ".NNN" suffix, an existing numeric
// suffix is replaced rather than stacked
func uniqueName(taken func(string) bool, name string) string {
	if !taken(name) {
		return name
	}
	if i := strings.LastIndexByte(name, '.'); i > 0 && i+4 == len(name) {
		if _, err := strconv.Atoi(name[i+1:]); err == nil {
			name = name[:i]
		}
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", name, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

func (s *Scene) claimName(name string) string {
	name = uniqueName(func(n string) bool {
		_, ok := s.names[n]
		return ok
	}, name)
	s.names[name] = struct{}{}
	return name
}

func (s *Scene) NewModel(name string, world mgl64.Mat4) *Model {
	m := &Model{
		Name:        s.claimName(name),
		MatrixWorld: world,
		bones:       make(map[string]*Bone),
		children:    make(map[string][]string),
		geometries:  make(map[string][]*Object),
	}
	s.models = append(s.models, m)
	return m
}

func (s *Scene) Models() []*Model {
	return s.models
}

func (s *Scene) Model(name string) *Model {
	for _, m := range s.models {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// AddBone registers the built bone under parent ("" for top level).
// The bone name is made unique inside the model, use the returned bone's Name.
func (s *Scene) AddBone(m *Model, parent string, bb *BoneBuilder) (*Bone, error) {
	var parentMatrix = mgl64.Ident4()
	if parent != "" {
		p, ok := m.bones[parent]
		if !ok {
			return nil, errors.Errorf("Parent bone %q not found in %q", parent, m.Name)
		}
		parentMatrix = p.matrix
	}

	b := bb.bone
	b.Name = uniqueName(func(n string) bool {
		_, ok := m.bones[n]
		return ok
	}, strings.TrimSpace(b.Name))
	b.Parent = parent
	b.matrix = parentMatrix.Mul4(b.Local())

	if b.Physical != "" {
		p, ok := s.physicals[b.Physical]
		if !ok {
			return nil, errors.Errorf("Physical %q not found", b.Physical)
		}
		p.Bone = b.Name
	}

	m.bones[b.Name] = &b
	m.boneOrder = append(m.boneOrder, &b)
	m.children[parent] = append(m.children[parent], b.Name)
	return &b, nil
}

// SegmentWorld is bone transform in world space
func (s *Scene) SegmentWorld(m *Model, bone string) (mgl64.Mat4, error) {
	b, ok := m.bones[bone]
	if !ok {
		return mgl64.Ident4(), errors.Errorf("Bone %q not found in %q", bone, m.Name)
	}
	return m.MatrixWorld.Mul4(b.matrix), nil
}

// UpdateSegments recomputes armature matrices of bone and, if recurse, of
// its whole subtree. Children are refreshed before the call returns.
func (s *Scene) UpdateSegments(m *Model, bone string, recurse bool) error {
	b, ok := m.bones[bone]
	if !ok {
		return errors.Errorf("Bone %q not found in %q", bone, m.Name)
	}

	parentMatrix := mgl64.Ident4()
	if b.Parent != "" {
		parentMatrix = m.bones[b.Parent].matrix
	}
	b.matrix = parentMatrix.Mul4(b.Local())

	if recurse {
		for _, c := range m.children[bone] {
			if err := s.UpdateSegments(m, c, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Scene) NewObject(name string, kind ObjectKind, mesh *MeshData) *Object {
	o := &Object{
		Name:        s.claimName(name),
		Kind:        kind,
		Mesh:        mesh,
		MatrixWorld: mgl64.Ident4(),
	}
	s.objects = append(s.objects, o)
	return o
}

func (s *Scene) NewMeshObject(name string, mesh *MeshData) *Object {
	return s.NewObject(name, ObjectMesh, mesh)
}

func (s *Scene) Objects() []*Object {
	return s.objects
}

func (s *Scene) Object(name string) *Object {
	for _, o := range s.objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Rename gives the object a new unique name and returns the assigned one
func (s *Scene) Rename(o *Object, name string) string {
	if name == o.Name {
		return name
	}
	delete(s.names, o.Name)
	o.Name = s.claimName(name)
	return o.Name
}

// ClearParentKeepTransform detaches the object leaving world placement as is
func (s *Scene) ClearParentKeepTransform(o *Object) {
	o.Parent = nil
	if o.Model != nil {
		geoms := o.Model.geometries[o.ParentBone]
		for i, g := range geoms {
			if g == o {
				o.Model.geometries[o.ParentBone] = append(geoms[:i], geoms[i+1:]...)
				break
			}
		}
	}
	o.Model = nil
	o.ParentBone = ""
}

// ApplyTransform bakes the selected parts of the world transform into the
// mesh vertices and resets them on the object. Shear is not supported.
func (s *Scene) ApplyTransform(o *Object, location, rotation, scale bool) {
	t, r, sc := DecomposeTRS(o.MatrixWorld)

	bt, br, bs := mgl64.Vec3{}, mgl64.Ident3(), mgl64.Vec3{1, 1, 1}
	if location {
		bt, t = t, mgl64.Vec3{}
	}
	if rotation {
		br, r = r, mgl64.Ident3()
	}
	if scale {
		bs, sc = sc, mgl64.Vec3{1, 1, 1}
	}

	if o.Mesh != nil && !(bt == mgl64.Vec3{} && br == mgl64.Ident3() && approxOne(bs)) {
		o.Mesh.Transform(composeTRS(bt, br, bs))
	}
	o.MatrixWorld = composeTRS(t, r, sc)
}

// AssignGeometry parents the object to a bone keeping its world placement
func (s *Scene) AssignGeometry(m *Model, bone string, o *Object) error {
	if _, ok := m.bones[bone]; !ok {
		return errors.Errorf("Bone %q not found in %q", bone, m.Name)
	}
	if o.Model != nil {
		s.ClearParentKeepTransform(o)
	}
	o.Model = m
	o.ParentBone = bone
	m.geometries[bone] = append(m.geometries[bone], o)
	return nil
}

// ObjectLocal is the object transform relative to its bone, or world if unassigned
func (s *Scene) ObjectLocal(o *Object) mgl64.Mat4 {
	if o.Model == nil {
		return o.MatrixWorld
	}
	sw, err := s.SegmentWorld(o.Model, o.ParentBone)
	if err != nil {
		return o.MatrixWorld
	}
	return sw.Inv().Mul4(o.MatrixWorld)
}

func (s *Scene) CreatePhysical(name string) *Physical {
	p := &Physical{Name: s.claimName(name)}
	s.physicals[p.Name] = p
	return p
}

func (s *Scene) Physical(name string) *Physical {
	return s.physicals[name]
}

// Physicals of a model in bone creation order
func (s *Scene) Physicals(m *Model) []*Physical {
	var r []*Physical
	for _, b := range m.boneOrder {
		if b.Physical != "" {
			if p := s.physicals[b.Physical]; p != nil {
				r = append(r, p)
			}
		}
	}
	return r
}
