package scene

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

type ObjectKind int

const (
	ObjectMesh ObjectKind = iota
	ObjectEmpty
)

func (k ObjectKind) String() string {
	if k == ObjectMesh {
		return "MESH"
	}
	return "EMPTY"
}

func (k ObjectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

type Tag int

const (
	TagNone Tag = iota
	TagCollision
)

func (t Tag) String() string {
	if t == TagCollision {
		return "COLLISION"
	}
	return ""
}

func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

type Object struct {
	Name        string
	Kind        ObjectKind
	Mesh        *MeshData
	MatrixWorld mgl64.Mat4

	// plain object parent, imported scenes may come with one
	Parent *Object

	// set once assigned as geometry of a bone
	Model      *Model
	ParentBone string

	Tag Tag
	// source file basename, used when exporting back
	FileName string
}

// Physical is the dynamics frame of a link
type Physical struct {
	Name          string
	Mass          float64
	InertiaTensor mgl64.Vec3
	// bone the frame is assigned to
	Bone string
}

// DecomposeTRS splits m into translation, rotation and scale, m must not shear
func DecomposeTRS(m mgl64.Mat4) (t mgl64.Vec3, r mgl64.Mat3, s mgl64.Vec3) {
	t = m.Col(3).Vec3()
	m3 := m.Mat3()
	for c := 0; c < 3; c++ {
		s[c] = m3.Col(c).Len()
	}
	if m3.Det() < 0 {
		s[0] = -s[0]
	}
	for c := 0; c < 3; c++ {
		col := m3.Col(c)
		if s[c] != 0 {
			col = col.Mul(1 / s[c])
		}
		r.SetCol(c, col)
	}
	return
}

func composeTRS(t mgl64.Vec3, r mgl64.Mat3, s mgl64.Vec3) mgl64.Mat4 {
	return mgl64.Translate3D(t[0], t[1], t[2]).Mul4(r.Mat4()).Mul4(mgl64.Scale3D(s[0], s[1], s[2]))
}

// Scale returns per axis scale of the world matrix
func (o *Object) Scale() mgl64.Vec3 {
	_, _, s := DecomposeTRS(o.MatrixWorld)
	return s
}

func approxOne(v mgl64.Vec3) bool {
	for _, c := range v {
		if math.Abs(c-1) > 1e-9 {
			return false
		}
	}
	return true
}
