package scene

import (
	"github.com/go-gl/mathgl/mgl64"
)

// MeshData is vertices plus polygons (indices into Vertices, any arity >= 3)
type MeshData struct {
	Name     string
	Vertices []mgl64.Vec3
	Faces    [][]int
}

func NewMeshData(name string, verts []mgl64.Vec3, faces [][]int) *MeshData {
	return &MeshData{Name: name, Vertices: verts, Faces: faces}
}

func (md *MeshData) Clone() *MeshData {
	c := &MeshData{
		Name:     md.Name,
		Vertices: make([]mgl64.Vec3, len(md.Vertices)),
		Faces:    make([][]int, len(md.Faces)),
	}
	copy(c.Vertices, md.Vertices)
	for i, f := range md.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	return c
}

// Transform multiplies every vertex by m in place
func (md *MeshData) Transform(m mgl64.Mat4) {
	for i, v := range md.Vertices {
		md.Vertices[i] = mgl64.TransformCoordinate(v, m)
	}
	if m.Det() < 0 {
		// keep normals pointing outside after a mirroring transform
		for _, f := range md.Faces {
			for i, j := 0, len(f)-1; i < j; i, j = i+1, j-1 {
				f[i], f[j] = f[j], f[i]
			}
		}
	}
}

// Triangles fans every polygon, used by exporters
func (md *MeshData) Triangles() [][3]int {
	tris := make([][3]int, 0, len(md.Faces))
	for _, f := range md.Faces {
		for i := 1; i+1 < len(f); i++ {
			tris = append(tris, [3]int{f[0], f[i], f[i+1]})
		}
	}
	return tris
}

func (md *MeshData) Bounds() (min, max mgl64.Vec3) {
	if len(md.Vertices) == 0 {
		return
	}
	min, max = md.Vertices[0], md.Vertices[0]
	for _, v := range md.Vertices[1:] {
		for i := 0; i < 3; i++ {
			if v[i] < min[i] {
				min[i] = v[i]
			}
			if v[i] > max[i] {
				max[i] = v[i]
			}
		}
	}
	return
}
