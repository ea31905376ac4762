// Package primitives generates the meshes for SDF shape geometries.
// All shapes are centered at the origin.
package primitives

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/scene"
)

var boxCorners = [8]mgl64.Vec3{
	{1, 1, -1}, {1, -1, -1}, {-1, -1, -1}, {-1, 1, -1},
	{1, 1, 1}, {1, -1, 1}, {-1, -1, 1}, {-1, 1, 1},
}

var boxFaces = [6][4]int{
	{0, 1, 2, 3}, {4, 7, 6, 5}, {0, 4, 5, 1},
	{1, 5, 6, 2}, {2, 6, 7, 3}, {4, 0, 3, 7},
}

// Box returns 8 corners at half extents of size and 6 quads, order is fixed
func Box(name string, size mgl64.Vec3) *scene.MeshData {
	half := size.Mul(0.5)
	verts := make([]mgl64.Vec3, len(boxCorners))
	for i, c := range boxCorners {
		verts[i] = mgl64.Vec3{c[0] * half[0], c[1] * half[1], c[2] * half[2]}
	}
	faces := make([][]int, len(boxFaces))
	for i, f := range boxFaces {
		faces[i] = []int{f[0], f[1], f[2], f[3]}
	}
	return scene.NewMeshData(name, verts, faces)
}

// UVSphere builds a sphere of segments meridians and rings parallels bands.
// Poles are single vertices, bands between poles are quads.
func UVSphere(name string, segments, rings int, radius float64) (*scene.MeshData, error) {
	if segments < 3 || rings < 3 {
		return nil, errors.Errorf("Invalid sphere tessellation %dx%d", segments, rings)
	}

	verts := make([]mgl64.Vec3, 0, segments*(rings-1)+2)
	verts = append(verts, mgl64.Vec3{0, 0, radius})
	for r := 1; r < rings; r++ {
		theta := math.Pi * float64(r) / float64(rings)
		z := radius * math.Cos(theta)
		rr := radius * math.Sin(theta)
		for s := 0; s < segments; s++ {
			phi := 2 * math.Pi * float64(s) / float64(segments)
			verts = append(verts, mgl64.Vec3{rr * math.Cos(phi), rr * math.Sin(phi), z})
		}
	}
	bottom := len(verts)
	verts = append(verts, mgl64.Vec3{0, 0, -radius})

	ring := func(r, s int) int {
		return 1 + (r-1)*segments + s%segments
	}

	faces := make([][]int, 0, segments*rings)
	for s := 0; s < segments; s++ {
		faces = append(faces, []int{0, ring(1, s), ring(1, s+1)})
	}
	for r := 1; r < rings-1; r++ {
		for s := 0; s < segments; s++ {
			faces = append(faces, []int{ring(r, s), ring(r+1, s), ring(r+1, s+1), ring(r, s+1)})
		}
	}
	for s := 0; s < segments; s++ {
		faces = append(faces, []int{bottom, ring(rings-1, s+1), ring(rings-1, s)})
	}
	return scene.NewMeshData(name, verts, faces), nil
}

// Cylinder along Z with depth centered at origin, caps are n-gons
func Cylinder(name string, vertices int, radius, depth float64) (*scene.MeshData, error) {
	if vertices < 3 {
		return nil, errors.Errorf("Invalid cylinder vertices count %d", vertices)
	}

	half := depth / 2
	verts := make([]mgl64.Vec3, 0, vertices*2)
	for i := 0; i < vertices; i++ {
		a := 2 * math.Pi * float64(i) / float64(vertices)
		x, y := radius*math.Cos(a), radius*math.Sin(a)
		verts = append(verts, mgl64.Vec3{x, y, -half}, mgl64.Vec3{x, y, half})
	}

	faces := make([][]int, 0, vertices+2)
	for i := 0; i < vertices; i++ {
		j := (i + 1) % vertices
		faces = append(faces, []int{i * 2, j * 2, j*2 + 1, i*2 + 1})
	}
	top := make([]int, vertices)
	bottom := make([]int, vertices)
	for i := 0; i < vertices; i++ {
		top[i] = i*2 + 1
		bottom[i] = (vertices - 1 - i) * 2
	}
	faces = append(faces, top, bottom)
	return scene.NewMeshData(name, verts, faces), nil
}
