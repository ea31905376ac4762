package meshio

import (
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	collada "github.com/mogaika/go-collada"
	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/scene"
)

func localId(uri collada.Uri) string {
	return strings.TrimPrefix(string(uri), "#")
}

// go-collada splits values on single spaces only, exporters also wrap lines
func parseFloats(v collada.Values) ([]float64, error) {
	fields := strings.Fields(v.V)
	r := make([]float64, len(fields))
	for i, f := range fields {
		var err error
		if r[i], err = strconv.ParseFloat(f, 64); err != nil {
			return nil, errors.Wrapf(err, "Value %d", i)
		}
	}
	return r, nil
}

func parseInts(v collada.Values) ([]int, error) {
	fields := strings.Fields(v.V)
	r := make([]int, len(fields))
	for i, f := range fields {
		var err error
		if r[i], err = strconv.Atoi(f); err != nil {
			return nil, errors.Wrapf(err, "Index %d", i)
		}
	}
	return r, nil
}

// upAxisMatrix rotates the declared up axis onto +Z. An undeclared axis is
// taken as Z up.
func upAxisMatrix(asset *collada.Asset) mgl64.Mat4 {
	if asset == nil {
		return mgl64.Ident4()
	}
	switch collada.UpAxis(strings.TrimSpace(string(asset.UpAxis))) {
	case collada.Yup:
		return mgl64.HomogRotate3DX(mgl64.DegToRad(90))
	case collada.Xup:
		return mgl64.HomogRotate3DY(mgl64.DegToRad(-90))
	default:
		return mgl64.Ident4()
	}
}

func unitMeter(asset *collada.Asset) float64 {
	if asset == nil || asset.Unit == nil || asset.Unit.Meter <= 0 {
		return 1
	}
	return asset.Unit.Meter
}

// nodeLocal composes node transforms as matrix * translate * rotate * scale.
// The document order of mixed transform elements is not kept by the decoder.
func nodeLocal(n *collada.Node) (mgl64.Mat4, error) {
	m := mgl64.Ident4()
	for _, mat := range n.Matrix {
		f, err := parseFloats(mat.Values)
		if err != nil {
			return m, errors.Wrapf(err, "Node %q matrix", n.Id)
		}
		if len(f) != 16 {
			return m, errors.Errorf("Node %q matrix has %d values", n.Id, len(f))
		}
		var nm mgl64.Mat4
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				nm.Set(row, col, f[row*4+col])
			}
		}
		m = m.Mul4(nm)
	}
	for _, t := range n.Translate {
		f, err := parseFloats(t.Values)
		if err != nil || len(f) != 3 {
			return m, errors.Errorf("Node %q has invalid translate %q", n.Id, t.V)
		}
		m = m.Mul4(mgl64.Translate3D(f[0], f[1], f[2]))
	}
	for _, r := range n.Rotate {
		f, err := parseFloats(r.Values)
		if err != nil || len(f) != 4 {
			return m, errors.Errorf("Node %q has invalid rotate %q", n.Id, r.V)
		}
		axis := mgl64.Vec3{f[0], f[1], f[2]}
		if axis.Len() == 0 {
			continue
		}
		m = m.Mul4(mgl64.HomogRotate3D(mgl64.DegToRad(f[3]), axis.Normalize()))
	}
	for _, s := range n.Scale {
		f, err := parseFloats(s.Values)
		if err != nil || len(f) != 3 {
			return m, errors.Errorf("Node %q has invalid scale %q", n.Id, s.V)
		}
		m = m.Mul4(mgl64.Scale3D(f[0], f[1], f[2]))
	}
	return m, nil
}

func findVisualScene(doc *collada.Collada) *collada.VisualScene {
	want := ""
	if doc.Scene != nil && doc.Scene.InstanceVisualScene != nil {
		want = localId(doc.Scene.InstanceVisualScene.Url)
	}
	var first *collada.VisualScene
	for _, lib := range doc.LibraryVisualScenes {
		for _, vs := range lib.VisualScene {
			if first == nil {
				first = vs
			}
			if want != "" && string(vs.Id) == want {
				return vs
			}
		}
	}
	return first
}

// ReadDAE returns one part per instanced geometry of the visual scene. Vertices
// are converted to meters with Z up, Matrix keeps the node placement in the
// same frame. Documents without a visual scene yield every geometry at the
// origin. Only positions are read.
func ReadDAE(r io.Reader) ([]Part, error) {
	doc, err := collada.LoadDocumentFromReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse collada")
	}

	geometries := make(map[string]*scene.MeshData)
	var order []string
	for _, lib := range doc.LibraryGeometries {
		for _, geom := range lib.Geometry {
			if geom.Mesh == nil {
				continue
			}
			id := string(geom.Id)
			md, err := daeMesh(id, geom.Mesh)
			if err != nil {
				return nil, errors.Wrapf(err, "Geometry %q", id)
			}
			if len(md.Faces) != 0 {
				geometries[id] = md
				order = append(order, id)
			}
		}
	}

	// vertices get root (unit and up axis), node matrices are conjugated
	// by it so the baked result stays root * node * vertex
	unit := unitMeter(doc.Asset)
	root := upAxisMatrix(doc.Asset).Mul4(mgl64.Scale3D(unit, unit, unit))
	rootInv := root.Inv()

	var parts []Part
	used := make(map[string]bool)
	instance := func(id string, world mgl64.Mat4) {
		md := geometries[id]
		if used[id] {
			md = md.Clone()
		} else {
			used[id] = true
		}
		parts = append(parts, Part{Mesh: md, Matrix: root.Mul4(world).Mul4(rootInv)})
	}

	var walk func(nodes []*collada.Node, parent mgl64.Mat4) error
	walk = func(nodes []*collada.Node, parent mgl64.Mat4) error {
		for _, n := range nodes {
			local, err := nodeLocal(n)
			if err != nil {
				return err
			}
			world := parent.Mul4(local)
			for _, ig := range n.InstanceGeometry {
				id := localId(ig.Url)
				if _, ok := geometries[id]; !ok {
					return errors.Errorf("Node %q instances unknown geometry %q", n.Id, id)
				}
				instance(id, world)
			}
			if err := walk(n.Node, world); err != nil {
				return err
			}
		}
		return nil
	}
	if vs := findVisualScene(doc); vs != nil {
		if err := walk(vs.Node, mgl64.Ident4()); err != nil {
			return nil, err
		}
	}
	if len(parts) == 0 {
		for _, id := range order {
			instance(id, mgl64.Ident4())
		}
	}

	converted := make(map[*scene.MeshData]bool)
	for _, p := range parts {
		if !converted[p.Mesh] {
			p.Mesh.Transform(root)
			converted[p.Mesh] = true
		}
	}
	return parts, nil
}

func daeMesh(name string, mesh *collada.Mesh) (*scene.MeshData, error) {
	sources := make(map[string][]float64)
	for _, src := range mesh.Source {
		if src.FloatArray != nil {
			f, err := parseFloats(src.FloatArray.Values)
			if err != nil {
				return nil, errors.Wrapf(err, "Source %q", src.Id)
			}
			sources[string(src.Id)] = f
		}
	}

	// <vertices> aliases the POSITION source
	var positions []float64
	vertsId := string(mesh.Vertices.Id)
	for _, in := range mesh.Vertices.Input {
		if in.Semantic == "POSITION" {
			positions = sources[localId(in.Source)]
		}
	}
	if positions == nil {
		return nil, errors.Errorf("No POSITION source")
	}
	if len(positions)%3 != 0 {
		return nil, errors.Errorf("POSITION source length %d is not a multiple of 3", len(positions))
	}

	md := &scene.MeshData{Name: name}
	for i := 0; i+2 < len(positions); i += 3 {
		md.Vertices = append(md.Vertices, mgl64.Vec3{positions[i], positions[i+1], positions[i+2]})
	}

	// returns offset of the vertex input and stride of one index tuple
	layout := func(inputs []*collada.InputShared) (int, int, bool) {
		vertexOffset, stride, found := 0, 0, false
		for _, in := range inputs {
			off := int(in.Offset)
			if off+1 > stride {
				stride = off + 1
			}
			if in.Semantic == "VERTEX" && localId(in.Source) == vertsId {
				vertexOffset, found = off, true
			}
		}
		return vertexOffset, stride, found
	}

	addPolygons := func(inputs []*collada.InputShared, p []int, vcount []int) error {
		vo, stride, ok := layout(inputs)
		if !ok {
			return errors.Errorf("Primitive has no VERTEX input")
		}
		pos := 0
		for _, n := range vcount {
			if (pos+n)*stride > len(p) {
				return errors.Errorf("Index array too short")
			}
			face := make([]int, n)
			for k := 0; k < n; k++ {
				idx := p[(pos+k)*stride+vo]
				if idx < 0 || idx >= len(md.Vertices) {
					return errors.Errorf("Vertex index %d out of range", idx)
				}
				face[k] = idx
			}
			if n >= 3 {
				md.Faces = append(md.Faces, face)
			}
			pos += n
		}
		return nil
	}

	for _, tris := range mesh.Triangles {
		if tris.P == nil {
			continue
		}
		p, err := parseInts(tris.P.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "Triangles")
		}
		_, stride, ok := layout(tris.Input)
		if !ok {
			return nil, errors.Errorf("Triangles have no VERTEX input")
		}
		vcount := make([]int, len(p)/(stride*3))
		for i := range vcount {
			vcount[i] = 3
		}
		if err := addPolygons(tris.Input, p, vcount); err != nil {
			return nil, err
		}
	}
	for _, poly := range mesh.Polylist {
		if poly.P == nil || poly.VCount == nil {
			continue
		}
		p, err := parseInts(poly.P.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "Polylist")
		}
		vcount, err := parseInts(poly.VCount.Values)
		if err != nil {
			return nil, errors.Wrapf(err, "Polylist vcount")
		}
		if err := addPolygons(poly.Input, p, vcount); err != nil {
			return nil, err
		}
	}
	return md, nil
}
