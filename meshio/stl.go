package meshio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"
	"io/ioutil"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/scene"
)

const (
	stlHeaderSize   = 80
	stlTriangleSize = 50
)

// welder merges bit-identical vertices, STL stores every triangle corner separately
type welder struct {
	index map[mgl64.Vec3]int
	verts []mgl64.Vec3
}

func newWelder() *welder {
	return &welder{index: make(map[mgl64.Vec3]int)}
}

func (w *welder) add(v mgl64.Vec3) int {
	if i, ok := w.index[v]; ok {
		return i
	}
	i := len(w.verts)
	w.index[v] = i
	w.verts = append(w.verts, v)
	return i
}

// ReadSTL decodes binary or ascii stl
func ReadSTL(r io.Reader, name string) (*scene.MeshData, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't read stl")
	}
	if isBinarySTL(data) {
		return readBinarySTL(data, name)
	}
	return readAsciiSTL(data, name)
}

func isBinarySTL(data []byte) bool {
	if len(data) < stlHeaderSize+4 {
		return false
	}
	count := binary.LittleEndian.Uint32(data[stlHeaderSize:])
	if int64(len(data)) == stlHeaderSize+4+int64(count)*stlTriangleSize {
		return true
	}
	// some exporters write "solid" into binary headers, size check wins
	return !bytes.HasPrefix(bytes.TrimSpace(data[:stlHeaderSize]), []byte("solid"))
}

func readBinarySTL(data []byte, name string) (*scene.MeshData, error) {
	if len(data) < stlHeaderSize+4 {
		return nil, errors.Errorf("Binary stl too short: %d bytes", len(data))
	}
	count := int(binary.LittleEndian.Uint32(data[stlHeaderSize:]))
	body := data[stlHeaderSize+4:]
	if len(body) < count*stlTriangleSize {
		return nil, errors.Errorf("Binary stl truncated: %d triangles declared, %d bytes left", count, len(body))
	}

	readVec := func(buf []byte) mgl64.Vec3 {
		return mgl64.Vec3{
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[0:4]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[4:8]))),
			float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[8:12]))),
		}
	}

	w := newWelder()
	faces := make([][]int, 0, count)
	for i := 0; i < count; i++ {
		tri := body[i*stlTriangleSize:]
		// normal at 0:12 is recomputed by consumers
		faces = append(faces, []int{
			w.add(readVec(tri[12:24])),
			w.add(readVec(tri[24:36])),
			w.add(readVec(tri[36:48])),
		})
	}
	return scene.NewMeshData(name, w.verts, faces), nil
}

func readAsciiSTL(data []byte, name string) (*scene.MeshData, error) {
	w := newWelder()
	var faces [][]int
	var face []int

	scanner := bufio.NewScanner(bytes.NewReader(data))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch strings.ToLower(fields[0]) {
		case "outer":
			face = face[:0]
		case "vertex":
			if len(fields) != 4 {
				return nil, errors.Errorf("Line %d: vertex needs 3 coordinates", line)
			}
			var v mgl64.Vec3
			for i := range v {
				f, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, errors.Wrapf(err, "Line %d", line)
				}
				v[i] = f
			}
			face = append(face, w.add(v))
		case "endloop":
			if len(face) < 3 {
				return nil, errors.Errorf("Line %d: loop with %d vertices", line, len(face))
			}
			faces = append(faces, append([]int(nil), face...))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Can't scan stl")
	}
	if len(faces) == 0 {
		return nil, errors.Errorf("No facets in stl")
	}
	return scene.NewMeshData(name, w.verts, faces), nil
}
