// Package meshio loads external mesh files referenced by SDF geometries.
package meshio

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/scene"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatSTL
	FormatDAE
)

func (f Format) String() string {
	switch f {
	case FormatSTL:
		return "stl"
	case FormatDAE:
		return "dae"
	default:
		return "unknown"
	}
}

// FormatOf detects format by file extension, case insensitive
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".stl":
		return FormatSTL
	case ".dae":
		return FormatDAE
	default:
		return FormatUnknown
	}
}

// Part is one mesh object of a file. Matrix places it inside the file frame
// (meters, Z up), identity for formats without a scene graph.
type Part struct {
	Mesh   *scene.MeshData
	Matrix mgl64.Mat4
}

// BaseName is file name without directory and extension
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads every mesh from the file. Unknown formats are an error, callers
// check FormatOf first when unknown formats must be skipped silently.
func Load(path string) ([]Part, error) {
	format := FormatOf(path)
	if format == FormatUnknown {
		return nil, errors.Errorf("Unsupported mesh format %q", filepath.Ext(path))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open mesh")
	}
	defer f.Close()

	switch format {
	case FormatSTL:
		md, err := ReadSTL(f, BaseName(path))
		if err != nil {
			return nil, errors.Wrapf(err, "Can't load %q", path)
		}
		return []Part{{Mesh: md, Matrix: mgl64.Ident4()}}, nil
	default:
		parts, err := ReadDAE(f)
		if err != nil {
			return nil, errors.Wrapf(err, "Can't load %q", path)
		}
		return parts, nil
	}
}
