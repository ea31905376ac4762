package modelconfig

import (
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/config"
)

const FileName = "model.config"

type Author struct {
	Name  string `xml:"name"`
	Email string `xml:"email"`
}

type SDFRef struct {
	Version string `xml:"version,attr"`
	Path    string `xml:",chardata"`
}

type Model struct {
	XMLName     xml.Name `xml:"model"`
	Name        string   `xml:"name"`
	Version     string   `xml:"version"`
	SDF         []SDFRef `xml:"sdf"`
	Authors     []Author `xml:"author"`
	Description string   `xml:"description"`
}

// FirstAuthor returns the first declared author, the editor keeps only one
func (m *Model) FirstAuthor() Author {
	if len(m.Authors) == 0 {
		return Author{}
	}
	return m.Authors[0]
}

func Decode(r io.Reader) (*Model, error) {
	var m Model
	d := xml.NewDecoder(r)
	d.CharsetReader = config.CharsetReader
	if err := d.Decode(&m); err != nil {
		return nil, errors.Wrapf(err, "Xml decoding")
	}

	m.Name = strings.TrimSpace(m.Name)
	m.Version = strings.TrimSpace(m.Version)
	m.Description = strings.TrimSpace(m.Description)
	for i := range m.Authors {
		m.Authors[i].Name = strings.TrimSpace(m.Authors[i].Name)
		m.Authors[i].Email = strings.TrimSpace(m.Authors[i].Email)
	}
	for i := range m.SDF {
		m.SDF[i].Path = strings.TrimSpace(m.SDF[i].Path)
	}
	return &m, nil
}

// Load reads model.config from dir
func Load(dir string) (*Model, error) {
	path := filepath.Join(dir, FileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open %q", path)
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't parse %q", path)
	}
	return m, nil
}
