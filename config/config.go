package config

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Settings struct {
	// decimals of link and reference poses before matrix conversion
	Precision int `yaml:"precision"`

	SphereSegments   int `yaml:"sphere_segments"`
	SphereRings      int `yaml:"sphere_rings"`
	CylinderVertices int `yaml:"cylinder_vertices"`

	// x y z roll pitch yaw of the created model object
	ModelWorldPose [6]float64 `yaml:"model_world_pose,flow"`

	Addr     string `yaml:"addr"`
	LogLevel string `yaml:"log_level"`
}

func Default() Settings {
	return Settings{
		Precision:        6,
		SphereSegments:   8,
		SphereRings:      4,
		CylinderVertices: 32,
		Addr:             ":8000",
		LogLevel:         "info",
	}
}

var current = Default()

func Get() Settings {
	return current
}

func Set(s Settings) {
	current = s
}

// Load reads yaml settings from path, keys absent in the file keep default values
func Load(path string) (Settings, error) {
	s := Default()

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return s, errors.Wrapf(err, "Cannot read config %q", path)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, errors.Wrapf(err, "Unmarshaling config %q", path)
	}
	if err := s.Validate(); err != nil {
		return s, errors.Wrapf(err, "Invalid config %q", path)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.Precision < 0 || s.Precision > 15 {
		return errors.Errorf("precision %d out of range [0,15]", s.Precision)
	}
	if s.SphereSegments < 3 || s.SphereRings < 3 {
		return errors.Errorf("sphere needs at least 3 segments and 3 rings, got %d/%d", s.SphereSegments, s.SphereRings)
	}
	if s.CylinderVertices < 3 {
		return errors.Errorf("cylinder needs at least 3 vertices, got %d", s.CylinderVertices)
	}
	return nil
}
