// Package importer turns a parsed SDF kinematic tree into a bone hierarchy
// with attached visual, collision and physical data inside a scene.
package importer

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/pose"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/sdf"
	"github.com/mogaika/sdf_robot_importer/sdf/modelconfig"
	"github.com/mogaika/sdf_robot_importer/status"
	"github.com/mogaika/sdf_robot_importer/utils"
)

// Bone name of the fixed segment created for every chain root
const RootBoneName = "rd_virtual_joint"

const (
	PackageURL      = "package://"
	FileURLRelative = "model://"
	FileURLAbsolute = "file:///"
)

type Importer struct {
	FilePath string
	// directory model.config is read from, relative mesh uris resolve against its parent
	BaseDir string

	scene    *scene.Scene
	reporter status.Reporter
	log      logrus.FieldLogger
	settings config.Settings
}

type Option func(imp *Importer)

func WithLogger(log logrus.FieldLogger) Option {
	return func(imp *Importer) { imp.log = log }
}

func WithSettings(s config.Settings) Option {
	return func(imp *Importer) { imp.settings = s }
}

// WithBaseDir overrides the default base directory, which is the directory of the file
func WithBaseDir(dir string) Option {
	return func(imp *Importer) { imp.BaseDir = dir }
}

func New(s *scene.Scene, reporter status.Reporter, filePath string, opts ...Option) *Importer {
	imp := &Importer{
		FilePath: filePath,
		BaseDir:  filepath.Dir(filePath),
		scene:    s,
		reporter: reporter,
		log:      utils.DiscardLogger(),
		settings: config.Get(),
	}
	for _, opt := range opts {
		opt(imp)
	}
	if imp.BaseDir == "" {
		imp.BaseDir = filepath.Dir(filePath)
	}
	return imp
}

// reportError is the path for every recoverable problem: user sees it, log keeps it
func (imp *Importer) reportError(log logrus.FieldLogger, format string, a ...interface{}) {
	imp.reporter.Report(status.ERROR, format, a...)
	log.Errorf(format, a...)
}

// ImportFile parses the description and builds one bone chain per kinematic root
func (imp *Importer) ImportFile() (*scene.Model, error) {
	doc, err := sdf.Parse(imp.FilePath, imp.log)
	if err != nil {
		return nil, err
	}

	log := imp.log.WithField("model", doc.ModelName)
	log.Debugf("base dir %q, file %q", imp.BaseDir, imp.FilePath)

	rootNames := make([]string, len(doc.Roots))
	for i, r := range doc.Roots {
		rootNames[i] = r.Name
	}
	log.Debugf("root links: %v", rootNames)
	utils.LogDump(log, "parsed chains", doc.Chains)

	world := pose.ToHomogeneous(pose.Pose(imp.settings.ModelWorldPose))
	m := imp.scene.NewModel(doc.ModelName, world)
	m.FileName = filepath.Base(imp.FilePath)

	for _, chain := range doc.Chains {
		log.Debugf("new chain: %s", chain.Link.Name)
		rootName, err := imp.Parse(m, chain, pose.Zero, "")
		if err != nil {
			return m, errors.Wrapf(err, "Chain %q", chain.Link.Name)
		}
		if err := imp.scene.UpdateSegments(m, rootName, true); err != nil {
			return m, err
		}
	}
	return m, nil
}

// ImportConfig copies model.config metadata from BaseDir onto the model
func (imp *Importer) ImportConfig(m *scene.Model) error {
	cfg, err := modelconfig.Load(imp.BaseDir)
	if err != nil {
		return err
	}

	author := cfg.FirstAuthor()
	m.Meta = scene.ModelMeta{
		ConfigName:  cfg.Name,
		Version:     cfg.Version,
		AuthorName:  author.Name,
		AuthorEmail: author.Email,
		Description: cfg.Description,
	}
	return nil
}
