package importer

import (
	"archive/zip"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
)

const SDFExtension = ".sdf"

// ImportPlain imports the description file and its sibling model.config
func ImportPlain(s *scene.Scene, reporter status.Reporter, path string, opts ...Option) (*scene.Model, error) {
	imp := New(s, reporter, path, opts...)
	m, err := imp.ImportFile()
	if err != nil {
		return m, err
	}
	if err := imp.ImportConfig(m); err != nil {
		return m, err
	}
	return m, nil
}

// ImportStandalone is ImportPlain for a description shipped without its
// package, a failing model.config is reported as WARNING only
func ImportStandalone(s *scene.Scene, reporter status.Reporter, path string, opts ...Option) (*scene.Model, error) {
	imp := New(s, reporter, path, opts...)
	m, err := imp.ImportFile()
	if err != nil {
		return m, err
	}
	if err := imp.ImportConfig(m); err != nil {
		reporter.Report(status.WARNING, "Model config not imported: %v", err)
	}
	return m, nil
}

// Unzip extracts zipPath into destDir, entries escaping destDir are skipped.
// Returns extracted file paths.
func Unzip(zipPath, destDir string, reporter status.Reporter) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't open zip %q", zipPath)
	}
	defer r.Close()

	absDir, err := filepath.Abs(destDir)
	if err != nil {
		return nil, errors.Wrapf(err, "Can't resolve %q", destDir)
	}
	if err := os.MkdirAll(absDir, 0755); err != nil {
		return nil, errors.Wrapf(err, "Can't create %q", absDir)
	}

	pr, _ := reporter.(status.ProgressReporter)

	var extracted []string
	for i, f := range r.File {
		dest := filepath.Clean(filepath.Join(absDir, f.Name))
		if !strings.HasPrefix(dest, absDir+string(os.PathSeparator)) && dest != absDir {
			continue
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return nil, errors.Wrapf(err, "Can't create %q", dest)
			}
			continue
		}
		if err := unzipFile(f, dest); err != nil {
			return nil, err
		}
		extracted = append(extracted, dest)

		if pr != nil {
			pr.Progress(float32(i+1)/float32(len(r.File)), "Extracting %s", f.Name)
		}
	}
	return extracted, nil
}

func unzipFile(f *zip.File, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return errors.Wrapf(err, "Can't create %q", filepath.Dir(dest))
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "Can't open zip entry %q", f.Name)
	}
	defer rc.Close()

	out, err := os.Create(dest)
	if err != nil {
		return errors.Wrapf(err, "Can't create %q", dest)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return errors.Wrapf(err, "Can't extract %q", f.Name)
	}
	return out.Close()
}

// findSDF walks root in lexical order, the last description found wins
func findSDF(root string, reporter status.Reporter) (string, error) {
	var found string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != SDFExtension {
			return nil
		}
		if found != "" {
			reporter.Report(status.INFO, "Multiple SDF in zip. Choosing: %s", info.Name())
		}
		found = path
		return nil
	})
	if err != nil {
		return "", errors.Wrapf(err, "Can't walk %q", root)
	}
	return found, nil
}

// ImportZippedPackage extracts the archive into a temporary directory and
// imports the description found inside. The directory is always removed.
func ImportZippedPackage(s *scene.Scene, reporter status.Reporter, zipPath string, opts ...Option) (*scene.Model, error) {
	target, err := ioutil.TempDir("", "sdf_package_")
	if err != nil {
		return nil, errors.Wrapf(err, "Can't create temp dir")
	}
	defer os.RemoveAll(target)

	if _, err := Unzip(zipPath, target, reporter); err != nil {
		return nil, err
	}

	path, err := findSDF(target, reporter)
	if err != nil {
		return nil, err
	}
	if path == "" {
		reporter.Report(status.ERROR, "No SDF file found in package")
		return nil, errors.Errorf("No SDF file found in package %q", zipPath)
	}

	return ImportPlain(s, reporter, path, opts...)
}
