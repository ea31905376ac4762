package webutils

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

func WriteFileHeaders(w http.ResponseWriter, name string) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", "attachment; filename=\""+name+"\"")
}

func WriteFile(w http.ResponseWriter, in io.Reader, name string) {
	WriteFileHeaders(w, name)
	if _, err := io.Copy(w, in); err != nil {
		logrus.Warnf("[web] Error when writing file %q: %v", name, err)
	}
}

func WriteJson(w http.ResponseWriter, data interface{}) {
	res, err := json.Marshal(data)
	if err != nil {
		WriteError(w, err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		WriteResult(w, res)
	}
}

// SaveFormFile stores multipart file formFileKey into dir keeping its base
// name, returns the stored path
func SaveFormFile(r *http.Request, formFileKey string, dir string) (string, error) {
	if strings.ToUpper(r.Method) != "POST" {
		return "", errors.Errorf("Invalid http method %q", r.Method)
	}

	f, header, err := r.FormFile(formFileKey)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to get file")
	}
	defer f.Close()

	name := filepath.Base(filepath.Clean("/" + header.Filename))
	if name == "/" || name == "." {
		return "", errors.Errorf("Invalid file name %q", header.Filename)
	}

	path := filepath.Join(dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", errors.Wrapf(err, "Failed to create")
	}
	if _, err := io.Copy(out, f); err != nil {
		out.Close()
		return "", errors.Wrapf(err, "Failed to save")
	}
	return path, out.Close()
}

func WriteResult(w http.ResponseWriter, data []byte) {
	_, err := w.Write(data)
	if err != nil {
		logrus.Warnf("[web] Error when writing response: %v", err)
	}
}

func WriteError(w http.ResponseWriter, err error) {
	type jError struct {
		Error string `json:"error"`
	}
	data, merr := json.Marshal(&jError{Error: err.Error()})
	if merr == nil {
		logrus.Errorf("[web] HERR: %v", string(data))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		WriteResult(w, data)
	} else {
		logrus.Errorf("[web] Error marshaling error '%v': %v", err, merr)
	}
}
