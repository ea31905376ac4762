package web

import (
	"bytes"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mogaika/sdf_robot_importer/importer"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
	"github.com/mogaika/sdf_robot_importer/utils/gltfutils"
	"github.com/mogaika/sdf_robot_importer/webutils"
)

type ImportResult struct {
	Model   string
	Reports []status.Message
}

// importUploaded imports a stored upload, zip packages and plain descriptions
// are accepted. A plain description needs its model.config unless standalone.
func (srv *Server) importUploaded(path string, standalone bool, reporter status.Reporter) (*scene.Model, error) {
	opts := []importer.Option{
		importer.WithLogger(srv.log),
		importer.WithSettings(srv.settings),
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return importer.ImportZippedPackage(srv.scene, reporter, path, opts...)
	case importer.SDFExtension:
		if standalone {
			return importer.ImportStandalone(srv.scene, reporter, path, opts...)
		}
		return importer.ImportPlain(srv.scene, reporter, path, opts...)
	default:
		return nil, errors.Errorf("Unsupported upload %q, expected .zip or .sdf", filepath.Base(path))
	}
}

func (srv *Server) HandlerImport(w http.ResponseWriter, r *http.Request) {
	dir, err := ioutil.TempDir("", "sdf_upload_")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	defer os.RemoveAll(dir)

	path, err := webutils.SaveFormFile(r, "file", dir)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	collector := &status.Collector{}
	reporter := status.Multi{collector, srv.hub, status.LogReporter{Log: srv.log}}

	srv.lock.Lock()
	defer srv.lock.Unlock()

	srv.hub.Report(status.INFO, "Importing %s", filepath.Base(path))
	standalone, _ := strconv.ParseBool(r.FormValue("standalone"))
	m, err := srv.importUploaded(path, standalone, reporter)
	if err != nil {
		srv.hub.Report(status.ERROR, "Import of %s failed: %v", filepath.Base(path), err)
		webutils.WriteError(w, err)
		return
	}
	srv.hub.Report(status.INFO, "Imported %s", m.Name)

	webutils.WriteJson(w, &ImportResult{Model: m.Name, Reports: collector.Messages()})
}

func (srv *Server) HandlerAjaxScene(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	models := srv.scene.Models()
	result := make([]*ModelSummary, len(models))
	for i, m := range models {
		result[i] = NewModelSummary(m)
	}
	webutils.WriteJson(w, result)
}

func (srv *Server) model(r *http.Request) (*scene.Model, error) {
	name := mux.Vars(r)["model"]
	m := srv.scene.Model(name)
	if m == nil {
		return nil, errors.Errorf("Model %q not found", name)
	}
	return m, nil
}

func (srv *Server) HandlerAjaxModel(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	m, err := srv.model(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, NewModelView(srv.scene, m))
}

func (srv *Server) HandlerExportModel(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	m, err := srv.model(r)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	doc, err := gltfutils.ExportModel(srv.scene, m)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Export failed"))
		return
	}

	var buf bytes.Buffer
	if err := gltfutils.ExportBinary(&buf, doc); err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Encoding failed"))
		return
	}
	webutils.WriteFile(w, &buf, m.Name+".glb")
}

func (srv *Server) HandlerStatusWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := srv.upgrader.Upgrade(w, r, nil)
	if err != nil {
		srv.log.Warnf("[web] websocket upgrade: %v", err)
		return
	}
	srv.hub.Serve(conn)
}
