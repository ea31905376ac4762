package web

import (
	"io"
	"net/http"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
)

// Server exposes one shared scene. Imports mutate the scene so every
// handler takes the lock.
type Server struct {
	lock     sync.Mutex
	scene    *scene.Scene
	hub      *status.Hub
	log      logrus.FieldLogger
	settings config.Settings
	upgrader websocket.Upgrader
}

func NewServer(s *scene.Scene, hub *status.Hub, log logrus.FieldLogger, settings config.Settings) *Server {
	return &Server{
		scene:    s,
		hub:      hub,
		log:      log,
		settings: settings,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

func (srv *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/import", srv.HandlerImport).Methods("POST")
	r.HandleFunc("/json/scene", srv.HandlerAjaxScene)
	r.HandleFunc("/json/scene/{model}", srv.HandlerAjaxModel)
	r.HandleFunc("/export/{model}.glb", srv.HandlerExportModel)
	r.HandleFunc("/ws/status", srv.HandlerStatusWebsocket)
	return r
}

// Handler wraps the router with panic recovery and access log into logWriter
func (srv *Server) Handler(logWriter io.Writer) http.Handler {
	h := handlers.RecoveryHandler(handlers.RecoveryLogger(srv.log))(srv.Router())
	return handlers.LoggingHandler(logWriter, h)
}

func StartServer(addr string, srv *Server) error {
	w := srv.log.WithField("component", "http").Writer()
	defer w.Close()

	srv.log.Infof("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, srv.Handler(w))
}
