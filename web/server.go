package web

import (
	"log"
	"net/http"
	"os"
	"path"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/w3d_browser/config"
	"github.com/mogaika/w3d_browser/status"
	"github.com/mogaika/w3d_browser/vfs"
)

type Server struct {
	Dir      vfs.Directory
	Hub      *status.Hub
	Settings *config.ExportSettings
}

func NewServer(d vfs.Directory, hub *status.Hub, settings *config.ExportSettings) *Server {
	if settings == nil {
		settings = config.DefaultExportSettings()
	}
	return &Server{Dir: d, Hub: hub, Settings: settings}
}

func (s *Server) Router(webPath string) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/files", s.HandlerAjaxFiles).Methods("GET")
	r.HandleFunc("/json/file/{file}", s.HandlerAjaxFile).Methods("GET")
	r.HandleFunc("/yaml/file/{file}", s.HandlerYAMLFile).Methods("GET")
	r.HandleFunc("/tree/file/{file}", s.HandlerTreeFile).Methods("GET")
	r.HandleFunc("/dump/file/{file}", s.HandlerDumpFile).Methods("GET")
	r.HandleFunc("/reencode/file/{file}", s.HandlerReencodeFile).Methods("GET")
	r.HandleFunc("/gltf/file/{file}/{anim}", s.HandlerGLTFFile).Methods("GET")
	r.HandleFunc("/upload/file/{file}", s.HandlerUploadFile).Methods("POST")
	r.HandleFunc("/check", s.HandlerCheck).Methods("GET")
	if s.Hub != nil {
		r.Handle("/ws/status", s.Hub)
	}

	if webPath != "" {
		r.PathPrefix("/").Handler(http.FileServer(http.Dir(path.Join(webPath, "data"))))
	}
	return r
}

func StartServer(addr string, s *Server, webPath string) error {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.Router(webPath))
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
