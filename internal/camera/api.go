// Package camera serves the read-only camera discovery endpoints from the
// live entity snapshot.
package camera

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Dicklesworthstone/homedeck/internal/entity"
)

// SnapshotSource yields the current entity snapshot.
type SnapshotSource interface {
	Snapshot() entity.Snapshot
}

// Camera is one discovered camera entity.
type Camera struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// Stream is a resolved stream URL for one camera.
type Stream struct {
	Camera string `json:"camera"`
	Type   string `json:"type"`
	URL    string `json:"url"`
}

// Server exposes GET /api/cameras and GET /api/streams.
type Server struct {
	source    SnapshotSource
	serverURL string
}

// NewServer creates the camera API server. serverURL is the Home Assistant
// base URL used to build proxy stream addresses.
func NewServer(source SnapshotSource, serverURL string) *Server {
	return &Server{source: source, serverURL: strings.TrimSuffix(serverURL, "/")}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/api/cameras", s.handleCameras)
	r.Get("/api/streams", s.handleStreams)
	return r
}

func (s *Server) handleCameras(w http.ResponseWriter, r *http.Request) {
	snap := s.source.Snapshot()
	cameras := []Camera{}
	for _, e := range snap.Entities {
		if e.Domain() != "camera" {
			continue
		}
		cameras = append(cameras, Camera{ID: e.ID, Name: e.FriendlyName(), State: e.State})
	}
	writeJSON(w, http.StatusOK, cameras)
}

func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("camera")
	if id == "" {
		writeError(w, http.StatusBadRequest, "camera parameter required")
		return
	}
	streamType := r.URL.Query().Get("type")
	if streamType == "" {
		streamType = "mjpeg"
	}

	snap := s.source.Snapshot()
	e, ok := snap.Get(id)
	if !ok || e.Domain() != "camera" {
		writeError(w, http.StatusNotFound, "unknown camera")
		return
	}

	url, err := s.resolveStream(e, streamType)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Stream{Camera: id, Type: streamType, URL: url})
}

// resolveStream maps a stream type to a URL. The mjpeg proxy needs the
// entity's access token; source streams come straight from attributes.
func (s *Server) resolveStream(e entity.Entity, streamType string) (string, error) {
	switch streamType {
	case "mjpeg":
		token, _ := e.Attributes["access_token"].(string)
		url := fmt.Sprintf("%s/api/camera_proxy_stream/%s", s.serverURL, e.ID)
		if token != "" {
			url += "?token=" + token
		}
		return url, nil
	case "source":
		src, _ := e.Attributes["stream_source"].(string)
		if src == "" {
			return "", fmt.Errorf("camera %s exposes no stream source", e.ID)
		}
		return src, nil
	default:
		return "", fmt.Errorf("unsupported stream type %q", streamType)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
