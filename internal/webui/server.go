// Package webui serves the dashboard page, the action endpoints and the live
// view push over WebSocket and SSE.
package webui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/config"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/dashboard"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/detection"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
)

// ClientTracker counts live page clients.
type ClientTracker interface {
	ClientConnected()
	ClientDisconnected()
}

type nopTracker struct{}

func (nopTracker) ClientConnected()    {}
func (nopTracker) ClientDisconnected() {}

// Options configures the web UI.
type Options struct {
	// BackendURL is the camera backend the video feed is relayed from.
	BackendURL string
	// Probe checks backend reachability for /healthz. May be nil.
	Probe func(ctx context.Context) error
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
	Clients ClientTracker
	Auth    config.AuthConfig
	// KeepaliveInterval is the SSE comment interval.
	KeepaliveInterval time.Duration
}

// Server serves the dashboard endpoints for one controller.
type Server struct {
	ctrl    *dashboard.Controller
	opts    Options
	hub     *Hub
	relay   http.Handler
	clients ClientTracker
}

// NewServer returns a configured dashboard server.
func NewServer(ctrl *dashboard.Controller, opts Options) (*Server, error) {
	if opts.KeepaliveInterval <= 0 {
		opts.KeepaliveInterval = 30 * time.Second
	}
	clients := opts.Clients
	if clients == nil {
		clients = nopTracker{}
	}

	backend, err := url.Parse(opts.BackendURL)
	if err != nil || backend.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", opts.BackendURL)
	}

	return &Server{
		ctrl:    ctrl,
		opts:    opts,
		hub:     NewHub(clients),
		relay:   newFeedRelay(backend),
		clients: clients,
	}, nil
}

// Handler exposes the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/{$}", s.handleIndex)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/api/events", s.handleEvents)
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/camera/start", s.handleCameraStart)
	mux.HandleFunc("/api/camera/stop", s.handleCameraStop)
	mux.HandleFunc("/api/stream/refresh", s.handleStreamRefresh)
	mux.HandleFunc("/api/stream/loaded", s.handleStreamLoaded)
	mux.HandleFunc("/api/stream/failed", s.handleStreamFailed)
	mux.HandleFunc("/api/filters", s.handleFilters)
	mux.HandleFunc("/api/clear/{list}", s.handleClear)
	mux.HandleFunc("/api/confirm/{id}", s.handleConfirm)
	mux.HandleFunc("/api/confirm/{id}/cancel", s.handleConfirmCancel)
	mux.HandleFunc("/api/notification/dismiss", s.handleDismiss)
	mux.Handle("/video_feed", s.relay)
	mux.HandleFunc("/static/img/video-placeholder.jpg", handlePlaceholder)
	mux.HandleFunc("/healthz", s.handleHealth)
	if s.opts.Metrics != nil {
		mux.Handle("/metrics", s.opts.Metrics)
	}

	var h http.Handler = mux
	if s.opts.Auth.Enabled() {
		h = basicAuth(s.opts.Auth, h, "/healthz", "/metrics")
	}
	return h
}

// Run pushes a fresh update to WebSocket clients on every controller change
// until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	id, changes := s.ctrl.Subscribe()
	defer s.ctrl.Unsubscribe(id)

	go s.hub.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			data, err := jsonUpdate(s.ctrl.View())
			if err != nil {
				logger.Error("WebUI", "Update encode error: %v", err)
				continue
			}
			s.hub.Broadcast(data)
		}
	}
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, buildUpdate(s.ctrl.View()))
}

func (s *Server) handleCameraStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		UseDroidcam bool `json:"use_droidcam"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSONWithStatus(w, map[string]any{"error": "Invalid request body"}, http.StatusBadRequest)
			return
		}
	}

	err := s.ctrl.StartCamera(r.Context(), req.UseDroidcam)
	s.writeResult(w, err)
}

func (s *Server) handleCameraStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	_, err := s.ctrl.RequestStopCamera()
	s.writeResult(w, err)
}

func (s *Server) handleStreamRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var err error
	if !s.ctrl.RefreshStream() {
		err = dashboard.ErrControlDisabled
	}
	s.writeResult(w, err)
}

func (s *Server) handleStreamLoaded(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.StreamLoaded()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStreamFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.StreamFailed()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Objects *string `json:"objects"`
		Faces   *string `json:"faces"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": "Invalid request body"}, http.StatusBadRequest)
		return
	}

	// Validate both before applying either.
	var (
		objects detection.ObjectFilter
		faces   detection.FaceFilter
		err     error
	)
	if req.Objects != nil {
		if objects, err = detection.ParseObjectFilter(*req.Objects); err != nil {
			writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
			return
		}
	}
	if req.Faces != nil {
		if faces, err = detection.ParseFaceFilter(*req.Faces); err != nil {
			writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusBadRequest)
			return
		}
	}

	if req.Objects != nil {
		s.ctrl.SetObjectFilter(objects)
	}
	if req.Faces != nil {
		s.ctrl.SetFaceFilter(faces)
	}
	writeJSON(w, buildUpdate(s.ctrl.View()))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.PathValue("list") {
	case "objects":
		s.ctrl.RequestClearObjects()
	case "faces":
		s.ctrl.RequestClearFaces()
	case "alerts":
		s.ctrl.RequestClearAlerts()
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, buildUpdate(s.ctrl.View()))
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeResult(w, s.ctrl.Confirm(r.Context(), r.PathValue("id")))
}

func (s *Server) handleConfirmCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeResult(w, s.ctrl.CancelConfirmation(r.PathValue("id")))
}

func (s *Server) handleDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.ctrl.DismissNotification()
	writeJSON(w, buildUpdate(s.ctrl.View()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":    "ok",
		"running":   s.ctrl.View().Running,
		"timestamp": float64(time.Now().Unix()),
	}
	if s.opts.Probe != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.opts.Probe(ctx); err != nil {
			payload["backend"] = "unreachable"
			payload["backend_error"] = err.Error()
		} else {
			payload["backend"] = "reachable"
		}
	}
	writeJSON(w, payload)
}

// writeResult answers an action with the current view. Backend failures have
// already been surfaced in the view; the status code tells scripts apart.
func (s *Server) writeResult(w http.ResponseWriter, err error) {
	status := http.StatusOK
	switch {
	case err == nil:
	case errors.Is(err, dashboard.ErrControlDisabled):
		status = http.StatusConflict
	case errors.Is(err, dashboard.ErrNoPendingConfirmation):
		status = http.StatusNotFound
	case errors.Is(err, dashboard.ErrClosed):
		status = http.StatusServiceUnavailable
	default:
		status = http.StatusBadGateway
	}
	writeJSONWithStatus(w, buildUpdate(s.ctrl.View()), status)
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}
