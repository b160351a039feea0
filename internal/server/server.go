// Package server implements the panekit preview server: it serves the
// navigation demo page, exposes JSON state endpoints, and hosts the
// WebSocket endpoint that keeps browser clients in sync with the
// navigation controller.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/panekit/panekit/internal/config"
	"github.com/panekit/panekit/internal/logging"
	"github.com/panekit/panekit/internal/manifest"
	"github.com/panekit/panekit/internal/nav"
	"github.com/panekit/panekit/internal/registry"
	"github.com/panekit/panekit/internal/websocket"
)

// PreviewServer serves the demo page and the live-update endpoint.
type PreviewServer struct {
	config     *config.Config
	logger     logging.Logger
	registry   *registry.PaneRegistry
	controller *nav.Controller
	wsManager  *websocket.Manager

	manifestMu sync.RWMutex
	manifest   *manifest.Manifest

	httpServer *http.Server
}

// New creates a preview server around an already-configured controller and
// WebSocket manager.
func New(
	cfg *config.Config,
	logger logging.Logger,
	reg *registry.PaneRegistry,
	controller *nav.Controller,
	wsManager *websocket.Manager,
) *PreviewServer {
	return &PreviewServer{
		config:     cfg,
		logger:     logger.WithComponent("server"),
		registry:   reg,
		controller: controller,
		wsManager:  wsManager,
	}
}

// SetManifest installs the manifest used for page rendering. The serve
// command calls this on startup and after every hot reload.
func (s *PreviewServer) SetManifest(m *manifest.Manifest) {
	s.manifestMu.Lock()
	defer s.manifestMu.Unlock()
	s.manifest = m
}

// Manifest returns the currently rendered manifest.
func (s *PreviewServer) Manifest() *manifest.Manifest {
	s.manifestMu.RLock()
	defer s.manifestMu.RUnlock()
	return s.manifest
}

// Routes builds the HTTP mux.
func (s *PreviewServer) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/ws", s.wsManager.HandleWebSocket)
	mux.HandleFunc("/api/panes", s.handlePanes)
	mux.HandleFunc("/api/state", s.handleState)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *PreviewServer) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Addr(),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "preview server listening", "addr", s.config.Addr(), "url", s.config.URL())
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.wsManager.Shutdown(shutdownCtx)
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info(shutdownCtx, "preview server stopped")
	return nil
}

// IsAllowedOrigin implements websocket.OriginValidator: the server's own
// origin is always allowed, plus anything configured.
func (s *PreviewServer) IsAllowedOrigin(origin string) bool {
	if origin == s.config.URL() {
		return true
	}
	for _, allowed := range s.config.Server.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

func (s *PreviewServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	m := s.Manifest()
	if m == nil {
		http.Error(w, "no manifest loaded", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := indexPage(m, s.controller.Snapshot())
	if err := page.Render(r.Context(), w); err != nil {
		s.logger.Error(r.Context(), err, "failed to render index")
	}
}

// paneSummary is the JSON shape of one pane in /api/panes.
type paneSummary struct {
	Key      string `json:"key"`
	Title    string `json:"title"`
	Group    string `json:"group"`
	Animated bool   `json:"animated"`
	Active   bool   `json:"active"`
}

func (s *PreviewServer) handlePanes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	snapshot := s.controller.Snapshot()
	panes := make([]paneSummary, 0)
	for key, info := range s.registry.GetAll() {
		panes = append(panes, paneSummary{
			Key:      key,
			Title:    info.Title,
			Group:    info.Group,
			Animated: info.Animated,
			Active:   snapshot[key],
		})
	}
	sort.Slice(panes, func(i, j int) bool { return panes[i].Key < panes[j].Key })

	s.writeJSON(w, r, panes)
}

func (s *PreviewServer) handleState(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.writeJSON(w, r, s.controller.Snapshot())

	case http.MethodPost:
		var in nav.Interaction
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			http.Error(w, "malformed interaction", http.StatusBadRequest)
			return
		}
		if !s.controller.HandleInteraction(r.Context(), in) {
			http.Error(w, "interaction not applied", http.StatusUnprocessableEntity)
			return
		}
		s.writeJSON(w, r, s.controller.Snapshot())

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *PreviewServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, map[string]interface{}{
		"status":  "ok",
		"panes":   s.registry.Count(),
		"clients": s.wsManager.ConnectedClients(),
	})
}

func (s *PreviewServer) writeJSON(w http.ResponseWriter, r *http.Request, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error(r.Context(), err, "failed to encode response")
	}
}
