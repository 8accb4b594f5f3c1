package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/seismic-map/internal/domain"
	"github.com/couchcryptid/seismic-map/internal/feed"
	"github.com/couchcryptid/seismic-map/internal/mapview"
	"github.com/couchcryptid/seismic-map/internal/viewport"
	"github.com/couchcryptid/seismic-map/internal/visibility"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MapController is the map's control surface. mapview.Loop implements it.
type MapController interface {
	Refresh(ctx context.Context, fs domain.FilterState) (string, feed.QueryParams, error)
	SetVisible(ctx context.Context, name domain.LayerName, visible bool) (visibility.State, error)
	Gesture(ctx context.Context, g viewport.Gesture) (domain.ViewTransform, error)
	Snapshot(ctx context.Context) (mapview.Snapshot, error)
}

// Server exposes the map API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	ctrl       MapController
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the /api routes, /healthz, /readyz, and /metrics.
func NewServer(addr string, ctrl MapController, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ctrl:   ctrl,
		logger: logger,
	}

	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("PUT /api/layers/{name}", s.handleLayer)
	mux.HandleFunc("POST /api/view/gesture", s.handleGesture)
	mux.HandleFunc("GET /api/scene", s.handleScene)

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
