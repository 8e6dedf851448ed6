// Package httpadapter serves the rendered map page alongside health,
// readiness, and metrics endpoints.
package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/education-choropleth/internal/domain"
	"github.com/couchcryptid/education-choropleth/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PageSource renders the map page for a palette.
type PageSource interface {
	Render(w io.Writer, p domain.Palette) error
	DefaultPalette() domain.Palette
}

// Server exposes the map page plus health, readiness, and metrics HTTP endpoints.
type Server struct {
	httpServer *http.Server
	pages      PageSource
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /, /healthz, /readyz, and /metrics routes.
func NewServer(addr string, pages PageSource, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		pages:  pages,
		logger: logger,
	}

	mux.HandleFunc("GET /{$}", s.handleMap)
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

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	pal, err := paletteFromQuery(r, s.pages.DefaultPalette())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	if err := s.pages.Render(&buf, pal); err != nil {
		if errors.Is(err, pipeline.ErrNotLoaded) {
			http.Error(w, "map not rendered yet", http.StatusServiceUnavailable)
			return
		}
		s.logger.Error("render page failed", "palette", pal.Key(), "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// paletteFromQuery resolves ?scheme= and ?colors=, falling back to def for
// whichever is absent.
func paletteFromQuery(r *http.Request, def domain.Palette) (domain.Palette, error) {
	q := r.URL.Query()
	scheme := q.Get("scheme")
	colors := q.Get("colors")
	if scheme == "" && colors == "" {
		return def, nil
	}
	if scheme == "" {
		scheme = def.Name
	}
	size := def.Size()
	if colors != "" {
		n, err := strconv.Atoi(colors)
		if err != nil {
			return domain.Palette{}, fmt.Errorf("invalid colors %q", colors)
		}
		size = n
	}
	return domain.PaletteFor(scheme, size)
}
