// Package server exposes workspaces over HTTP.
//
// Every user action of the globe maps to one route under
// /v1/workspaces/{id}. Routes that need the map answer 503 with code
// MAP_DISABLED when the server runs without a map token; POST /v1/describe
// and the info panel keep working in that case.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/globe/pkg/intel"
	"github.com/matzehuels/globe/pkg/workspace"
)

// Config configures the HTTP server.
type Config struct {
	Addr            string
	CleanupInterval time.Duration
	MaxHeaderBytes  int

	// MaxUploadBytes caps header image uploads.
	MaxUploadBytes int64

	// MapEnabled is reported by /healthz.
	MapEnabled bool
}

// DefaultMaxUploadBytes is the header upload limit used when none is set.
const DefaultMaxUploadBytes = 8 << 20

// Server serves the globe API.
type Server struct {
	cfg       Config
	registry  *workspace.Registry
	describer intel.Describer
	logger    *log.Logger
	router    chi.Router
}

// New builds a server over registry. describer answers /v1/describe.
func New(cfg Config, registry *workspace.Registry, describer intel.Describer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if describer == nil {
		describer = intel.NewOffline(intel.DefaultOfflineDelay)
	}
	s := &Server{cfg: cfg, registry: registry, describer: describer, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/v1/describe", s.handleDescribe)

	r.Route("/v1/workspaces", func(r chi.Router) {
		r.Post("/", s.handleCreateWorkspace)
		r.Get("/", s.handleListWorkspaces)

		r.Route("/{workspaceID}", func(r chi.Router) {
			r.Use(s.loadWorkspace)
			r.Get("/", s.handleGetWorkspace)
			r.Delete("/", s.handleDeleteWorkspace)

			r.Post("/click", s.handleClick)
			r.Get("/search", s.handleSearch)
			r.Put("/query", s.handleType)
			r.Get("/suggestions", s.handleSuggestions)
			r.Post("/select", s.handleSelect)
			r.Get("/summary", s.handleSummary)

			r.Put("/mode", s.handleSetMode)
			r.Get("/panel", s.handleGetPanel)
			r.Post("/panel", s.handleOpenPanel)
			r.Delete("/panel", s.handleClosePanel)

			r.Put("/marker-color", s.handleSetMarkerColor)
			r.Put("/markers-enabled", s.handleSetMarkersEnabled)
			r.Get("/markers", s.handleListMarkers)
			r.Post("/markers", s.handleAddMarker)
			r.Delete("/markers", s.handleClearMarkers)
			r.Delete("/markers/{markerID}", s.handleRemoveMarker)

			r.Get("/legend", s.handleListLegend)
			r.Post("/legend", s.handleAddLegend)
			r.Patch("/legend/{itemID}", s.handleUpdateLegend)
			r.Put("/legend/{itemID}/position", s.handleMoveLegend)
			r.Delete("/legend/{itemID}", s.handleRemoveLegend)

			r.Get("/drawings", s.handleListDrawings)
			r.Post("/drawings", s.handleStartDrawing)
			r.Delete("/drawings", s.handleRemoveAllDrawings)
			r.Post("/drawings/finish", s.handleFinishDrawing)
			r.Get("/drawings/{drawingID}", s.handleGetDrawing)
			r.Delete("/drawings/{drawingID}", s.handleRemoveDrawing)
			r.Post("/drawings/{drawingID}/edit", s.handleEditDrawing)
			r.Post("/drawings/{drawingID}/undo", s.handleUndoDrawing)
			r.Post("/drawings/{drawingID}/clear", s.handleClearDrawing)
			r.Put("/drawings/{drawingID}/color", s.handleSetDrawingColor)
			r.Put("/drawings/{drawingID}/label", s.handleSetDrawingLabel)

			r.Post("/pointer/down", s.handlePointerDown)
			r.Post("/pointer/move", s.handlePointerMove)
			r.Post("/pointer/up", s.handlePointerUp)
			r.Post("/strokes", s.handleStroke)

			r.Put("/header", s.handleSetHeader)
			r.Delete("/header", s.handleRemoveHeader)
			r.Get("/export", s.handleExport)
		})
	})
	return r
}

// ListenAndServe serves until ctx is done, then shuts down gracefully and
// closes every workspace.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		MaxHeaderBytes:    s.cfg.MaxHeaderBytes,
	}

	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	go s.registry.Run(cleanupCtx, s.cfg.CleanupInterval)

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr, "map", s.cfg.MapEnabled)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	if cerr := s.registry.Close(shutdownCtx); err == nil {
		err = cerr
	}
	return err
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"id", middleware.GetReqID(r.Context()))
	})
}

type ctxKey struct{}

// loadWorkspace resolves {workspaceID} and stores the workspace in the
// request context.
func (s *Server) loadWorkspace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.registry.Get(chi.URLParam(r, "workspaceID"))
		if err != nil {
			s.writeErr(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, ws)))
	})
}

func workspaceFrom(r *http.Request) *workspace.Workspace {
	return r.Context().Value(ctxKey{}).(*workspace.Workspace)
}
