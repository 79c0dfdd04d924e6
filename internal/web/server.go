package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/go-sparkify/internal/dashboard"
	"github.com/justestif/go-sparkify/internal/logging"
)

// DefaultAddr is the default server address.
const DefaultAddr = ":8050"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr        string
	TemplatesFS fs.FS
	StaticFS    fs.FS

	// TableRows is the number of rows shown per table preview.
	TableRows int
	// TopN is the number of listeners in the top listeners chart.
	TopN int
}

// Server is the HTTP server for the dashboard.
type Server struct {
	router   chi.Router
	server   *http.Server
	handlers *Handlers
}

// NewServer creates a dashboard server over tables loaded at startup.
func NewServer(cfg ServerConfig, tables *dashboard.Tables) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	handlers := NewHandlers(tables, templates, cfg.TableRows, cfg.TopN)

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		handlers: handlers,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

func (s *Server) setupRoutes(staticFS fs.FS) {
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/", s.handlers.Home)
	s.router.Get("/api/aggregates", s.handlers.Aggregates)
	s.router.Get("/healthz", s.handlers.Health)
	s.router.Handle("/metrics", promhttp.Handler())
}

// requestLogger logs one line per request through the process logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			logging.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Msg("http request")
		}()
		next.ServeHTTP(ww, r)
	})
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", s.server.Addr).Msg("dashboard listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logging.Info().Msg("shutting down dashboard")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logging.Info().Msg("dashboard stopped")
	return nil
}
