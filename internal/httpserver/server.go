package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MrSnakeDoc/pulsepage/internal/config"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/deps"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/mw"
	"github.com/MrSnakeDoc/pulsepage/internal/httpserver/routes"
	"github.com/MrSnakeDoc/pulsepage/internal/logger"
)

// Server serves the editor, public and ops routes on one listener.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// New builds the router and mounts every registered route group.
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)                   // X-Request-ID on each request
	r.Use(middleware.Recoverer)                   // never crash the process on panic
	r.Use(middleware.Timeout(cfg.RequestTimeout)) // provider calls on refresh/publish take a while
	r.Use(mw.Log(loggerClient))

	routes.RegisterAll(r, d)
	loggerClient.Debug("routes mounted", logger.Strings("groups", routes.Names()))

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Handler exposes the router, mostly for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Start blocks until the listener fails or Stop is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", logger.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("http server shutting down",
		logger.Duration("uptime", time.Since(s.started)))
	return s.http.Shutdown(ctx)
}
