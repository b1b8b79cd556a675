// Package server exposes the form pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"form_sheets/internal/processing"
	"form_sheets/internal/sheets"
	"form_sheets/internal/submission"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
)

// maxBodySize caps submission and update bodies.
const maxBodySize = 1 << 20

// Pipeline is the form processing the handlers delegate to.
type Pipeline interface {
	Submit(ctx context.Context, hook string, sub submission.Submission) (processing.Result, error)
	UpdateRow(ctx context.Context, hook, rowSpec string, values []string) (sheets.Placement, error)
	DeleteRow(ctx context.Context, hook, rowSpec string) (sheets.Placement, error)
	RecordFields(ctx context.Context, hook string) (map[string]string, error)
}

type Server struct {
	pipeline Pipeline
	router   *chi.Mux
	server   *http.Server
}

// NewServer wires the routes and the http.Server listening on addr.
func NewServer(pipeline Pipeline, addr string) *Server {
	s := &Server{
		pipeline: pipeline,
		router:   chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Post("/hooks/{hook}", s.handleSubmit)

	s.router.Route("/forms/{hook}", func(r chi.Router) {
		r.Put("/rows", s.handleUpdateRow)
		r.Delete("/rows", s.handleDeleteRow)
		r.Get("/record", s.handleRecordFields)
	})
}

// Start listens until Shutdown is called. After Shutdown it returns
// http.ErrServerClosed, even when Shutdown ran first.
func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
