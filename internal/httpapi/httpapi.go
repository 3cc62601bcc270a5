// Package httpapi binds the session store and query engine to the
// small HTTP surface the visualization client speaks: multipart
// upload, meta/window/search/payload reads, and session delete. The
// routing and request-size-limiting shape is adapted from the ingest
// daemon's HttpIngester (handler-per-route, bounded body read), with
// chi supplying the path-parameter routing that daemon's hand-rolled
// map[string]handlerConfig dispatch never needed.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/secstrace/secstrace/internal/logging"
	"github.com/secstrace/secstrace/internal/query"
	"github.com/secstrace/secstrace/internal/session"
)

// Server holds the dependencies every handler needs.
type Server struct {
	Sessions      *session.Manager
	Engine        *query.Engine
	Log           *logging.Logger
	MaxUploadSize int64
	CORSOrigins   []string
}

// NewRouter builds the full chi route tree for this server.
func (s *Server) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		MaxAge:           300,
		AllowCredentials: false,
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/sessions", s.handleCreateSession)
	r.Get("/sessions/{id}/meta", s.handleMeta)
	r.Get("/sessions/{id}/messages.arrow", s.handleMessages)
	r.Post("/sessions/{id}/search", s.handleSearch)
	r.Get("/sessions/{id}/payload/{row_id}", s.handlePayload)
	r.Delete("/sessions/{id}", s.handleDeleteSession)

	return r
}

// NewHTTPServer wraps r in an *http.Server with the ingest daemon's
// read/write timeout convention, widened since a query response can
// stream an entire session's worth of Arrow batches.
func NewHTTPServer(bind string, r http.Handler) *http.Server {
	return &http.Server{
		Addr:         bind,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
