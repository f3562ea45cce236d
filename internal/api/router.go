package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", s.handlePing)
		r.Get("/health", s.handleHealth)
		r.Get("/raw", s.handleRaw)
		r.Get("/rooms", s.handleRooms)
		r.Get("/st/snapshot", s.handleSnapshot)

		r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
			writeNotFound(w, "not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
			writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "method not allowed", "")
		})
	})

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	// Dashboard assets; everything outside /api falls back to index.html.
	r.Get("/*", s.static.ServeHTTP)
	r.Head("/*", s.static.ServeHTTP)

	return r
}
