package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/trackplan/pkg/buildinfo"
	errs "github.com/matzehuels/trackplan/pkg/errors"
)

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.SetHeader("Server", buildinfo.UserAgent()))
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(s.recoverer)
	r.Use(cors)

	r.Get("/healthz", s.handleHealth)
	r.Get("/map", s.handleMap)
	r.Post("/update-map", s.handleUpdateMap)
	r.Post("/step", s.handleStep)
	r.Post("/reset", s.handleReset)
	r.Get("/path", s.handlePathSocket)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, errs.New(errs.ErrCodeNotFound, "no route for %s", r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{
			Code:  string(errs.ErrCodeInvalidRequest),
			Error: r.Method + " not allowed on " + r.URL.Path,
		})
	})
	return r
}
