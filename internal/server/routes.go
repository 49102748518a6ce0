package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.StripSlashes)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.log))
	r.Use(metricsMiddleware(s.cfg.Metrics))

	gate := requestGate(s.log)
	health := map[string]http.Handler{
		"/healthz": gate(s.healthHandler("liveness")),
		"/cicd":    gate(s.healthHandler("cicd")),
	}
	for path, h := range health {
		r.Handle(path, h)
	}

	// Health paths answer every method, including ones chi has no route
	// table for. Other unmatched methods fall through to 404.
	r.NotFound(notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		if h, ok := health[strings.TrimSuffix(req.URL.Path, "/")]; ok {
			h.ServeHTTP(w, req)
			return
		}
		notFound(w, req)
	})

	r.Post("/v1/file", s.uploadHandler)
	r.Get("/v1/file", badRequest)
	r.Delete("/v1/file", badRequest)
	for _, m := range []string{http.MethodHead, http.MethodOptions, http.MethodPatch, http.MethodPut} {
		r.MethodFunc(m, "/v1/file", methodNotAllowed)
	}

	r.Get("/v1/file/{id}", s.getFileHandler)
	r.Delete("/v1/file/{id}", s.deleteFileHandler)
	for _, m := range []string{http.MethodHead, http.MethodOptions, http.MethodPatch, http.MethodPut, http.MethodPost} {
		r.MethodFunc(m, "/v1/file/{id}", methodNotAllowed)
	}

	return r
}
