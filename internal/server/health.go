package server

import (
	"fmt"
	"net/http"
)

// healthHandler records one health check row per GET. tag only changes how
// the probe is logged.
func (s *Server) healthHandler(tag string) http.HandlerFunc {
	log := s.log.With("probe", tag)

	return func(w http.ResponseWriter, r *http.Request) {
		setNoCache(w.Header())

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		if s.cfg.Health == nil || !s.cfg.Health.Ready() {
			log.ErrorContext(r.Context(), "health check failed", "error", "metadata store not ready")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		if err := s.cfg.Health.RecordHealthCheck(r.Context()); err != nil {
			log.ErrorContext(r.Context(), "health check failed",
				"error", err.Error(),
				"stack", fmt.Sprintf("%+v", err),
			)
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		log.DebugContext(r.Context(), "health check ok")
		w.WriteHeader(http.StatusOK)
	}
}
