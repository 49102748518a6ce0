package server

import (
	"log/slog"
	"net/http"
)

// requestGate rejects GET probes that carry a query string or a body.
// Other methods pass through so the handler can answer 405.
func requestGate(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet {
				if reason := rejectReason(r); reason != "" {
					log.WarnContext(r.Context(), "probe rejected",
						"reason", reason,
						"path", r.URL.Path,
						"rid", RequestIDFromContext(r.Context()),
					)
					setNoCache(w.Header())
					w.WriteHeader(http.StatusBadRequest)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rejectReason(r *http.Request) string {
	switch {
	case len(r.URL.Query()) > 0:
		return "query_params"
	case r.ContentLength > 0:
		return "content_length"
	case len(r.TransferEncoding) > 0 || r.Header.Get("Transfer-Encoding") != "":
		return "transfer_encoding"
	default:
		return ""
	}
}
