package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/6225-Cloud-Computing-sakshiparikh-org/webapp/internal/metrics"
)

// metricsMiddleware counts and times every request under the matched route
// pattern so ids do not explode label cardinality.
func metricsMiddleware(rec *metrics.Recorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)

			tags := metrics.Tags{"api_name": r.Method + " " + routePattern(r)}
			rec.Increment(metrics.APICalls, tags)
			rec.Timing(metrics.APIResponseTime, time.Since(start), tags)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
