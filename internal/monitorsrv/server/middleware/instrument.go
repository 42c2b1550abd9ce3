package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/metrics"
)

// Instrument records per-route request counts and latency. The route label is
// the chi pattern, not the raw path, so IDs don't blow up cardinality.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		metrics.HttpRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		metrics.HttpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
