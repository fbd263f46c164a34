package middleware

import (
	"net/http"
	"strconv"
	"time"

	"take-a-paw/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Metrics registra contador y latencia por request.
// Usa el route pattern de chi (no el path crudo) para acotar cardinalidad.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		pattern := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				pattern = p
			}
		}

		metrics.HTTPRequestsTotal.
			WithLabelValues(r.Method, pattern, strconv.Itoa(ww.Status())).
			Inc()
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, pattern).
			Observe(time.Since(start).Seconds())
	})
}
