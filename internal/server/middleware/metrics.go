package middleware

import (
	"net/http"
	"time"

	"franchise-leads/internal/common/observability"

	"github.com/go-chi/chi/v5"
)

// Metrics records each request against its chi route pattern so that
// /admin/leads/{id} is one series rather than one per lead.
func Metrics(obs *observability.Observability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			route := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					route = pattern
				}
			}
			obs.RecordRequest(r.Context(), r.Method, route, ww.status, time.Since(start))
		})
	}
}
