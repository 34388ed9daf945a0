package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits requests per client IP to requestsPerMinute using a
// sliding window. A non-positive limit disables limiting.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return passthrough
	}
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}

// RateLimitByHeader keys the limit on a header value such as x-api-key.
// Requests without the header share the client IP bucket.
func RateLimitByHeader(headerName string, requestsPerMinute int) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return passthrough
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if v := r.Header.Get(headerName); v != "" {
				return v, nil
			}
			return httprate.KeyByIP(r)
		}),
	)
}

func passthrough(next http.Handler) http.Handler {
	return next
}
