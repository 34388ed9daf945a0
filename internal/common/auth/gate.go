// Package auth guards the admin and export endpoints with static shared
// secrets.
package auth

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	apperrors "franchise-leads/internal/common/errors"
	"franchise-leads/internal/common/logger"
	"franchise-leads/internal/common/metrics"
)

const APIKeyHeader = "x-api-key"

var (
	ErrMissingCredential   = errors.New("missing credential")
	ErrInvalidCredential   = errors.New("invalid credential")
	ErrSecretNotConfigured = errors.New("secret not configured")
)

// Authorize compares a provided token against the configured secret in
// constant time. An empty configured secret authorizes nothing.
func Authorize(provided, configured string) bool {
	if configured == "" || provided == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(configured)) == 1
}

// Gate checks one static secret carried in a request header.
type Gate struct {
	name    string
	secret  string
	extract func(r *http.Request) (string, error)
	logger  logger.Logger
}

// NewAdminGate checks "Authorization: Bearer <secret>".
func NewAdminGate(secret string, log logger.Logger) *Gate {
	return &Gate{
		name:   "admin",
		secret: secret,
		extract: func(r *http.Request) (string, error) {
			return extractBearerToken(r.Header.Get("Authorization"))
		},
		logger: log.WithFields(map[string]interface{}{"gate": "admin"}),
	}
}

// NewAPIKeyGate checks the x-api-key header.
func NewAPIKeyGate(secret string, log logger.Logger) *Gate {
	return &Gate{
		name:   "export",
		secret: secret,
		extract: func(r *http.Request) (string, error) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				return "", ErrMissingCredential
			}
			return key, nil
		},
		logger: log.WithFields(map[string]interface{}{"gate": "export"}),
	}
}

// Check returns nil when the request carries the configured secret. The
// returned error tells operators why; callers must not echo it.
func (g *Gate) Check(r *http.Request) error {
	if g.secret == "" {
		return ErrSecretNotConfigured
	}
	token, err := g.extract(r)
	if err != nil {
		return err
	}
	if !Authorize(token, g.secret) {
		return ErrInvalidCredential
	}
	return nil
}

// Middleware rejects unauthorized requests with an identical 401 whatever
// the reason, before the wrapped handler runs.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	errHandler := apperrors.NewErrorHandler(g.logger)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := g.Check(r); err != nil {
			reason := rejectionReason(err)
			metrics.AuthRejections.WithLabelValues(g.name, reason).Inc()
			if errors.Is(err, ErrSecretNotConfigured) {
				g.logger.Error("shared secret is not configured; rejecting all requests", map[string]interface{}{
					"path": r.URL.Path,
				})
			}
			errHandler.WriteError(w, r, apperrors.NewUnauthorizedError(reason))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func rejectionReason(err error) string {
	switch {
	case errors.Is(err, ErrSecretNotConfigured):
		return "secret_not_configured"
	case errors.Is(err, ErrMissingCredential):
		return "missing_credential"
	default:
		return "invalid_credential"
	}
}

// extractBearerToken pulls the token out of an Authorization header value.
func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingCredential
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok {
		return "", ErrInvalidCredential
	}
	if token == "" {
		return "", ErrMissingCredential
	}
	return token, nil
}
