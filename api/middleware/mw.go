package middleware

import (
	"errors"
	"net/http"
	"time"

	"github.com/EO-DataHub/eodhp-scim-services/api/services"
	"github.com/EO-DataHub/eodhp-scim-services/internal/authn"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// BearerTokenMiddleware rejects requests whose Authorization header does not carry the
// shared secret as a bearer token.
func BearerTokenMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(
			func(w http.ResponseWriter, r *http.Request) {
				logger := zerolog.Ctx(r.Context()).With().
					Str("handler", "BearerTokenMiddleware").Logger()

				err := authn.Verify(r.Header.Get("Authorization"), secret)
				switch {
				case err == nil:
					next.ServeHTTP(w, r)
				case errors.Is(err, authn.ErrUnauthenticated):
					logger.Debug().Msg("authorization header missing or not a bearer token")
					w.Header().Set("WWW-Authenticate", "Bearer")
					services.HandleErrResponse(w, http.StatusUnauthorized, err)
				default:
					logger.Warn().Msg("invalid bearer token")
					services.HandleErrResponse(w, http.StatusForbidden, err)
				}
			},
		)
	}
}

// WithLogger adds a logger to the context and logs request information.
func WithLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			logger := log.With().
				Str("host", r.Host).
				Str("method", r.Method).
				Str("url", r.URL.String()).
				Str("remote_addr", r.RemoteAddr).
				Time("timestamp", time.Now()).
				Logger()

			// Add the logger to the context
			ctx := logger.WithContext(r.Context())
			next.ServeHTTP(w, r.WithContext(ctx))
		},
	)
}
