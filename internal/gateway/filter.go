package gateway

import (
	"errors"
	"net/http"
	"strings"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

// ScrubIdentity removes client supplied identity headers. Only the gateway may set them.
func ScrubIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(middleware.UserEmailHeader)
		r.Header.Del(middleware.UserRolesHeader)
		next.ServeHTTP(w, r)
	})
}

// AuthenticationFilter rejects requests without a valid bearer token and forwards the rest
// with the token subject and roles in the identity headers.
func AuthenticationFilter(codec *security.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ScrubIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lg := logger.From(r.Context())

			token := transport.BearerToken(r)
			if token == "" {
				lg.Debug("request rejected: missing bearer token", "path", r.URL.Path)
				transport.WriteErrorEnvelope(w, http.StatusUnauthorized, internal.ErrMissingToken.Message)
				return
			}

			claims, err := codec.Parse(token)
			if err != nil {
				message := internal.ErrInvalidToken.Message
				if errors.Is(err, security.ErrTokenExpired) {
					message = internal.ErrTokenExpired.Message
				}
				lg.Debug("request rejected: token did not validate", "path", r.URL.Path, "error", err)
				transport.WriteErrorEnvelope(w, http.StatusUnauthorized, message)
				return
			}

			r.Header.Set(middleware.UserEmailHeader, claims.Subject)
			r.Header.Set(middleware.UserRolesHeader, strings.Join(claims.Roles, ","))

			next.ServeHTTP(w, r)
		}))
	}
}
