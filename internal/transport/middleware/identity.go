package middleware

import (
	"net/http"
	"strings"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

const (
	UserEmailHeader = "X-User-Email"
	UserRolesHeader = "X-User-Roles"
)

// Identity resolves the principal on internal services. A valid bearer token wins.
// Otherwise the identity headers set by the gateway are trusted when both are present.
// Requests that match neither pass through unauthenticated and are left to RequireRoles.
func Identity(codec *security.Codec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if _, ok := internal.PrincipalFromContext(ctx); ok {
				next.ServeHTTP(w, r)
				return
			}

			var principal *internal.Principal
			source := ""

			if token := transport.BearerToken(r); token != "" {
				if claims, err := codec.Parse(token); err == nil {
					principal = security.PrincipalFromClaims(claims)
					source = "bearer"
				} else {
					logger.From(ctx).Debug("bearer token rejected", "error", err)
				}
			}

			if principal == nil {
				email := strings.TrimSpace(r.Header.Get(UserEmailHeader))
				roles := r.Header.Get(UserRolesHeader)
				if email != "" && strings.TrimSpace(roles) != "" {
					principal = &internal.Principal{
						Email: email,
						Roles: security.NormalizeRoles(strings.Split(roles, ",")),
					}
					source = "headers"
				}
			}

			if principal == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx = internal.ContextWithPrincipal(ctx, principal)
			ctx = logger.With(ctx, "principal", principal.Email)
			logger.From(ctx).Debug("principal resolved", "source", source, "roles", principal.Roles)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
