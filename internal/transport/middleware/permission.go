package middleware

import (
	"net/http"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

// RequireRoles rejects requests without a principal (401) or whose principal holds
// none of roles (403). An empty roles list only requires authentication.
func RequireRoles(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok {
				transport.WriteErrorEnvelope(w, http.StatusUnauthorized, internal.ErrUnauthenticated.Message)
				return
			}

			if len(roles) > 0 && !principal.HasAnyRole(roles...) {
				logger.From(r.Context()).Warn("access denied: principal lacks required role",
					"required_roles", roles,
					"principal_roles", principal.Roles)
				transport.WriteErrorEnvelope(w, http.StatusForbidden, internal.ErrInsufficientRole.Message)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
