package gateway

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/employee-management/internal/metrics"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/internal/transport/swagger"
)

type Options struct {
	Codec       *security.Codec
	AuthURL     *url.URL
	EmployeeURL *url.URL
	Health      *HealthChecker
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *slog.Logger
}

// NewRouter builds the public entry point. Auth routes are proxied as is,
// employee and department routes only after the token has been verified.
func NewRouter(opts Options) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics, "gateway"))
	}

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorEnvelope(w, http.StatusNotFound, "resource not found")
	})

	if opts.Health != nil {
		router.Get("/health", opts.Health.Health)
	}
	if opts.Metrics != nil {
		path := opts.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Method(http.MethodGet, path, opts.Metrics.Handler())
	}
	router.Get("/openapi.yml", swagger.SpecHandler)
	router.Handle("/swagger/*", swagger.Handler())

	authProxy := NewProxy(opts.AuthURL, opts.Logger)
	router.Handle("/api/auth/*", ScrubIdentity(authProxy))

	employeeProxy := NewProxy(opts.EmployeeURL, opts.Logger)
	router.Group(func(r chi.Router) {
		r.Use(AuthenticationFilter(opts.Codec))
		r.Handle("/api/employees", employeeProxy)
		r.Handle("/api/employees/*", employeeProxy)
		r.Handle("/api/departments", employeeProxy)
		r.Handle("/api/departments/*", employeeProxy)
	})

	return router
}
