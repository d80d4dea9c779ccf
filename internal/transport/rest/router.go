package rest

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	"github.com/frahmantamala/employee-management/internal/department"
	"github.com/frahmantamala/employee-management/internal/employee"
	"github.com/frahmantamala/employee-management/internal/metrics"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/internal/transport/swagger"
)

// Route is one row of a service's access policy table.
// Public routes skip role checks; otherwise an empty Roles list only requires authentication.
type Route struct {
	Method  string
	Pattern string
	Public  bool
	Roles   []string
	Handler http.HandlerFunc
}

var (
	adminOnly      = []string{internal.RoleAdmin}
	adminOrManager = []string{internal.RoleAdmin, internal.RoleManager}
	anyRole        = []string{internal.RoleAdmin, internal.RoleManager, internal.RoleEmployee}
)

func AuthRoutes(h *auth.Handler) []Route {
	return []Route{
		{Method: http.MethodPost, Pattern: "/api/auth/register", Public: true, Handler: h.Register},
		{Method: http.MethodPost, Pattern: "/api/auth/login", Public: true, Handler: h.Login},
		{Method: http.MethodPost, Pattern: "/api/auth/refresh", Public: true, Handler: h.RefreshToken},
		{Method: http.MethodGet, Pattern: "/api/auth/health", Public: true, Handler: h.Health},
		{Method: http.MethodGet, Pattern: "/api/auth/me", Roles: anyRole, Handler: h.Me},
		{Method: http.MethodPut, Pattern: "/api/auth/me", Roles: anyRole, Handler: h.UpdateMe},
	}
}

func EmployeeRoutes(employees *employee.Handler, departments *department.Handler) []Route {
	return []Route{
		{Method: http.MethodPost, Pattern: "/api/departments", Roles: adminOnly, Handler: departments.CreateDepartment},
		{Method: http.MethodGet, Pattern: "/api/departments", Roles: anyRole, Handler: departments.GetDepartments},
		{Method: http.MethodGet, Pattern: "/api/departments/{id}", Roles: anyRole, Handler: departments.GetDepartment},
		{Method: http.MethodPut, Pattern: "/api/departments/{id}", Roles: adminOnly, Handler: departments.UpdateDepartment},
		{Method: http.MethodDelete, Pattern: "/api/departments/{id}", Roles: adminOnly, Handler: departments.DeleteDepartment},

		{Method: http.MethodPost, Pattern: "/api/employees", Roles: adminOnly, Handler: employees.CreateEmployee},
		{Method: http.MethodGet, Pattern: "/api/employees", Roles: adminOrManager, Handler: employees.GetEmployees},
		{Method: http.MethodGet, Pattern: "/api/employees/department/{departmentId}", Roles: adminOrManager, Handler: employees.GetEmployeesByDepartment},
		{Method: http.MethodGet, Pattern: "/api/employees/{id}", Roles: anyRole, Handler: employees.GetEmployee},
		{Method: http.MethodPut, Pattern: "/api/employees/{id}", Roles: adminOnly, Handler: employees.UpdateEmployee},
		{Method: http.MethodDelete, Pattern: "/api/employees/{id}", Roles: adminOnly, Handler: employees.DeleteEmployee},
	}
}

type RouterOptions struct {
	Service     string
	Codec       *security.Codec
	Health      *HealthHandler
	Metrics     *metrics.Metrics
	MetricsPath string
	Logger      *slog.Logger
}

// NewServiceRouter builds the router for an internal service: shared middleware,
// health and docs endpoints, then every route guarded by its policy row.
func NewServiceRouter(opts RouterOptions, routes []Route) *chi.Mux {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(opts.Logger))
	router.Use(middleware.LoggingMiddleware(opts.Logger))
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics, opts.Service))
	}
	router.Use(middleware.Identity(opts.Codec))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusNotFound, "resource not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if opts.Health != nil {
		router.Get("/health", opts.Health.Health)
		router.Get("/ping", opts.Health.Ping)
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

	RegisterRoutes(router, routes)
	return router
}

func RegisterRoutes(router chi.Router, routes []Route) {
	for _, route := range routes {
		if route.Public {
			router.Method(route.Method, route.Pattern, route.Handler)
			continue
		}
		router.With(middleware.RequireRoles(route.Roles...)).Method(route.Method, route.Pattern, route.Handler)
	}
}

func writeStatus(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
