package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/internal/transport"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

func TestMiddleware(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Middleware Suite")
}

// capture records the principal seen by the innermost handler.
func capture(seen **internal.Principal) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p, ok := internal.PrincipalFromContext(r.Context()); ok {
			*seen = p
		}
		w.WriteHeader(http.StatusNoContent)
	})
}

func decodeEnvelope(rec *httptest.ResponseRecorder) transport.Envelope {
	var env transport.Envelope
	ExpectWithOffset(1, json.Unmarshal(rec.Body.Bytes(), &env)).To(Succeed())
	return env
}

var _ = Describe("Identity", func() {
	var (
		codec *security.Codec
		seen  *internal.Principal
		h     http.Handler
	)

	BeforeEach(func() {
		codec = security.NewCodec("identity-secret-for-tests-0123456789ab")
		seen = nil
		h = middleware.Identity(codec)(capture(&seen))
	})

	It("should resolve the principal from a bearer token", func() {
		// Given
		token, err := codec.Issue("ada@company.com", []string{"role_manager"}, time.Hour)
		Expect(err).ToNot(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)

		// When
		h.ServeHTTP(httptest.NewRecorder(), req)

		// Then
		Expect(seen).ToNot(BeNil())
		Expect(seen.Email).To(Equal("ada@company.com"))
		Expect(seen.Roles).To(Equal([]string{internal.RoleManager}))
	})

	It("should prefer the token over gateway headers", func() {
		token, err := codec.Issue("ada@company.com", []string{internal.RoleEmployee}, time.Hour)
		Expect(err).ToNot(HaveOccurred())
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set(middleware.UserEmailHeader, "admin@company.com")
		req.Header.Set(middleware.UserRolesHeader, "ADMIN")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen.Email).To(Equal("ada@company.com"))
	})

	It("should fall back to the gateway headers", func() {
		// Given
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		req.Header.Set(middleware.UserEmailHeader, "admin@company.com")
		req.Header.Set(middleware.UserRolesHeader, "ADMIN, manager")

		// When
		h.ServeHTTP(httptest.NewRecorder(), req)

		// Then
		Expect(seen).ToNot(BeNil())
		Expect(seen.Roles).To(Equal([]string{internal.RoleAdmin, internal.RoleManager}))
	})

	It("should ignore an email header without roles", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.UserEmailHeader, "admin@company.com")

		h.ServeHTTP(httptest.NewRecorder(), req)

		Expect(seen).To(BeNil())
	})
})

var _ = Describe("RequireRoles", func() {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })

	serve := func(p *internal.Principal, roles ...string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if p != nil {
			req = req.WithContext(internal.ContextWithPrincipal(req.Context(), p))
		}
		rec := httptest.NewRecorder()
		middleware.RequireRoles(roles...)(ok).ServeHTTP(rec, req)
		return rec
	}

	It("should reject a missing principal with 401", func() {
		rec := serve(nil, internal.RoleAdmin)

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(decodeEnvelope(rec).Message).To(Equal(internal.ErrUnauthenticated.Message))
	})

	It("should reject a principal without the role with 403", func() {
		rec := serve(&internal.Principal{Email: "ada@company.com", Roles: []string{internal.RoleEmployee}}, internal.RoleAdmin)

		Expect(rec.Code).To(Equal(http.StatusForbidden))
		Expect(decodeEnvelope(rec).Success).To(BeFalse())
	})

	It("should pass any of the listed roles", func() {
		rec := serve(&internal.Principal{Email: "boss@company.com", Roles: []string{internal.RoleManager}}, internal.RoleAdmin, internal.RoleManager)

		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})

	It("should only require authentication for an empty list", func() {
		rec := serve(&internal.Principal{Email: "ada@company.com"})

		Expect(rec.Code).To(Equal(http.StatusNoContent))
	})
})

var _ = Describe("RecoveryMiddleware", func() {
	It("should turn a panic into a 500 envelope", func() {
		// Given
		boom := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") })
		rec := httptest.NewRecorder()

		// When
		middleware.RecoveryMiddleware(logger.Discard())(boom).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		// Then
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(decodeEnvelope(rec).Message).To(Equal("internal server error"))
	})
})

var _ = Describe("RequestID", func() {
	It("should mint a trace id and echo it", func() {
		var inbound string
		h := middleware.RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			inbound = r.Header.Get(middleware.TraceIDHeader)
		}))
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		Expect(inbound).ToNot(BeEmpty())
		Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal(inbound))
	})

	It("should keep an inbound trace id", func() {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.TraceIDHeader, "trace-123")
		rec := httptest.NewRecorder()

		middleware.RequestID(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(rec, req)

		Expect(rec.Header().Get(middleware.TraceIDHeader)).To(Equal("trace-123"))
	})
})

var _ = Describe("LoggingMiddleware", func() {
	It("should redact passwords from logged bodies", func() {
		// Given
		var buf strings.Builder
		lg := logger.New(&buf, "debug", "text")
		h := middleware.LoggingMiddleware(lg)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ada@company.com","password":"hunter22"}`))
		req.Header.Set("Content-Type", "application/json")

		// When
		h.ServeHTTP(httptest.NewRecorder(), req)

		// Then
		Expect(buf.String()).ToNot(ContainSubstring("hunter22"))
		Expect(buf.String()).To(ContainSubstring("ada@company.com"))
	})
})
