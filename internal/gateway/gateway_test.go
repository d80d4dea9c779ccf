package gateway_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/frahmantamala/employee-management/internal/gateway"
	"github.com/frahmantamala/employee-management/internal/metrics"
	"github.com/frahmantamala/employee-management/internal/security"
	"github.com/frahmantamala/employee-management/pkg/logger"
)

const testSecret = "gateway-secret-gateway-secret-gateway"

type seenRequest struct {
	Path   string `json:"path"`
	Email  string `json:"email"`
	Roles  string `json:"roles"`
	Bearer string `json:"bearer"`
}

func echoServer() *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(seenRequest{
			Path:   r.URL.Path,
			Email:  r.Header.Get("X-User-Email"),
			Roles:  r.Header.Get("X-User-Roles"),
			Bearer: r.Header.Get("Authorization"),
		})
	}))
}

func decodeSeen(rec *httptest.ResponseRecorder) seenRequest {
	var seen seenRequest
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &seen)).To(gomega.Succeed())
	return seen
}

func decodeEnvelope(rec *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(gomega.Succeed())
	return body
}

var _ = ginkgo.Describe("Gateway", func() {
	var (
		codec        *security.Codec
		authSvc      *httptest.Server
		employeeSvc  *httptest.Server
		router       http.Handler
		validToken   string
		healthyProbe *httptest.Server
	)

	ginkgo.BeforeEach(func() {
		codec = security.NewCodec(testSecret)
		authSvc = echoServer()
		employeeSvc = echoServer()
		healthyProbe = echoServer()

		authURL, err := url.Parse(authSvc.URL)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		employeeURL, err := url.Parse(employeeSvc.URL)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		router = gateway.NewRouter(gateway.Options{
			Codec:       codec,
			AuthURL:     authURL,
			EmployeeURL: employeeURL,
			Health: gateway.NewHealthChecker(time.Second, []gateway.Downstream{
				{Name: "auth", HealthURL: healthyProbe.URL + "/api/auth/health"},
			}, logger.Discard()),
			Metrics: metrics.NewMetrics(prometheus.NewRegistry()),
			Logger:  logger.Discard(),
		})

		validToken, err = codec.Issue("a@x.com", []string{"ADMIN", "EMPLOYEE"}, time.Hour)
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
	})

	ginkgo.AfterEach(func() {
		authSvc.Close()
		employeeSvc.Close()
		healthyProbe.Close()
	})

	ginkgo.Describe("AuthenticationFilter", func() {
		ginkgo.It("should reject a request without an Authorization header", func() {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			body := decodeEnvelope(rec)
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			gomega.Expect(body["message"]).To(gomega.Equal("Authorization header is missing"))
		})

		ginkgo.It("should reject a token signed with another secret", func() {
			// Given
			forged, err := security.NewCodec("another-secret-another-secret-another").Issue("a@x.com", []string{"ADMIN"}, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/api/departments", nil)
			req.Header.Set("Authorization", "Bearer "+forged)
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		})

		ginkgo.It("should reject an expired token", func() {
			// Given
			expired, err := codec.Issue("a@x.com", []string{"ADMIN"}, -time.Minute)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/api/employees/1", nil)
			req.Header.Set("Authorization", "Bearer "+expired)
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
			gomega.Expect(decodeEnvelope(rec)["message"]).To(gomega.Equal("Token has expired"))
		})

		ginkgo.It("should forward the identity from the token and replace spoofed headers", func() {
			// Given
			req := httptest.NewRequest(http.MethodGet, "/api/employees/7", nil)
			req.Header.Set("Authorization", "Bearer "+validToken)
			req.Header.Set("X-User-Email", "attacker@x.com")
			req.Header.Set("X-User-Roles", "ADMIN")
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			seen := decodeSeen(rec)
			gomega.Expect(seen.Path).To(gomega.Equal("/api/employees/7"))
			gomega.Expect(seen.Email).To(gomega.Equal("a@x.com"))
			gomega.Expect(seen.Roles).To(gomega.Equal("ADMIN,EMPLOYEE"))
			gomega.Expect(seen.Bearer).To(gomega.Equal("Bearer " + validToken))
		})

		ginkgo.It("should forward an empty roles header for a token without roles", func() {
			// Given
			token, err := codec.Issue("b@x.com", nil, time.Hour)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			req := httptest.NewRequest(http.MethodGet, "/api/departments", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			seen := decodeSeen(rec)
			gomega.Expect(seen.Email).To(gomega.Equal("b@x.com"))
			gomega.Expect(seen.Roles).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("auth routes", func() {
		ginkgo.It("should proxy without a token but strip identity headers", func() {
			// Given
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.Header.Set("X-User-Email", "attacker@x.com")
			req.Header.Set("X-User-Roles", "ADMIN")
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			seen := decodeSeen(rec)
			gomega.Expect(seen.Path).To(gomega.Equal("/api/auth/login"))
			gomega.Expect(seen.Email).To(gomega.BeEmpty())
			gomega.Expect(seen.Roles).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("downstream failure", func() {
		ginkgo.It("should answer 502 when the service is unreachable", func() {
			// Given
			employeeSvc.Close()
			req := httptest.NewRequest(http.MethodGet, "/api/employees", nil)
			req.Header.Set("Authorization", "Bearer "+validToken)
			rec := httptest.NewRecorder()

			// When
			router.ServeHTTP(rec, req)

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadGateway))
			gomega.Expect(decodeEnvelope(rec)["success"]).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("health", func() {
		ginkgo.It("should be healthy when every downstream answers 2xx", func() {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
			gomega.Expect(decodeEnvelope(rec)["success"]).To(gomega.BeTrue())
		})

		ginkgo.It("should report 503 when a downstream is down", func() {
			// Given
			down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer down.Close()

			checker := gateway.NewHealthChecker(time.Second, []gateway.Downstream{
				{Name: "auth", HealthURL: healthyProbe.URL},
				{Name: "employee", HealthURL: down.URL + "/health"},
			}, logger.Discard())
			rec := httptest.NewRecorder()

			// When
			checker.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			// Then
			gomega.Expect(rec.Code).To(gomega.Equal(http.StatusServiceUnavailable))
			body := decodeEnvelope(rec)
			gomega.Expect(body["success"]).To(gomega.BeFalse())
			components := body["data"].(map[string]interface{})["components"].(map[string]interface{})
			gomega.Expect(components["employee"].(map[string]interface{})["status"]).To(gomega.Equal("unhealthy"))
			gomega.Expect(components["auth"].(map[string]interface{})["status"]).To(gomega.Equal("healthy"))
		})
	})

	ginkgo.It("should serve the OpenAPI document", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(rec.Body.String()).To(gomega.ContainSubstring("openapi: 3.0.3"))
	})
})
