package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/employee-management/internal/transport/swagger"
)

func TestSwagger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Swagger Suite")
}

var _ = Describe("OpenAPI document", func() {
	It("should load and validate", func() {
		doc, err := swagger.Load(context.Background())

		Expect(err).ToNot(HaveOccurred())
		Expect(doc.Paths.Find("/api/departments/{id}")).ToNot(BeNil())
		Expect(doc.Paths.Find("/api/employees/department/{departmentId}")).ToNot(BeNil())
		Expect(doc.Paths.Find("/api/auth/login")).ToNot(BeNil())
		Expect(doc.Components.SecuritySchemes).To(HaveKey("bearerAuth"))
	})

	It("should serve the raw document", func() {
		rec := httptest.NewRecorder()

		swagger.SpecHandler(rec, httptest.NewRequest(http.MethodGet, "/openapi.yml", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.String()).To(ContainSubstring("openapi: 3.0.3"))
	})
})
