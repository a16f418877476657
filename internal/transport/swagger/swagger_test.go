package swagger_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/frahmantamala/user-rbac/internal/transport/swagger"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestSwagger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Swagger Suite")
}

var _ = Describe("Mount", func() {
	var router *chi.Mux

	BeforeEach(func() {
		router = chi.NewRouter()
		swagger.Mount(router, []byte("openapi: 3.0.3\n"))
	})

	It("should serve the document as yaml", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, swagger.DocPath, nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/yaml"))
		Expect(rec.Body.String()).To(Equal("openapi: 3.0.3\n"))
	})

	It("should serve the UI pointed at the document", func() {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(swagger.DocPath))
	})
})
