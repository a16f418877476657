package permission_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"

	"github.com/frahmantamala/user-rbac/internal/permission"
	permissionPostgres "github.com/frahmantamala/user-rbac/internal/permission/postgres"
	"github.com/frahmantamala/user-rbac/internal/testhelper"
	"github.com/frahmantamala/user-rbac/internal/transport"
	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func withID(req *http.Request, id string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

var _ = Describe("Permission Handler Integration", func() {
	var (
		service *permission.Service
		handler *permission.Handler
		slogger *slog.Logger
	)

	BeforeEach(func() {
		slogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		db, err := testhelper.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		service = permission.NewService(permissionPostgres.NewPermissionRepository(db), slogger)
		baseHandler := &transport.BaseHandler{Logger: slogger}
		handler = permission.NewHandler(baseHandler, service)

		for _, name := range []string{"view_users", "edit_users"} {
			_, err := service.Create(context.Background(), permission.CreatePermissionDTO{Name: name})
			Expect(err).NotTo(HaveOccurred())
		}
	})

	It("should handle GET /permissions request successfully", func() {
		req := httptest.NewRequest(http.MethodGet, "/permissions", nil)
		w := httptest.NewRecorder()

		handler.ListPermissions(w, req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))

		var response []permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&response)).To(Succeed())

		names := make([]string, len(response))
		for i, p := range response {
			names[i] = p.Name
		}
		Expect(names).To(Equal([]string{"view_users", "edit_users"}))
	})

	It("should create a permission and answer 201 with its id", func() {
		req := httptest.NewRequest(http.MethodPost, "/permissions", strings.NewReader(`{"name":"view_roles"}`))
		w := httptest.NewRecorder()

		handler.CreatePermission(w, req)

		Expect(w.Code).To(Equal(http.StatusCreated))
		var created permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&created)).To(Succeed())
		Expect(created.ID).To(Equal(int64(3)))
		Expect(created.Name).To(Equal("view_roles"))
	})

	It("should refuse a duplicate name", func() {
		req := httptest.NewRequest(http.MethodPost, "/permissions", strings.NewReader(`{"name":"view_users"}`))
		w := httptest.NewRecorder()

		handler.CreatePermission(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("should refuse an empty body", func() {
		req := httptest.NewRequest(http.MethodPost, "/permissions", strings.NewReader(""))
		w := httptest.NewRecorder()

		handler.CreatePermission(w, req)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(w.Body.String()).To(ContainSubstring("INVALID_BODY"))
	})

	It("should fetch and update by id", func() {
		w := httptest.NewRecorder()
		handler.GetPermission(w, withID(httptest.NewRequest(http.MethodGet, "/permissions/1", nil), "1"))
		Expect(w.Code).To(Equal(http.StatusOK))

		w = httptest.NewRecorder()
		req := withID(httptest.NewRequest(http.MethodPut, "/permissions/1", strings.NewReader(`{"name":"read_users"}`)), "1")
		handler.UpdatePermission(w, req)
		Expect(w.Code).To(Equal(http.StatusOK))

		var updated permission.Permission
		Expect(json.NewDecoder(w.Body).Decode(&updated)).To(Succeed())
		Expect(updated.Name).To(Equal("read_users"))
	})

	It("should answer 404 for unknown and malformed ids", func() {
		for _, id := range []string{"99", "abc", "-1"} {
			w := httptest.NewRecorder()
			handler.GetPermission(w, withID(httptest.NewRequest(http.MethodGet, "/permissions/"+id, nil), id))
			Expect(w.Code).To(Equal(http.StatusNotFound), id)
		}
	})
})
