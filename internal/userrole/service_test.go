package userrole_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/role"
	"github.com/frahmantamala/user-rbac/internal/testhelper"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	userrolePostgres "github.com/frahmantamala/user-rbac/internal/userrole/postgres"
	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestUserRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "UserRole Suite")
}

var _ = Describe("UserRole Service", func() {
	var (
		service *userrole.Service
		bus     *events.EventBus
		ctx     context.Context
		audited chan events.Event
	)

	BeforeEach(func() {
		db, err := testhelper.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		perm := rbacDatamodel.Permission{Name: "read"}
		Expect(db.Create(&perm).Error).To(Succeed())
		Expect(db.Create(&rbacDatamodel.Role{Name: "viewer", Permissions: []rbacDatamodel.Permission{perm}}).Error).To(Succeed())
		Expect(db.Create(&rbacDatamodel.Role{Name: "editor", Permissions: []rbacDatamodel.Permission{perm}}).Error).To(Succeed())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		bus = events.NewEventBus(logger)
		audited = make(chan events.Event, 4)
		bus.Subscribe(events.EventTypeUserRolesReplaced, func(ctx context.Context, e events.Event) error {
			audited <- e
			return nil
		})

		service = userrole.NewService(
			userrolePostgres.NewUserRoleRepository(db),
			userrolePostgres.NewPermissionQuery(sqlx.NewDb(sqlDB, "sqlite3")),
			bus,
			logger,
		)
		ctx = context.Background()

		_, err = service.CreateForUser(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should list no roles for a fresh link", func() {
		roles, err := service.ListRoles(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(roles).To(BeEmpty())
	})

	It("should answer 404 for a user without a link", func() {
		_, err := service.ListRoles(ctx, 2)
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))

		_, err = service.ListPermissions(ctx, 2)
		appErr, ok = appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
	})

	It("should reject a second link for the same user", func() {
		_, err := service.CreateForUser(ctx, 1)
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusConflict))
	})

	It("should replace roles, publish, and expose the flattened permissions", func() {
		refs := []role.Ref{{Name: "viewer"}, {Name: "editor"}}
		roles, err := service.ReplaceRoles(ctx, 1, userrole.ReplaceRolesDTO{Roles: &refs})
		Expect(err).NotTo(HaveOccurred())
		Expect(roles).To(Equal([]role.Summary{{ID: 1, Name: "viewer"}, {ID: 2, Name: "editor"}}))

		var evt events.Event
		Eventually(audited).Should(Receive(&evt))
		Expect(evt.(*events.UserRolesReplacedEvent).RoleIDs).To(Equal([]int64{1, 2}))

		perms, err := service.ListPermissions(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(perms).To(HaveLen(1))
		Expect(perms[0].Name).To(Equal("read"))
	})

	It("should answer 400 and keep the set when a role does not exist", func() {
		refs := []role.Ref{{Name: "viewer"}}
		_, err := service.ReplaceRoles(ctx, 1, userrole.ReplaceRolesDTO{Roles: &refs})
		Expect(err).NotTo(HaveOccurred())

		bad := []role.Ref{{Name: "editor"}, {Name: "ghost"}}
		_, err = service.ReplaceRoles(ctx, 1, userrole.ReplaceRolesDTO{Roles: &bad})
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		Expect(appErr.Code).To(Equal(appErrors.ErrCodeRoleNotFound))

		roles, err := service.ListRoles(ctx, 1)
		Expect(err).NotTo(HaveOccurred())
		Expect(roles).To(Equal([]role.Summary{{ID: 1, Name: "viewer"}}))
	})

	It("should require the roles field", func() {
		_, err := service.ReplaceRoles(ctx, 1, userrole.ReplaceRolesDTO{})
		appErr, ok := appErrors.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Type).To(Equal(appErrors.ErrorTypeValidation))
	})
})
