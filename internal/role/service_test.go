package role_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
	rolePostgres "github.com/frahmantamala/user-rbac/internal/role/postgres"
	"github.com/frahmantamala/user-rbac/internal/testhelper"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"
)

func TestRole(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Role Suite")
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func names(r *role.Role) []string {
	out := make([]string, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		out = append(out, p.Name)
	}
	return out
}

var _ = Describe("Role Service", func() {
	var (
		db        *gorm.DB
		publisher *recordingPublisher
		service   *role.Service
		ctx       context.Context
	)

	BeforeEach(func() {
		var err error
		db, err = testhelper.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		for _, name := range []string{"read", "write"} {
			Expect(db.Create(&rbacDatamodel.Permission{Name: name}).Error).To(Succeed())
		}

		publisher = &recordingPublisher{}
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = role.NewService(rolePostgres.NewRoleRepository(db), publisher, logger)
		ctx = appErrors.ContextWithPrincipal(context.Background(), &appErrors.Principal{UserID: 7})
	})

	Describe("Create", func() {
		It("should return the new role with an id and its permissions", func() {
			created, err := service.Create(ctx, role.CreateRoleDTO{
				Name:        "editor",
				Permissions: []permission.Ref{{Name: "read"}},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(created.ID).To(BeNumerically(">", 0))
			Expect(names(created)).To(Equal([]string{"read"}))
		})

		It("should answer 400 when a nested permission does not exist", func() {
			_, err := service.Create(ctx, role.CreateRoleDTO{
				Name:        "editor",
				Permissions: []permission.Ref{{Name: "ghost"}},
			})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(appErrors.ErrorTypeNotFound))
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))

			_, err = service.GetBy(ctx, role.Ref{Name: "editor"})
			Expect(err).To(HaveOccurred())
		})

		It("should reject an empty nested descriptor", func() {
			_, err := service.Create(ctx, role.CreateRoleDTO{
				Name:        "editor",
				Permissions: []permission.Ref{{}},
			})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(appErrors.ErrorTypeValidation))
		})

		It("should reject a duplicate name", func() {
			_, err := service.Create(ctx, role.CreateRoleDTO{Name: "editor"})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Create(ctx, role.CreateRoleDTO{Name: "editor"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Update", func() {
		var existing *role.Role

		BeforeEach(func() {
			var err error
			existing, err = service.Create(ctx, role.CreateRoleDTO{
				Name:        "editor",
				Permissions: []permission.Ref{{Name: "read"}},
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should not publish when permissions are absent", func() {
			name := "writer"
			updated, err := service.Update(ctx, existing.ID, role.UpdateRoleDTO{Name: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Name).To(Equal("writer"))
			Expect(names(updated)).To(Equal([]string{"read"}))
			Expect(publisher.events).To(BeEmpty())
		})

		It("should publish the replaced set with the acting user", func() {
			refs := []permission.Ref{{Name: "write"}}
			_, err := service.Update(ctx, existing.ID, role.UpdateRoleDTO{Permissions: &refs})
			Expect(err).NotTo(HaveOccurred())

			Expect(publisher.events).To(HaveLen(1))
			evt, ok := publisher.events[0].(*events.RolePermissionsReplacedEvent)
			Expect(ok).To(BeTrue())
			Expect(evt.RoleID).To(Equal(existing.ID))
			Expect(evt.ActorID).To(Equal(int64(7)))
			Expect(evt.PermissionIDs).To(HaveLen(1))
		})

		It("should answer 404 for an unknown role", func() {
			name := "x"
			_, err := service.Update(ctx, 999, role.UpdateRoleDTO{Name: &name})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("ReplacePermissions", func() {
		It("should require the permissions field", func() {
			existing, err := service.Create(ctx, role.CreateRoleDTO{Name: "editor"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.ReplacePermissions(ctx, existing.ID, role.ReplacePermissionsDTO{})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(appErrors.ErrorTypeValidation))
		})

		It("should leave the set unchanged on a failed lookup", func() {
			existing, err := service.Create(ctx, role.CreateRoleDTO{
				Name:        "editor",
				Permissions: []permission.Ref{{Name: "read"}},
			})
			Expect(err).NotTo(HaveOccurred())

			refs := []permission.Ref{{Name: "write"}, {Name: "ghost"}}
			_, err = service.ReplacePermissions(ctx, existing.ID, role.ReplacePermissionsDTO{Permissions: &refs})
			Expect(err).To(HaveOccurred())

			reloaded, err := service.GetByID(ctx, existing.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(names(reloaded)).To(Equal([]string{"read"}))
			Expect(publisher.events).To(BeEmpty())
		})
	})
})
