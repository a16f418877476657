package user_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	userDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/user"
	"github.com/frahmantamala/user-rbac/internal/core/events"
	"github.com/frahmantamala/user-rbac/internal/testhelper"
	"github.com/frahmantamala/user-rbac/internal/user"
	userPostgres "github.com/frahmantamala/user-rbac/internal/user/postgres"
	"github.com/frahmantamala/user-rbac/internal/userrole"
	userrolePostgres "github.com/frahmantamala/user-rbac/internal/userrole/postgres"
	"github.com/frahmantamala/user-rbac/pkg/database"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func TestUser(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Suite")
}

// brokenLinker fails after the user row has been written.
type brokenLinker struct{}

func (brokenLinker) CreateForUser(context.Context, int64) (*userrole.UserRole, error) {
	return nil, appErrors.NewInternalError("failed to create user role", errors.New("link table unavailable"))
}

var _ = DescribeTable("NormalizeEmail",
	func(in, want string) {
		Expect(user.NormalizeEmail(in)).To(Equal(want))
	},
	Entry("upper-case domain", "test1@EXAMPLE.com", "test1@example.com"),
	Entry("mixed-case domain", "Test2@Example.com", "Test2@example.com"),
	Entry("upper-case tld", "TEST3@EXAMPLE.COM", "TEST3@example.com"),
	Entry("already normal", "test4@example.com", "test4@example.com"),
	Entry("surrounding space", "  a@B.io ", "a@b.io"),
	Entry("no at sign", "plain", "plain"),
)

var _ = Describe("PasswordHasher", func() {
	hasher := user.NewPasswordHasher(bcrypt.MinCost)

	It("should verify the original password only", func() {
		hash, err := hasher.Hash("secret123")
		Expect(err).NotTo(HaveOccurred())
		Expect(hash).NotTo(ContainSubstring("secret123"))
		Expect(hasher.Verify(hash, "secret123")).To(BeTrue())
		Expect(hasher.Verify(hash, "secret124")).To(BeFalse())
	})

	It("should make empty passwords unusable", func() {
		hash, err := hasher.Hash("")
		Expect(err).NotTo(HaveOccurred())
		Expect(strings.HasPrefix(hash, "!")).To(BeTrue())
		Expect(hasher.Verify(hash, "")).To(BeFalse())
	})
})

var _ = Describe("User Service", func() {
	var (
		db       *gorm.DB
		service  *user.Service
		links    *userrole.Service
		ctx      context.Context
		isActive bool
	)

	BeforeEach(func() {
		var err error
		db, err = testhelper.NewSQLiteDB()
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		links = userrole.NewService(userrolePostgres.NewUserRoleRepository(db), nil, events.NopPublisher{}, logger)
		service = user.NewService(
			userPostgres.NewUserRepository(db),
			user.NewPasswordHasher(bcrypt.MinCost),
			links,
			database.NewTransactor(db),
			events.NopPublisher{},
			logger,
		)
		ctx = context.Background()
		isActive = false
	})

	Describe("CreateUser", func() {
		It("should store a normalized email and a hashed password", func() {
			u, err := service.CreateUser(ctx, user.CreateUserParams{Username: "alice", Email: "alice@EXAMPLE.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("alice@example.com"))
			Expect(u.IsActive).To(BeTrue())
			Expect(u.IsStaff).To(BeFalse())

			var row userDatamodel.User
			Expect(db.First(&row, u.ID).Error).To(Succeed())
			Expect(row.PasswordHash).NotTo(Equal("testpass123"))
			Expect(row.PasswordHash).NotTo(BeEmpty())
		})

		It("should not create the role set", func() {
			u, err := service.CreateUser(ctx, user.CreateUserParams{Username: "alice", Email: "alice@example.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())
			_, err = links.GetForUser(ctx, u.ID)
			Expect(err).To(HaveOccurred())
		})

		DescribeTable("should refuse missing identity fields without writing a row",
			func(username, email string) {
				_, err := service.CreateUser(ctx, user.CreateUserParams{Username: username, Email: email, Password: "x"})
				appErr, ok := appErrors.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))

				var count int64
				Expect(db.Model(&userDatamodel.User{}).Count(&count).Error).To(Succeed())
				Expect(count).To(BeZero())
			},
			Entry("empty email", "bob", ""),
			Entry("empty username", "", "bob@example.com"),
			Entry("both empty", "", ""),
		)

		It("should reject duplicate usernames and emails", func() {
			_, err := service.CreateUser(ctx, user.CreateUserParams{Username: "alice", Email: "alice@example.com", Password: "pw123"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.CreateUser(ctx, user.CreateUserParams{Username: "alice", Email: "other@example.com", Password: "pw123"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeAlreadyExists))

			_, err = service.CreateUser(ctx, user.CreateUserParams{Username: "other", Email: "alice@EXAMPLE.COM", Password: "pw123"})
			appErr, ok = appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(appErrors.ErrCodeAlreadyExists))
		})

		It("should honour an explicit inactive flag", func() {
			u, err := service.CreateUser(ctx, user.CreateUserParams{Username: "ghost", Email: "ghost@example.com", Password: "pw123", IsActive: &isActive})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsActive).To(BeFalse())
		})
	})

	Describe("CreateSuperuser", func() {
		It("should set staff and superuser and link a role set", func() {
			u, err := service.CreateSuperuser(ctx, "root", "root@example.com", "testpass123")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.IsStaff).To(BeTrue())
			Expect(u.IsSuperuser).To(BeTrue())

			_, err = links.GetForUser(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Signup", func() {
		It("should create the user and an empty role set", func() {
			u, err := service.Signup(ctx, user.SignupDTO{Username: "carol", Email: "carol@example.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())

			roles, err := links.ListRoles(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(roles).To(BeEmpty())
		})

		It("should leave no user behind when the role set cannot be linked", func() {
			broken := user.NewService(
				userPostgres.NewUserRepository(db),
				user.NewPasswordHasher(bcrypt.MinCost),
				brokenLinker{},
				database.NewTransactor(db),
				events.NopPublisher{},
				slog.New(slog.NewTextHandler(io.Discard, nil)),
			)

			_, err := broken.Signup(ctx, user.SignupDTO{Username: "carol", Email: "carol@example.com", Password: "testpass123"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusInternalServerError))

			var count int64
			Expect(db.Model(&userDatamodel.User{}).Count(&count).Error).To(Succeed())
			Expect(count).To(BeZero())

			u, err := service.Signup(ctx, user.SignupDTO{Username: "carol", Email: "carol@example.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())
			_, err = links.GetForUser(ctx, u.ID)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should enforce the minimum password length", func() {
			_, err := service.Signup(ctx, user.SignupDTO{Username: "carol", Email: "carol@example.com", Password: "pw"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.GetDetailedMessage()).To(ContainSubstring("password"))
		})

		It("should reject a malformed email", func() {
			_, err := service.Signup(ctx, user.SignupDTO{Username: "carol", Email: "not-an-email", Password: "testpass123"})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("Authenticate", func() {
		BeforeEach(func() {
			_, err := service.CreateUser(ctx, user.CreateUserParams{Username: "dave", Email: "dave@example.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should accept the email", func() {
			u, err := service.Authenticate(ctx, "dave@EXAMPLE.com", "testpass123")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("dave"))
			Expect(u.LastLogin).NotTo(BeNil())
		})

		It("should accept the username", func() {
			u, err := service.Authenticate(ctx, "dave", "testpass123")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("dave@example.com"))
		})

		It("should prefer an email match over a username match", func() {
			_, err := service.CreateUser(ctx, user.CreateUserParams{Username: "dave@example.com", Email: "impostor@example.com", Password: "otherpass"})
			Expect(err).NotTo(HaveOccurred())

			u, err := service.Authenticate(ctx, "dave@example.com", "testpass123")
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("dave"))
		})

		DescribeTable("should fail generically",
			func(identifier, password string) {
				_, err := service.Authenticate(ctx, identifier, password)
				Expect(err).To(Equal(appErrors.ErrInvalidCredentials))
			},
			Entry("wrong password", "dave", "wrong"),
			Entry("unknown user", "nobody", "testpass123"),
			Entry("empty identifier", "", "testpass123"),
		)

		It("should refuse inactive users", func() {
			_, err := service.CreateUser(ctx, user.CreateUserParams{Username: "erin", Email: "erin@example.com", Password: "testpass123", IsActive: &isActive})
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Authenticate(ctx, "erin", "testpass123")
			Expect(err).To(Equal(appErrors.ErrInvalidCredentials))
		})
	})

	Describe("UpdateUser", func() {
		var existing *user.User

		BeforeEach(func() {
			var err error
			existing, err = service.CreateUser(ctx, user.CreateUserParams{Username: "frank", Email: "frank@example.com", Password: "testpass123"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should keep the password when none is supplied", func() {
			name := "franky"
			u, err := service.UpdateUser(ctx, existing.ID, user.UpdateUserDTO{Username: &name})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Username).To(Equal("franky"))

			_, err = service.Authenticate(ctx, "franky", "testpass123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should re-hash a new password", func() {
			pw := "newpass123"
			_, err := service.UpdateUser(ctx, existing.ID, user.UpdateUserDTO{Password: &pw})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Authenticate(ctx, "frank", "testpass123")
			Expect(err).To(HaveOccurred())
			_, err = service.Authenticate(ctx, "frank", "newpass123")
			Expect(err).NotTo(HaveOccurred())
		})

		It("should normalize a changed email", func() {
			email := "frank@NEW.org"
			u, err := service.UpdateUser(ctx, existing.ID, user.UpdateUserDTO{Email: &email})
			Expect(err).NotTo(HaveOccurred())
			Expect(u.Email).To(Equal("frank@new.org"))
		})

		It("should answer 404 for an unknown user", func() {
			name := "x"
			_, err := service.UpdateUser(ctx, 999, user.UpdateUserDTO{Username: &name})
			appErr, ok := appErrors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
