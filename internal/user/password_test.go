package user

import (
	"context"
	"io"
	"log/slog"
	"time"

	appErrors "github.com/frahmantamala/user-rbac/internal"
	userDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/user"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"
)

type emptyRepository struct{}

func (emptyRepository) Create(context.Context, *userDatamodel.User) error { return nil }
func (emptyRepository) Update(context.Context, *userDatamodel.User) error { return nil }
func (emptyRepository) GetByID(context.Context, int64) (*userDatamodel.User, error) {
	return nil, ErrNotFound
}
func (emptyRepository) GetByEmail(context.Context, string) (*userDatamodel.User, error) {
	return nil, ErrNotFound
}
func (emptyRepository) GetByUsername(context.Context, string) (*userDatamodel.User, error) {
	return nil, ErrNotFound
}
func (emptyRepository) List(context.Context) ([]userDatamodel.User, error) { return nil, nil }
func (emptyRepository) TouchLastLogin(context.Context, int64, time.Time) error {
	return nil
}

var _ = Describe("PasswordHasher without a stored hash", func() {
	It("should compare against a throwaway hash at the configured cost", func() {
		h := NewPasswordHasher(bcrypt.MinCost + 1)
		Expect(h.VerifyAbsent("anything")).To(BeFalse())

		cost, err := bcrypt.Cost(h.dummy)
		Expect(err).NotTo(HaveOccurred())
		Expect(cost).To(Equal(bcrypt.MinCost + 1))
	})

	It("should run the throwaway compare for unusable hashes", func() {
		h := NewPasswordHasher(bcrypt.MinCost)
		Expect(h.Verify("!abc", "")).To(BeFalse())
		Expect(h.dummy).NotTo(BeEmpty())
	})

	It("should run the throwaway compare when the identifier is unknown", func() {
		h := NewPasswordHasher(bcrypt.MinCost)
		svc := NewService(emptyRepository{}, h, nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))

		_, err := svc.Authenticate(context.Background(), "nobody", "testpass123")
		Expect(err).To(Equal(appErrors.ErrInvalidCredentials))
		Expect(h.dummy).NotTo(BeEmpty())
	})
})
