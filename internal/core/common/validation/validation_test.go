package validation_test

import (
	"strings"
	"testing"

	errors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/core/common/validation"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestValidation(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Validation Suite")
}

func fields(err *errors.AppError) []string {
	details, ok := err.Details.(errors.ValidationErrors)
	Expect(ok).To(BeTrue())
	out := make([]string, 0, len(details.Errors))
	for _, e := range details.Errors {
		out = append(out, e.Field)
	}
	return out
}

var _ = Describe("ValidationBuilder", func() {
	It("should pass valid input", func() {
		v := validation.NewValidator()
		v.Field("username", "alice").Required().MaxLength(10)
		v.Field("email", "alice@example.com").Required().Email()
		Expect(v.Validate()).To(BeNil())
	})

	It("should report one failure per field", func() {
		v := validation.NewValidator()
		v.Field("username", "").Required().MaxLength(3)
		v.Field("email", "nope").Email()

		err := v.Validate()
		Expect(err).NotTo(BeNil())
		Expect(err.StatusCode).To(Equal(400))
		Expect(fields(err)).To(Equal([]string{"username", "email"}))
	})

	It("should treat whitespace as content for NotEmpty only", func() {
		v := validation.NewValidator()
		v.Field("password", "   ").NotEmpty()
		Expect(v.Validate()).To(BeNil())

		v = validation.NewValidator()
		v.Field("username", "   ").Required()
		Expect(v.Validate()).NotTo(BeNil())
	})

	It("should skip nil string pointers for length checks", func() {
		var missing *string
		v := validation.NewValidator()
		v.Field("name", missing).MaxLength(3)
		Expect(v.Validate()).To(BeNil())
	})

	DescribeTable("Email",
		func(input string, valid bool) {
			v := validation.NewValidator()
			v.Field("email", input).Email()
			Expect(v.Validate() == nil).To(Equal(valid))
		},
		Entry("plain", "a@b.co", true),
		Entry("display name", "Alice <a@b.co>", false),
		Entry("missing at", "ab.co", false),
		Entry("empty is left to Required", "", true),
	)

	It("should bound names", func() {
		Expect(validation.ValidateName("name", "admin")).To(BeNil())
		Expect(validation.ValidateName("name", "")).NotTo(BeNil())
		Expect(validation.ValidateName("name", strings.Repeat("x", validation.MaxNameLength+1))).NotTo(BeNil())
	})
})
