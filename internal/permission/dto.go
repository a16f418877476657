package permission

import (
	"fmt"

	errors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/core/common/validation"
)

type CreatePermissionDTO struct {
	Name string `json:"name"`
}

func (dto CreatePermissionDTO) Validate() error {
	if appErr := validation.ValidateName("name", dto.Name); appErr != nil {
		return appErr
	}
	return nil
}

type UpdatePermissionDTO struct {
	Name string `json:"name"`
}

func (dto UpdatePermissionDTO) Validate() error {
	if appErr := validation.ValidateName("name", dto.Name); appErr != nil {
		return appErr
	}
	return nil
}

// ValidateRefs checks that every nested descriptor names at least one field.
func ValidateRefs(field string, refs []Ref) error {
	v := validation.NewValidator()
	for i, ref := range refs {
		name := fmt.Sprintf("%s[%d]", field, i)
		v.Field(name, ref).Custom(func(value interface{}) *errors.AppError {
			if value.(Ref).IsZero() {
				return errors.NewValidationFieldError(name, "id or name is required", errors.ErrCodeValidationFailed)
			}
			return nil
		})
		if ref.Name != "" {
			v.Field(name+".name", ref.Name).MaxLength(validation.MaxNameLength)
		}
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
