package role

import (
	"fmt"

	errors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/core/common/validation"
	"github.com/frahmantamala/user-rbac/internal/permission"
)

type CreateRoleDTO struct {
	Name        string           `json:"name"`
	Permissions []permission.Ref `json:"permissions"`
}

func (dto CreateRoleDTO) Validate() error {
	if appErr := validation.ValidateName("name", dto.Name); appErr != nil {
		return appErr
	}
	return permission.ValidateRefs("permissions", dto.Permissions)
}

// UpdateRoleDTO leaves the permission set alone when Permissions is nil. A
// non-nil pointer, even to an empty slice, replaces the whole set.
type UpdateRoleDTO struct {
	Name        *string           `json:"name"`
	Permissions *[]permission.Ref `json:"permissions"`
}

func (dto UpdateRoleDTO) Validate() error {
	if dto.Name != nil {
		if appErr := validation.ValidateName("name", *dto.Name); appErr != nil {
			return appErr
		}
	}
	if dto.Permissions != nil {
		return permission.ValidateRefs("permissions", *dto.Permissions)
	}
	return nil
}

type ReplacePermissionsDTO struct {
	Permissions *[]permission.Ref `json:"permissions"`
}

func (dto ReplacePermissionsDTO) Validate() error {
	if dto.Permissions == nil {
		return errors.NewValidationFieldError("permissions", "permissions is required", errors.ErrCodeValidationFailed)
	}
	return permission.ValidateRefs("permissions", *dto.Permissions)
}

// ValidateRefs checks that every nested role descriptor names at least one field.
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
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
