package userrole

import (
	errors "github.com/frahmantamala/user-rbac/internal"
	"github.com/frahmantamala/user-rbac/internal/role"
)

type ReplaceRolesDTO struct {
	Roles *[]role.Ref `json:"roles"`
}

func (dto ReplaceRolesDTO) Validate() error {
	if dto.Roles == nil {
		return errors.NewValidationFieldError("roles", "roles is required", errors.ErrCodeValidationFailed)
	}
	return role.ValidateRefs("roles", *dto.Roles)
}
