package user

import (
	"github.com/frahmantamala/user-rbac/internal/core/common/validation"
)

// SignupDTO is the body of POST /signup.
type SignupDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto SignupDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("username", dto.Username).Required().MaxLength(validation.MaxNameLength)
	v.Field("email", dto.Email).Required().MaxLength(validation.MaxNameLength).Email()
	v.Field("password", dto.Password).NotEmpty().MinLength(validation.MinPasswordLength)
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// UpdateUserDTO lists the fields a user may change. Nil means unchanged.
type UpdateUserDTO struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

func (dto UpdateUserDTO) Validate() error {
	v := validation.NewValidator()
	if dto.Username != nil {
		v.Field("username", *dto.Username).Required().MaxLength(validation.MaxNameLength)
	}
	if dto.Email != nil {
		v.Field("email", *dto.Email).Required().MaxLength(validation.MaxNameLength).Email()
	}
	if dto.Password != nil {
		v.Field("password", *dto.Password).NotEmpty().MinLength(validation.MinPasswordLength)
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CreateUserParams feeds CreateUser. IsActive defaults to true when nil.
type CreateUserParams struct {
	Username    string
	Email       string
	Password    string
	IsActive    *bool
	IsStaff     bool
	IsSuperuser bool
}
