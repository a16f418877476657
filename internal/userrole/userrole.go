package userrole

import (
	"errors"
	"time"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"github.com/frahmantamala/user-rbac/internal/role"
)

// UserRole holds the set of roles granted to one user.
type UserRole struct {
	ID        int64          `json:"id"`
	UserID    int64          `json:"user"`
	Roles     []role.Summary `json:"roles"`
	CreatedAt time.Time      `json:"-"`
	UpdatedAt time.Time      `json:"-"`
}

func (u *UserRole) RoleIDs() []int64 {
	ids := make([]int64, 0, len(u.Roles))
	for _, r := range u.Roles {
		ids = append(ids, r.ID)
	}
	return ids
}

// PermissionRow is one permission reachable through a user's roles.
type PermissionRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

func (p PermissionRow) ToPermission() *permission.Permission {
	return &permission.Permission{ID: p.ID, Name: p.Name}
}

var (
	ErrNotFound      = errors.New("user role not found")
	ErrAlreadyExists = errors.New("user role already exists")
)

func FromDataModel(u *rbacDatamodel.UserRole) *UserRole {
	return &UserRole{
		ID:        u.ID,
		UserID:    u.UserID,
		Roles:     role.Summaries(u.Roles),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
