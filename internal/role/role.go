package role

import (
	"errors"
	"fmt"
	"strings"
	"time"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/permission"
)

type Role struct {
	ID          int64                    `json:"id"`
	Name        string                   `json:"name"`
	Permissions []*permission.Permission `json:"permissions"`
	CreatedAt   time.Time                `json:"-"`
	UpdatedAt   time.Time                `json:"-"`
}

// Summary is a role without its permission set.
type Summary struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func (r *Role) Summary() Summary {
	return Summary{ID: r.ID, Name: r.Name}
}

func (r *Role) PermissionIDs() []int64 {
	ids := make([]int64, 0, len(r.Permissions))
	for _, p := range r.Permissions {
		ids = append(ids, p.ID)
	}
	return ids
}

// Ref identifies an existing role inside a nested payload. Every non-zero
// field has to match the same row.
type Ref struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

func (r Ref) IsZero() bool {
	return r.ID == 0 && strings.TrimSpace(r.Name) == ""
}

func (r Ref) String() string {
	var parts []string
	if r.ID != 0 {
		parts = append(parts, fmt.Sprintf("id=%d", r.ID))
	}
	if r.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", r.Name))
	}
	return strings.Join(parts, " ")
}

var (
	ErrNotFound  = errors.New("role not found")
	ErrDuplicate = errors.New("role with this name already exists")
)

func FromDataModel(r *rbacDatamodel.Role) *Role {
	return &Role{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: permission.FromDataModels(r.Permissions),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func FromDataModels(rs []rbacDatamodel.Role) []*Role {
	out := make([]*Role, 0, len(rs))
	for i := range rs {
		out = append(out, FromDataModel(&rs[i]))
	}
	return out
}

func Summaries(rs []rbacDatamodel.Role) []Summary {
	out := make([]Summary, 0, len(rs))
	for _, r := range rs {
		out = append(out, Summary{ID: r.ID, Name: r.Name})
	}
	return out
}
