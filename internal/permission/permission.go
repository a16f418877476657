package permission

import (
	"errors"
	"fmt"
	"strings"
	"time"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
)

type Permission struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// Ref identifies an existing permission inside a nested payload. Every
// non-zero field has to match the same row.
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
	ErrNotFound  = errors.New("permission not found")
	ErrDuplicate = errors.New("permission with this name already exists")
)

func ToDataModel(p *Permission) *rbacDatamodel.Permission {
	return &rbacDatamodel.Permission{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModel(p *rbacDatamodel.Permission) *Permission {
	return &Permission{
		ID:        p.ID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromDataModels(ps []rbacDatamodel.Permission) []*Permission {
	out := make([]*Permission, 0, len(ps))
	for i := range ps {
		out = append(out, FromDataModel(&ps[i]))
	}
	return out
}
