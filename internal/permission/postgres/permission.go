package postgres

import (
	"context"
	"errors"
	"fmt"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/permission"
	"gorm.io/gorm"
)

type PermissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) permission.RepositoryAPI {
	return &PermissionRepository{db: db}
}

func (r *PermissionRepository) List(ctx context.Context) ([]rbacDatamodel.Permission, error) {
	var perms []rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Order("id ASC").Find(&perms).Error
	return perms, err
}

func (r *PermissionRepository) GetByID(ctx context.Context, id int64) (*rbacDatamodel.Permission, error) {
	var perm rbacDatamodel.Permission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, permission.ErrNotFound
		}
		return nil, err
	}
	return &perm, nil
}

func (r *PermissionRepository) GetByRef(ctx context.Context, ref permission.Ref) (*rbacDatamodel.Permission, error) {
	return FindByRef(r.db.WithContext(ctx), ref)
}

func (r *PermissionRepository) Create(ctx context.Context, perm *rbacDatamodel.Permission) error {
	return translate(r.db.WithContext(ctx).Create(perm).Error)
}

func (r *PermissionRepository) Update(ctx context.Context, perm *rbacDatamodel.Permission) error {
	return translate(r.db.WithContext(ctx).Model(perm).Update("name", perm.Name).Error)
}

// FindByRef matches every non-zero field of ref. It takes the caller's handle
// so association writers can resolve inside their own transaction.
func FindByRef(db *gorm.DB, ref permission.Ref) (*rbacDatamodel.Permission, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("%w: empty descriptor", permission.ErrNotFound)
	}
	var perm rbacDatamodel.Permission
	err := db.Where(&rbacDatamodel.Permission{ID: ref.ID, Name: ref.Name}).First(&perm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", permission.ErrNotFound, ref)
		}
		return nil, err
	}
	return &perm, nil
}

// ResolveRefs maps descriptors to rows, dropping repeats. The first
// descriptor that matches nothing aborts the lookup.
func ResolveRefs(db *gorm.DB, refs []permission.Ref) ([]rbacDatamodel.Permission, error) {
	resolved := make([]rbacDatamodel.Permission, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		perm, err := FindByRef(db, ref)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[perm.ID]; dup {
			continue
		}
		seen[perm.ID] = struct{}{}
		resolved = append(resolved, *perm)
	}
	return resolved, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return permission.ErrDuplicate
	}
	return err
}
