package postgres

import (
	"context"
	"errors"
	"fmt"

	rbacDatamodel "github.com/frahmantamala/user-rbac/internal/core/datamodel/rbac"
	"github.com/frahmantamala/user-rbac/internal/permission"
	permissionPostgres "github.com/frahmantamala/user-rbac/internal/permission/postgres"
	"github.com/frahmantamala/user-rbac/internal/role"
	"gorm.io/gorm"
)

type RoleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) role.RepositoryAPI {
	return &RoleRepository{db: db}
}

func orderedPermissions(db *gorm.DB) *gorm.DB {
	return db.Order("permissions.id ASC")
}

func (r *RoleRepository) List(ctx context.Context) ([]rbacDatamodel.Role, error) {
	var roles []rbacDatamodel.Role
	err := r.db.WithContext(ctx).
		Preload("Permissions", orderedPermissions).
		Order("id ASC").
		Find(&roles).Error
	return roles, err
}

func (r *RoleRepository) GetByID(ctx context.Context, id int64) (*rbacDatamodel.Role, error) {
	return loadRole(r.db.WithContext(ctx), id)
}

func (r *RoleRepository) GetByRef(ctx context.Context, ref role.Ref) (*rbacDatamodel.Role, error) {
	return FindByRef(r.db.WithContext(ctx), ref)
}

func (r *RoleRepository) Create(ctx context.Context, row *rbacDatamodel.Role, refs []permission.Ref) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		perms, err := permissionPostgres.ResolveRefs(tx, refs)
		if err != nil {
			return err
		}

		if err := tx.Omit("Permissions").Create(row).Error; err != nil {
			return translate(err)
		}

		if err := replacePermissions(tx, row, perms); err != nil {
			return err
		}

		loaded, err := loadRole(tx, row.ID)
		if err != nil {
			return err
		}
		*row = *loaded
		return nil
	})
}

// Update renames the role when name is set and rewrites its permission set
// when refs is non-nil, all in one transaction.
func (r *RoleRepository) Update(ctx context.Context, id int64, name *string, refs *[]permission.Ref) (*rbacDatamodel.Role, error) {
	var updated *rbacDatamodel.Role
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := loadRole(tx, id)
		if err != nil {
			return err
		}

		if name != nil && *name != row.Name {
			if err := tx.Model(row).Update("name", *name).Error; err != nil {
				return translate(err)
			}
		}

		if refs != nil {
			perms, err := permissionPostgres.ResolveRefs(tx, *refs)
			if err != nil {
				return err
			}
			if err := replacePermissions(tx, row, perms); err != nil {
				return err
			}
		}

		updated, err = loadRole(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func replacePermissions(tx *gorm.DB, row *rbacDatamodel.Role, perms []rbacDatamodel.Permission) error {
	if err := tx.Model(row).Association("Permissions").Clear(); err != nil {
		return fmt.Errorf("clear role permissions: %w", err)
	}
	if len(perms) == 0 {
		return nil
	}
	// Clear leaves its handle bound to the emptied field, Append needs a new one.
	if err := tx.Model(row).Association("Permissions").Append(perms); err != nil {
		return fmt.Errorf("attach role permissions: %w", err)
	}
	return nil
}

func loadRole(db *gorm.DB, id int64) (*rbacDatamodel.Role, error) {
	var row rbacDatamodel.Role
	err := db.Preload("Permissions", orderedPermissions).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, role.ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// FindByRef matches every non-zero field of ref against roles.
func FindByRef(db *gorm.DB, ref role.Ref) (*rbacDatamodel.Role, error) {
	if ref.IsZero() {
		return nil, fmt.Errorf("%w: empty descriptor", role.ErrNotFound)
	}
	var row rbacDatamodel.Role
	err := db.Where(&rbacDatamodel.Role{ID: ref.ID, Name: ref.Name}).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", role.ErrNotFound, ref)
		}
		return nil, err
	}
	return &row, nil
}

// ResolveRefs maps role descriptors to rows, dropping repeats.
func ResolveRefs(db *gorm.DB, refs []role.Ref) ([]rbacDatamodel.Role, error) {
	resolved := make([]rbacDatamodel.Role, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		row, err := FindByRef(db, ref)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[row.ID]; dup {
			continue
		}
		seen[row.ID] = struct{}{}
		resolved = append(resolved, *row)
	}
	return resolved, nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return role.ErrDuplicate
	}
	return err
}
